package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/orders"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/period"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
)

// Warning is a row whose item list could not be decoded.
type Warning struct {
	OrderID string `json:"order_id" yaml:"order_id"`
	Reason  string `json:"reason" yaml:"reason"`
}

// Report contains precomputed data for one period.
type Report struct {
	GeneratedAt time.Time             `json:"generated_at" yaml:"generated_at"`
	Period      model.Period          `json:"period" yaml:"period"`
	WindowStart time.Time             `json:"window_start" yaml:"window_start"`
	WindowEnd   *time.Time            `json:"window_end,omitempty" yaml:"window_end,omitempty"`
	Source      *SourceInfo           `json:"source,omitempty" yaml:"source,omitempty"`
	Summary     model.SummaryMetrics  `json:"summary" yaml:"summary"`
	Daily       []model.DailyPoint    `json:"daily" yaml:"daily"`
	Top         []model.ProductRank   `json:"top_products" yaml:"top_products"`
	Comparison  model.MonthComparison `json:"month_comparison" yaml:"month_comparison"`
	Monthly     []model.MonthlyPoint  `json:"monthly,omitempty" yaml:"monthly,omitempty"`
	Orders      []model.Order         `json:"orders" yaml:"orders"`
	Warnings    []Warning             `json:"warnings" yaml:"warnings"`

	// All holds every parsed order, including those outside the window.
	All []model.Order `json:"-" yaml:"-"`
}

// SourceInfo describes the snapshot a report was built from.
type SourceInfo struct {
	SnapshotID string    `json:"snapshot_id" yaml:"snapshot_id"`
	URL        string    `json:"url" yaml:"url"`
	FetchedAt  time.Time `json:"fetched_at" yaml:"fetched_at"`
	Rows       int       `json:"rows" yaml:"rows"`
}

// Build runs the full pipeline over raw records for period p at now.
func Build(raws []model.RawRecord, now time.Time, p model.Period, logger *zap.Logger) Report {
	all, decodeErrs := orders.ParseAll(raws, now.Location(), logger)
	r := FromOrders(all, now, p)
	r.Warnings = make([]Warning, 0, len(decodeErrs))
	for _, derr := range decodeErrs {
		r.Warnings = append(r.Warnings, Warning{OrderID: derr.OrderID, Reason: derr.Reason})
	}
	return r
}

// FromOrders aggregates already parsed orders for period p at now.
func FromOrders(all []model.Order, now time.Time, p model.Period) Report {
	loc := now.Location()
	w := period.Bounds(now, p)
	filtered := period.Filter(all, now, p)

	r := Report{
		GeneratedAt: now,
		Period:      p,
		WindowStart: w.Start,
		Summary:     Summary(filtered),
		Daily:       Daily(filtered, loc),
		Top:         TopProducts(filtered, TopN),
		Comparison:  CompareMonths(all, now),
		Orders:      newestFirst(filtered),
		Warnings:    []Warning{},
		All:         all,
	}
	if !w.End.IsZero() {
		end := w.End
		r.WindowEnd = &end
	}
	if p.MultiMonth() {
		r.Monthly = Monthly(filtered, loc)
	}
	return r
}

// BuildFromStore builds a report from the latest stored snapshot.
func BuildFromStore(ctx context.Context, st *store.Store, now time.Time, p model.Period, logger *zap.Logger) (Report, error) {
	snap, raws, err := st.LatestSnapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	r := Build(raws, now, p, logger)
	r.Source = &SourceInfo{
		SnapshotID: snap.ID,
		URL:        snap.Source,
		FetchedAt:  snap.FetchedAt,
		Rows:       snap.RowCount,
	}
	return r, nil
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteYAML encodes the report as YAML.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

func newestFirst(in []model.Order) []model.Order {
	out := make([]model.Order, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
