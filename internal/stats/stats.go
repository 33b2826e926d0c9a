// Package stats contains sales aggregations and reporting.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/period"
)

// TopN is the length of the product ranking.
const TopN = 5

const sparkChars = " .:-=+*#%@"

var hundred = decimal.NewFromInt(100)

// Summary computes headline totals. The average is zero for an empty set.
func Summary(orders []model.Order) model.SummaryMetrics {
	s := model.SummaryMetrics{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		s.TotalItems += o.TotalQuantity
	}
	s.OrderCount = len(orders)
	if s.OrderCount > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.OrderCount)))
	}
	return s
}

// Daily groups orders by calendar day in loc and returns them oldest first.
// Orders without a timestamp are skipped.
func Daily(orders []model.Order, loc *time.Location) []model.DailyPoint {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[time.Time]*model.DailyPoint{}
	for _, o := range orders {
		if !o.HasTime() {
			continue
		}
		day := period.StartOfDay(o.CreatedAt.In(loc))
		p, ok := byDay[day]
		if !ok {
			p = &model.DailyPoint{Day: day, Revenue: decimal.Zero}
			byDay[day] = p
		}
		p.Revenue = p.Revenue.Add(o.TotalAmount)
		p.OrderCount++
	}
	out := make([]model.DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Day.Before(out[j].Day)
	})
	return out
}

// Monthly groups orders by calendar month in loc, oldest first.
func Monthly(orders []model.Order, loc *time.Location) []model.MonthlyPoint {
	if loc == nil {
		loc = time.Local
	}
	byMonth := map[time.Time]*model.MonthlyPoint{}
	for _, o := range orders {
		if !o.HasTime() {
			continue
		}
		month := period.StartOfMonth(o.CreatedAt.In(loc))
		p, ok := byMonth[month]
		if !ok {
			p = &model.MonthlyPoint{Month: month, Label: MonthLabel(month), Revenue: decimal.Zero}
			byMonth[month] = p
		}
		p.Revenue = p.Revenue.Add(o.TotalAmount)
		p.OrderCount++
	}
	out := make([]model.MonthlyPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// CompareMonths compares the current calendar month up to now with the whole
// previous calendar month. It expects the unfiltered order set.
func CompareMonths(orders []model.Order, now time.Time) model.MonthComparison {
	curStart := period.StartOfMonth(now)
	prevStart := curStart.AddDate(0, -1, 0)
	c := model.MonthComparison{
		Current:  model.MonthTotals{Label: MonthLabel(curStart), Revenue: decimal.Zero},
		Previous: model.MonthTotals{Label: MonthLabel(prevStart), Revenue: decimal.Zero},
	}
	for _, o := range orders {
		if !o.HasTime() {
			continue
		}
		t := o.CreatedAt
		switch {
		case !t.Before(curStart) && !t.After(now):
			c.Current.Revenue = c.Current.Revenue.Add(o.TotalAmount)
			c.Current.OrderCount++
		case !t.Before(prevStart) && t.Before(curStart):
			c.Previous.Revenue = c.Previous.Revenue.Add(o.TotalAmount)
			c.Previous.OrderCount++
		}
	}
	c.RevenueDeltaPct = DeltaPct(c.Current.Revenue, c.Previous.Revenue)
	c.OrderDeltaPct = DeltaPct(decimal.NewFromInt(int64(c.Current.OrderCount)), decimal.NewFromInt(int64(c.Previous.OrderCount)))
	return c
}

// DeltaPct returns (current-previous)/previous*100, or 0 when previous is 0.
func DeltaPct(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

// MonthLabel formats a month for display.
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - minVal) / (maxVal - minVal) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
