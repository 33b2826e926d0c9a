// Package syncer pulls the configured source into the local store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/ingest"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/orders"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/sample"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
)

// ErrNoSource is returned when no source URL is configured.
var ErrNoSource = errors.New("no source url configured")

// Fetcher loads header-keyed rows from a source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]map[string]string, error)
}

// Options configure a Syncer.
type Options struct {
	// SourceOverride takes precedence over the stored source URL.
	SourceOverride string
	// SampleFallback stores the built-in sample rows when there is no source
	// or the fetch fails.
	SampleFallback bool
	// KeepSnapshots bounds stored history; zero keeps everything.
	KeepSnapshots int
	Now           func() time.Time
}

// Result summarizes one sync.
type Result struct {
	Snapshot model.Snapshot
	Sample   bool
	// FetchErr is set when the sample fallback replaced a failed fetch.
	FetchErr error
}

// Syncer runs fetch, normalize, parse and save.
type Syncer struct {
	store   *store.Store
	fetcher Fetcher
	logger  *zap.Logger
	opts    Options
}

// New builds a Syncer.
func New(st *store.Store, fetcher Fetcher, logger *zap.Logger, opts Options) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{store: st, fetcher: fetcher, logger: logger, opts: opts}
}

// Source returns the URL a sync would use.
func (s *Syncer) Source(ctx context.Context) (string, error) {
	if s.opts.SourceOverride != "" {
		return s.opts.SourceOverride, nil
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	return settings.SourceURL, nil
}

// Run performs one sync. The first successful fetch of a configured source
// locks the source configuration.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	source, err := s.Source(ctx)
	if err != nil {
		return Result{}, err
	}

	var raws []model.RawRecord
	var res Result
	if source == "" {
		if !s.opts.SampleFallback {
			return Result{}, ErrNoSource
		}
		raws = sample.Rows()
		res.Sample = true
		source = sample.Source
	} else {
		rows, ferr := s.fetcher.Fetch(ctx, source)
		switch {
		case ferr == nil:
			raws = ingest.NormalizeAll(rows)
		case s.opts.SampleFallback && ctx.Err() == nil:
			s.logger.Warn("fetch failed, using sample data", zap.String("source", source), zap.Error(ferr))
			raws = sample.Rows()
			res.Sample = true
			res.FetchErr = ferr
			source = sample.Source
		default:
			return Result{}, fmt.Errorf("failed to fetch %s: %w", source, ferr)
		}
	}

	now := s.opts.Now()
	_, decodeErrs := orders.ParseAll(raws, now.Location(), s.logger)
	snap := model.Snapshot{
		ID:           store.NewSnapshotID(),
		FetchedAt:    now,
		Source:       source,
		RowCount:     len(raws),
		WarningCount: len(decodeErrs),
	}
	if err := s.store.SaveSnapshot(ctx, snap, raws); err != nil {
		return Result{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	res.Snapshot = snap

	if !res.Sample && s.opts.SourceOverride == "" {
		if err := s.lock(ctx); err != nil {
			return res, err
		}
	}
	if s.opts.KeepSnapshots > 0 {
		removed, err := s.store.PruneSnapshots(ctx, s.opts.KeepSnapshots)
		if err != nil {
			return res, fmt.Errorf("failed to prune snapshots: %w", err)
		}
		if removed > 0 {
			s.logger.Debug("pruned snapshots", zap.Int("removed", removed))
		}
	}

	s.logger.Info("sync finished",
		zap.String("snapshot", snap.ID),
		zap.String("source", snap.Source),
		zap.Int("rows", snap.RowCount),
		zap.Int("warnings", snap.WarningCount),
	)
	return res, nil
}

func (s *Syncer) lock(ctx context.Context) error {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Locked {
		return nil
	}
	if err := s.store.SetLocked(ctx, true); err != nil {
		return fmt.Errorf("failed to lock source: %w", err)
	}
	return nil
}

// Loop runs Run every interval until ctx is done. Each result is passed to
// onResult when it is not nil.
func (s *Syncer) Loop(ctx context.Context, interval time.Duration, onResult func(Result, error)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.Run(ctx)
			if err != nil && ctx.Err() == nil {
				s.logger.Error("auto sync failed", zap.Error(err))
			}
			if onResult != nil {
				onResult(res, err)
			}
		}
	}
}
