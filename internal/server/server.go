// Package server exposes reports over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/export"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/syncer"
)

const (
	defaultOrderLimit = 50
	shutdownTimeout   = 10 * time.Second
)

// Runner performs one sync.
type Runner interface {
	Run(ctx context.Context) (syncer.Result, error)
}

// Config configures the API.
type Config struct {
	DefaultPeriod model.Period
	CORSOrigins   []string
	// Now supplies the report clock; its location decides calendar days.
	Now func() time.Time
}

// Server serves the report API.
type Server struct {
	store  *store.Store
	sync   Runner
	logger *zap.Logger
	cfg    Config
}

// New builds a Server.
func New(st *store.Store, sync Runner, logger *zap.Logger, cfg Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if !cfg.DefaultPeriod.Valid() {
		cfg.DefaultPeriod = model.PeriodThisMonth
	}
	return &Server{store: st, sync: sync, logger: logger, cfg: cfg}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID())
	r.Use(requestLogger(s.logger))

	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/orders", s.handleOrders)
		r.Get("/export.pdf", s.handleExport)
		r.Get("/settings", s.handleSettings)
		r.Get("/snapshots", s.handleSnapshots)
		r.Post("/sync", s.handleSync)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) (stats.Report, bool) {
	p := s.cfg.DefaultPeriod
	if raw := strings.TrimSpace(r.URL.Query().Get("period")); raw != "" {
		parsed, err := model.ParsePeriod(raw)
		if err != nil {
			failure(w, http.StatusBadRequest, "invalid_period", err.Error())
			return stats.Report{}, false
		}
		p = parsed
	}
	rep, err := stats.BuildFromStore(r.Context(), s.store, s.cfg.Now(), p, s.logger)
	if errors.Is(err, store.ErrNoSnapshot) {
		failure(w, http.StatusNotFound, "no_data", "no data synced yet; POST /api/sync first")
		return stats.Report{}, false
	}
	if err != nil {
		s.logger.Error("failed to build report", zap.Error(err))
		failure(w, http.StatusInternalServerError, "internal", "failed to build report")
		return stats.Report{}, false
	}
	return rep, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	success(w, rep)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			failure(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	list := rep.Orders
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	success(w, map[string]any{
		"period": rep.Period,
		"total":  len(rep.Orders),
		"orders": list,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	body, err := export.RenderPDF(rep)
	if err != nil {
		s.logger.Error("failed to render pdf", zap.Error(err))
		failure(w, http.StatusInternalServerError, "internal", "failed to render pdf")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="salesdash-`+string(rep.Period)+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.logger.Error("failed to load settings", zap.Error(err))
		failure(w, http.StatusInternalServerError, "internal", "failed to load settings")
		return
	}
	success(w, map[string]any{
		"source_url": settings.SourceURL,
		"auto_sync":  settings.AutoSync,
		"locked":     settings.Locked,
	})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context(), 20)
	if err != nil {
		s.logger.Error("failed to list snapshots", zap.Error(err))
		failure(w, http.StatusInternalServerError, "internal", "failed to list snapshots")
		return
	}
	out := make([]map[string]any, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotJSON(snap))
	}
	success(w, out)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		failure(w, http.StatusServiceUnavailable, "sync_disabled", "sync is not configured")
		return
	}
	res, err := s.sync.Run(r.Context())
	if errors.Is(err, syncer.ErrNoSource) {
		failure(w, http.StatusConflict, "no_source", err.Error())
		return
	}
	if err != nil {
		s.logger.Error("sync failed", zap.Error(err))
		failure(w, http.StatusBadGateway, "sync_failed", err.Error())
		return
	}
	payload := snapshotJSON(res.Snapshot)
	payload["sample"] = res.Sample
	success(w, payload)
}

func snapshotJSON(snap model.Snapshot) map[string]any {
	return map[string]any{
		"id":            snap.ID,
		"fetched_at":    snap.FetchedAt,
		"source":        snap.Source,
		"row_count":     snap.RowCount,
		"warning_count": snap.WarningCount,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("request_id", r.Header.Get("X-Request-Id")),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func requestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
			if id == "" {
				id = uuid.NewString()
			}
			r.Header.Set("X-Request-Id", id)
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}
