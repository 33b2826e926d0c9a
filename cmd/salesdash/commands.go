package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/config"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/export"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/sample"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/server"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/stats"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
)

const (
	defaultAddr       = "127.0.0.1:8080"
	defaultDemoRows   = 200
	defaultOrderLimit = 10
	snapshotListLimit = 5
)

var (
	reportFormat string
	reportASCII  bool
	reportLimit  int
	reportSync   bool

	exportOut    string
	exportUpload bool
	exportSync   bool

	serveAddr         string
	serveSyncInterval time.Duration

	demoRows int
	demoOut  string
	demoSeed int64
	demoSave bool
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the sales report for a period",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportFormat, "format", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&reportASCII, "ascii", false, "use MMK instead of the Burmese currency suffix")
	cmd.Flags().IntVar(&reportLimit, "limit", defaultOrderLimit, "recent orders to list in text output")
	cmd.Flags().BoolVar(&reportSync, "sync", false, "sync before building the report")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(strings.TrimSpace(reportFormat))
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("--format must be text, json or yaml")
	}
	if reportLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	a, err := openApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.close()

	r, err := a.loadReport(cmd.Context(), reportSync)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return stats.WriteJSON(out, r)
	case "yaml":
		return stats.WriteYAML(out, r)
	}
	return stats.RenderReport(out, r, stats.RenderOptions{ASCII: reportASCII, OrderLimit: reportLimit})
}

// loadReport builds a report from the latest snapshot, syncing first when
// forced or when nothing has been stored yet.
func (a *app) loadReport(ctx context.Context, forceSync bool) (stats.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if forceSync {
		if err := a.runSync(ctx, io.Discard); err != nil {
			return stats.Report{}, err
		}
	}
	r, err := stats.BuildFromStore(ctx, a.store, a.now(), a.period, a.logger)
	if errors.Is(err, store.ErrNoSnapshot) && !forceSync {
		a.logger.Info("no stored snapshot, syncing")
		if err := a.runSync(ctx, io.Discard); err != nil {
			return stats.Report{}, err
		}
		r, err = stats.BuildFromStore(ctx, a.store, a.now(), a.period, a.logger)
	}
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to build report: %w", err)
	}
	return r, nil
}

func (a *app) runSync(ctx context.Context, w io.Writer) error {
	res, err := a.syncer.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	snap := res.Snapshot
	line := fmt.Sprintf("Synced %s rows from %s (snapshot %s, %d warnings)",
		humanize.Comma(int64(snap.RowCount)), snap.Source, snap.ID, snap.WarningCount)
	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if res.FetchErr != nil {
		logErrf("fetch failed, stored sample data instead: %v\n", res.FetchErr)
	} else if res.Sample {
		logErrln("No source configured; stored sample data. Set one with: salesdash source set <url>")
	}
	return nil
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the source and store a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, "")
			if err != nil {
				return err
			}
			defer a.close()
			return a.runSync(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Show or change the data source",
		Args:  cobra.NoArgs,
		RunE:  runSourceShow,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show source settings and recent snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSourceShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Set the Google Sheets link or CSV path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, a *app) error {
				url := strings.TrimSpace(args[0])
				if url == "" {
					return fmt.Errorf("source url must not be empty")
				}
				if err := a.store.SetSourceURL(ctx, url); err != nil {
					if errors.Is(err, store.ErrLocked) {
						return fmt.Errorf("source is locked; run: salesdash source unlock")
					}
					return fmt.Errorf("failed to save source: %w", err)
				}
				return writeLine(cmd.OutOrStdout(), "Source set to "+url)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "lock",
		Short: "Lock the source URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return setLocked(cmd, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unlock",
		Short: "Allow changing the source URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return setLocked(cmd, false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "autosync on|off",
		Short:     "Toggle periodic syncing in the dashboard",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[0]) {
			case "on", "true", "1":
				enabled = true
			case "off", "false", "0":
			default:
				return fmt.Errorf("autosync expects on or off, got %q", args[0])
			}
			return withStore(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.SetAutoSync(ctx, enabled); err != nil {
					return fmt.Errorf("failed to save auto-sync: %w", err)
				}
				return writeLine(cmd.OutOrStdout(), "Auto-sync "+onOff(enabled))
			})
		},
	})
	return cmd
}

func runSourceShow(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, a *app) error {
		settings, err := a.store.Settings(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		snaps, err := a.store.ListSnapshots(ctx, snapshotListLimit)
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
		url := settings.SourceURL
		if url == "" {
			url = "(not set)"
		}
		lines := []string{
			"Source:    " + url,
			"Locked:    " + yesNo(settings.Locked),
			"Auto-sync: " + onOff(settings.AutoSync),
		}
		if active, _ := a.syncer.Source(ctx); active != "" && active != settings.SourceURL {
			lines = append(lines, "Override:  "+active)
		}
		if len(snaps) == 0 {
			lines = append(lines, "Snapshots: none")
		} else {
			lines = append(lines, "Snapshots:")
			for _, snap := range snaps {
				lines = append(lines, fmt.Sprintf("  %s  %s  %s rows  %d warnings  %s",
					snap.FetchedAt.In(a.loc).Format("2006-01-02 15:04"),
					humanize.Time(snap.FetchedAt),
					humanize.Comma(int64(snap.RowCount)),
					snap.WarningCount,
					snap.Source,
				))
			}
		}
		for _, line := range lines {
			if err := writeLine(cmd.OutOrStdout(), line); err != nil {
				return err
			}
		}
		return nil
	})
}

func setLocked(cmd *cobra.Command, locked bool) error {
	return withStore(cmd, func(ctx context.Context, a *app) error {
		if err := a.store.SetLocked(ctx, locked); err != nil {
			return fmt.Errorf("failed to save lock: %w", err)
		}
		if locked {
			return writeLine(cmd.OutOrStdout(), "Source locked")
		}
		return writeLine(cmd.OutOrStdout(), "Source unlocked")
	})
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the report as PDF and optionally upload it",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "PDF output path, - for stdout (default: salesdash-<period>-<date>.pdf)")
	cmd.Flags().BoolVar(&exportUpload, "upload", false, "upload to the bucket from the [export] config")
	cmd.Flags().BoolVar(&exportSync, "sync", false, "sync before exporting")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	r, err := a.loadReport(ctx, exportSync)
	if err != nil {
		return err
	}
	if exportOut == "-" {
		return export.WritePDF(cmd.OutOrStdout(), r)
	}
	if exportUpload && !cmd.Flags().Changed("out") {
		return a.uploadReport(ctx, cmd.OutOrStdout(), r)
	}

	path := exportOut
	if path == "" {
		path = fmt.Sprintf("salesdash-%s-%s.pdf", r.Period, r.GeneratedAt.Format("20060102"))
	}
	body, err := export.RenderPDF(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := writeLine(cmd.OutOrStdout(), "Wrote "+path+" ("+humanize.Bytes(uint64(len(body)))+")"); err != nil {
		return err
	}
	if !exportUpload {
		return nil
	}
	return a.uploadReport(ctx, cmd.OutOrStdout(), r)
}

func (a *app) uploadReport(ctx context.Context, w io.Writer, r stats.Report) error {
	uploader, err := export.NewUploader(ctx, a.exportConfig())
	if err != nil {
		return err
	}
	url, err := uploader.UploadReport(ctx, r)
	if err != nil {
		return err
	}
	a.logger.Info("report uploaded", zap.String("url", url))
	return writeLine(w, "Uploaded "+url)
}

func (a *app) exportConfig() export.Config {
	cfg := export.Config{
		AccessKeyID:     a.env.S3AccessKeyID,
		SecretAccessKey: a.env.S3SecretAccessKey,
	}
	e := a.fileCfg.Export
	if e.Endpoint != nil {
		cfg.Endpoint = *e.Endpoint
	}
	if e.Region != nil {
		cfg.Region = *e.Region
	}
	if e.Bucket != nil {
		cfg.Bucket = *e.Bucket
	}
	if e.PublicBaseURL != nil {
		cfg.PublicBaseURL = *e.PublicBaseURL
	}
	if e.StorageClass != nil {
		cfg.StorageClass = *e.StorageClass
	}
	return cfg
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report as a JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().DurationVar(&serveSyncInterval, "sync-interval", defaultSyncInterval, "background sync interval when auto-sync is on")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.close()
	applyStringConfig(cmd, "addr", &serveAddr, a.fileCfg.Server.Addr)

	interval := serveSyncInterval
	if !cmd.Flags().Changed("sync-interval") {
		interval, err = durationConfig(a.fileCfg.Source.SyncInterval, defaultSyncInterval)
		if err != nil {
			return fmt.Errorf("invalid source.sync-interval: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := a.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.AutoSync && interval > 0 {
		a.logger.Info("background sync enabled", zap.Duration("interval", interval))
		go a.syncer.Loop(ctx, interval, nil)
	}

	srv := server.New(a.store, a.syncer, a.logger, server.Config{
		DefaultPeriod: a.period,
		CORSOrigins:   append(a.fileCfg.Server.CORSOrigins, a.env.CORSOrigins...),
		Now:           a.now,
	})
	if err := srv.ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate random demo orders as CSV",
		Args:  cobra.NoArgs,
		RunE:  runDemoCmd,
	}
	cmd.Flags().IntVar(&demoRows, "rows", defaultDemoRows, "number of orders")
	cmd.Flags().StringVar(&demoOut, "out", "-", "CSV output path, - for stdout")
	cmd.Flags().Int64Var(&demoSeed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().BoolVar(&demoSave, "save", false, "also store the rows as the latest snapshot")
	return cmd
}

func runDemoCmd(cmd *cobra.Command, _ []string) error {
	if demoRows <= 0 {
		return fmt.Errorf("--rows must be > 0")
	}
	a, err := openApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.close()

	gen := sample.New()
	if cmd.Flags().Changed("seed") {
		gen = sample.NewSeeded(demoSeed)
	}
	now := a.now()
	rows := gen.Generate(demoRows, now)

	if err := writeDemoCSV(cmd.OutOrStdout(), demoOut, rows); err != nil {
		return err
	}
	if !demoSave {
		return nil
	}
	snap := model.Snapshot{
		ID:        store.NewSnapshotID(),
		FetchedAt: now,
		Source:    "demo",
		RowCount:  len(rows),
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.store.SaveSnapshot(ctx, snap, rows); err != nil {
		return fmt.Errorf("failed to save demo snapshot: %w", err)
	}
	logErrf("Stored %d demo orders as snapshot %s\n", len(rows), snap.ID)
	return nil
}

func writeDemoCSV(stdout io.Writer, path string, rows []model.RawRecord) error {
	if path == "" || path == "-" {
		return sample.WriteCSV(stdout, rows)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "demo-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp csv: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := sample.WriteCSV(writer, rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	logErrf("Wrote %d rows to %s\n", len(rows), path)
	return nil
}

func writeLine(w io.Writer, line string) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# salesdash configuration
# Uncomment a value to enable it. CLI flags override config values.
# Secrets go in .env next to this file:
#   SALESDASH_SOURCE_URL, SALESDASH_S3_ACCESS_KEY_ID, SALESDASH_S3_SECRET_ACCESS_KEY, SALESDASH_CORS_ORIGINS

[dashboard]
# period = %q       # today, yesterday, last_week, this_month, last_month, last_3_months, last_6_months
# timezone = "Asia/Yangon"  # Calendar days are computed in this zone (default: local)
# locale = %q             # en or my

[source]
# sync-interval = %q      # Dashboard auto-sync interval
# sample-fallback = %t    # Use built-in sample data when the fetch fails
# timeout = %q            # HTTP timeout per fetch
# keep-snapshots = %d     # Stored syncs to keep (0 keeps all)

[log]
# level = %q
# file = ""               # Default: stderr for commands, state dir for the dashboard

[server]
# addr = %q
# cors-origins = ["http://localhost:5173"]

[export]
# endpoint = ""           # S3 compatible endpoint, empty for AWS
# region = "auto"
# bucket = ""
# public-base-url = ""
# storage-class = "STANDARD"
`,
		defaultPeriod,
		defaultLocale,
		defaultSyncInterval.String(),
		defaultSampleFallback,
		defaultFetchTimeout.String(),
		defaultKeepSnapshots,
		defaultLogLevel,
		defaultAddr,
	)
}
