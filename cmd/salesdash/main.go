// Package main provides the CLI entrypoint for salesdash.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/config"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/dashboard"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/fetch"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/logging"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/store"
	"github.com/htxxx101/burmese-sale-report-dashboard/internal/syncer"
)

const (
	defaultPeriod         = string(model.PeriodThisMonth)
	defaultLocale         = "en"
	defaultLogLevel       = "info"
	defaultSyncInterval   = 30 * time.Minute
	defaultFetchTimeout   = 60 * time.Second
	defaultKeepSnapshots  = 20
	defaultSampleFallback = true
)

var (
	globalPeriod   string
	globalTimezone string
	globalLocale   string
	globalSource   string
	globalDB       string
	globalLogLevel string
	globalKeep     int
	globalSample   bool

	dashSyncInterval time.Duration
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "salesdash",
		Short:         "Sales report dashboard for order sheets",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalPeriod, "period", defaultPeriod, "reporting window ("+periodNames()+")")
	flags.StringVar(&globalTimezone, "timezone", "", "IANA timezone for calendar days (default: local)")
	flags.StringVar(&globalLocale, "locale", defaultLocale, "label language: en or my")
	flags.StringVar(&globalSource, "source", "", "sheet URL or CSV path for this run only")
	flags.StringVar(&globalDB, "db", "", "SQLite database path")
	flags.StringVar(&globalLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.IntVar(&globalKeep, "keep-snapshots", defaultKeepSnapshots, "snapshots to keep after a sync (0 keeps all)")
	flags.BoolVar(&globalSample, "sample-fallback", defaultSampleFallback, "use built-in sample data when no source is set or a fetch fails")
	rootCmd.Flags().DurationVar(&dashSyncInterval, "sync-interval", defaultSyncInterval, "auto-sync interval")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newSourceCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDemoCmd())

	return rootCmd
}

// app bundles what every command needs after flags and config are resolved.
type app struct {
	fileCfg config.FileConfig
	env     config.Env
	logger  *zap.Logger
	store   *store.Store
	syncer  *syncer.Syncer
	loc     *time.Location
	period  model.Period
}

// openApp resolves configuration, opens the store and builds the syncer.
// logFile empty means stderr unless the config names a file.
func openApp(cmd *cobra.Command, logFile string) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv(config.DefaultEnvPath(), ".env")
	if err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	applyStringConfig(cmd, "period", &globalPeriod, fileCfg.Dashboard.Period)
	applyStringConfig(cmd, "timezone", &globalTimezone, fileCfg.Dashboard.Timezone)
	applyStringConfig(cmd, "locale", &globalLocale, fileCfg.Dashboard.Locale)
	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	applyIntConfig(cmd, "keep-snapshots", &globalKeep, fileCfg.Source.KeepSnapshots)
	applyBoolConfig(cmd, "sample-fallback", &globalSample, fileCfg.Source.SampleFallback)
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		logFile = *fileCfg.Log.File
	}

	p, err := model.ParsePeriod(globalPeriod)
	if err != nil {
		return nil, fmt.Errorf("invalid --period: %w", err)
	}
	loc, err := loadLocation(globalTimezone)
	if err != nil {
		return nil, err
	}
	timeout, err := durationConfig(fileCfg.Source.Timeout, defaultFetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid source.timeout: %w", err)
	}
	if globalKeep < 0 {
		return nil, fmt.Errorf("--keep-snapshots must be >= 0")
	}

	logger, err := logging.New(globalLogLevel, logFile)
	if err != nil {
		return nil, err
	}

	dbPath := globalDB
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	override := globalSource
	if override == "" {
		override = env.SourceURL
	}
	fetcher := fetch.New(fetch.Options{Timeout: timeout, Logger: logger})
	sy := syncer.New(st, fetcher, logger, syncer.Options{
		SourceOverride: override,
		SampleFallback: globalSample,
		KeepSnapshots:  globalKeep,
		Now:            func() time.Time { return time.Now().In(loc) },
	})

	return &app{
		fileCfg: fileCfg,
		env:     env,
		logger:  logger,
		store:   st,
		syncer:  sy,
		loc:     loc,
		period:  p,
	}, nil
}

func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

func (a *app) close() {
	if cerr := a.store.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
	if serr := a.logger.Sync(); serr != nil {
		// Best-effort flush.
		_ = serr
	}
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer a.close()

	interval := dashSyncInterval
	if !cmd.Flags().Changed("sync-interval") {
		interval, err = durationConfig(a.fileCfg.Source.SyncInterval, defaultSyncInterval)
		if err != nil {
			return fmt.Errorf("invalid source.sync-interval: %w", err)
		}
	}
	if interval < 0 {
		return fmt.Errorf("--sync-interval must be >= 0")
	}

	a.logger.Info("dashboard started", zap.String("period", string(a.period)), zap.String("timezone", a.loc.String()))
	m := dashboard.NewModel(a.store, a.syncer, dashboard.Options{
		Period:       a.period,
		Locale:       globalLocale,
		SyncInterval: interval,
		Now:          a.now,
		Logger:       a.logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func durationConfig(value *string, fallback time.Duration) (time.Duration, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(strings.TrimSpace(*value))
}

func periodNames() string {
	names := make([]string, len(model.Periods))
	for i, p := range model.Periods {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
