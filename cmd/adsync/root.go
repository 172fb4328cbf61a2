package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/analytics"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/artifact"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/config"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/db"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/extract"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/pipeline"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reconcile"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	memory bool
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "adsync",
		Short:         "Extract Ad Library results and reconcile them into the ads database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVar(&flags.memory, "memory", false, "use an in-process record store instead of Postgres")

	root.AddCommand(
		newParseCommand(&flags),
		newImportCommand(&flags),
		newRunCommand(&flags),
		newServeCommand(&flags),
		newReportCommand(&flags),
	)
	return root
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// app holds the collaborators built for one command invocation.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	metrics  observability.MetricsRegistry
	pg       *db.Postgres
	memory   *db.Memory
	redis    *db.RedisStore
	audit    *analytics.Analytics
	pipeline *pipeline.Pipeline
	closers  []func()
}

// appOptions selects which backends a command needs.
type appOptions struct {
	store bool
	audit bool
}

func newApp(ctx context.Context, flags *globalFlags, opts appOptions) (*app, error) {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, metrics: observability.NewPrometheusRegistry()}
	a.onClose(func() { _ = logger.Sync() })

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.TempoEndpoint,
			SampleRate:  cfg.TracingSampleRate,
		})
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			a.onClose(shutdown)
		}
	}

	var s3c artifact.S3API
	if cfg.S3Endpoint != "" || cfg.S3AccessKey != "" {
		client, err := artifact.NewS3Client(ctx, artifact.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init s3: %w", err)
		}
		s3c = client
	}

	a.pipeline = &pipeline.Pipeline{
		Parser:    extract.NewParser(logger, a.metrics),
		Artifacts: artifact.NewStore(s3c),
		Logger:    logger,
		LockTTL:   cfg.ImportLockTTL,
	}

	if opts.store {
		if err := a.openStore(flags); err != nil {
			a.Close()
			return nil, err
		}
	}
	if opts.audit || (opts.store && cfg.AuditEnabled) {
		a.openAudit()
	}
	if opts.store {
		a.pipeline.Engine = reconcile.NewEngine(a.recordStore(), a.engineOptions()...)
	}
	return a, nil
}

func (a *app) onClose(f func()) {
	a.closers = append(a.closers, f)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) openStore(flags *globalFlags) error {
	if flags.memory {
		a.memory = db.NewMemory()
		a.logger.Info("using in-memory record store")
	} else {
		pg, err := db.InitPostgres(a.cfg.PostgresDSN, a.cfg.DBMaxOpenConns, a.cfg.DBMaxIdleConns, a.cfg.DBConnMaxLifetime, a.cfg.DBConnMaxIdleTime)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		a.pg = pg
		a.onClose(pg.Close)
	}

	if a.cfg.RedisAddr == "" {
		return nil
	}
	store, err := db.InitRedis(a.cfg.RedisAddr)
	if err != nil {
		// notifications and locking are optional
		a.logger.Warn("redis unavailable, continuing without notifications", zap.Error(err))
		return nil
	}
	a.redis = store
	a.onClose(store.Close)
	a.pipeline.Lock = store
	return nil
}

func (a *app) openAudit() {
	ch, err := analytics.InitClickHouse(a.cfg.ClickHouseDSN, a.metrics)
	if err != nil {
		a.logger.Warn("clickhouse unavailable, import audit disabled", zap.Error(err))
		return
	}
	a.audit = ch
	a.onClose(ch.Close)
}

func (a *app) recordStore() models.RecordStore {
	if a.pg != nil {
		return a.pg
	}
	return a.memory
}

func (a *app) adReader() models.AdReader {
	if a.pg != nil {
		return a.pg
	}
	return a.memory
}

func (a *app) engineOptions() []reconcile.Option {
	opts := []reconcile.Option{
		reconcile.WithLogger(a.logger),
		reconcile.WithMetrics(a.metrics),
	}
	if a.redis != nil && a.cfg.NotifyEnabled {
		opts = append(opts, reconcile.WithNotifier(a.redis))
	}
	if a.audit != nil {
		opts = append(opts, reconcile.WithAuditor(a.audit))
	}
	return opts
}

func (a *app) auditDB() *sql.DB {
	if a.audit == nil {
		return nil
	}
	return a.audit.DB
}
