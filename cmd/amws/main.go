package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amws/backend/internal/application/addressing"
	"github.com/amws/backend/internal/application/export"
	"github.com/amws/backend/internal/application/feeds"
	"github.com/amws/backend/internal/application/importer"
	"github.com/amws/backend/internal/application/retention"
	"github.com/amws/backend/internal/infrastructure/config"
	"github.com/amws/backend/internal/infrastructure/hooks"
	"github.com/amws/backend/internal/infrastructure/logger"
	"github.com/amws/backend/internal/infrastructure/marketplace"
	"github.com/amws/backend/internal/infrastructure/persistence"
	"github.com/amws/backend/internal/infrastructure/scheduler"
	"github.com/amws/backend/internal/infrastructure/telemetry"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Fatal("initializing application", zap.Error(err))
	}
	defer app.close()

	ctx := context.Background()

	switch command {
	case "import-orders":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		limit := fs.Int("limit", 0, "max orders imported per store, 0 = unlimited")
		workers := fs.Int("workers", 1, "stores processed concurrently")
		_ = fs.Parse(args)

		summary, err := app.importService.ImportAll(ctx, importer.ImportOptions{
			Limit:   *limit,
			Workers: *workers,
		})
		if err != nil {
			log.Fatal("order import failed", zap.Error(err))
		}
		log.Info("order import finished",
			zap.Int("stores", summary.Stores),
			zap.Int("skipped_stores", summary.SkippedStores),
			zap.Int("imported", summary.Imported),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed))

	case "purge-orders":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		interval := fs.Int("interval", -1, "minimum order age in seconds, -1 uses the configured interval")
		limit := fs.Int("limit", 0, "max orders purged, 0 = unlimited")
		force := fs.Bool("force", false, "purge even when purging is disabled")
		_ = fs.Parse(args)

		opts := retention.PurgeOptions{Limit: *limit, Force: *force}
		if *interval >= 0 {
			opts.Interval = interval
		}

		result, err := app.purger.Purge(ctx, opts)
		if err != nil {
			log.Fatal("order purge failed", zap.Error(err))
		}
		log.Info("order purge finished",
			zap.Int("deleted", result.Deleted),
			zap.Int("profiles", result.Profiles))

	case "update-submitted-feeds":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		limit := fs.Int("feed-limit", 0, "max feeds checked, 0 = unlimited")
		_ = fs.Parse(args)

		updated, err := app.feedService.UpdateSubmitted(ctx, *limit)
		if err != nil {
			log.Fatal("updating submitted feeds failed", zap.Error(err))
		}
		log.Info("submitted feeds updated", zap.Int("updated", updated))

	case "update-processed-feeds":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		limit := fs.Int("feed-limit", 0, "max feed results fetched, 0 = unlimited")
		_ = fs.Parse(args)

		updated, err := app.feedService.UpdateProcessed(ctx, *limit)
		if err != nil {
			log.Fatal("updating processed feeds failed", zap.Error(err))
		}
		log.Info("processed feeds updated", zap.Int("updated", updated))

	case "export-products":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		limit := fs.Int("product-limit", 0, "max variations exported, 0 = unlimited")
		_ = fs.Parse(args)

		submitted, err := app.exportService.ExportProducts(ctx, *limit)
		if err != nil {
			log.Fatal("product export failed", zap.Error(err))
		}
		log.Info("product export finished", zap.Int("feeds_submitted", submitted))

	case "serve-cron":
		if err := app.serveCron(cfg); err != nil {
			log.Fatal("cron scheduler failed", zap.Error(err))
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
}

// application is the composition root shared by every subcommand
type application struct {
	logger *zap.Logger
	db     *persistence.Database

	importService *importer.Service
	purger        *retention.Purger
	feedService   *feeds.Service
	exportService *export.Service
}

func newApplication(cfg *config.Config, log *zap.Logger) (*application, error) {
	db, err := persistence.NewDatabase(cfg.Database, logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := telemetry.NewDBTracing(cfg.Tracing, log).Register(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering database tracing: %w", err)
	}

	orders := persistence.NewGormOrderRepository(db.DB)
	profiles := persistence.NewGormProfileRepository(db.DB)
	stores := persistence.NewGormStoreRepository(db.DB)
	variations := persistence.NewGormVariationRepository(db.DB)
	feedRepo := persistence.NewGormFeedRepository(db.DB)

	client, err := marketplace.NewClient(cfg.Amws, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating marketplace client: %w", err)
	}
	orderGateway := marketplace.NewOrderGateway(client)
	feedGateway := marketplace.NewFeedGateway(client)

	bus := hooks.NewInMemoryBus(log)
	translator := addressing.NewTranslator(cfg.General.AddressConvertStates)
	listeners := importer.NewListeners(cfg.Profile, translator, profiles, bus, log)
	listeners.Register(bus)

	orchestrator := importer.NewOrchestrator(orderGateway, orders, variations, bus, log)
	engine := importer.NewFilterEngine(orders)

	return &application{
		logger:        log,
		db:            db,
		importService: importer.NewService(stores, orderGateway, engine, orchestrator, log),
		purger:        retention.NewPurger(cfg.Purge, orders, profiles, log),
		feedService:   feeds.NewService(feedRepo, stores, feedGateway, log),
		exportService: export.NewService(variations, stores, feedRepo, feedGateway, log),
	}, nil
}

func (a *application) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", zap.Error(err))
		}
	}
}

// serveCron runs the periodic import and purge jobs until the process
// receives SIGINT or SIGTERM.
func (a *application) serveCron(cfg *config.Config) error {
	s := scheduler.New(a.logger)
	if err := s.RegisterImport(cfg.Cron, a.importService); err != nil {
		return fmt.Errorf("registering import job: %w", err)
	}
	if err := s.RegisterPurge(cfg.Purge, a.purger); err != nil {
		return fmt.Errorf("registering purge job: %w", err)
	}

	s.Start()
	a.logger.Info("cron scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("shutting down cron scheduler")
	s.Stop()
	return nil
}

func printUsage() {
	fmt.Println(`Amazon MWS order pipeline

Usage:
  amws <command> [flags]

Commands:
  import-orders           Fetch and import orders for every enabled store
  purge-orders            Delete orders older than the retention interval
  update-submitted-feeds  Refresh processing status of submitted feeds
  update-processed-feeds  Fetch processing reports for finished feeds
  export-products         Submit export-enabled variations as product feeds
  serve-cron              Run the periodic import and purge jobs

Run 'amws <command> -h' for the flags of a command.`)
}
