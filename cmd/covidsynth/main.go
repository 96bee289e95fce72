package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/covidsynth/internal/config"
	"github.com/rewired-gh/covidsynth/internal/dataset"
	"github.com/rewired-gh/covidsynth/internal/httpapi"
	"github.com/rewired-gh/covidsynth/internal/logger"
	"github.com/rewired-gh/covidsynth/internal/query"
	"github.com/rewired-gh/covidsynth/internal/storage"
	"github.com/rewired-gh/covidsynth/internal/storage/gormstore"
	"github.com/rewired-gh/covidsynth/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	logger.Info("Configuration loaded from %s", *configPath)

	// Initialize storage
	store, err := openStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	now := time.Now
	end, err := cfg.Generator.End()
	if err != nil {
		logger.Fatal("Invalid generator configuration: %v", err)
	}
	if !end.IsZero() {
		now = func() time.Time { return end }
	}

	builder := dataset.New(store, dataset.Options{
		Days:      cfg.Generator.Days,
		BatchSize: cfg.Storage.BatchSize,
		Seed:      cfg.Generator.Seed,
		Now:       now,
	})
	report, err := builder.EnsurePopulated()
	if err != nil {
		logger.Fatal("Failed to populate dataset: %v", err)
	}

	engine := query.New(store)
	logSummary(engine)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Telegram.Enabled && !report.Skipped {
		g.Go(func() error {
			// a failed notification never fails the run
			if err := sendReport(cfg.Telegram, engine, report); err != nil {
				logger.Error("Failed to send Telegram report: %v", err)
			}
			return nil
		})
	} else {
		logger.Debug("Telegram report skipped (enabled=%v, generated=%v)", cfg.Telegram.Enabled, !report.Skipped)
	}

	if cfg.HTTP.Enabled {
		server := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(engine, cfg.HTTP.CORSOrigins), cfg.HTTP.ShutdownTimeout)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Service stopped with error: %v", err)
		return
	}
	logger.Info("Service stopped")
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return storage.NewSQLite(cfg.DBPath)
	case "gorm-sqlite":
		return gormstore.Open("sqlite", cfg.DBPath)
	case "postgres":
		return gormstore.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func sendReport(cfg config.TelegramConfig, engine *query.Engine, report *dataset.Report) error {
	client, err := telegram.NewClient(cfg.BotToken, cfg.ChatID, cfg.MaxRetries, cfg.RetryDelayBase)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}

	countries, err := engine.FilterCountries(nil)
	if err != nil {
		return err
	}
	summaries, err := engine.SummarizeCountries(countries)
	if err != nil {
		return err
	}
	return client.SendReport(report, summaries)
}

func logSummary(engine *query.Engine) {
	start, end, err := engine.DateBounds()
	if err != nil {
		logger.Warn("Failed to read date bounds: %v", err)
		return
	}
	countries, err := engine.FilterCountries(nil)
	if err != nil {
		logger.Warn("Failed to list countries: %v", err)
		return
	}
	overview, err := engine.Overview(countries)
	if err != nil {
		logger.Warn("Failed to compute overview: %v", err)
		return
	}
	logger.Info("Dataset covers %d countries from %s to %s (cases=%d, deaths=%d, fully vaccinated=%d)",
		overview.Countries,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
		overview.TotalCases,
		overview.TotalDeaths,
		overview.PeopleFullyVaccinated,
	)
}
