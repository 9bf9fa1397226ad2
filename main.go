package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/linkpulse/internal/api"
	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/config"
	"github.com/jonesrussell/linkpulse/internal/insights"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logger"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/scheduler"
	"github.com/jonesrussell/linkpulse/internal/stats"
	"github.com/jonesrussell/linkpulse/internal/storage"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
	"github.com/jonesrussell/linkpulse/internal/trends"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	db, err := storage.Connect(cfg.Database.DSN())
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)

	return runService(cfg, log, db)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// runService wires the pipelines, scheduler and HTTP server, then blocks
// until a shutdown signal arrives.
func runService(cfg *config.Config, log logger.Logger, db *sqlx.DB) int {
	adapter := logging.NewAdapter(log)
	metrics := telemetry.NewMetrics()

	store := storage.NewStore(db, storage.Tables{
		URLs:   cfg.Tables.URLs,
		Clicks: cfg.Tables.Clicks,
		Trends: cfg.Tables.Trends,
	})

	completions := llm.New(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})

	runner := classifier.NewRunner(
		store,
		classifier.NewRuleClassifier(),
		classifier.NewModelClassifier(completions, adapter, metrics),
		adapter,
		metrics,
	)

	trendService := trends.NewService(
		store,
		stats.NewAggregator(store, adapter),
		insights.NewSummarizer(completions, adapter),
		completions.Model(),
		adapter,
		metrics,
	)

	sched := scheduler.New(runner, trendService, scheduler.Config{
		ClassifyInterval: cfg.Classify.Interval,
		ClassifyLimit:    cfg.Classify.Limit,
		ClassifyBatch:    cfg.Classify.BatchSize,
		TrendInterval:    cfg.Trends.Interval,
		TrendPeriod:      cfg.Trends.DefaultPeriod,
	}, adapter)

	server := api.NewServer(
		cfg.Service.Port,
		cfg.Service.Debug,
		api.NewClassifyHandler(runner, cfg.Classify.Limit, cfg.Classify.BatchSize, adapter),
		api.NewTrendsHandler(trendService, cfg.Trends.DefaultPeriod, adapter),
		api.NewLinkStatsHandler(store, adapter),
		cfg.Service.Name,
		adapter,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Error("Failed to start scheduler", logger.Error(err))
		return 1
	}
	defer sched.Stop()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	log.Info("Linkpulse starting", logger.Int("port", cfg.Service.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("Server error", logger.Error(err))
			return 1
		}
	case s := <-sig:
		log.Info("Shutdown signal received", logger.String("signal", s.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown error", logger.Error(err))
			return 1
		}
	}

	log.Info("Linkpulse exited cleanly")
	return 0
}
