// Command aggregate runs a single aggregate-and-summarize pass and prints
// the resulting trend record as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jonesrussell/linkpulse/internal/config"
	"github.com/jonesrussell/linkpulse/internal/insights"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logger"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/stats"
	"github.com/jonesrussell/linkpulse/internal/storage"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
	"github.com/jonesrussell/linkpulse/internal/trends"
)

func main() {
	os.Exit(run())
}

func run() int {
	period := flag.String("period", "", "trend period label (empty uses configured default)")
	flag.Parse()

	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
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

	adapter := logging.NewAdapter(log)
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

	service := trends.NewService(
		store,
		stats.NewAggregator(store, adapter),
		insights.NewSummarizer(completions, adapter),
		completions.Model(),
		adapter,
		telemetry.NewMetrics(),
	)

	if *period == "" {
		*period = cfg.Trends.DefaultPeriod
	}

	record, err := service.Run(context.Background(), *period)
	if err != nil {
		log.Error("Trend run failed", logger.Error(err))
		return 1
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Error("Failed to encode trend record", logger.Error(err))
		return 1
	}
	fmt.Println(string(out))
	return 0
}
