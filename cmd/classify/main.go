// Command classify runs a single classification pass and prints the run
// counters as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/config"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logger"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/storage"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	limit := flag.Int("limit", 0, "max records to classify (0 uses configured default)")
	batchSize := flag.Int("batch-size", 0, "model batch size (0 uses configured default)")
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

	metrics := telemetry.NewMetrics()
	runner := classifier.NewRunner(
		store,
		classifier.NewRuleClassifier(),
		classifier.NewModelClassifier(completions, adapter, metrics),
		adapter,
		metrics,
	)

	if *limit <= 0 {
		*limit = cfg.Classify.Limit
	}
	if *batchSize <= 0 {
		*batchSize = cfg.Classify.BatchSize
	}

	counters, err := runner.Run(context.Background(), *limit, *batchSize)
	if err != nil {
		log.Error("Classification run failed", logger.Error(err))
		return 1
	}

	out, err := json.Marshal(counters)
	if err != nil {
		log.Error("Failed to encode counters", logger.Error(err))
		return 1
	}
	fmt.Println(string(out))
	return 0
}
