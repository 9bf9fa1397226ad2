package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
)

// Default run parameters, used when the caller passes zero values.
const (
	DefaultRunLimit  = 50
	DefaultBatchSize = 15
)

// URLStore defines the storage operations the orchestrator needs.
type URLStore interface {
	// FetchUncategorized returns up to limit records that lack a category,
	// following continuation pages until the limit is met or the table is
	// exhausted.
	FetchUncategorized(ctx context.Context, limit int) ([]domain.URLRecord, error)

	// ApplyClassification conditionally sets the category fields on a
	// record that still lacks a category. It returns false when the record
	// was already categorized by the time the write landed.
	ApplyClassification(ctx context.Context, shortID string, c domain.Classification, at time.Time) (bool, error)
}

// Counters summarizes one classification run.
type Counters struct {
	Updated int `json:"updated"`
	Rule    int `json:"rule"`
	LLM     int `json:"llm"`
	Skipped int `json:"skipped"`
}

// Runner drives a full classification pass: scan, rule partition, batched
// model fallback, conditional writes.
type Runner struct {
	store   URLStore
	rules   *RuleClassifier
	model   *ModelClassifier
	logger  Logger
	metrics *telemetry.Metrics
}

// NewRunner creates a classification run orchestrator. metrics may be nil.
func NewRunner(store URLStore, rules *RuleClassifier, model *ModelClassifier, logger Logger, metrics *telemetry.Metrics) *Runner {
	return &Runner{
		store:   store,
		rules:   rules,
		model:   model,
		logger:  logger,
		metrics: metrics,
	}
}

// Run classifies up to limit uncategorized records. Re-running is safe:
// only records still lacking a category are fetched, so a fully-categorized
// table yields zero writes. Per-record persistence failures are counted as
// skipped, never retried within the run.
func (r *Runner) Run(ctx context.Context, limit, batchSize int) (Counters, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	runID := uuid.NewString()
	log := withRun(r.logger, runID)
	start := time.Now()

	if r.metrics != nil {
		r.metrics.ClassifyRuns.Inc()
		defer func() {
			r.metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
		}()
	}

	targets, err := r.store.FetchUncategorized(ctx, limit)
	if err != nil {
		return Counters{}, fmt.Errorf("fetch uncategorized records: %w", err)
	}

	if len(targets) == 0 {
		log.Info("classification run found nothing to do")
		return Counters{}, nil
	}

	log.Info("classification run starting",
		"targets", len(targets),
		"limit", limit,
		"batch_size", batchSize,
	)

	var counters Counters
	var pending []domain.URLRecord

	// Stage 1: rule classification, written immediately.
	for _, record := range targets {
		c, ok := r.rules.Classify(record.OriginalURL)
		if !ok {
			pending = append(pending, record)
			continue
		}
		r.apply(ctx, log, record.ShortID, c, &counters)
	}

	// Stage 2: batched model fallback for the rule misses.
	for i := 0; i < len(pending); i += batchSize {
		end := min(i+batchSize, len(pending))
		chunk := pending[i:end]

		batch := make([]Item, 0, len(chunk))
		for _, record := range chunk {
			batch = append(batch, Item{
				ShortID: record.ShortID,
				URL:     record.OriginalURL,
				Title:   record.Title,
			})
		}

		results := r.model.Classify(ctx, batch)
		for _, record := range chunk {
			c, ok := results[record.ShortID]
			if !ok {
				// Classify guarantees a result per id; belt and braces.
				c = fallbackClassification(noResultConfidence, "llm_no_result")
			}
			r.apply(ctx, log, record.ShortID, c, &counters)
		}
	}

	counters.Skipped = len(targets) - counters.Updated

	if r.metrics != nil {
		r.metrics.RecordsSkipped.Add(float64(counters.Skipped))
	}

	log.Info("classification run complete",
		"updated", counters.Updated,
		"rule", counters.Rule,
		"llm", counters.LLM,
		"skipped", counters.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return counters, nil
}

// apply persists one classification and updates the counters. Records that
// fail to persist, or were concurrently categorized, only show up in the
// skipped count.
func (r *Runner) apply(ctx context.Context, log Logger, shortID string, c domain.Classification, counters *Counters) {
	c = c.Sanitized()

	applied, err := r.store.ApplyClassification(ctx, shortID, c, time.Now().UTC())
	if err != nil {
		log.Error("failed to persist classification",
			"short_id", shortID,
			"category", c.Category,
			"error", err,
		)
		return
	}
	if !applied {
		log.Debug("record already categorized, write skipped", "short_id", shortID)
		return
	}

	counters.Updated++
	switch c.Source {
	case domain.SourceRule:
		counters.Rule++
	case domain.SourceLLM:
		counters.LLM++
	}

	if r.metrics != nil {
		r.metrics.RecordsClassified.WithLabelValues(string(c.Source)).Inc()
	}
}

// withRun attaches the run id to every log line of a run.
func withRun(logger Logger, runID string) Logger {
	return &runLogger{inner: logger, runID: runID}
}

type runLogger struct {
	inner Logger
	runID string
}

func (l *runLogger) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, append(keysAndValues, "run_id", l.runID)...)
}

func (l *runLogger) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, append(keysAndValues, "run_id", l.runID)...)
}

func (l *runLogger) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, append(keysAndValues, "run_id", l.runID)...)
}

func (l *runLogger) Error(msg string, keysAndValues ...any) {
	l.inner.Error(msg, append(keysAndValues, "run_id", l.runID)...)
}
