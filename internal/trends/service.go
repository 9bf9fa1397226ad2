// Package trends persists aggregation snapshots and serves the latest one
// per scheduling period, projected down to the requested audience view.
package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/insights"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/stats"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
)

// View selects how much of a trend record a reader gets.
type View string

// Audience views.
const (
	ViewAdmin View = "admin"
	ViewUser  View = "user"
)

// ParseView coerces a raw query value to a View. Anything that is not
// "user" gets the full admin view.
func ParseView(raw string) View {
	if raw == string(ViewUser) {
		return ViewUser
	}
	return ViewAdmin
}

// Store defines trend persistence. Records are append-only: AppendTrend
// never overwrites, and the latest read takes the highest generation
// timestamp for a period.
type Store interface {
	AppendTrend(ctx context.Context, record domain.TrendRecord) error

	// LatestTrend returns the most recent record for a period; found is
	// false when the period has no records.
	LatestTrend(ctx context.Context, period string) (domain.TrendRecord, bool, error)
}

// Service runs the trend pipeline end to end: aggregate, summarize,
// persist, and serve filtered reads.
type Service struct {
	store      Store
	aggregator *stats.Aggregator
	summarizer *insights.Summarizer
	model      string
	logger     logging.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// NewService creates a trend service. model is the completion model
// identifier recorded on each trend row; metrics may be nil.
func NewService(
	store Store,
	aggregator *stats.Aggregator,
	summarizer *insights.Summarizer,
	model string,
	logger logging.Logger,
	metrics *telemetry.Metrics,
) *Service {
	return &Service{
		store:      store,
		aggregator: aggregator,
		summarizer: summarizer,
		model:      model,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Run aggregates, summarizes and appends one trend record for the period.
// The record is returned for immediate display even if persisting it
// fails; a failed append is logged, not fatal, and the next scheduled run
// supersedes it.
func (s *Service) Run(ctx context.Context, period string) (domain.TrendRecord, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.TrendRuns.Inc()
		defer func() {
			s.metrics.TrendDuration.Observe(time.Since(start).Seconds())
		}()
	}

	snapshot, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		return domain.TrendRecord{}, fmt.Errorf("aggregate weekly stats: %w", err)
	}

	record := domain.TrendRecord{
		Period:      period,
		GeneratedAt: s.now().UTC().Truncate(time.Second),
		Stats:       snapshot,
		Insights:    s.summarizer.Summarize(ctx, snapshot),
		Model:       s.model,
		TotalURLs:   snapshot.TotalURLs,
		TotalClicks: snapshot.TotalClicks,
	}

	if err := s.store.AppendTrend(ctx, record); err != nil {
		s.logger.Error("failed to persist trend record",
			"period", period,
			"error", err,
		)
		return record, nil
	}

	s.logger.Info("trend record written",
		"period", period,
		"generated_at", record.GeneratedAt,
		"total_clicks", record.TotalClicks,
	)

	return record, nil
}

// Latest returns the newest trend record for a period, filtered for the
// requested view. found is false when the period has no records.
func (s *Service) Latest(ctx context.Context, period string, view View) (domain.TrendRecord, bool, error) {
	record, found, err := s.store.LatestTrend(ctx, period)
	if err != nil {
		return domain.TrendRecord{}, false, fmt.Errorf("read latest trend: %w", err)
	}
	if !found {
		return domain.TrendRecord{}, false, nil
	}

	record.Insights = FilterInsights(record.Insights, view)
	return record, true, nil
}

// FilterInsights projects insights for an audience view. The user view
// keeps only the user array; legacy plain-string insights predate the
// admin/user split and pass through unfiltered for any view.
func FilterInsights(i domain.Insights, view View) domain.Insights {
	if i.IsLegacy() || view != ViewUser {
		return i
	}
	return domain.Insights{User: i.User}
}
