// Package scheduler triggers the classification and trend pipelines on
// their configured intervals. Each run is a complete batch job; there is
// no mid-run cancellation, a failed run is simply retried wholesale on the
// next tick.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/logging"
)

// ClassifyRunner runs one classification pass.
type ClassifyRunner interface {
	Run(ctx context.Context, limit, batchSize int) (classifier.Counters, error)
}

// TrendRunner runs one aggregate-and-summarize pass.
type TrendRunner interface {
	Run(ctx context.Context, period string) (domain.TrendRecord, error)
}

// Config holds scheduler configuration.
type Config struct {
	ClassifyInterval time.Duration
	ClassifyLimit    int
	ClassifyBatch    int

	TrendInterval time.Duration
	TrendPeriod   string
}

// Scheduler drives both pipelines off independent tickers.
type Scheduler struct {
	classify ClassifyRunner
	trend    TrendRunner
	cfg      Config
	logger   logging.Logger

	running  bool
	stopChan chan struct{}
}

// New creates a scheduler.
func New(classify ClassifyRunner, trend TrendRunner, cfg Config, logger logging.Logger) *Scheduler {
	return &Scheduler{
		classify: classify,
		trend:    trend,
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the scheduling loop. It runs both pipelines once
// immediately so a fresh deployment has data before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.running {
		return errors.New("scheduler is already running")
	}
	s.running = true

	s.logger.Info("scheduler starting",
		"classify_interval", s.cfg.ClassifyInterval.String(),
		"trend_interval", s.cfg.TrendInterval.String(),
		"trend_period", s.cfg.TrendPeriod,
	)

	go s.run(ctx)
	return nil
}

// Stop stops the scheduling loop.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.logger.Info("scheduler stopping")
	close(s.stopChan)
	s.running = false
}

func (s *Scheduler) run(ctx context.Context) {
	classifyTicker := time.NewTicker(s.cfg.ClassifyInterval)
	defer classifyTicker.Stop()

	trendTicker := time.NewTicker(s.cfg.TrendInterval)
	defer trendTicker.Stop()

	s.runClassify(ctx)
	s.runTrend(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			s.logger.Info("scheduler stopped")
			return
		case <-classifyTicker.C:
			s.runClassify(ctx)
		case <-trendTicker.C:
			s.runTrend(ctx)
		}
	}
}

func (s *Scheduler) runClassify(ctx context.Context) {
	counters, err := s.classify.Run(ctx, s.cfg.ClassifyLimit, s.cfg.ClassifyBatch)
	if err != nil {
		s.logger.Error("scheduled classification run failed", "error", err)
		return
	}
	s.logger.Debug("scheduled classification run done",
		"updated", counters.Updated,
		"skipped", counters.Skipped,
	)
}

func (s *Scheduler) runTrend(ctx context.Context) {
	record, err := s.trend.Run(ctx, s.cfg.TrendPeriod)
	if err != nil {
		s.logger.Error("scheduled trend run failed", "error", err)
		return
	}
	s.logger.Debug("scheduled trend run done",
		"period", record.Period,
		"total_clicks", record.TotalClicks,
	)
}
