package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/scheduler"
)

type fakeClassify struct {
	runs atomic.Int32
}

func (f *fakeClassify) Run(ctx context.Context, limit, batchSize int) (classifier.Counters, error) {
	f.runs.Add(1)
	return classifier.Counters{}, nil
}

type fakeTrend struct {
	runs    atomic.Int32
	periods chan string
}

func (f *fakeTrend) Run(ctx context.Context, period string) (domain.TrendRecord, error) {
	f.runs.Add(1)
	select {
	case f.periods <- period:
	default:
	}
	return domain.TrendRecord{Period: period}, nil
}

func testConfig() scheduler.Config {
	return scheduler.Config{
		ClassifyInterval: 10 * time.Millisecond,
		ClassifyLimit:    50,
		ClassifyBatch:    15,
		TrendInterval:    10 * time.Millisecond,
		TrendPeriod:      "1h",
	}
}

func TestScheduler_RunsBothPipelinesImmediately(t *testing.T) {
	classify := &fakeClassify{}
	trend := &fakeTrend{periods: make(chan string, 1)}

	s := scheduler.New(classify, trend, scheduler.Config{
		ClassifyInterval: time.Hour,
		TrendInterval:    time.Hour,
		TrendPeriod:      "1h",
	}, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case period := <-trend.periods:
		if period != "1h" {
			t.Errorf("period = %q", period)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate trend run")
	}
	if classify.runs.Load() < 1 {
		t.Error("no immediate classification run")
	}
}

func TestScheduler_TicksRepeat(t *testing.T) {
	classify := &fakeClassify{}
	trend := &fakeTrend{periods: make(chan string, 1)}

	s := scheduler.New(classify, trend, testConfig(), logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	if classify.runs.Load() < 2 {
		t.Errorf("classify ran %d times, want at least 2", classify.runs.Load())
	}
	if trend.runs.Load() < 2 {
		t.Errorf("trend ran %d times, want at least 2", trend.runs.Load())
	}
}

func TestScheduler_DoubleStartFails(t *testing.T) {
	s := scheduler.New(&fakeClassify{}, &fakeTrend{periods: make(chan string, 1)}, testConfig(), logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if err := s.Start(ctx); err == nil {
		t.Fatal("second Start did not fail")
	}
}

func TestScheduler_StopEndsLoop(t *testing.T) {
	classify := &fakeClassify{}
	s := scheduler.New(classify, &fakeTrend{periods: make(chan string, 1)}, testConfig(), logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()

	before := classify.runs.Load()
	time.Sleep(50 * time.Millisecond)
	// One in-flight tick may land after Stop; the loop must not keep going.
	if classify.runs.Load() > before+1 {
		t.Errorf("runs kept accumulating after Stop: %d -> %d", before, classify.runs.Load())
	}
}
