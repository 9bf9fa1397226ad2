package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logging"
)

// fakeURLStore scripts URLStore behavior and records writes.
type fakeURLStore struct {
	records []domain.URLRecord
	// shortIDs the store treats as concurrently categorized.
	conflicts map[string]bool
	// shortIDs whose writes fail.
	failures map[string]bool

	fetchErr error
	applied  map[string]domain.Classification
}

func newFakeURLStore(records ...domain.URLRecord) *fakeURLStore {
	return &fakeURLStore{
		records:   records,
		conflicts: map[string]bool{},
		failures:  map[string]bool{},
		applied:   map[string]domain.Classification{},
	}
}

func (f *fakeURLStore) FetchUncategorized(ctx context.Context, limit int) ([]domain.URLRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeURLStore) ApplyClassification(ctx context.Context, shortID string, c domain.Classification, at time.Time) (bool, error) {
	if f.failures[shortID] {
		return false, errors.New("write failed")
	}
	if f.conflicts[shortID] {
		return false, nil
	}
	f.applied[shortID] = c
	return true, nil
}

func record(shortID, rawURL string) domain.URLRecord {
	return domain.URLRecord{ShortID: shortID, OriginalURL: rawURL}
}

func newRunner(store classifier.URLStore, client llm.CompletionClient) *classifier.Runner {
	return classifier.NewRunner(
		store,
		classifier.NewRuleClassifier(),
		classifier.NewModelClassifier(client, logging.Nop{}, nil),
		logging.Nop{},
		nil,
	)
}

func TestRunner_RuleAndModelStages(t *testing.T) {
	store := newFakeURLStore(
		record("vid", "https://youtube.com/watch?v=1"),
		record("unk", "https://unknown-site.dev/something"),
	)
	client := &fakeClient{
		enabled:  true,
		response: `{"items":[{"shortId":"unk","category":"community","confidence":0.7,"reason":"forum-like"}]}`,
	}

	counters, err := newRunner(store, client).Run(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := classifier.Counters{Updated: 2, Rule: 1, LLM: 1, Skipped: 0}
	if counters != want {
		t.Errorf("counters = %+v, want %+v", counters, want)
	}

	if c := store.applied["vid"]; c.Source != domain.SourceRule || c.Category != domain.CategoryVideo {
		t.Errorf("vid classification = %+v", c)
	}
	if c := store.applied["unk"]; c.Source != domain.SourceLLM || c.Category != domain.CategoryCommunity {
		t.Errorf("unk classification = %+v", c)
	}
}

func TestRunner_EmptyFetchWritesNothing(t *testing.T) {
	store := newFakeURLStore()
	client := &fakeClient{enabled: true}

	counters, err := newRunner(store, client).Run(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counters != (classifier.Counters{}) {
		t.Errorf("counters = %+v, want all zero", counters)
	}
	if len(store.applied) != 0 {
		t.Errorf("writes happened on an empty fetch: %v", store.applied)
	}
	if client.calls != 0 {
		t.Errorf("model called %d times with nothing pending", client.calls)
	}
}

func TestRunner_ConflictsAndFailuresCountAsSkipped(t *testing.T) {
	store := newFakeURLStore(
		record("ok", "https://youtube.com/watch"),
		record("raced", "https://github.com/x/y"),
		record("broken", "https://news.naver.com/article/1"),
	)
	store.conflicts["raced"] = true
	store.failures["broken"] = true

	counters, err := newRunner(store, &fakeClient{enabled: true}).Run(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if counters.Updated != 1 || counters.Rule != 1 {
		t.Errorf("counters = %+v, want 1 updated via rule", counters)
	}
	if counters.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", counters.Skipped)
	}
}

func TestRunner_FetchErrorIsFatal(t *testing.T) {
	store := newFakeURLStore()
	store.fetchErr = errors.New("db unavailable")

	_, err := newRunner(store, &fakeClient{enabled: true}).Run(context.Background(), 10, 5)
	if err == nil {
		t.Fatal("expected error when fetch fails")
	}
}

func TestRunner_BatchesRespectBatchSize(t *testing.T) {
	records := []domain.URLRecord{
		record("u1", "https://unknown-1.example/a"),
		record("u2", "https://unknown-2.example/b"),
		record("u3", "https://unknown-3.example/c"),
	}
	store := newFakeURLStore(records...)
	client := &fakeClient{enabled: true, response: `{"items":[]}`}

	counters, err := newRunner(store, client).Run(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Empty model responses degrade to the no-result fallback; everything
	// still gets written.
	if client.calls != 2 {
		t.Errorf("model called %d times, want 2 batches for 3 pending", client.calls)
	}
	if counters.Updated != 3 || counters.LLM != 3 {
		t.Errorf("counters = %+v", counters)
	}
	for id, c := range store.applied {
		if c.Reason != "llm_no_result" || c.Confidence != 0.4 {
			t.Errorf("%s fallback = %+v", id, c)
		}
	}
}

func TestRunner_LimitBoundsTargets(t *testing.T) {
	store := newFakeURLStore(
		record("a", "https://youtube.com/1"),
		record("b", "https://youtube.com/2"),
		record("c", "https://youtube.com/3"),
	)

	counters, err := newRunner(store, &fakeClient{enabled: true}).Run(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counters.Updated != 2 {
		t.Errorf("updated = %d, want 2", counters.Updated)
	}
}
