package trends_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/insights"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/stats"
	"github.com/jonesrussell/linkpulse/internal/trends"
)

// fakeTrendStore records appends and serves a scripted latest record.
type fakeTrendStore struct {
	appendErr error
	appended  []domain.TrendRecord

	latest    domain.TrendRecord
	hasLatest bool
	latestErr error
}

func (f *fakeTrendStore) AppendTrend(ctx context.Context, record domain.TrendRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, record)
	return nil
}

func (f *fakeTrendStore) LatestTrend(ctx context.Context, period string) (domain.TrendRecord, bool, error) {
	return f.latest, f.hasLatest, f.latestErr
}

// fakeScanStore feeds the aggregator a single page of each table.
type fakeScanStore struct {
	urls   []domain.URLRecord
	clicks []domain.ClickEvent
	err    error
}

func (f *fakeScanStore) ScanURLs(ctx context.Context, token string, pageSize int) ([]domain.URLRecord, string, error) {
	return f.urls, "", f.err
}

func (f *fakeScanStore) ScanClicks(ctx context.Context, token string, pageSize int) ([]domain.ClickEvent, string, error) {
	return f.clicks, "", f.err
}

type fakeClient struct {
	enabled  bool
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeClient) Enabled() bool { return f.enabled }

func (f *fakeClient) Model() string { return "test-model" }

func newService(store trends.Store, scan *fakeScanStore, client llm.CompletionClient) *trends.Service {
	return trends.NewService(
		store,
		stats.NewAggregator(scan, logging.Nop{}),
		insights.NewSummarizer(client, logging.Nop{}),
		"test-model",
		logging.Nop{},
		nil,
	)
}

func TestRun_WritesRecord(t *testing.T) {
	store := &fakeTrendStore{}
	scan := &fakeScanStore{
		urls: []domain.URLRecord{{ShortID: "abc", OriginalURL: "https://youtube.com/x", ClickCount: 5}},
		clicks: []domain.ClickEvent{{
			ShortID:   "abc",
			Timestamp: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		}},
	}
	client := &fakeClient{enabled: true, response: `{"admin":["1 click total"],"user":["1 click total"]}`}

	record, err := newService(store, scan, client).Run(context.Background(), "1h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if record.Period != "1h" {
		t.Errorf("period = %q", record.Period)
	}
	if record.Model != "test-model" {
		t.Errorf("model = %q", record.Model)
	}
	if record.GeneratedAt.IsZero() || record.GeneratedAt.Location() != time.UTC {
		t.Errorf("generatedAt = %v", record.GeneratedAt)
	}
	if record.TotalURLs != 1 || record.TotalClicks != 1 {
		t.Errorf("totals = %d urls, %d clicks", record.TotalURLs, record.TotalClicks)
	}
	if len(store.appended) != 1 {
		t.Fatalf("appended %d records, want 1", len(store.appended))
	}
}

func TestRun_AppendFailureStillReturnsRecord(t *testing.T) {
	store := &fakeTrendStore{appendErr: errors.New("table missing")}
	scan := &fakeScanStore{}
	client := &fakeClient{enabled: false}

	record, err := newService(store, scan, client).Run(context.Background(), "1h")
	if err != nil {
		t.Fatalf("append failure must not fail the run: %v", err)
	}
	if record.Period != "1h" {
		t.Errorf("record not built: %+v", record)
	}
}

func TestRun_AggregateFailureIsFatal(t *testing.T) {
	store := &fakeTrendStore{}
	scan := &fakeScanStore{err: errors.New("db down")}
	client := &fakeClient{enabled: false}

	if _, err := newService(store, scan, client).Run(context.Background(), "1h"); err == nil {
		t.Fatal("expected error when aggregation fails")
	}
}

func TestLatest_NotFound(t *testing.T) {
	service := newService(&fakeTrendStore{}, &fakeScanStore{}, &fakeClient{enabled: false})

	_, found, err := service.Latest(context.Background(), "1h", trends.ViewAdmin)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if found {
		t.Error("found = true for an empty period")
	}
}

func TestLatest_UserViewDropsAdmin(t *testing.T) {
	store := &fakeTrendStore{
		hasLatest: true,
		latest: domain.TrendRecord{
			Period: "1h",
			Insights: domain.Insights{
				Admin: []string{"internal numbers"},
				User:  []string{"public highlight"},
			},
		},
	}
	service := newService(store, &fakeScanStore{}, &fakeClient{enabled: false})

	record, found, err := service.Latest(context.Background(), "1h", trends.ViewUser)
	if err != nil || !found {
		t.Fatalf("Latest: found=%v err=%v", found, err)
	}
	if len(record.Insights.Admin) != 0 {
		t.Errorf("user view leaked admin insights: %v", record.Insights.Admin)
	}
	if len(record.Insights.User) != 1 {
		t.Errorf("user view lost user insights: %v", record.Insights.User)
	}
}

func TestFilterInsights(t *testing.T) {
	both := domain.Insights{Admin: []string{"a"}, User: []string{"u"}}
	legacy := domain.Insights{Legacy: "old narrative"}

	if got := trends.FilterInsights(both, trends.ViewAdmin); len(got.Admin) != 1 || len(got.User) != 1 {
		t.Errorf("admin view = %+v", got)
	}
	if got := trends.FilterInsights(both, trends.ViewUser); len(got.Admin) != 0 || len(got.User) != 1 {
		t.Errorf("user view = %+v", got)
	}

	// Legacy narratives predate the split and pass through for any view.
	if got := trends.FilterInsights(legacy, trends.ViewUser); got.Legacy != "old narrative" {
		t.Errorf("legacy user view = %+v", got)
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in   string
		want trends.View
	}{
		{"user", trends.ViewUser},
		{"admin", trends.ViewAdmin},
		{"", trends.ViewAdmin},
		{"USER", trends.ViewAdmin},
		{"banana", trends.ViewAdmin},
	}
	for _, tt := range tests {
		if got := trends.ParseView(tt.in); got != tt.want {
			t.Errorf("ParseView(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
