// Package stats computes the weekly trend statistics: exact full-scan
// aggregation of URL records and click events into rankings, histograms
// and time buckets.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/logging"
)

const (
	// topK is the size of every ranking in the snapshot.
	topK = 10

	// WindowDays is the rolling aggregation window.
	WindowDays = 7

	// defaultPageSize is the scan page size when none is configured.
	defaultPageSize = 200

	// dayKeyLayout formats the calendar-day bucket keys.
	dayKeyLayout = "2006-01-02"
)

// Store defines the table reads the aggregator needs.
type Store interface {
	// ScanURLs returns one page of URL records plus a continuation token,
	// empty when no pages remain.
	ScanURLs(ctx context.Context, token string, pageSize int) ([]domain.URLRecord, string, error)

	// ScanClicks returns one page of click events plus a continuation token.
	ScanClicks(ctx context.Context, token string, pageSize int) ([]domain.ClickEvent, string, error)
}

// Aggregator computes Weekly Stats Snapshots. Every count is exact: both
// tables are fully materialized per run, O(table size) by design.
type Aggregator struct {
	store    Store
	logger   logging.Logger
	pageSize int
	now      func() time.Time
}

// NewAggregator creates an aggregator reading through the given store.
func NewAggregator(store Store, logger logging.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		logger:   logger,
		pageSize: defaultPageSize,
		now:      time.Now,
	}
}

// Aggregate scans both tables exhaustively and computes one snapshot over
// the rolling 7-day window.
func (a *Aggregator) Aggregate(ctx context.Context) (domain.WeeklyStats, error) {
	start := time.Now()

	urls, err := a.scanAllURLs(ctx)
	if err != nil {
		return domain.WeeklyStats{}, fmt.Errorf("scan url records: %w", err)
	}

	clicks, err := a.scanAllClicks(ctx)
	if err != nil {
		return domain.WeeklyStats{}, fmt.Errorf("scan click events: %w", err)
	}

	cutoff := a.now().UTC().AddDate(0, 0, -WindowDays)
	buckets := BucketClicks(clicks, cutoff)

	snapshot := domain.WeeklyStats{
		TotalURLs:       int64(len(urls)),
		TotalClicks:     buckets.Total,
		TopURLs:         topURLs(urls),
		TopDomains:      topDomains(urls),
		CategoryCounts:  categoryCounts(urls),
		ClicksByHour:    buckets.ByHour,
		ClicksByDay:     buckets.ByDay,
		ClicksByReferer: buckets.ByReferer,
		PeakHour:        buckets.PeakHour,
		TopReferer:      buckets.TopReferer,
	}

	a.logger.Info("aggregation complete",
		"urls", len(urls),
		"click_events", len(clicks),
		"windowed_clicks", buckets.Total,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return snapshot, nil
}

// scanAllURLs follows continuation tokens until none is returned.
func (a *Aggregator) scanAllURLs(ctx context.Context) ([]domain.URLRecord, error) {
	var all []domain.URLRecord
	token := ""
	for {
		page, next, err := a.store.ScanURLs(ctx, token, a.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// scanAllClicks follows continuation tokens until none is returned.
func (a *Aggregator) scanAllClicks(ctx context.Context) ([]domain.ClickEvent, error) {
	var all []domain.ClickEvent
	token := ""
	for {
		page, next, err := a.store.ScanClicks(ctx, token, a.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// topURLs ranks records by click counter descending. The sort is stable,
// so ties keep their input order.
func topURLs(urls []domain.URLRecord) []domain.TopURL {
	ranked := make([]domain.URLRecord, len(urls))
	copy(ranked, urls)

	sort.SliceStable(ranked, func(i, j int) bool {
		return domain.SafeCount(ranked[i].ClickCount) > domain.SafeCount(ranked[j].ClickCount)
	})

	n := min(topK, len(ranked))
	top := make([]domain.TopURL, 0, n)
	for _, u := range ranked[:n] {
		top = append(top, domain.TopURL{
			ShortID: u.ShortID,
			Clicks:  domain.SafeCount(u.ClickCount),
		})
	}
	return top
}

// topDomains counts destination hostnames and keeps the top 10.
func topDomains(urls []domain.URLRecord) []domain.DomainCount {
	counts := make(map[string]int64, len(urls))
	for _, u := range urls {
		host := domain.HostnameOf(u.OriginalURL)
		if host == "" {
			host = "unknown"
		}
		counts[host]++
	}

	out := make([]domain.DomainCount, 0, topK)
	for _, kc := range topCounts(counts, topK) {
		out = append(out, domain.DomainCount{Domain: kc.key, Count: kc.count})
	}
	return out
}

// categoryCounts counts assigned categories and keeps the top 10.
// Uncategorized records count as "unknown".
func categoryCounts(urls []domain.URLRecord) []domain.CategoryCount {
	counts := make(map[string]int64)
	for _, u := range urls {
		key := "unknown"
		if u.Category != nil {
			key = u.Category.String()
		}
		counts[key]++
	}

	out := make([]domain.CategoryCount, 0, topK)
	for _, kc := range topCounts(counts, topK) {
		out = append(out, domain.CategoryCount{Category: kc.key, Count: kc.count})
	}
	return out
}

type keyCount struct {
	key   string
	count int64
}

// topCounts ranks histogram entries by count descending, ties broken by
// lexicographically smaller key. Map iteration order never leaks into the
// result.
func topCounts(counts map[string]int64, limit int) []keyCount {
	ranked := make([]keyCount, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, keyCount{key: k, count: c})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Buckets holds windowed click events grouped along each dimension.
type Buckets struct {
	Total     int64
	ByHour    map[string]int64
	ByDay     map[string]int64
	ByReferer map[string]int64
	// PeakHour and TopReferer are empty when no events fall in the window.
	PeakHour   string
	TopReferer string
}

// BucketClicks groups events at or after cutoff by hour-of-day, calendar
// day and normalized referrer. Events with unparsable timestamps are
// dropped, never an error.
func BucketClicks(events []domain.ClickEvent, cutoff time.Time) Buckets {
	b := Buckets{
		ByHour:    map[string]int64{},
		ByDay:     map[string]int64{},
		ByReferer: map[string]int64{},
	}

	for _, e := range events {
		t, ok := e.Time()
		if !ok || t.Before(cutoff) {
			continue
		}

		b.Total++
		b.ByHour[strconv.Itoa(t.Hour())]++
		b.ByDay[t.Format(dayKeyLayout)]++
		b.ByReferer[NormalizeReferer(e.Referer)]++
	}

	b.PeakHour = maxHourKey(b.ByHour)
	b.TopReferer = maxCountKey(b.ByReferer)
	return b
}

// NormalizeReferer reduces a raw referrer to its bucket key: absent, "-"
// and the literal "null" become "direct"; URLs are reduced to their
// normalized hostname; anything else passes through raw.
func NormalizeReferer(raw string) string {
	switch raw {
	case "", "-", "null":
		return "direct"
	}
	if host := domain.HostnameOf(raw); host != "" {
		return host
	}
	return raw
}

// maxCountKey returns the highest-count key, ties broken by the
// lexicographically smaller key. Empty map yields "".
func maxCountKey(counts map[string]int64) string {
	var best string
	var bestCount int64 = -1
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

// maxHourKey is maxCountKey with numeric tie-breaks, so hour "9" beats
// hour "23" on ties by being the earlier hour rather than by string order.
func maxHourKey(counts map[string]int64) string {
	best := -1
	var bestCount int64 = -1
	for k, c := range counts {
		hour, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if c > bestCount || (c == bestCount && hour < best) {
			best, bestCount = hour, c
		}
	}
	if best < 0 {
		return ""
	}
	return strconv.Itoa(best)
}
