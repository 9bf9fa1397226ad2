package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/linkpulse/internal/domain"
)

// trendRow is the database shape of a trend record; the stats and insights
// documents live in JSONB columns.
type trendRow struct {
	Period      string    `db:"period"`
	GeneratedAt time.Time `db:"generated_at"`
	Stats       []byte    `db:"stats"`
	Insights    []byte    `db:"insights"`
	Model       string    `db:"model"`
	TotalURLs   int64     `db:"total_urls"`
	TotalClicks int64     `db:"total_clicks"`
}

// AppendTrend writes one trend record. Rows are append-only; the primary
// key (period, generated_at) makes an accidental rewrite a conflict error
// instead of a silent overwrite.
func (s *Store) AppendTrend(ctx context.Context, record domain.TrendRecord) error {
	stats, err := json.Marshal(record.Stats)
	if err != nil {
		return fmt.Errorf("encode trend stats: %w", err)
	}
	insights, err := json.Marshal(record.Insights)
	if err != nil {
		return fmt.Errorf("encode trend insights: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (period, generated_at, stats, insights, model, total_urls, total_clicks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.trends)

	_, err = s.db.ExecContext(ctx, query,
		record.Period,
		record.GeneratedAt.UTC(),
		stats,
		insights,
		record.Model,
		record.TotalURLs,
		record.TotalClicks,
	)
	if err != nil {
		return fmt.Errorf("append trend record: %w", err)
	}
	return nil
}

// LatestTrend returns the most recent trend record for a period. found is
// false when the period has no records.
func (s *Store) LatestTrend(ctx context.Context, period string) (domain.TrendRecord, bool, error) {
	query := fmt.Sprintf(`
		SELECT period, generated_at, stats, insights, model, total_urls, total_clicks
		FROM %s
		WHERE period = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`, s.trends)

	var row trendRow
	err := s.db.GetContext(ctx, &row, query, period)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TrendRecord{}, false, nil
	}
	if err != nil {
		return domain.TrendRecord{}, false, fmt.Errorf("query latest trend: %w", err)
	}

	record := domain.TrendRecord{
		Period:      row.Period,
		GeneratedAt: row.GeneratedAt.UTC(),
		Model:       row.Model,
		TotalURLs:   row.TotalURLs,
		TotalClicks: row.TotalClicks,
	}
	if err := json.Unmarshal(row.Stats, &record.Stats); err != nil {
		return domain.TrendRecord{}, false, fmt.Errorf("decode trend stats: %w", err)
	}
	if err := json.Unmarshal(row.Insights, &record.Insights); err != nil {
		return domain.TrendRecord{}, false, fmt.Errorf("decode trend insights: %w", err)
	}

	return record, true, nil
}
