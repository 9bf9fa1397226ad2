package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/linkpulse/internal/domain"
)

// scanPageSize is the page size used for keyset-paginated scans.
const scanPageSize = 100

const urlColumns = `short_id, original_url, title, created_at, click_count,
	category, category_confidence, category_source, category_reason, categorized_at`

// GetURL fetches one URL record. found is false for an unknown id.
func (s *Store) GetURL(ctx context.Context, shortID string) (domain.URLRecord, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE short_id = $1`, urlColumns, s.urls)

	var record domain.URLRecord
	err := s.db.GetContext(ctx, &record, query, shortID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.URLRecord{}, false, nil
	}
	if err != nil {
		return domain.URLRecord{}, false, fmt.Errorf("get url record: %w", err)
	}
	return record, true, nil
}

// PutURL writes a URL record, overwriting any existing row with the same
// short id.
func (s *Store) PutURL(ctx context.Context, record domain.URLRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (short_id) DO UPDATE SET
			original_url = EXCLUDED.original_url,
			title = EXCLUDED.title,
			created_at = EXCLUDED.created_at,
			click_count = EXCLUDED.click_count,
			category = EXCLUDED.category,
			category_confidence = EXCLUDED.category_confidence,
			category_source = EXCLUDED.category_source,
			category_reason = EXCLUDED.category_reason,
			categorized_at = EXCLUDED.categorized_at
	`, s.urls, urlColumns)

	_, err := s.db.ExecContext(ctx, query,
		record.ShortID,
		record.OriginalURL,
		record.Title,
		record.CreatedAt,
		domain.SafeCount(record.ClickCount),
		record.Category,
		record.CategoryConfidence,
		record.CategorySource,
		record.CategoryReason,
		record.CategorizedAt,
	)
	if err != nil {
		return fmt.Errorf("put url record: %w", err)
	}
	return nil
}

// ScanURLs returns one page of URL records ordered by short id, starting
// after the continuation token. The returned token is empty when no pages
// remain.
func (s *Store) ScanURLs(ctx context.Context, token string, pageSize int) ([]domain.URLRecord, string, error) {
	if pageSize <= 0 {
		pageSize = scanPageSize
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE short_id > $1
		ORDER BY short_id
		LIMIT $2
	`, urlColumns, s.urls)

	var page []domain.URLRecord
	if err := s.db.SelectContext(ctx, &page, query, token, pageSize); err != nil {
		return nil, "", fmt.Errorf("scan url records: %w", err)
	}

	return page, nextToken(len(page), pageSize, func() string {
		return page[len(page)-1].ShortID
	}), nil
}

// FetchUncategorized returns up to limit records lacking a category. It
// repeats the filtered keyset scan, following tokens until the limit is
// met or the table is exhausted.
func (s *Store) FetchUncategorized(ctx context.Context, limit int) ([]domain.URLRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE category IS NULL AND short_id > $1
		ORDER BY short_id
		LIMIT $2
	`, urlColumns, s.urls)

	var out []domain.URLRecord
	token := ""

	for len(out) < limit {
		pageSize := min(scanPageSize, limit-len(out))

		var page []domain.URLRecord
		if err := s.db.SelectContext(ctx, &page, query, token, pageSize); err != nil {
			return nil, fmt.Errorf("scan uncategorized records: %w", err)
		}

		out = append(out, page...)
		if len(page) < pageSize {
			break
		}
		token = page[len(page)-1].ShortID
	}

	return out, nil
}

// ApplyClassification conditionally sets the category fields on a record
// that still lacks a category. First write wins: it returns false without
// error when the record was categorized in the meantime.
func (s *Store) ApplyClassification(ctx context.Context, shortID string, c domain.Classification, at time.Time) (bool, error) {
	c = c.Sanitized()

	query := fmt.Sprintf(`
		UPDATE %s
		SET category = $2,
		    category_confidence = $3,
		    category_source = $4,
		    category_reason = $5,
		    categorized_at = $6
		WHERE short_id = $1 AND category IS NULL
	`, s.urls)

	res, err := s.db.ExecContext(ctx, query,
		shortID,
		string(c.Category),
		c.Confidence,
		string(c.Source),
		c.Reason,
		at.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("apply classification: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply classification result: %w", err)
	}
	return affected > 0, nil
}

// nextToken computes a scan continuation token: empty when the page was
// short, otherwise the last key of the page.
func nextToken(got, pageSize int, lastKey func() string) string {
	if got == 0 || got < pageSize {
		return ""
	}
	return lastKey()
}
