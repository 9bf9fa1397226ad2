package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonesrussell/linkpulse/internal/domain"
)

// clickTokenSeparator joins the two halves of a click continuation token.
// Neither short ids nor ISO-8601 timestamps contain a newline.
const clickTokenSeparator = "\n"

const clickColumns = `short_id, ts, referer, user_agent, ip_hash`

// PutClick writes one click event. Events are immutable: a duplicate
// (short_id, ts) insert is a no-op.
func (s *Store) PutClick(ctx context.Context, event domain.ClickEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (short_id, ts) DO NOTHING
	`, s.clicks, clickColumns)

	_, err := s.db.ExecContext(ctx, query,
		event.ShortID,
		event.Timestamp,
		event.Referer,
		event.UserAgent,
		event.IPHash,
	)
	if err != nil {
		return fmt.Errorf("put click event: %w", err)
	}
	return nil
}

// ScanClicks returns one page of click events ordered by composite key,
// starting after the continuation token. The returned token is empty when
// no pages remain.
func (s *Store) ScanClicks(ctx context.Context, token string, pageSize int) ([]domain.ClickEvent, string, error) {
	if pageSize <= 0 {
		pageSize = scanPageSize
	}

	afterID, afterTS := splitClickToken(token)

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE (short_id, ts) > ($1, $2)
		ORDER BY short_id, ts
		LIMIT $3
	`, clickColumns, s.clicks)

	var page []domain.ClickEvent
	if err := s.db.SelectContext(ctx, &page, query, afterID, afterTS, pageSize); err != nil {
		return nil, "", fmt.Errorf("scan click events: %w", err)
	}

	return page, nextToken(len(page), pageSize, func() string {
		last := page[len(page)-1]
		return last.ShortID + clickTokenSeparator + last.Timestamp
	}), nil
}

// QueryClicks returns every click event for one short id in timestamp
// order. Window filtering happens at aggregation time, where naive
// timestamps get their UTC interpretation.
func (s *Store) QueryClicks(ctx context.Context, shortID string) ([]domain.ClickEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE short_id = $1
		ORDER BY ts
	`, clickColumns, s.clicks)

	var events []domain.ClickEvent
	if err := s.db.SelectContext(ctx, &events, query, shortID); err != nil {
		return nil, fmt.Errorf("query click events: %w", err)
	}
	return events, nil
}

func splitClickToken(token string) (shortID, ts string) {
	if token == "" {
		return "", ""
	}
	parts := strings.SplitN(token, clickTokenSeparator, 2)
	if len(parts) != 2 {
		return token, ""
	}
	return parts[0], parts[1]
}
