// Package storage implements the table store contract on PostgreSQL:
// paginated scans with continuation tokens, conditional field-set updates
// and the append-only trend table.
package storage

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
)

// Tables holds the configurable table names.
type Tables struct {
	URLs   string
	Clicks string
	Trends string
}

// DefaultTables are the table names used when none are configured.
func DefaultTables() Tables {
	return Tables{URLs: "urls", Clicks: "clicks", Trends: "trends"}
}

// Store provides all table operations against PostgreSQL.
type Store struct {
	db     *sqlx.DB
	urls   string
	clicks string
	trends string
}

// NewStore creates a store over an existing connection. Table names are
// quoted once here so they can come from configuration safely.
func NewStore(db *sqlx.DB, tables Tables) *Store {
	if tables.URLs == "" {
		tables.URLs = "urls"
	}
	if tables.Clicks == "" {
		tables.Clicks = "clicks"
	}
	if tables.Trends == "" {
		tables.Trends = "trends"
	}

	return &Store{
		db:     db,
		urls:   pq.QuoteIdentifier(tables.URLs),
		clicks: pq.QuoteIdentifier(tables.Clicks),
		trends: pq.QuoteIdentifier(tables.Trends),
	}
}

// Connect opens and verifies a PostgreSQL connection with pooled defaults.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	return db, nil
}
