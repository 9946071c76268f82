package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the aggregates in an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analytics (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	total_visits INTEGER NOT NULL DEFAULT 0,
	last_updated TEXT
);
INSERT OR IGNORE INTO analytics (id, total_visits) VALUES (1, 0);
CREATE TABLE IF NOT EXISTS job_links (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         TEXT NOT NULL,
	url           TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	created_at_ms INTEGER NOT NULL
);`

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// RecordVisit increments the visit counter in a single statement.
func (s *SQLiteStore) RecordVisit(ctx context.Context) (Analytics, error) {
	_, err := s.db.ExecContext(ctx,
		"UPDATE analytics SET total_visits = total_visits + 1, last_updated = ? WHERE id = 1",
		*timestamp(s.now()))
	if err != nil {
		return Analytics{}, fmt.Errorf("recording visit: %w", err)
	}
	return s.Analytics(ctx)
}

// Analytics returns the current counter.
func (s *SQLiteStore) Analytics(ctx context.Context) (Analytics, error) {
	var a Analytics
	var lastUpdated sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT total_visits, last_updated FROM analytics WHERE id = 1").
		Scan(&a.TotalVisits, &lastUpdated)
	if err != nil {
		return Analytics{}, fmt.Errorf("reading analytics: %w", err)
	}
	if lastUpdated.Valid {
		a.LastUpdated = &lastUpdated.String
	}
	return a, nil
}

// AppendLink inserts a saved link.
func (s *SQLiteStore) AppendLink(ctx context.Context, link SavedLink) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO job_links (title, url, created_at, created_at_ms) VALUES (?, ?, ?, ?)",
		link.Title, link.URL, link.CreatedAt, link.CreatedAtMs)
	if err != nil {
		return fmt.Errorf("saving link %s: %w", link.URL, err)
	}
	return nil
}

// Links returns saved links oldest first.
func (s *SQLiteStore) Links(ctx context.Context) ([]SavedLink, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT title, url, created_at, created_at_ms FROM job_links ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := []SavedLink{}
	for rows.Next() {
		var link SavedLink
		if err := rows.Scan(&link.Title, &link.URL, &link.CreatedAt, &link.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
