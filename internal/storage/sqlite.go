package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"rss_monitor/internal/model"
	"rss_monitor/migrations"
)

const timeLayout = "2006-01-02 15:04:05"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Exists reports whether an item with exactly this link was recorded before.
func (s *SQLite) Exists(ctx context.Context, link string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE link = ?`, link,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check item: %w", err)
	}
	return count > 0, nil
}

// Record inserts a seen item stamped with the current time.
func (s *SQLite) Record(ctx context.Context, title, link string) error {
	now := s.now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (title, link, timestamp) VALUES (?, ?, ?)`,
		title, link, now,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Count returns the number of recorded items.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// Recent returns up to limit items, most recently recorded first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]model.SeenItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, link, timestamp FROM items ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.SeenItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (model.SeenItem, error) {
	var it model.SeenItem
	var title, link, ts sql.NullString
	if err := row.Scan(&it.ID, &title, &link, &ts); err != nil {
		return it, fmt.Errorf("scan item: %w", err)
	}
	it.Title = title.String
	it.Link = link.String
	if ts.Valid {
		it.Timestamp = parseTimestamp(ts.String)
	}
	return it, nil
}

// parseTimestamp accepts both our layout and the RFC 3339 form the driver
// returns for TIMESTAMP columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
