// Package sqlite persists confirmed content records to a local SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/JonnyTran/heydev/pkg/domain"
)

// ErrNotFound is returned when no content row has the requested id.
var ErrNotFound = errors.New("content not found")

const schema = `
CREATE TABLE IF NOT EXISTS content (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	channel TEXT NOT NULL,
	title   TEXT NOT NULL,
	summary TEXT NOT NULL,
	content TEXT NOT NULL,
	type    TEXT NOT NULL
);`

// Publisher implements ports.Publisher on a SQLite content table.
type Publisher struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the content table
// exists.
func Open(path string) (*Publisher, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating content table: %w", err)
	}
	return &Publisher{db: db}, nil
}

// Publish inserts the record and returns its assigned row id.
func (p *Publisher) Publish(ctx context.Context, rec domain.ContentRecord) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO content (channel, title, summary, content, type) VALUES (?, ?, ?, ?, ?)`,
		string(rec.Channel), rec.Title, rec.Summary, rec.Content, string(rec.Type),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading content id: %w", err)
	}
	return id, nil
}

// Load reads a published record back by id.
func (p *Publisher) Load(ctx context.Context, id int64) (*domain.ContentRecord, error) {
	rec := domain.ContentRecord{ID: id}
	err := p.db.QueryRowContext(ctx,
		`SELECT channel, title, summary, content, type FROM content WHERE id = ?`, id,
	).Scan(&rec.Channel, &rec.Title, &rec.Summary, &rec.Content, &rec.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Publisher) Close() error {
	return p.db.Close()
}
