package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"finknow/internal/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_documents (
	hash         TEXT PRIMARY KEY,
	doc_id       TEXT NOT NULL,
	filename     TEXT NOT NULL,
	processed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_documents_doc_id ON processed_documents(doc_id);
`

// SQLite persists the ingestion marker set in a local database file,
// replacing the ad-hoc JSON cache the marker semantics came from.
type SQLite struct {
	db   *sql.DB
	path string
}

func NewSQLite(path string) (*SQLite, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	// WAL mode keeps concurrent upload requests from tripping over the
	// default rollback journal.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open tracker database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize tracker schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) IsProcessed(ctx context.Context, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_documents WHERE hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query tracker: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) Lookup(ctx context.Context, hash string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, doc_id, filename, processed_at FROM processed_documents WHERE hash = ?`, hash).
		Scan(&e.Hash, &e.DocID, &e.Filename, &e.ProcessedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup tracker entry: %w", err)
	}
	return e, true, nil
}

func (s *SQLite) MarkProcessed(ctx context.Context, e Entry) error {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_documents (hash, doc_id, filename, processed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET doc_id = excluded.doc_id, filename = excluded.filename, processed_at = excluded.processed_at`,
		e.Hash, e.DocID, e.Filename, e.ProcessedAt)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteByDocID(ctx context.Context, docID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_documents WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("delete tracker entry: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, doc_id, filename, processed_at FROM processed_documents ORDER BY processed_at`)
	if err != nil {
		return nil, fmt.Errorf("list tracker entries: %w", err)
	}
	defer rows.Close()
	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.DocID, &e.Filename, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan tracker entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracker entries: %w", err)
	}
	return out, nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_documents`); err != nil {
		return fmt.Errorf("clear tracker: %w", err)
	}
	return nil
}
