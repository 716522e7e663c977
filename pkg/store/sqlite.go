package store

import (
	"database/sql"
	"fmt"

	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. Writes go straight to the
// database; span order is kept in the seq column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// PutFile replaces the spans stored for file.
func (s *SQLiteStore) PutFile(file string, spans []types.Span) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO files (path) VALUES (?)", file); err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM spans WHERE file = ?", file); err != nil {
		return fmt.Errorf("clearing spans: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO spans (file, seq, start_offset, end_offset) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing span insert: %w", err)
	}
	defer stmt.Close()

	for i, sp := range spans {
		if _, err := stmt.Exec(file, i, sp.Start, sp.End); err != nil {
			return fmt.Errorf("inserting span: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing spans: %w", err)
	}
	return nil
}

// Load reads every file and its spans.
func (s *SQLiteStore) Load() (*index.Index, error) {
	idx := index.New()

	files, err := s.db.Query("SELECT path FROM files")
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	var paths []string
	for files.Next() {
		var p string
		if err := files.Scan(&p); err != nil {
			files.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		paths = append(paths, p)
	}
	if err := files.Err(); err != nil {
		files.Close()
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	files.Close()

	for _, p := range paths {
		spans, err := s.spans(p)
		if err != nil {
			return nil, err
		}
		idx.Put(p, spans)
	}
	return idx, nil
}

func (s *SQLiteStore) spans(file string) ([]types.Span, error) {
	rows, err := s.db.Query(`
		SELECT start_offset, end_offset
		FROM spans
		WHERE file = ?
		ORDER BY seq
	`, file)
	if err != nil {
		return nil, fmt.Errorf("querying spans: %w", err)
	}
	defer rows.Close()

	spans := make([]types.Span, 0)
	for rows.Next() {
		var sp types.Span
		if err := rows.Scan(&sp.Start, &sp.End); err != nil {
			return nil, fmt.Errorf("scanning span: %w", err)
		}
		spans = append(spans, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spans: %w", err)
	}
	return spans, nil
}

// Flush is a no-op; writes are committed per file.
func (s *SQLiteStore) Flush() error {
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
