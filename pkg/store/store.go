// Package store persists range indexes.
package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// Store provides persistence for a range index.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (JSON file, SQLite, memory).
type Store interface {
	// PutFile records the spans of one source file, replacing earlier ones.
	PutFile(file string, spans []types.Span) error

	// Load reads the whole index.
	Load() (*index.Index, error)

	// Flush persists pending writes. The whole index is the unit of
	// persistence; backends that write through may treat this as a no-op.
	Flush() error

	// Close releases the backend.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the index location.
	// Use ":memory:" for an in-memory index (useful for testing).
	// Paths ending in .db, .sqlite or .sqlite3 use SQLite; anything else
	// is a JSON file.
	Path string
}

// New creates a Store for cfg.Path.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}

	if IsSQLitePath(cfg.Path) {
		return NewSQLite(cfg.Path)
	}
	return NewJSON(cfg.Path), nil
}

// IsSQLitePath reports whether path selects the SQLite backend.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
