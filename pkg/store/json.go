package store

import (
	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// JSONStore keeps the index in memory and writes it as a single JSON file
// on Flush.
type JSONStore struct {
	path    string
	pending *index.Index
}

// NewJSON creates a JSON file store at path. Nothing is written until Flush.
func NewJSON(path string) *JSONStore {
	return &JSONStore{path: path, pending: index.New()}
}

// Path returns the index file location.
func (s *JSONStore) Path() string {
	return s.path
}

// PutFile records spans for file.
func (s *JSONStore) PutFile(file string, spans []types.Span) error {
	s.pending.Put(file, spans)
	return nil
}

// Load reads the index file from disk.
func (s *JSONStore) Load() (*index.Index, error) {
	return index.ReadFile(s.path)
}

// Flush writes every recorded file to disk, replacing the previous index.
func (s *JSONStore) Flush() error {
	return index.WriteFile(s.path, s.pending)
}

// Close is a no-op; call Flush to persist.
func (s *JSONStore) Close() error {
	return nil
}
