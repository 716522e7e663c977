// Package index holds the per-file function span index produced at build
// time and read back at symbolication time.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// DefaultFileName is the index file written to the working directory.
const DefaultFileName = ".file-fn-range.json"

// ErrInvalidIndex is returned when serialized index data is malformed.
var ErrInvalidIndex = errors.New("invalid range index")

// Index maps a source file path to its function spans in recorder order.
// Keys are stored as the compiler saw them: absolute or relative to the
// working directory of the build.
type Index struct {
	mu    sync.RWMutex
	files map[string][]types.Span
}

// New creates an empty Index.
func New() *Index {
	return &Index{files: make(map[string][]types.Span)}
}

// Put replaces the span list of file.
func (idx *Index) Put(file string, spans []types.Span) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if spans == nil {
		spans = []types.Span{}
	}
	idx.files[file] = spans
}

// Spans returns the spans recorded for file. The key is tried as given,
// then as an absolute path, then relative to the working directory.
func (idx *Index) Spans(file string) ([]types.Span, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, key := range candidateKeys(file) {
		if spans, ok := idx.files[key]; ok {
			return spans, true
		}
	}
	return nil, false
}

// Files returns the indexed file keys, sorted.
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	files := make([]string, 0, len(idx.files))
	for f := range idx.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

func candidateKeys(file string) []string {
	keys := []string{file}
	cwd, err := os.Getwd()
	if err != nil {
		return keys
	}
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, file)
		keys = append(keys, abs)
	}
	if rel, err := filepath.Rel(cwd, abs); err == nil && rel != file {
		keys = append(keys, rel, filepath.ToSlash(rel))
	}
	return keys
}

// Marshal serializes idx as a flat JSON object of file path to span array.
func Marshal(idx *Index) ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return json.Marshal(idx.files)
}

// Unmarshal parses data written by Marshal. Every value must be an array
// of {start, end} objects with non-negative integers and start <= end.
func Unmarshal(data []byte) (*Index, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}

	idx := New()
	for file, value := range raw {
		if file == "" {
			return nil, fmt.Errorf("%w: empty file key", ErrInvalidIndex)
		}
		spans, err := decodeSpans(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidIndex, file, err)
		}
		idx.files[file] = spans
	}
	return idx, nil
}

type rawSpan struct {
	Start *json.Number `json:"start"`
	End   *json.Number `json:"end"`
}

func decodeSpans(value json.RawMessage) ([]types.Span, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var raw []rawSpan
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("span list must be an array")
	}

	spans := make([]types.Span, 0, len(raw))
	for i, r := range raw {
		if r.Start == nil || r.End == nil {
			return nil, fmt.Errorf("span %d: start and end are required", i)
		}
		start, err := parseOffset(*r.Start)
		if err != nil {
			return nil, fmt.Errorf("span %d: start: %w", i, err)
		}
		end, err := parseOffset(*r.End)
		if err != nil {
			return nil, fmt.Errorf("span %d: end: %w", i, err)
		}
		if end < start {
			return nil, fmt.Errorf("span %d: end %d before start %d", i, end, start)
		}
		spans = append(spans, types.Span{Start: start, End: end})
	}
	return spans, nil
}

func parseOffset(n json.Number) (uint32, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, err
	}
	if v < 0 || v > int64(^uint32(0)) {
		return 0, fmt.Errorf("offset %d out of range", v)
	}
	return uint32(v), nil
}

// ReadFile loads an index written by WriteFile.
func ReadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile writes idx to path as JSON, replacing any previous index.
func WriteFile(path string, idx *Index) error {
	data, err := Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
