// Package matcher selects the recorded function span enclosing a source
// position.
package matcher

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// ErrRangeNotFound is returned when no recorded span encloses a position,
// usually because the index is stale or belongs to another build.
var ErrRangeNotFound = errors.New("no enclosing function range")

// Widest returns the widest span of spans containing offset. Nested
// functions produce overlapping spans; the outermost one is preferred
// because a named binding carries more context than the anonymous body
// inside it. Ties keep the span recorded first.
func Widest(spans []types.Span, offset int) (types.Span, bool) {
	var best types.Span
	found := false
	for _, s := range spans {
		if !s.Contains(offset) {
			continue
		}
		if !found || s.Width() > best.Width() {
			best = s
			found = true
		}
	}
	return best, found
}

// Match returns the widest span recorded for file that contains offset.
func Match(idx *index.Index, file string, offset int) (types.Span, error) {
	spans, ok := idx.Spans(file)
	if !ok {
		return types.Span{}, fmt.Errorf("%w: %s is not indexed", ErrRangeNotFound, file)
	}
	span, ok := Widest(spans, offset)
	if !ok {
		return types.Span{}, fmt.Errorf("%w: %s offset %d", ErrRangeNotFound, file, offset)
	}
	return span, nil
}

// Locate converts a 1-based line and 0-based column of content into a byte
// offset and matches it against the spans of file.
func Locate(idx *index.Index, file string, content []byte, line, column int) (types.Span, error) {
	offset := types.OffsetOf(content, line, column)
	if offset < 0 {
		return types.Span{}, fmt.Errorf("%w: %s has no line %d", ErrRangeNotFound, file, line)
	}
	return Match(idx, file, offset)
}
