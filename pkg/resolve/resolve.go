// Package resolve translates compiled JavaScript positions back to the
// original TypeScript source through source map files.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-sourcemap/sourcemap"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// MapSuffix is appended to a compiled file path to locate its source map.
const MapSuffix = ".map"

// Resolver maps compiled positions to original positions.
type Resolver struct {
	logger types.Logger
}

// New creates a Resolver. A nil logger discards warnings.
func New(logger types.Logger) *Resolver {
	if logger == nil {
		logger = types.NoopLogger{}
	}
	return &Resolver{logger: logger}
}

// MapPath returns the source map location for compiledFile.
func MapPath(compiledFile string) string {
	return compiledFile + MapSuffix
}

// Resolve translates a 1-based line and 1-based column of compiledFile, as
// printed in stack traces, into the original position. The returned File is
// the map's source made absolute against the compiled file's directory.
//
// A missing source map is not an error: it is logged and Resolve returns
// nil, as it does when the map has no entry for the position.
func (r *Resolver) Resolve(compiledFile string, line, column int) (*types.Position, error) {
	mapPath := MapPath(compiledFile)
	data, err := os.ReadFile(mapPath)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Log("can't find source map in path: %s", mapPath)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading source map: %w", err)
	}

	consumer, err := sourcemap.Parse("", data)
	if err != nil {
		return nil, fmt.Errorf("parsing source map %s: %w", mapPath, err)
	}

	genColumn := column - 1
	if genColumn < 0 {
		genColumn = 0
	}
	source, _, origLine, origColumn, ok := consumer.Source(line, genColumn)
	if !ok || source == "" {
		r.logger.Log("no mapping for %s:%d:%d", compiledFile, line, column)
		return nil, nil
	}

	return &types.Position{
		File:   sourcePath(compiledFile, source),
		Line:   origLine,
		Column: origColumn,
	}, nil
}

func sourcePath(compiledFile, source string) string {
	source = filepath.FromSlash(source)
	if filepath.IsAbs(source) {
		return filepath.Clean(source)
	}
	return filepath.Join(filepath.Dir(compiledFile), source)
}
