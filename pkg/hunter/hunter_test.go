package hunter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/errhunter/pkg/store"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

const addSource = "function add(a, b) {\n  return a + b;\n}\n"

// Generated line 2 column 2 maps to source line 2 column 2.
const addMap = `{"version":3,"sources":["../src/add.ts"],"names":[],"mappings":"AAAA;EACE"}`

type recordingLogger struct {
	mu   sync.Mutex
	logs []string
}

func (l *recordingLogger) Log(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, fmt.Sprintf(format, args...))
}

type fixture struct {
	source string
	js     string
	store  *store.MemoryStore
}

func newFixture(t *testing.T, withMap bool) fixture {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "src", "add.ts")
	js := filepath.Join(dir, "dist", "add.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(js), 0755))
	require.NoError(t, os.WriteFile(source, []byte(addSource), 0644))
	require.NoError(t, os.WriteFile(js, []byte("function add(a, b) {\n  return a + b;\n}\n"), 0644))
	if withMap {
		require.NoError(t, os.WriteFile(js+".map", []byte(addMap), 0644))
	}

	s := store.NewMemory()
	require.NoError(t, s.PutFile(source, []types.Span{{Start: 0, End: 38}}))
	return fixture{source: source, js: js, store: s}
}

func (f fixture) exception() *types.Exception {
	return &types.Exception{
		Message: "boom",
		Stack:   fmt.Sprintf("    at add (%s:2:3)\n    at main (/usr/lib/node_modules/runner/index.js:10:1)", f.js),
	}
}

func TestSymbolicate(t *testing.T) {
	f := newFixture(t, true)
	h, err := New(WithStore(f.store))
	require.NoError(t, err)

	code, err := h.Symbolicate(context.Background(), f.exception())
	require.NoError(t, err)
	require.NotNil(t, code)

	assert.Equal(t, f.source, code.FileName)
	assert.Equal(t, 1, code.StartLineNumber)
	assert.Equal(t, 3, code.EndLineNumber)
	assert.Equal(t, "> 1 function add(a, b) {\n"+
		"> 2   return a + b;\n"+
		"      ^ ------------> boom\n"+
		"> 3 }", code.Annotated)
	assert.Equal(t, strings.TrimSpace(addSource), code.Content)
}

func TestSymbolicate_MissingMap(t *testing.T) {
	f := newFixture(t, false)
	logger := &recordingLogger{}
	h, err := New(WithStore(f.store), WithLogger(logger))
	require.NoError(t, err)

	code, err := h.Symbolicate(context.Background(), f.exception())
	assert.NoError(t, err)
	assert.Nil(t, code)
	require.Len(t, logger.logs, 1)
	assert.Contains(t, logger.logs[0], "can't find source map in path")
}

func TestSymbolicate_NoProjectFrame(t *testing.T) {
	h, err := New(WithStore(store.NewMemory()))
	require.NoError(t, err)

	_, err = h.Symbolicate(context.Background(), &types.Exception{
		Message: "x",
		Stack:   "    at dep (/app/node_modules/dep/index.js:1:1)\n    at relative.js:1:1",
	})
	assert.True(t, errors.Is(err, ErrNoProjectFrame))
}

func TestSymbolicate_RangeNotFound(t *testing.T) {
	f := newFixture(t, true)
	h, err := New(WithStore(store.NewMemory()))
	require.NoError(t, err)

	_, err = h.Symbolicate(context.Background(), f.exception())
	assert.Error(t, err)
}

func TestSymbolicateFrames_Depth(t *testing.T) {
	f := newFixture(t, true)
	h, err := New(WithStore(f.store))
	require.NoError(t, err)

	exc := &types.Exception{
		Message: "boom",
		Stack:   fmt.Sprintf("at add (%s:2:3)\nat add (%s:2:3)\nat add (%s:2:3)", f.js, f.js, f.js),
	}

	codes, err := h.SymbolicateFrames(context.Background(), exc, 2)
	require.NoError(t, err)
	assert.Len(t, codes, 2)

	codes, err = h.SymbolicateFrames(context.Background(), exc, 0)
	require.NoError(t, err)
	assert.Len(t, codes, 3)
}

func TestSymbolicate_ExcludePatterns(t *testing.T) {
	f := newFixture(t, true)
	h, err := New(WithStore(f.store), WithExcludePatterns(`/dist/add\.js$`))
	require.NoError(t, err)

	_, err = h.Symbolicate(context.Background(), f.exception())
	assert.True(t, errors.Is(err, ErrNoProjectFrame))
}

func TestSymbolicate_IndexPath(t *testing.T) {
	f := newFixture(t, true)
	indexPath := filepath.Join(t.TempDir(), "ranges.db")
	s, err := store.New(store.Config{Path: indexPath})
	require.NoError(t, err)
	require.NoError(t, s.PutFile(f.source, []types.Span{{Start: 0, End: 38}}))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())

	h, err := New(WithIndexPath(indexPath))
	require.NoError(t, err)

	code, err := h.Symbolicate(context.Background(), f.exception())
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.Equal(t, 3, code.EndLineNumber)
}

func TestNew_InvalidExcludePattern(t *testing.T) {
	_, err := New(WithExcludePatterns("("))
	assert.Error(t, err)
}
