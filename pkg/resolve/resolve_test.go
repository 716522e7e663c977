package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Log(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// gen 1:0 -> src 1:0, gen 2:2 -> src 2:4
const testMap = `{"version":3,"sources":["../src/a.ts"],"names":[],"mappings":"AAAA;EACI"}`

func writeCompiled(t *testing.T, withMap bool) string {
	t.Helper()
	dist := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.MkdirAll(dist, 0755))
	compiled := filepath.Join(dist, "a.js")
	require.NoError(t, os.WriteFile(compiled, []byte("x;\n  y;\n"), 0644))
	if withMap {
		require.NoError(t, os.WriteFile(MapPath(compiled), []byte(testMap), 0644))
	}
	return compiled
}

func TestResolve(t *testing.T) {
	compiled := writeCompiled(t, true)
	want := filepath.Join(filepath.Dir(filepath.Dir(compiled)), "src", "a.ts")

	r := New(nil)

	pos, err := r.Resolve(compiled, 2, 3)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, want, pos.File)
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 4, pos.Column)

	pos, err = r.Resolve(compiled, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 1, pos.Line)
	assert.Equal(t, 0, pos.Column)
}

func TestResolve_NearestPrecedingSegment(t *testing.T) {
	compiled := writeCompiled(t, true)
	r := New(nil)

	tests := []struct {
		name         string
		line, column int
		wantLine     int
		wantColumn   int
	}{
		{"first byte of source", 1, 1, 1, 0},
		{"after the first segment", 1, 3, 1, 0},
		{"on the last segment", 2, 3, 2, 4},
		{"past the last segment", 2, 9, 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := r.Resolve(compiled, tt.line, tt.column)
			require.NoError(t, err)
			require.NotNil(t, pos)
			assert.Equal(t, tt.wantLine, pos.Line)
			assert.Equal(t, tt.wantColumn, pos.Column)
		})
	}
}

func TestResolve_MissingMap(t *testing.T) {
	compiled := writeCompiled(t, false)
	logger := &recordingLogger{}

	pos, err := New(logger).Resolve(compiled, 1, 1)
	assert.NoError(t, err)
	assert.Nil(t, pos)
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], MapPath(compiled))
}

func TestResolve_NoMappingForPosition(t *testing.T) {
	compiled := writeCompiled(t, true)

	pos, err := New(nil).Resolve(compiled, 40, 1)
	assert.NoError(t, err)
	assert.Nil(t, pos)
}

func TestResolve_InvalidMap(t *testing.T) {
	compiled := writeCompiled(t, false)
	require.NoError(t, os.WriteFile(MapPath(compiled), []byte("{not json"), 0644))

	_, err := New(nil).Resolve(compiled, 1, 1)
	assert.Error(t, err)
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/app/src/a.ts"), sourcePath("/app/dist/a.js", "../src/a.ts"))
	assert.Equal(t, filepath.FromSlash("/abs/a.ts"), sourcePath("/app/dist/a.js", "/abs/a.ts"))
}
