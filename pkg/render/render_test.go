package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Log(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

const source = "import { x } from './x';\n" +
	"\n" +
	"export function add(x: number, y: number): number {\n" +
	"  return x + y;\n" +
	"}\n"

func addSpan() types.Span {
	start := strings.Index(source, "export function")
	return types.Span{Start: uint32(start), End: uint32(strings.LastIndex(source, "}") + 1)}
}

func TestSlice(t *testing.T) {
	code, err := New(nil, nil).Slice("add.ts", []byte(source), addSpan())
	require.NoError(t, err)

	assert.Equal(t, "add.ts", code.FileName)
	assert.Equal(t, "export function add(x: number, y: number): number {\n  return x + y;\n}", code.Content)
	assert.Equal(t, 3, code.StartLineNumber)
	assert.Equal(t, 5, code.EndLineNumber)
}

func TestSlice_TrimsSurroundingWhitespace(t *testing.T) {
	// Spans that include leading trivia still report the first real line.
	span := types.Span{Start: uint32(strings.Index(source, "\n\nexport")), End: uint32(len(source))}
	code, err := New(nil, nil).Slice("add.ts", []byte(source), span)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code.Content, "export function"))
	assert.True(t, strings.HasSuffix(code.Content, "}"))
	assert.Equal(t, 3, code.StartLineNumber)
	assert.Equal(t, 5, code.EndLineNumber)
}

func TestSlice_LineLookupFailure(t *testing.T) {
	logger := &recordingLogger{}
	span := types.Span{Start: addSpan().Start, End: uint32(len(source) + 10)}

	code, err := New(logger, nil).Slice("add.ts", []byte(source), span)
	require.NoError(t, err)
	assert.Equal(t, 3, code.StartLineNumber)
	assert.Equal(t, -1, code.EndLineNumber)
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "add.ts")
}

func TestSlice_OutOfRange(t *testing.T) {
	_, err := New(nil, nil).Slice("add.ts", []byte(source), types.Span{Start: 500, End: 600})
	assert.Error(t, err)
}

func TestAnnotate(t *testing.T) {
	code := types.Code{
		FileName:        "add.ts",
		Content:         "export function add(x: number, y: number): number {\n  return x + y;\n}",
		StartLineNumber: 3,
		EndLineNumber:   5,
	}

	got := New(nil, nil).Annotate(code, 4, 9, "boom")
	want := "> 3 export function add(x: number, y: number): number {\n" +
		"> 4   return x + y;\n" +
		"             ^ ------------> boom\n" +
		"> 5 }"
	assert.Equal(t, want, got)
}

func TestAnnotate_PadsLineNumbers(t *testing.T) {
	code := types.Code{Content: "a\nb\nc", StartLineNumber: 9, EndLineNumber: 11}

	got := New(nil, nil).Annotate(code, 10, 0, "bad")
	want := ">  9 a\n" +
		"> 10 b\n" +
		"     ^ ------------> bad\n" +
		"> 11 c"
	assert.Equal(t, want, got)
}

func TestAnnotate_KeepsEveryLine(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, fmt.Sprintf("line%d", i))
	}
	code := types.Code{Content: strings.Join(lines, "\n"), StartLineNumber: 1, EndLineNumber: 40}

	got := New(nil, nil).Annotate(code, 100, 0, "outside")
	assert.Equal(t, 40, strings.Count(got, "\n")+1)
	assert.NotContains(t, got, "^")
	assert.Contains(t, got, "> 40 line39")
}

func TestAnnotate_DisabledStylesArePlain(t *testing.T) {
	code := types.Code{Content: "a\nb", StartLineNumber: 1, EndLineNumber: 2}

	plain := New(nil, nil).Annotate(code, 2, 0, "m")
	styled := New(nil, NewStyles(false)).Annotate(code, 2, 0, "m")
	assert.Equal(t, plain, styled)
}

func TestRender(t *testing.T) {
	code, err := New(nil, nil).Render("add.ts", []byte(source), addSpan(), 4, 9, "boom")
	require.NoError(t, err)

	assert.Equal(t, 3, code.StartLineNumber)
	assert.Equal(t, 5, code.EndLineNumber)
	assert.Contains(t, code.Annotated, "> 4   return x + y;\n             ^ ------------> boom")
	assert.True(t, strings.HasPrefix(code.Content, "export function add("), code.Content)
}
