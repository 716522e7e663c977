package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanContains(t *testing.T) {
	span := Span{Start: 10, End: 20}
	assert.False(t, span.Contains(9))
	assert.True(t, span.Contains(10))
	assert.True(t, span.Contains(15))
	assert.True(t, span.Contains(20))
	assert.False(t, span.Contains(21))
	assert.False(t, span.Contains(-1))
	assert.Equal(t, uint32(10), span.Width())
}

func TestFrameString(t *testing.T) {
	f := Frame{Function: "add", FileName: "/app/dist/a.js", Line: 3, Column: 9}
	assert.Equal(t, "add (/app/dist/a.js:3:9)", f.String())
	f.Function = ""
	assert.Equal(t, "/app/dist/a.js:3:9", f.String())
}

type stackErr struct{ msg, stack string }

func (e stackErr) Error() string      { return e.msg }
func (e stackErr) StackTrace() string { return e.stack }

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, "boom", plain.Message)
	assert.Empty(t, plain.Stack)

	wrapped := fmt.Errorf("running: %w", stackErr{msg: "bad", stack: "at f (/a.js:1:1)"})
	exc := FromError(wrapped)
	assert.Equal(t, "running: bad", exc.Message)
	assert.Equal(t, "at f (/a.js:1:1)", exc.Stack)

	orig := &Exception{Message: "x", Stack: "s"}
	assert.Same(t, orig, FromError(fmt.Errorf("wrap: %w", orig)))
}

func TestCodeLines(t *testing.T) {
	assert.Equal(t, 3, Code{StartLineNumber: 2, EndLineNumber: 4}.Lines())
	assert.Equal(t, 0, Code{StartLineNumber: -1, EndLineNumber: 4}.Lines())
}
