// Package render slices function source out of a file and annotates the
// failing line with a caret and message.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// caretArrow separates the caret from the failure message.
const caretArrow = "^ ------------> "

// Renderer produces code snippets.
type Renderer struct {
	logger types.Logger
	styles *Styles
}

// New creates a Renderer. A nil logger discards warnings; nil styles
// render plain text.
func New(logger types.Logger, styles *Styles) *Renderer {
	if logger == nil {
		logger = types.NoopLogger{}
	}
	return &Renderer{logger: logger, styles: styles}
}

// Slice cuts span out of content, trims surrounding whitespace and computes
// the 1-based lines of the trimmed text. A line that cannot be located is
// logged and reported as -1.
func (r *Renderer) Slice(fileName string, content []byte, span types.Span) (types.Code, error) {
	start := int(span.Start)
	if start > len(content) || span.End < span.Start {
		return types.Code{}, fmt.Errorf("span %d-%d outside %s (%d bytes)", span.Start, span.End, fileName, len(content))
	}
	end := int(span.End)
	if end > len(content) {
		end = len(content)
	}

	raw := content[start:end]
	left := bytes.TrimLeftFunc(raw, unicode.IsSpace)
	body := bytes.TrimRightFunc(left, unicode.IsSpace)
	lead := len(raw) - len(left)
	trail := len(left) - len(body)

	endOffset := int(span.End)
	if endOffset <= len(content) {
		endOffset -= trail
	}

	return types.Code{
		FileName:        fileName,
		Content:         string(body),
		StartLineNumber: r.lineOf(fileName, content, start+lead),
		EndLineNumber:   r.lineOf(fileName, content, endOffset),
	}, nil
}

func (r *Renderer) lineOf(fileName string, content []byte, offset int) int {
	line := types.LineOf(content, offset)
	if line < 0 {
		r.logger.Log("can't find line number for position %d in file %s", offset, fileName)
	}
	return line
}

// Annotate prefixes every line of code with a right-aligned line number
// and inserts a caret line carrying message under errLine at errColumn.
func (r *Renderer) Annotate(code types.Code, errLine, errColumn int, message string) string {
	lines := strings.Split(code.Content, "\n")
	width := len(strconv.Itoa(code.StartLineNumber + len(lines) - 1))
	if w := len(strconv.Itoa(code.StartLineNumber)); w > width {
		width = w
	}
	if errColumn < 0 {
		errColumn = 0
	}

	var b strings.Builder
	for i, line := range lines {
		num := code.StartLineNumber + i
		prefix := fmt.Sprintf("> %*d ", width, num)
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.styles.gutter(prefix))
		b.WriteString(r.styles.line(line, num == errLine))
		if num == errLine {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", len(prefix)+errColumn))
			b.WriteString(r.styles.caret(caretArrow + message))
		}
	}
	return b.String()
}

// Render slices span and returns the Code with its annotated form.
func (r *Renderer) Render(fileName string, content []byte, span types.Span, errLine, errColumn int, message string) (*types.Code, error) {
	code, err := r.Slice(fileName, content, span)
	if err != nil {
		return nil, err
	}
	code.Annotated = r.Annotate(code, errLine, errColumn, message)
	return &code, nil
}
