package types

// Code is the source text of the function enclosing a failure. Content is
// the trimmed source; Annotated adds the line gutter and the caret line.
type Code struct {
	FileName        string `json:"fileName"`
	Content         string `json:"content"`
	StartLineNumber int    `json:"startLineNumber"`
	EndLineNumber   int    `json:"endLineNumber"`
	Annotated       string `json:"annotated,omitempty"`
}

// Lines returns the number of lines covered by the snippet.
func (c Code) Lines() int {
	if c.StartLineNumber < 1 || c.EndLineNumber < c.StartLineNumber {
		return 0
	}
	return c.EndLineNumber - c.StartLineNumber + 1
}
