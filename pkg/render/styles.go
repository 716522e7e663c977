package render

import "github.com/fatih/color"

// Styles holds color formatters for annotated snippets.
type Styles struct {
	Gutter    *color.Color
	ErrorLine *color.Color
	Caret     *color.Color
	Heading   *color.Color
}

// NewStyles creates color formatters.
// enabled=false respects --color=never and the NO_COLOR env var.
func NewStyles(enabled bool) *Styles {
	s := &Styles{
		Gutter:    color.New(color.FgHiBlue),
		ErrorLine: color.New(color.Bold, color.FgHiWhite),
		Caret:     color.New(color.Bold, color.FgRed),
		Heading:   color.New(color.Bold),
	}

	if !enabled {
		s.Gutter.DisableColor()
		s.ErrorLine.DisableColor()
		s.Caret.DisableColor()
		s.Heading.DisableColor()
	}

	return s
}

func (s *Styles) gutter(text string) string {
	if s == nil {
		return text
	}
	return s.Gutter.Sprint(text)
}

func (s *Styles) line(text string, failing bool) string {
	if s == nil || !failing {
		return text
	}
	return s.ErrorLine.Sprint(text)
}

func (s *Styles) caret(text string) string {
	if s == nil {
		return text
	}
	return s.Caret.Sprint(text)
}

// Header formats the snippet title line.
func (s *Styles) Header(text string) string {
	if s == nil {
		return text
	}
	return s.Heading.Sprint(text)
}
