package types

// Span is the byte range of one function-like construct in a source file.
// Slicing uses the half-open interval [Start, End); containment of an
// offset is inclusive on both ends.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Width returns End - Start.
func (s Span) Width() uint32 {
	return s.End - s.Start
}

// Contains reports whether offset lies within [Start, End].
func (s Span) Contains(offset int) bool {
	return offset >= 0 && uint64(s.Start) <= uint64(offset) && uint64(offset) <= uint64(s.End)
}

// Position is a location in an original source file.
// Line is 1-based, Column is 0-based.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// SourcePoint is line:column position (1-based).
type SourcePoint struct {
	Line   int
	Column int
}
