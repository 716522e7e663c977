package types

import "bytes"

// ComputeLineColumn computes line and column numbers from a byte offset in content.
// Lines and columns are 1-indexed (first line is 1, first column is 1).
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	line = 1
	column = 1
	for i := 0; i < byteOffset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// LineOf returns the 1-based line containing byteOffset, or -1 when the
// offset lies outside content. An offset equal to len(content) belongs to
// the last line.
func LineOf(content []byte, byteOffset int) int {
	if byteOffset < 0 || byteOffset > len(content) {
		return -1
	}
	return 1 + bytes.Count(content[:byteOffset], []byte{'\n'})
}

// OffsetOf converts a 1-based line and 0-based column into a byte offset:
// the lengths of all preceding lines, newlines included, plus column.
// It returns -1 when content has fewer than line lines.
func OffsetOf(content []byte, line, column int) int {
	if line < 1 || column < 0 {
		return -1
	}
	offset := 0
	for cur := 1; cur < line; cur++ {
		idx := bytes.IndexByte(content[offset:], '\n')
		if idx < 0 {
			return -1
		}
		offset += idx + 1
	}
	return offset + column
}
