// Package frames extracts call-stack frames from JavaScript stack traces
// and selects the ones that belong to the project.
package frames

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

var (
	// V8 / Node and goja: "at fn (file:line:col)", "at file:line:col",
	// goja appends the program counter as "(pc)".
	v8Frame = regexp.MustCompile(`^at (?:(.+?) \()?(.+?):(\d+):(\d+)(?:\(\d+\))?\)?$`)

	// SpiderMonkey / JavaScriptCore: "fn@file:line:col".
	geckoFrame = regexp.MustCompile(`^(.*?)@(.+?):(\d+):(\d+)$`)
)

// Parse extracts frames from stack, innermost first. Lines that are not
// frames (the message header, native frames, "at async Promise.all
// (index 0)") are skipped. No depth limit is applied.
func Parse(stack string) []types.Frame {
	var frames []types.Frame
	for _, line := range strings.Split(stack, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if f, ok := parseLine(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func parseLine(line string) (types.Frame, bool) {
	var m []string
	if strings.HasPrefix(line, "at ") {
		m = v8Frame.FindStringSubmatch(line)
	} else {
		m = geckoFrame.FindStringSubmatch(line)
	}
	if m == nil {
		return types.Frame{}, false
	}

	lineNo, err := strconv.Atoi(m[3])
	if err != nil {
		return types.Frame{}, false
	}
	col, err := strconv.Atoi(m[4])
	if err != nil {
		return types.Frame{}, false
	}

	fn := strings.TrimPrefix(m[1], "async ")
	return types.Frame{
		Function: fn,
		FileName: normalizeFile(m[2]),
		Line:     lineNo,
		Column:   col,
	}, true
}

func normalizeFile(name string) string {
	if strings.HasPrefix(name, "file://") {
		name = strings.TrimPrefix(name, "file://")
		return filepath.FromSlash(name)
	}
	return name
}
