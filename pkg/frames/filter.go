package frames

import (
	"fmt"
	"path/filepath"

	"github.com/cloudflare/ahocorasick"
	"github.com/dlclark/regexp2"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// DefaultDependencyDirs mark frames that belong to installed packages.
var DefaultDependencyDirs = []string{"node_modules", "bower_components", "jspm_packages"}

// Filter decides which frames belong to project source.
type Filter struct {
	deps     *ahocorasick.Matcher
	excludes []*regexp2.Regexp
}

// NewFilter creates a Filter. Frames whose path contains one of
// dependencyDirs, or matches one of the ECMAScript regular expressions in
// excludePatterns, are not project frames. A nil dependencyDirs selects
// DefaultDependencyDirs.
func NewFilter(dependencyDirs []string, excludePatterns []string) (*Filter, error) {
	if dependencyDirs == nil {
		dependencyDirs = DefaultDependencyDirs
	}

	f := &Filter{}
	if len(dependencyDirs) > 0 {
		f.deps = ahocorasick.NewStringMatcher(dependencyDirs)
	}

	for _, p := range excludePatterns {
		re, err := regexp2.Compile(p, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", p, err)
		}
		f.excludes = append(f.excludes, re)
	}
	return f, nil
}

// IsProject reports whether frame points at an absolute path outside any
// dependency directory and no exclude pattern matches it.
func (f *Filter) IsProject(frame types.Frame) bool {
	if !filepath.IsAbs(frame.FileName) {
		return false
	}
	if f.deps != nil && len(f.deps.Match([]byte(frame.FileName))) > 0 {
		return false
	}
	for _, re := range f.excludes {
		if ok, err := re.MatchString(frame.FileName); err == nil && ok {
			return false
		}
	}
	return true
}

// Project returns the project frames of frames, preserving order.
func (f *Filter) Project(frames []types.Frame) []types.Frame {
	var out []types.Frame
	for _, fr := range frames {
		if f.IsProject(fr) {
			out = append(out, fr)
		}
	}
	return out
}

// ProjectFrames parses stack and keeps the project frames.
func (f *Filter) ProjectFrames(stack string) []types.Frame {
	return f.Project(Parse(stack))
}
