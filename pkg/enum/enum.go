package enum

import (
	"context"
)

// Enumerator discovers source files to compile.
type Enumerator interface {
	// Enumerate yields source files from the root.
	// The callback receives the file path and its content.
	Enumerate(ctx context.Context, callback func(path string, content []byte) error) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// Match selects files by path. Nil accepts every file.
	Match func(path string) bool

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// SkipDirs are directory names never descended into.
	SkipDirs []string

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool
}

// DefaultSkipDirs are dependency directories excluded from compilation.
var DefaultSkipDirs = []string{"node_modules", "bower_components", "jspm_packages"}
