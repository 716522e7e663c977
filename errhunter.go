// Package errhunter recovers the source of the TypeScript function that
// raised a runtime error in transpiled JavaScript.
//
// A build records the byte span of every function of each source file into
// a range index and emits source maps next to the compiled output. When a
// compiled script fails, the innermost project frame of its stack is mapped
// back to the original file and the widest recorded function enclosing the
// position is returned with a caret under the failing column.
//
// # Basic Usage
//
// Compile a project, then symbolicate errors raised by its output:
//
//	if _, err := errhunter.Compile(ctx, "./project", ""); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := errhunter.Register(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if code := errhunter.SourceCode(ctx, jsErr); code != nil {
//	    fmt.Println(code.Content)
//	}
//
// # Explicit Hunters
//
// Register installs a process-wide default. Callers that prefer explicit
// wiring create their own:
//
//	h, err := errhunter.New(errhunter.WithIndexPath("build/ranges.db"))
//	tracked := h.Wrap(jsErr)
//	code := tracked.SourceCode(ctx) // computed once, nil on failure
package errhunter

import (
	"context"
	"sync"

	"github.com/praetorian-inc/errhunter/pkg/compile"
	"github.com/praetorian-inc/errhunter/pkg/hunter"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/errhunter" without subpackages.
type (
	// Code is an annotated source excerpt.
	Code = types.Code

	// Span is the byte range of a recorded function.
	Span = types.Span

	// Position is a location in an original source file.
	Position = types.Position

	// Frame is one parsed stack frame.
	Frame = types.Frame

	// Exception is a captured runtime error: message and stack text.
	Exception = types.Exception

	// Logger receives warnings.
	Logger = types.Logger

	// Hunter symbolicates exceptions.
	Hunter = hunter.Hunter

	// Tracked is an error decorated with a lazy source lookup.
	Tracked = hunter.Tracked

	// Option configures a Hunter.
	Option = hunter.Option
)

// Re-export Hunter options.
var (
	WithIndexPath       = hunter.WithIndexPath
	WithStore           = hunter.WithStore
	WithLogger          = hunter.WithLogger
	WithStyles          = hunter.WithStyles
	WithDependencyDirs  = hunter.WithDependencyDirs
	WithExcludePatterns = hunter.WithExcludePatterns
)

var (
	defaultMu     sync.RWMutex
	defaultHunter *hunter.Hunter
)

// New creates a Hunter that reads the range index from the working
// directory unless configured otherwise.
func New(opts ...Option) (*Hunter, error) {
	return hunter.New(opts...)
}

// Register installs a default Hunter used by Wrap and SourceCode.
// Calling it again replaces the previous default.
func Register(opts ...Option) error {
	h, err := hunter.New(opts...)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultHunter = h
	defaultMu.Unlock()
	return nil
}

// Default returns the registered Hunter, registering one with default
// options on first use.
func Default() *Hunter {
	defaultMu.RLock()
	h := defaultHunter
	defaultMu.RUnlock()
	if h != nil {
		return h
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHunter == nil {
		// Default options carry no exclude patterns, so this cannot fail.
		defaultHunter, _ = hunter.New()
	}
	return defaultHunter
}

// Wrap decorates err with the default Hunter.
func Wrap(err error) *Tracked {
	return Default().Wrap(err)
}

// SourceCode returns the annotated source of the function that raised
// err, or nil when it cannot be determined. Results are memoized when err
// is a *Tracked.
func SourceCode(ctx context.Context, err error) *Code {
	if err == nil {
		return nil
	}
	if t, ok := err.(*Tracked); ok {
		return t.SourceCode(ctx)
	}
	return Wrap(err).SourceCode(ctx)
}

// Compile transpiles the TypeScript project in dir and writes its range
// index. See compile.Compile.
func Compile(ctx context.Context, dir, configPath string, opts ...compile.Option) (*compile.Result, error) {
	return compile.Compile(ctx, dir, configPath, opts...)
}
