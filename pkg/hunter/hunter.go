// Package hunter turns a runtime exception into the annotated source of
// the function that raised it.
package hunter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/praetorian-inc/errhunter/pkg/frames"
	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/matcher"
	"github.com/praetorian-inc/errhunter/pkg/render"
	"github.com/praetorian-inc/errhunter/pkg/resolve"
	"github.com/praetorian-inc/errhunter/pkg/store"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// ErrNoProjectFrame is returned when a stack has no frame in project code.
var ErrNoProjectFrame = errors.New("no project frame in stack")

// Hunter symbolicates exceptions against a range index built earlier.
// It holds no mutable state; every call re-reads the index, source maps
// and sources, so concurrent use is safe.
type Hunter struct {
	indexPath string
	store     store.Store
	filter    *frames.Filter
	resolver  *resolve.Resolver
	renderer  *render.Renderer
	logger    types.Logger
}

type config struct {
	indexPath      string
	store          store.Store
	logger         types.Logger
	styles         *render.Styles
	dependencyDirs []string
	excludes       []string
}

// Option configures a Hunter.
type Option func(*config)

// WithIndexPath reads the range index from path instead of
// index.DefaultFileName in the working directory. Paths ending in .db use
// the SQLite backend.
func WithIndexPath(path string) Option {
	return func(c *config) {
		c.indexPath = path
	}
}

// WithStore reads the range index from s. It takes precedence over
// WithIndexPath.
func WithStore(s store.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithLogger receives warnings such as missing source maps.
func WithLogger(logger types.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStyles colors the annotated snippet.
func WithStyles(s *render.Styles) Option {
	return func(c *config) {
		c.styles = s
	}
}

// WithDependencyDirs replaces frames.DefaultDependencyDirs.
func WithDependencyDirs(dirs ...string) Option {
	return func(c *config) {
		c.dependencyDirs = dirs
	}
}

// WithExcludePatterns skips frames whose path matches one of the
// ECMAScript regular expressions.
func WithExcludePatterns(patterns ...string) Option {
	return func(c *config) {
		c.excludes = append(c.excludes, patterns...)
	}
}

// New creates a Hunter.
func New(opts ...Option) (*Hunter, error) {
	cfg := &config{
		indexPath: index.DefaultFileName,
		logger:    types.NoopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = types.NoopLogger{}
	}

	filter, err := frames.NewFilter(cfg.dependencyDirs, cfg.excludes)
	if err != nil {
		return nil, fmt.Errorf("creating frame filter: %w", err)
	}

	return &Hunter{
		indexPath: cfg.indexPath,
		store:     cfg.store,
		filter:    filter,
		resolver:  resolve.New(cfg.logger),
		renderer:  render.New(cfg.logger, cfg.styles),
		logger:    cfg.logger,
	}, nil
}

// Symbolicate resolves the first project frame of exc. It returns nil
// without error when the frame's compiled file has no source map or the
// map has no entry for the position.
func (h *Hunter) Symbolicate(ctx context.Context, exc *types.Exception) (*types.Code, error) {
	if exc == nil {
		return nil, errors.New("nil exception")
	}
	stack := h.filter.ProjectFrames(exc.Stack)
	if len(stack) == 0 {
		return nil, ErrNoProjectFrame
	}
	return h.SymbolicateFrame(ctx, stack[0], exc.Message)
}

// SymbolicateFrames resolves up to depth project frames of exc, innermost
// first. Frames that cannot be resolved are skipped. depth <= 0 means all.
func (h *Hunter) SymbolicateFrames(ctx context.Context, exc *types.Exception, depth int) ([]*types.Code, error) {
	if exc == nil {
		return nil, errors.New("nil exception")
	}
	stack := h.filter.ProjectFrames(exc.Stack)
	if len(stack) == 0 {
		return nil, ErrNoProjectFrame
	}
	if depth > 0 && depth < len(stack) {
		stack = stack[:depth]
	}

	var codes []*types.Code
	for _, f := range stack {
		code, err := h.SymbolicateFrame(ctx, f, exc.Message)
		if err != nil {
			h.logger.Log("skipping frame %s: %v", f, err)
			continue
		}
		if code != nil {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// SymbolicateFrame maps one compiled frame back to its source function and
// renders it with message under the failing column.
func (h *Hunter) SymbolicateFrame(ctx context.Context, frame types.Frame, message string) (*types.Code, error) {
	pos, err := h.resolver.Resolve(frame.FileName, frame.Line, frame.Column)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(pos.File)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	idx, err := h.loadIndex()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span, err := matcher.Locate(idx, pos.File, content, pos.Line, pos.Column)
	if err != nil {
		return nil, err
	}
	return h.renderer.Render(pos.File, content, span, pos.Line, pos.Column, message)
}

func (h *Hunter) loadIndex() (*index.Index, error) {
	if h.store != nil {
		idx, err := h.store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading range index: %w", err)
		}
		return idx, nil
	}

	s, err := store.New(store.Config{Path: h.indexPath})
	if err != nil {
		return nil, fmt.Errorf("opening range index: %w", err)
	}
	defer s.Close()

	idx, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("loading range index: %w", err)
	}
	return idx, nil
}
