// Package compile transpiles a TypeScript project to CommonJS with source
// maps and records the function span index used for symbolication.
package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/praetorian-inc/errhunter/pkg/enum"
	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/recorder"
	"github.com/praetorian-inc/errhunter/pkg/resolve"
	"github.com/praetorian-inc/errhunter/pkg/store"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

// DefaultTarget is used when the config names no target. It keeps the
// output within what the embedded runtime executes.
const DefaultTarget = "es2017"

// WriteFunc persists one emitted file.
type WriteFunc func(path string, data []byte) error

// Diagnostic is one transpiler error.
type Diagnostic struct {
	File   string
	Line   int
	Column int
	Text   string
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}

// EmitError aggregates every transpiler error of a build. No output is
// written when a build fails.
type EmitError struct {
	Diagnostics []Diagnostic
}

func (e *EmitError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "\n")
}

// Result summarizes a successful build.
type Result struct {
	Config *Config
	// Sources are the compiled source files, sorted.
	Sources []string
	// Outputs are the written files, sorted.
	Outputs []string
	// Index is the recorded span index.
	Index *index.Index
	// IndexPath is where the index was persisted, empty with WithStore.
	IndexPath string
}

type config struct {
	write     WriteFunc
	logger    types.Logger
	store     store.Store
	indexPath string
}

// Option configures Compile.
type Option func(*config)

// WithWriteFunc replaces the filesystem writer.
func WithWriteFunc(fn WriteFunc) Option {
	return func(c *config) {
		c.write = fn
	}
}

// WithLogger receives transpiler warnings and progress.
func WithLogger(logger types.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStore persists the index into s. The caller owns s.
func WithStore(s store.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithIndexPath overrides the index location. It defaults to the config's
// indexFile, then index.DefaultFileName in the working directory.
func WithIndexPath(path string) Option {
	return func(c *config) {
		c.indexPath = path
	}
}

// WriteFile is the default WriteFunc.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type emitted struct {
	source string
	spans  []types.Span
	jsPath string
	js     []byte
	mapRaw []byte
}

// Compile builds every TypeScript source found under dir. configPath may be
// empty, in which case tsconfig.json or errhunter.yaml in dir is used when
// present. The config's rootDir and outDir only place the output; the scan
// always covers dir.
func Compile(ctx context.Context, dir, configPath string, opts ...Option) (*Result, error) {
	cfg := &config{
		write:  WriteFile,
		logger: types.NoopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = types.NoopLogger{}
	}

	if configPath == "" {
		configPath = FindConfig(dir)
	}
	var projCfg *Config
	var err error
	if configPath != "" {
		projCfg, err = LoadConfig(configPath)
	} else {
		projCfg, err = DefaultConfig(dir)
	}
	if err != nil {
		return nil, err
	}

	scanRoot, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	transform, err := transformOptions(projCfg)
	if err != nil {
		return nil, &ConfigError{Path: projCfg.Path, Err: err}
	}

	var ignore *gitignore.GitIgnore
	if len(projCfg.Exclude) > 0 {
		ignore = gitignore.CompileIgnoreLines(projCfg.Exclude...)
	}

	rec := recorder.New()
	var (
		mu      sync.Mutex
		results []emitted
		diags   []Diagnostic
	)

	enumerator := enum.NewFilesystemEnumerator(enum.Config{
		Root:     scanRoot,
		SkipDirs: enum.DefaultSkipDirs,
		Match: func(path string) bool {
			if !recorder.Supported(path) {
				return false
			}
			if ignore != nil {
				if rel, err := filepath.Rel(projCfg.RootDir, path); err == nil && ignore.MatchesPath(rel) {
					return false
				}
			}
			return true
		},
	})

	err = enumerator.Enumerate(ctx, func(path string, content []byte) error {
		out, fileDiags, err := compileFile(ctx, rec, projCfg, scanRoot, transform, path, content, cfg.logger)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if len(fileDiags) > 0 {
			diags = append(diags, fileDiags...)
			return nil
		}
		results = append(results, out)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(diags) > 0 {
		sort.SliceStable(diags, func(i, j int) bool { return diags[i].File < diags[j].File })
		return nil, &EmitError{Diagnostics: diags}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].source < results[j].source })

	result := &Result{Config: projCfg, Index: index.New()}
	for _, r := range results {
		if err := cfg.write(r.jsPath, r.js); err != nil {
			return nil, fmt.Errorf("writing %s: %w", r.jsPath, err)
		}
		mapPath := resolve.MapPath(r.jsPath)
		if err := cfg.write(mapPath, r.mapRaw); err != nil {
			return nil, fmt.Errorf("writing %s: %w", mapPath, err)
		}
		result.Sources = append(result.Sources, r.source)
		result.Outputs = append(result.Outputs, r.jsPath, mapPath)
		result.Index.Put(r.source, r.spans)
		cfg.logger.Log("compiled %s -> %s (%d functions)", r.source, r.jsPath, len(r.spans))
	}
	sort.Strings(result.Outputs)

	if err := persist(cfg, projCfg, result); err != nil {
		return nil, err
	}
	return result, nil
}

func compileFile(ctx context.Context, rec *recorder.Recorder, projCfg *Config, scanRoot string, base api.TransformOptions, path string, content []byte, logger types.Logger) (emitted, []Diagnostic, error) {
	spans, err := rec.Record(ctx, path, content)
	if err != nil {
		return emitted{}, nil, fmt.Errorf("recording %s: %w", path, err)
	}

	jsPath, err := outputPath(projCfg, scanRoot, path)
	if err != nil {
		return emitted{}, nil, err
	}
	sourceRel, err := filepath.Rel(filepath.Dir(jsPath), path)
	if err != nil {
		return emitted{}, nil, fmt.Errorf("relating %s to output: %w", path, err)
	}

	opts := base
	opts.Sourcefile = filepath.ToSlash(sourceRel)
	if strings.EqualFold(filepath.Ext(path), ".tsx") {
		opts.Loader = api.LoaderTSX
	}

	res := api.Transform(string(content), opts)
	for _, w := range res.Warnings {
		logger.Log("%s", toDiagnostic(path, w))
	}
	if len(res.Errors) > 0 {
		diags := make([]Diagnostic, len(res.Errors))
		for i, m := range res.Errors {
			diags[i] = toDiagnostic(path, m)
		}
		return emitted{}, diags, nil
	}

	return emitted{
		source: path,
		spans:  spans,
		jsPath: jsPath,
		js:     withMappingURL(res.Code, filepath.Base(resolve.MapPath(jsPath))),
		mapRaw: res.Map,
	}, nil, nil
}

func persist(cfg *config, projCfg *Config, result *Result) error {
	s := cfg.store
	if s == nil {
		path := cfg.indexPath
		if path == "" {
			path = projCfg.IndexFile
		}
		if path == "" {
			path = index.DefaultFileName
		}
		var err error
		s, err = store.New(store.Config{Path: path})
		if err != nil {
			return fmt.Errorf("opening range index: %w", err)
		}
		defer s.Close()
		result.IndexPath = path
	}

	for _, file := range result.Index.Files() {
		spans, _ := result.Index.Spans(file)
		if err := s.PutFile(file, spans); err != nil {
			return fmt.Errorf("storing spans for %s: %w", file, err)
		}
	}
	if err := s.Flush(); err != nil {
		return fmt.Errorf("writing range index: %w", err)
	}
	return nil
}

// outputPath places source under outDir relative to rootDir. Sources
// outside rootDir are placed relative to the scanned directory instead.
func outputPath(projCfg *Config, scanRoot, source string) (string, error) {
	rel, err := filepath.Rel(projCfg.RootDir, source)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel, err = filepath.Rel(scanRoot, source)
	}
	if err != nil {
		return "", fmt.Errorf("relating %s to root: %w", source, err)
	}
	ext := filepath.Ext(rel)
	outExt := ".js"
	switch strings.ToLower(ext) {
	case ".mts":
		outExt = ".mjs"
	case ".cts":
		outExt = ".cjs"
	}
	return filepath.Join(projCfg.OutDir, strings.TrimSuffix(rel, ext)+outExt), nil
}

func withMappingURL(code []byte, mapName string) []byte {
	if strings.Contains(string(code), "//# sourceMappingURL=") {
		return code
	}
	out := make([]byte, 0, len(code)+len(mapName)+24)
	out = append(out, code...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, "//# sourceMappingURL="...)
	out = append(out, mapName...)
	out = append(out, '\n')
	return out
}

func toDiagnostic(path string, m api.Message) Diagnostic {
	d := Diagnostic{File: path, Text: m.Text}
	if m.Location != nil {
		d.Line = m.Location.Line
		d.Column = m.Location.Column
	}
	return d
}

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"esnext": api.ESNext,
}

var jsxModes = map[string]api.JSX{
	"react":        api.JSXTransform,
	"react-jsx":    api.JSXAutomatic,
	"react-jsxdev": api.JSXAutomatic,
	"preserve":     api.JSXPreserve,
}

func transformOptions(projCfg *Config) (api.TransformOptions, error) {
	name := strings.ToLower(projCfg.Target)
	if name == "" {
		name = DefaultTarget
	}
	target, ok := targets[name]
	if !ok {
		return api.TransformOptions{}, fmt.Errorf("unsupported target %q", projCfg.Target)
	}

	opts := api.TransformOptions{
		Loader:      api.LoaderTS,
		Format:      api.FormatCommonJS,
		Platform:    api.PlatformNode,
		Sourcemap:   api.SourceMapExternal,
		Target:      target,
		TsconfigRaw: projCfg.raw,
	}
	if projCfg.JSX != "" {
		mode, ok := jsxModes[strings.ToLower(projCfg.JSX)]
		if !ok {
			return api.TransformOptions{}, fmt.Errorf("unsupported jsx mode %q", projCfg.JSX)
		}
		opts.JSX = mode
		opts.JSXDev = strings.EqualFold(projCfg.JSX, "react-jsxdev")
	}
	return opts, nil
}
