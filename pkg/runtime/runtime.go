// Package runtime executes compiled CommonJS output in an embedded
// JavaScript engine so that failures carry compiled stack positions.
package runtime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// moduleWrapper matches Node's CommonJS wrapper. It is kept on the first
// line so only first-line columns shift.
const moduleWrapper = "(function (exports, require, module, __filename, __dirname) { "

// Exception is a JavaScript error thrown by a script.
type Exception struct {
	Message string
	Stack   string
}

func (e *Exception) Error() string {
	return e.Message
}

// StackTrace returns the engine's stack text, one "at" frame per line.
func (e *Exception) StackTrace() string {
	return e.Stack
}

// Exception converts e for symbolication.
func (e *Exception) Exception() *types.Exception {
	return &types.Exception{Message: e.Message, Stack: e.Stack}
}

// Runner loads CommonJS modules from disk and runs them in one VM.
// A Runner is not safe for concurrent use.
type Runner struct {
	vm      *goja.Runtime
	modules map[string]*goja.Object
	stdout  func(string)
}

// Option configures a Runner.
type Option func(*Runner)

// WithStdout receives console.log output. The default writes to os.Stdout.
func WithStdout(fn func(line string)) Option {
	return func(r *Runner) {
		r.stdout = fn
	}
}

// New creates a Runner with console.log and an unlimited stack depth.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		vm:      goja.New(),
		modules: make(map[string]*goja.Object),
		stdout:  func(line string) { fmt.Fprintln(os.Stdout, line) },
	}
	for _, opt := range opts {
		opt(r)
	}

	console := r.vm.NewObject()
	if err := console.Set("log", r.consoleLog); err != nil {
		return nil, err
	}
	if err := console.Set("error", r.consoleLog); err != nil {
		return nil, err
	}
	if err := r.vm.Set("console", console); err != nil {
		return nil, err
	}
	if _, err := r.vm.RunString("Error.stackTraceLimit = Infinity;"); err != nil {
		return nil, fmt.Errorf("configuring stack depth: %w", err)
	}
	return r, nil
}

func (r *Runner) consoleLog(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	r.stdout(strings.Join(parts, " "))
	return goja.Undefined()
}

// RunFile runs the module at path and returns its module.exports.
// JavaScript errors are returned as *Exception.
func (r *Runner) RunFile(path string) (goja.Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	exports, err := r.require(abs)
	if err != nil {
		return nil, convert(err)
	}
	return exports, nil
}

// Call invokes the exported function name of the module at path.
func (r *Runner) Call(path, name string, args ...interface{}) (goja.Value, error) {
	exports, err := r.RunFile(path)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(exports.ToObject(r.vm).Get(name))
	if !ok {
		return nil, fmt.Errorf("%s does not export a function %q", path, name)
	}

	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = r.vm.ToValue(a)
	}
	v, err := fn(goja.Undefined(), values...)
	if err != nil {
		return nil, convert(err)
	}
	return v, nil
}

func (r *Runner) require(abs string) (goja.Value, error) {
	if module, ok := r.modules[abs]; ok {
		return module.Get("exports"), nil
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading module: %w", err)
	}

	ast, err := goja.Parse(abs, moduleWrapper+string(src)+"\n})", parser.WithDisableSourceMaps)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", abs, err)
	}
	prg, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", abs, err)
	}

	wrapper, err := r.vm.RunProgram(prg)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, fmt.Errorf("module wrapper for %s is not a function", abs)
	}

	module := r.vm.NewObject()
	exports := r.vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	r.modules[abs] = module

	dir := filepath.Dir(abs)
	requireFn := func(call goja.FunctionCall) goja.Value {
		v, err := r.require(resolveModule(dir, call.Argument(0).String()))
		if err != nil {
			var jsErr *goja.Exception
			if errors.As(err, &jsErr) {
				panic(jsErr)
			}
			panic(r.vm.NewGoError(err))
		}
		return v
	}

	_, err = fn(goja.Undefined(), exports, r.vm.ToValue(requireFn), module, r.vm.ToValue(abs), r.vm.ToValue(dir))
	if err != nil {
		delete(r.modules, abs)
		return nil, err
	}
	return module.Get("exports"), nil
}

// resolveModule maps a relative specifier to a compiled file.
func resolveModule(dir, spec string) string {
	path := spec
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, spec)
	}
	if filepath.Ext(path) != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, candidate := range []string{path + ".js", filepath.Join(path, "index.js")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path
}

func convert(err error) error {
	var jsErr *goja.Exception
	if !errors.As(err, &jsErr) {
		return err
	}

	message := jsErr.Value().String()
	if obj, ok := jsErr.Value().(*goja.Object); ok {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
			message = m.String()
		}
	}
	return &Exception{Message: message, Stack: stackText(jsErr.String())}
}

// stackText keeps only the frame lines of goja's exception text.
func stackText(full string) string {
	var frames []string
	for _, line := range strings.Split(full, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "at ") {
			frames = append(frames, line)
		}
	}
	return strings.Join(frames, "\n")
}
