package runtime

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/errhunter/pkg/frames"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

const libSource = `"use strict";
function fail(msg) {
  throw new Error(msg);
}
exports.fail = fail;
exports.value = 42;
`

func writeModule(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunFile_Exports(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "lib.js", libSource)

	r, err := New()
	require.NoError(t, err)

	exports, err := r.RunFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), exports.ToObject(nil).Get("value").ToInteger())
}

func TestCall_ThrowsException(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "lib.js", libSource)

	r, err := New()
	require.NoError(t, err)

	_, err = r.Call(path, "fail", "boom")
	require.Error(t, err)

	var exc *Exception
	require.True(t, errors.As(err, &exc))
	assert.Equal(t, "boom", exc.Message)

	stack := frames.Parse(exc.StackTrace())
	require.NotEmpty(t, stack)
	assert.Equal(t, "fail", stack[0].Function)
	assert.Equal(t, path, stack[0].FileName)
	assert.Equal(t, 3, stack[0].Line)
	assert.Greater(t, stack[0].Column, 0)

	converted := types.FromError(err)
	require.NotNil(t, converted)
	assert.Equal(t, exc.Stack, converted.Stack)
}

func TestRequire_RelativeModule(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "lib.js", libSource)
	main := writeModule(t, dir, "main.js", `"use strict";
const lib = require("./lib");
exports.run = function run() {
  return lib.value + 1;
};
exports.crash = function crash() {
  lib.fail("nested");
};
`)

	r, err := New()
	require.NoError(t, err)

	v, err := r.Call(main, "run")
	require.NoError(t, err)
	assert.Equal(t, int64(43), v.ToInteger())

	_, err = r.Call(main, "crash")
	var exc *Exception
	require.True(t, errors.As(err, &exc))

	stack := frames.Parse(exc.Stack)
	require.GreaterOrEqual(t, len(stack), 2)
	assert.Equal(t, filepath.Join(dir, "lib.js"), stack[0].FileName)
	assert.Equal(t, main, stack[1].FileName)
	assert.Equal(t, 7, stack[1].Line)
}

func TestRunFile_TopLevelThrow(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "top.js", "\nthrow \"plain\";\n")

	r, err := New()
	require.NoError(t, err)

	_, err = r.RunFile(path)
	var exc *Exception
	require.True(t, errors.As(err, &exc))
	assert.Equal(t, "plain", exc.Message)
}

func TestRunFile_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "bad.js", "function (\n")

	r, err := New()
	require.NoError(t, err)

	_, err = r.RunFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConsoleLogAndStackLimit(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "log.js", `console.log("limit", Error.stackTraceLimit === Infinity);`)

	var lines []string
	r, err := New(WithStdout(func(line string) { lines = append(lines, line) }))
	require.NoError(t, err)

	_, err = r.RunFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"limit true"}, lines)
}
