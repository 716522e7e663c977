package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const failSource = `export function fail(reason: string): never {
  const detail = "failed: " + reason;
  throw new Error(detail);
}
`

// resetFlags restores every package-level flag variable.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, colorMode = false, false, "never"
	buildConfig, buildIndex, buildIndexFormat = "", "", "json"
	symbolicateStackFile, symbolicateMessage, symbolicateIndex = "", "", ""
	symbolicateExclude, symbolicateDepth, symbolicateJSON = nil, 1, false
	runIndex, runExclude, runCall, runArgs, runDepth = "", nil, "", nil, 1
	indexPath, indexJSON, mergeOutput = "", false, ""
	serveIndex, serveExclude = "", nil
}

// testCommand returns a command capturing stdout and stderr.
func testCommand(stdin string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd, &out, &errOut
}

// buildProject compiles failSource in a temp dir and returns the dir and
// the index path.
func buildProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fail.ts"), []byte(failSource), 0644))

	resetFlags(t)
	buildIndex = filepath.Join(dir, "ranges.json")
	cmd, _, _ := testCommand("")
	require.NoError(t, runBuild(cmd, []string{dir}))
	return dir, buildIndex
}
