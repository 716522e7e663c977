package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/errhunter/pkg/compile"
	"github.com/praetorian-inc/errhunter/pkg/store"
)

var (
	buildConfig      string
	buildIndex       string
	buildIndexFormat string
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Compile a TypeScript project and record function spans",
	Long: `Compile every .ts/.tsx source of a project to CommonJS with external source
maps and record the byte span of each function into the range index.

The compiler config is read from --config, or from tsconfig.json or
errhunter.yaml in the project directory. Nothing is written when any file
fails to compile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildConfig, "config", "c", "", "Compiler config (tsconfig.json or errhunter.yaml)")
	buildCmd.Flags().StringVar(&buildIndex, "index", "", "Range index path (default: indexFile from config, then .file-fn-range.json)")
	buildCmd.Flags().StringVar(&buildIndexFormat, "index-format", "json", "Range index format: json, sqlite")
}

func runBuild(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	indexPath, err := indexPathForFormat(buildIndex, buildIndexFormat)
	if err != nil {
		return err
	}

	opts := []compile.Option{compile.WithLogger(progressLogger(cmd))}
	if indexPath != "" {
		opts = append(opts, compile.WithIndexPath(indexPath))
	}

	result, err := compile.Compile(commandContext(cmd), dir, buildConfig, opts...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if quiet {
		return nil
	}

	functions := 0
	for _, file := range result.Index.Files() {
		spans, _ := result.Index.Spans(file)
		functions += len(spans)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Build complete:\n")
	fmt.Fprintf(out, "  Sources compiled: %d\n", len(result.Sources))
	fmt.Fprintf(out, "  Functions recorded: %d\n", functions)
	fmt.Fprintf(out, "  Output: %s\n", result.Config.OutDir)
	fmt.Fprintf(out, "Index: %s\n", result.IndexPath)
	return nil
}

// indexPathForFormat applies --index-format to path. An empty path keeps
// the config default unless sqlite is requested.
func indexPathForFormat(path, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return path, nil
	case "sqlite":
		if path == "" {
			return ".file-fn-range.db", nil
		}
		if !store.IsSQLitePath(path) {
			return strings.TrimSuffix(path, filepath.Ext(path)) + ".db", nil
		}
		return path, nil
	}
	return "", fmt.Errorf("unknown index format %q (want json or sqlite)", format)
}
