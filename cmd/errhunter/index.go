package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/errhunter/pkg/index"
	"github.com/praetorian-inc/errhunter/pkg/store"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

var (
	indexPath   string
	indexJSON   bool
	mergeOutput string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and combine range indexes",
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files and function spans of a range index",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

var indexMergeCmd = &cobra.Command{
	Use:   "merge <source1> <source2> [source3...]",
	Short: "Merge multiple range indexes",
	Long: `Merge multiple range indexes into a single output index.

This is useful for combining indexes built per package of a monorepo. A file
listed by several sources keeps the spans of the last one. JSON and SQLite
indexes can be mixed; the output format follows the output path.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIndexMerge,
}

func init() {
	indexListCmd.Flags().StringVar(&indexPath, "index", index.DefaultFileName, "Range index path")
	indexListCmd.Flags().BoolVar(&indexJSON, "json", false, "Output JSON")
	indexMergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", index.DefaultFileName, "Output index path")

	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexMergeCmd)
}

func runIndexList(cmd *cobra.Command, args []string) error {
	s, err := store.New(store.Config{Path: indexPath})
	if err != nil {
		return err
	}
	defer s.Close()

	idx, err := s.Load()
	if err != nil {
		return fmt.Errorf("loading range index: %w", err)
	}

	out := cmd.OutOrStdout()
	if indexJSON {
		data, err := index.Marshal(idx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	for _, file := range idx.Files() {
		spans, _ := idx.Spans(file)
		fmt.Fprintf(out, "%s (%d functions)\n", file, len(spans))
		if verbose {
			// Positions are shown when the source is still readable.
			content, _ := os.ReadFile(file)
			for _, span := range spans {
				fmt.Fprintf(out, "  %s\n", formatSpan(span, content))
			}
		}
	}
	return nil
}

func formatSpan(span types.Span, content []byte) string {
	s := fmt.Sprintf("[%d, %d) %d bytes", span.Start, span.End, span.Width())
	if content == nil || int(span.End) > len(content) {
		return s
	}
	startLine, startCol := types.ComputeLineColumn(content, int(span.Start))
	endLine, endCol := types.ComputeLineColumn(content, int(span.End))
	return fmt.Sprintf("%s %d:%d-%d:%d", s, startLine, startCol, endLine, endCol)
}

func runIndexMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merge complete:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Sources processed: %d\n", stats.SourcesProcessed)
	fmt.Fprintf(cmd.OutOrStdout(), "  Files merged: %d\n", stats.FilesMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Spans merged: %d\n", stats.SpansMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", mergeOutput)

	return nil
}

// printJSON is shared by commands with --json output.
func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
