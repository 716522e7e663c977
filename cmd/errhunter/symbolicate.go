package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

var (
	symbolicateStackFile string
	symbolicateMessage   string
	symbolicateIndex     string
	symbolicateExclude   []string
	symbolicateDepth     int
	symbolicateJSON      bool
)

// errNoSource is returned when no frame of a stack could be symbolicated.
var errNoSource = errors.New("no source code found for stack")

var symbolicateCmd = &cobra.Command{
	Use:   "symbolicate",
	Short: "Print the source of the function that raised a JavaScript error",
	Long: `Read a JavaScript error stack (err.stack) from --stack-file or stdin, map
its innermost project frame back through the compiled file's source map and
print the enclosing function with a caret under the failing column.

The first line of the input is used as the message when it is not a frame
and --message is not given.`,
	Args: cobra.NoArgs,
	RunE: runSymbolicate,
}

func init() {
	symbolicateCmd.Flags().StringVarP(&symbolicateStackFile, "stack-file", "f", "", "File holding the stack text (default: stdin)")
	symbolicateCmd.Flags().StringVarP(&symbolicateMessage, "message", "m", "", "Error message shown under the failing column")
	symbolicateCmd.Flags().StringVar(&symbolicateIndex, "index", "", "Range index path (default: .file-fn-range.json)")
	symbolicateCmd.Flags().StringSliceVar(&symbolicateExclude, "exclude", nil, "Skip frames whose path matches this regular expression (repeatable)")
	symbolicateCmd.Flags().IntVar(&symbolicateDepth, "depth", 1, "Number of project frames to print (0 = all)")
	symbolicateCmd.Flags().BoolVar(&symbolicateJSON, "json", false, "Output JSON")
}

func runSymbolicate(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if symbolicateStackFile != "" {
		f, err := os.Open(symbolicateStackFile)
		if err != nil {
			return fmt.Errorf("opening stack file: %w", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading stack: %w", err)
	}
	exc := parseErrorText(string(data))
	if symbolicateMessage != "" {
		exc.Message = symbolicateMessage
	}

	var styles = snippetStyles()
	if symbolicateJSON {
		styles = nil
	}
	h, err := newHunter(cmd, symbolicateIndex, symbolicateExclude, styles)
	if err != nil {
		return err
	}

	codes, err := h.SymbolicateFrames(commandContext(cmd), exc, symbolicateDepth)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return errNoSource
	}

	if symbolicateJSON {
		return printJSON(cmd, codes)
	}
	printCodes(cmd.OutOrStdout(), codes, styles)
	return nil
}

// parseErrorText splits err.stack style text into message and frames.
// "TypeError: x" yields the message "x".
func parseErrorText(text string) *types.Exception {
	text = strings.TrimSpace(text)
	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	if first == "" || strings.HasPrefix(first, "at ") {
		return &types.Exception{Stack: text}
	}

	message := first
	if name, rest, ok := strings.Cut(first, ": "); ok && strings.HasSuffix(name, "Error") && !strings.Contains(name, " ") {
		message = rest
	}
	return &types.Exception{Message: message, Stack: text}
}
