package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/errhunter/pkg/hunter"
	"github.com/praetorian-inc/errhunter/pkg/render"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

var (
	verbose   bool
	quiet     bool
	colorMode string
)

var rootCmd = &cobra.Command{
	Use:   "errhunter",
	Short: "errhunter - source context for TypeScript runtime errors",
	Long: `errhunter compiles TypeScript projects to CommonJS with source maps and
records the byte span of every function. When compiled code fails, it maps the
failing frame back to the original source and prints the enclosing function
with a caret under the failing column.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(symbolicateCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// stderrLogger writes warnings as "warning: ..." lines.
type stderrLogger struct {
	w io.Writer
}

func (l stderrLogger) Log(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "warning: "+format+"\n", args...)
}

// warnLogger reports symbolication warnings unless --quiet is set.
func warnLogger(cmd *cobra.Command) types.Logger {
	if quiet {
		return types.NoopLogger{}
	}
	return stderrLogger{w: cmd.ErrOrStderr()}
}

// progressLogger reports build progress only with --verbose.
func progressLogger(cmd *cobra.Command) types.Logger {
	if !verbose || quiet {
		return types.NoopLogger{}
	}
	return stderrLogger{w: cmd.ErrOrStderr()}
}

// snippetStyles resolves --color the same way for every command.
func snippetStyles() *render.Styles {
	switch colorMode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		// Check if stdout is a TTY and NO_COLOR is not set
		if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		} else {
			color.NoColor = false
		}
	}
	return render.NewStyles(!color.NoColor)
}

// commandContext returns the command's context, which is nil when a RunE
// is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newHunter builds a Hunter from the shared symbolication flags.
func newHunter(cmd *cobra.Command, indexPath string, excludes []string, styles *render.Styles) (*hunter.Hunter, error) {
	opts := []hunter.Option{
		hunter.WithLogger(warnLogger(cmd)),
		hunter.WithStyles(styles),
		hunter.WithExcludePatterns(excludes...),
	}
	if indexPath != "" {
		opts = append(opts, hunter.WithIndexPath(indexPath))
	}
	return hunter.New(opts...)
}

// printCodes writes each snippet under a "file:start-end" header.
func printCodes(w io.Writer, codes []*types.Code, styles *render.Styles) {
	for i, code := range codes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := fmt.Sprintf("%s:%d-%d", code.FileName, code.StartLineNumber, code.EndLineNumber)
		fmt.Fprintln(w, styles.Header(header))
		fmt.Fprintln(w, code.Annotated)
	}
}
