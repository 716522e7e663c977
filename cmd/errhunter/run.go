package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/errhunter/pkg/runtime"
	"github.com/praetorian-inc/errhunter/pkg/types"
)

var (
	runIndex   string
	runExclude []string
	runCall    string
	runArgs    []string
	runDepth   int
)

var runCmd = &cobra.Command{
	Use:   "run <file.js>",
	Short: "Run compiled JavaScript and symbolicate uncaught errors",
	Long: `Run a compiled CommonJS module in the embedded JavaScript engine. When it
throws, the error is printed followed by the source of the TypeScript function
that raised it.

With --call, the named export is invoked with the --arg values (passed as
strings) after the module loads.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runIndex, "index", "", "Range index path (default: .file-fn-range.json)")
	runCmd.Flags().StringSliceVar(&runExclude, "exclude", nil, "Skip frames whose path matches this regular expression (repeatable)")
	runCmd.Flags().StringVar(&runCall, "call", "", "Exported function to invoke after loading")
	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "Argument for --call (repeatable)")
	runCmd.Flags().IntVar(&runDepth, "depth", 1, "Number of project frames to print (0 = all)")
}

func runRun(cmd *cobra.Command, args []string) error {
	r, err := runtime.New(runtime.WithStdout(func(line string) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}))
	if err != nil {
		return err
	}

	if runCall != "" {
		callArgs := make([]interface{}, len(runArgs))
		for i, a := range runArgs {
			callArgs[i] = a
		}
		_, err = r.Call(args[0], runCall, callArgs...)
	} else {
		_, err = r.RunFile(args[0])
	}
	if err == nil {
		return nil
	}

	var exc *runtime.Exception
	if !errors.As(err, &exc) {
		return err
	}
	reportException(cmd, exc.Exception())
	return fmt.Errorf("uncaught exception: %s", exc.Message)
}

// reportException prints the stack and, when resolvable, the failing source.
func reportException(cmd *cobra.Command, exc *types.Exception) {
	w := cmd.ErrOrStderr()
	styles := snippetStyles()
	fmt.Fprintln(w, styles.Header("Error: "+exc.Message))
	fmt.Fprintln(w, exc.Stack)

	h, err := newHunter(cmd, runIndex, runExclude, styles)
	if err != nil {
		warnLogger(cmd).Log("%v", err)
		return
	}
	codes, err := h.SymbolicateFrames(commandContext(cmd), exc, runDepth)
	if err != nil {
		warnLogger(cmd).Log("can't get source code: %v", err)
		return
	}
	if len(codes) > 0 {
		fmt.Fprintln(w)
		printCodes(w, codes, styles)
	}
}
