package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/errhunter/pkg/serve"
)

var (
	serveIndex   string
	serveExclude []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as streaming server for Node.js integration",
	Long: `Run errhunter as a long-lived streaming server that accepts symbolication
requests via stdin and writes annotated source via stdout using NDJSON format.

A Node.js process can pass err.message and err.stack of a failure and receive
the source of the failing TypeScript function. The range index is re-read for
every request, so rebuilding the project does not require a restart. The
server runs until stdin closes or SIGTERM is received.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveIndex, "index", "", "Range index path (default: .file-fn-range.json)")
	serveCmd.Flags().StringSliceVar(&serveExclude, "exclude", nil, "Skip frames whose path matches this regular expression (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Responses go to stdout as JSON; snippets stay uncolored.
	h, err := newHunter(cmd, serveIndex, serveExclude, nil)
	if err != nil {
		return err
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := serve.NewServer(h, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
