package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/changelens/internal/github"
	"github.com/dshills/changelens/internal/providers"
)

// version is overridden at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitSkipped      = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "changelens",
	Short: "Explain code changes with an AI model",
	Long: "changelens splits a git diff into per-file change records, asks an AI backend to explain each file, " +
		"and assembles the answers into a report.",
	SilenceUsage: true,
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command with the process arguments and returns an
// exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// fail prints err with its hints to w and records code as the exit code.
func fail(w io.Writer, err error, code int) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
	exitCode = code
}

// exitCodeFor maps a failed operation to its exit code.
func exitCodeFor(err error) int {
	var unsupported *providers.UnsupportedProviderError
	switch {
	case providers.IsAuthError(err), errors.Is(err, github.ErrUnauthorized):
		return ExitAuthError
	case errors.As(err, &unsupported):
		return ExitUsageError
	default:
		return ExitRuntimeError
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print changelens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "changelens version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR, QUIET)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")
}
