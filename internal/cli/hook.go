package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/changelens/internal/gitctx"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git post-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Analyze every new commit from a post-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := gitctx.New("", nil).HookPath(cmd.Context())
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		if err := gitctx.InstallHook(path, gitctx.HookScript(hookCommand(format, out))); err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed changelens %s hook at %s\n", gitctx.HookName, path)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the changelens post-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := gitctx.New("", nil).HookPath(cmd.Context())
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}

		removed, err := gitctx.UninstallHook(path)
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}
		if !removed {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s hook found.\n", gitctx.HookName)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed changelens section from %s\n", path)
		return nil
	},
}

// hookCommand is the command line the hook runs after each commit.
func hookCommand(format, out string) string {
	args := []string{"changelens", "analyze", "commit", "HEAD"}
	if format != "" {
		args = append(args, "--format", format)
	}
	if out != "" {
		args = append(args, "--out", shellQuote(out))
	}
	return strings.Join(args, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().String("format", "text", "Output format (markdown, text, json, yaml)")
	hookInstallCmd.Flags().String("out", "", "Write each report to this file instead of the terminal")
}
