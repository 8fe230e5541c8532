package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/changelens/internal/config"
	"github.com/dshills/changelens/internal/logging"
	"github.com/dshills/changelens/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: providers.AnthropicTag,
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-opus-4-20250514",
			"claude-3-5-haiku-latest",
		},
	},
	{
		Provider: providers.OpenAITag,
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4.1-mini",
			"o3-mini",
		},
	},
	{
		Provider: providers.LocalTag,
		Models: []string{
			"llama3.1",
			"llama3.3",
			"codellama",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s:\n", info.Provider)
			def := providers.DefaultModel(info.Provider)
			for _, m := range info.Models {
				if m == def {
					fmt.Fprintf(out, "  - %s (default)\n", m)
				} else {
					fmt.Fprintf(out, "  - %s\n", m)
				}
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured provider accepts requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		stderr := cmd.ErrOrStderr()
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			fail(stderr, err, ExitUsageError)
			return nil
		}
		log, err := logging.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			fail(stderr, err, ExitUsageError)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s...\n", cfg.Provider)

		backend, err := openBackend(cfg, log)
		if err != nil {
			fmt.Fprintf(stderr, "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if _, err := backend.Respond(ctx, "Respond with exactly: ok", "ping"); err != nil {
			fmt.Fprintf(stderr, "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", backend.Name())
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().String("provider", "", "Provider to check")
	modelsDoctorCmd.Flags().String("model", "", "Model to check")
	modelsDoctorCmd.Flags().String("base-url", "", "Override the provider endpoint")
}
