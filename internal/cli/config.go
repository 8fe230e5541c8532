package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/changelens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage changelens configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.Save(config.Default()); err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value in the config file. List values are comma-separated. Run `changelens config keys` for the key names.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			// An unreadable file is replaced, starting from defaults.
			cfg = config.Default()
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			fail(cmd.ErrOrStderr(), err, ExitUsageError)
			return nil
		}
		if err := config.Validate(cfg); err != nil {
			fail(cmd.ErrOrStderr(), err, ExitUsageError)
			return nil
		}
		if err := config.Save(cfg); err != nil {
			fail(cmd.ErrOrStderr(), err, ExitRuntimeError)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			fail(cmd.ErrOrStderr(), err, ExitUsageError)
			return nil
		}

		format, _ := cmd.Flags().GetString("format")
		var data []byte
		switch format {
		case "yaml", "yml":
			data, err = yaml.Marshal(cfg)
		default:
			data, err = json.MarshalIndent(cfg, "", "  ")
			data = append(data, '\n')
		}
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys and their environment variables",
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tENVIRONMENT")
		for _, k := range config.Keys() {
			fmt.Fprintf(tw, "%s\t%s\n", k, config.EnvName(k))
		}
		tw.Flush() //nolint:errcheck
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configShowCmd.Flags().String("format", "json", "Output format (json, yaml)")
}
