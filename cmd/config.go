package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	config "github.com/berth-automation/berth/config"
	cobra "github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage berth configuration",
	Long:  `Create and inspect the berth configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long: fmt.Sprintf(`Initialize a new %s configuration file in the current directory
with the default regions, phases and timings.`, config.DefaultConfigPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		path, _ := cmd.Flags().GetString("path")
		return initConfigFile(cmd.OutOrStdout(), path, overwrite)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults, the config file and BERTH_* environment overrides are merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return showConfig(cmd.OutOrStdout(), currentConfig(), format)
	},
}

func initConfigFile(w io.Writer, path string, overwrite bool) error {
	if path == "" {
		path = config.DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("configuration file %s already exists (use --overwrite to replace)", path)
	}

	if err := config.DefaultConfig().SaveConfig(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Fprintf(w, "Successfully created %s\n", path)
	fmt.Fprintln(w, "Adjust the region coordinates with 'berth probe' before the first run.")
	return nil
}

func showConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q (use yaml or json)", format)
	}
}

func init() {
	configInitCmd.Flags().Bool("overwrite", false, "overwrite an existing configuration file")
	configInitCmd.Flags().String("path", "", fmt.Sprintf("where to write the file (default is %s)", config.DefaultConfigPath))
	configShowCmd.Flags().StringP("format", "f", "yaml", "output format (yaml or json)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
