package cmd

import (
	"fmt"

	cobra "github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Display version information for berth.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := GetVersionInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "berth version %s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", info.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "built at: %s\n", info.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
