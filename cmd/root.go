package cmd

import (
	"fmt"
	"os"

	config "github.com/berth-automation/berth/config"
	logger "github.com/berth-automation/berth/internal/logger"
	cobra "github.com/spf13/cobra"
)

// appConfig is loaded once per invocation by initConfig
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "berth",
	Short: "Screen-reading phase automation",
	Long: `berth watches small counters on a fixed on-screen UI, reads their
"left/right" numbers with OCR and repeats configured click sequences for as
long as the numbers allow it.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use 'berth run' to start the phase cycle, 'berth probe' to check a region, or --help.")
	},
}

// Execute runs the root command
func Execute() {
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	configPath, _ := rootCmd.PersistentFlags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(verbose, loggerOptions(cfg.Logging)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	appConfig = cfg
}

func loggerOptions(c config.LoggingConfig) logger.Options {
	return logger.Options{
		Level:  c.Level,
		Format: c.Format,
		File:   c.File,
	}
}

func currentConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}
