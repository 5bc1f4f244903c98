// Package cmd provides the CLI commands for playprice.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"playprice/internal/config"
	"playprice/internal/errors"
	"playprice/internal/logging"
)

const defaultConfigFile = "playprice.json"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "playprice",
	Short: "Reconcile and apply regional subscription prices",
	Long: `playprice reconciles a CSV of per-region subscription prices against
the live base plan on the billing platform, previews the resulting
changes, and optionally applies them.

Examples:
  playprice update --csv prices.csv
  playprice update --csv prices.csv --apply
  playprice update --csv prices.csv --fix-currency --convert-currency --apply`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error to the process exit code: apply failures are
// distinguished from input, config, and lookup problems.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.IsType(err, errors.TypeValidation) || errors.IsType(err, errors.TypeNetwork) {
		return 2
	}
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	// Tokens and other secrets may live in a local .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if _, statErr := os.Stat(cfgFile); os.IsNotExist(statErr) && cfgFile == defaultConfigFile {
		fmt.Fprintf(os.Stderr, "No %s found, using defaults (run 'playprice config init' to create one)\n", defaultConfigFile)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("playprice version 0.1.0")
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configInitCmd writes a default config file for editing
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists, not overwriting", cfgFile)
		}
		if err := config.Default().Save(cfgFile); err != nil {
			return fmt.Errorf("cannot write %s: %w", cfgFile, err)
		}
		fmt.Printf("Wrote %s\n", cfgFile)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
