package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	storePath string
	configID  string
)

var rootCmd = &cobra.Command{
	Use:   "polytrack",
	Short: "Polymorphic Association Tracker & Query Toolkit",
	Long: `A CLI tool for tracking MySQL polymorphic associations: discovers
{type}_id/{type}_type column pairs from a live schema, persists the valid
target mapping, and validates it.

Features:
  - Convention-based discovery with confidence scoring
  - Durable valid-target tracking with soft and hard removal
  - Config validation and schema inconsistency detection
  - Schema analysis and complexity metrics`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "polytrack.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Store overrides
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "",
		"Override config store path")
	rootCmd.PersistentFlags().StringVar(&configID, "config-id", "",
		"Override config document id")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	StorePath string
	ConfigID  string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		StorePath: storePath,
		ConfigID:  configID,
	}
}
