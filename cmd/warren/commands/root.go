package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/config"
	"github.com/dyluth/warren/internal/logging"
	"github.com/dyluth/warren/internal/printer"
)

var (
	version string
	commit  string
	date    string

	configPath string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "warren",
	Short: "Warren - allocation survey engine",
	Long: `Warren runs a behavioural-economics allocation survey. Respondents split a
fixed amount between a safe option and a risky one across a seeded flow of
screens, answer follow-up questions, and submit one wide row per session.

Sessions can be kept in memory, Redis or SQLite; finished rows are collected
by the ingestion service into CSV or Postgres.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to warren.yml or warren.toml (defaults apply if omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads --config, or returns the defaults when it is not set.
func loadConfig() (*config.WarrenConfig, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, printer.Error(
				"configuration not found",
				fmt.Sprintf("No file at %s.", configPath),
				"Omit --config to run with the defaults",
			)
		}
		return nil, printer.Error("invalid configuration", err.Error())
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	log, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
