package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/alphapulse/config"
	"github.com/rustyeddy/alphapulse/internal/logger"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "alphapulse",
	Short: "EURUSD reinforcement-learning trading research pipeline",
	Long: `AlphaPulse collects 15-minute EURUSD price history, stores it in
SQLite, and trains/evaluates a trading policy in a simulated account with
prop-firm style drawdown and profit-target rules.

Typical workflow:
  alphapulse collect dukascopy --from 2024-01-01 --to 2024-06-30
  alphapulse train
  alphapulse eval --policy softmax --model policy.json`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when omitted")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig returns the file-backed configuration, or defaults when no
// --config was given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

func newLogger(component string) *slog.Logger {
	return logger.New(component, logLevel)
}
