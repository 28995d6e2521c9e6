package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Momentum ranking and multi-window backtest pipeline",
	Long: `quant - composite momentum asset ranking

Fetches historical price series, derives momentum factors, ranks a
ticker universe, and backtests the ranking across many lookback
windows concurrently.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backtest run --strategy config/strategy.yaml
  go run ./cmd/quant rank --tickers AAPL,MSFT,GOOG --days 60 --top 3
  go run ./cmd/quant serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "config/strategy.yaml", "strategy config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
