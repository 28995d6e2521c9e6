package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Multi-window backtest batch",
	Long: `Runs the momentum ranking across all configured lookback windows
and aggregates the per-window outcomes into one report.

Example:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --strategy config/strategy.yaml --json`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the configured backtest batch",
		Long: `Loads the strategy YAML, validates it, and runs one batch.

Flags:
  --strategy  strategy config file (YAML)
  --json      print the full report as JSON instead of a summary

Example:
  go run ./cmd/quant backtest run --strategy config/strategy.yaml`,
		RunE: runBacktestBatch,
	}

	// Flags
	backtestJSON bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestRunCmd.Flags().BoolVar(&backtestJSON, "json", false, "print full report as JSON")
}

func runBacktestBatch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quant Backtest Batch ===")

	strategy, _, err := strategyconfig.Load(strategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	p, err := newPipeline(strategy)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n📊 Strategy: %s (v%s)\n", strategy.Meta.StrategyID, strategy.Meta.Version)
	fmt.Printf("🎯 Universe: %d tickers, top %d\n", len(strategy.Backtest.Tickers), strategy.Backtest.TopN)
	fmt.Printf("🪟 Windows: %d, workers: %d\n\n", len(strategy.Backtest.Periods), strategy.Backtest.MaxWorkers)

	report, err := p.orchestrator.Run(ctx, strategy)
	if err != nil {
		return fmt.Errorf("backtest batch: %w", err)
	}
	p.store.Put(ctx, report)

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}
