package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Ad-hoc momentum ranking for one window",
	Long: `Ranks a ticker universe over a single lookback window without a
strategy file.

Flags:
  --tickers  comma-separated ticker universe (required)
  --days     lookback window in days
  --from     window start date (YYYY-MM-DD, instead of --days)
  --top      number of assets to select

Example:
  go run ./cmd/quant rank --tickers AAPL,MSFT,GOOG --days 60 --top 3
  go run ./cmd/quant rank --tickers AAPL,MSFT --from 2025-01-02 --top 2`,
	RunE: runRank,
}

var (
	rankTickers string
	rankDays    int
	rankFrom    string
	rankTop     int
	rankWorkers int
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVar(&rankTickers, "tickers", "", "comma-separated tickers (required)")
	rankCmd.Flags().IntVar(&rankDays, "days", 60, "lookback window in days")
	rankCmd.Flags().StringVar(&rankFrom, "from", "", "window start date (YYYY-MM-DD)")
	rankCmd.Flags().IntVar(&rankTop, "top", 5, "number of assets to select")
	rankCmd.Flags().IntVar(&rankWorkers, "workers", 4, "concurrent window tasks")

	rankCmd.MarkFlagRequired("tickers")
}

func runRank(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quant Momentum Ranking ===")

	tickers := splitTickers(rankTickers)
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers given")
	}

	period := strategyconfig.Period{Label: fmt.Sprintf("%dd", rankDays), Days: rankDays}
	if rankFrom != "" {
		period = strategyconfig.Period{Label: "from " + rankFrom, StartDate: rankFrom}
	}

	strategy := &strategyconfig.Config{
		Meta: strategyconfig.Meta{StrategyID: "adhoc_rank", Version: "1"},
		Backtest: strategyconfig.Backtest{
			Tickers:    tickers,
			TopN:       rankTop,
			MaxWorkers: rankWorkers,
			Periods:    []strategyconfig.Period{period},
		},
	}
	if err := strategyconfig.Validate(strategy); err != nil {
		return err
	}

	p, err := newPipeline(strategy)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := p.orchestrator.Run(ctx, strategy)
	if err != nil {
		return err
	}

	outcome, ok := report.Outcome(period.Label)
	if !ok {
		return fmt.Errorf("no outcome for window %q", period.Label)
	}
	if !outcome.Succeeded() {
		return fmt.Errorf("ranking failed: %s (%s)", outcome.FailureReason, outcome.FailureDetail)
	}

	fmt.Printf("\n🪟 Window: %s  (%d/%d tickers valid)\n\n",
		period.Label, outcome.TickersValid, outcome.TickersRequested)
	printRanking(outcome.Ranking)

	failed := make([]string, 0, len(outcome.TickerFailures))
	for ticker := range outcome.TickerFailures {
		failed = append(failed, ticker)
	}
	sort.Strings(failed)
	for _, ticker := range failed {
		fmt.Printf("  ⚠️  %s: %s\n", ticker, outcome.TickerFailures[ticker].Reason)
	}
	return nil
}

func splitTickers(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
