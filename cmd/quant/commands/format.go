package commands

import (
	"fmt"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// printReport renders a batch report summary to stdout
func printReport(report *contracts.BacktestReport) {
	fmt.Printf("✅ Succeeded: %d  ❌ Failed: %d  (%.0f%%)\n",
		report.SuccessCount, report.FailureCount, report.SuccessRate*100)
	if len(report.ConfigHash) >= 12 {
		fmt.Printf("🔖 Config hash: %s\n", report.ConfigHash[:12])
	}

	for _, label := range report.Labels {
		outcome, ok := report.Outcome(label)
		if !ok {
			continue
		}

		fmt.Printf("\n── %s ──\n", label)
		if !outcome.Succeeded() {
			fmt.Printf("  ❌ %s: %s\n", outcome.FailureReason, outcome.FailureDetail)
			continue
		}

		printRanking(outcome.Ranking)
		if len(outcome.TickerFailures) > 0 {
			fmt.Printf("  ⚠️  %d ticker(s) failed\n", len(outcome.TickerFailures))
		}
	}

	if len(report.BestLabels) > 0 {
		best := report.BestLabels[0]
		fmt.Printf("\n🏆 Best window: %s (avg score %.4f)\n", best.Label, best.AvgScore)
	}

	if len(report.TickerStats) > 0 {
		fmt.Println("\n📈 Ticker consistency:")
		for _, ticker := range report.SortedTickers() {
			stat := report.TickerStats[ticker]
			fmt.Printf("  %-8s selected %d× (avg rank %.1f, consistency %.0f%%)\n",
				stat.Ticker, stat.Selections, stat.AvgRank, stat.Consistency*100)
		}
	}
}

// printRanking renders one window's top list
func printRanking(ranking *contracts.Ranking) {
	for _, entry := range ranking.Entries {
		degraded := ""
		if entry.Degraded {
			degraded = " (degraded)"
		}
		fmt.Printf("  %2d. %-8s score %8.4f  vol %.4f%s\n",
			entry.Rank, entry.Ticker, entry.Score, entry.Volatility, degraded)
	}
	if ranking.Shortfall {
		fmt.Println("  ⚠️  shortfall: fewer valid tickers than top_n")
	}
}
