package backtest

import (
	"sort"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// Aggregate folds all task outcomes into a BacktestReport. Everything is
// keyed by label or ticker and derived in sorted order, so the report is
// identical no matter which task finished first.
func Aggregate(configHash string, labels []string, outcomes map[string]*contracts.TaskOutcome) *contracts.BacktestReport {
	report := &contracts.BacktestReport{
		ConfigHash:  configHash,
		Labels:      labels,
		Outcomes:    outcomes,
		TickerStats: make(map[string]*contracts.TickerStat),
	}

	type tickerAccum struct {
		selections int
		scoreSum   float64
		rankSum    float64
	}
	accum := make(map[string]*tickerAccum)

	var labelScores []contracts.LabelScore
	for _, label := range labels {
		outcome, ok := outcomes[label]
		if !ok {
			continue
		}
		if !outcome.Succeeded() {
			report.FailureCount++
			continue
		}
		report.SuccessCount++

		var scoreSum float64
		for _, entry := range outcome.Ranking.Entries {
			a := accum[entry.Ticker]
			if a == nil {
				a = &tickerAccum{}
				accum[entry.Ticker] = a
			}
			a.selections++
			a.scoreSum += entry.Score
			a.rankSum += float64(entry.Rank)
			scoreSum += entry.Score
		}

		if n := len(outcome.Ranking.Entries); n > 0 {
			labelScores = append(labelScores, contracts.LabelScore{
				Label:    label,
				AvgScore: scoreSum / float64(n),
			})
		}
	}

	if total := report.SuccessCount + report.FailureCount; total > 0 {
		report.SuccessRate = float64(report.SuccessCount) / float64(total)
	}

	for ticker, a := range accum {
		stat := &contracts.TickerStat{
			Ticker:     ticker,
			Selections: a.selections,
			AvgScore:   a.scoreSum / float64(a.selections),
			AvgRank:    a.rankSum / float64(a.selections),
		}
		if report.SuccessCount > 0 {
			stat.Consistency = float64(a.selections) / float64(report.SuccessCount)
		}
		report.TickerStats[ticker] = stat
	}

	// Best windows first; equal means fall back to label order for
	// stable output
	sort.SliceStable(labelScores, func(i, j int) bool {
		if labelScores[i].AvgScore != labelScores[j].AvgScore {
			return labelScores[i].AvgScore > labelScores[j].AvgScore
		}
		return labelScores[i].Label < labelScores[j].Label
	})
	report.BestLabels = labelScores

	return report
}
