package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/internal/factors"
	"github.com/AmbitionsXXXV/quant/internal/marketdata"
	"github.com/AmbitionsXXXV/quant/internal/selection"
	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
)

// Orchestrator runs the acquisition → factor → ranking pipeline once per
// configured window, concurrently bounded by max_workers. Tasks share only
// the fetcher's read-mostly series cache; every other structure is task
// local, so completion order cannot leak into the report.
type Orchestrator struct {
	fetcher *marketdata.Fetcher
	engine  *factors.Engine
	log     *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given fetcher
func NewOrchestrator(fetcher *marketdata.Fetcher, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		engine:  factors.NewEngine(log),
		log:     log,
	}
}

// Run validates the config, executes all window tasks, and aggregates
// their outcomes. Only a configuration error aborts the batch; every
// other failure lands in the report.
func (o *Orchestrator) Run(ctx context.Context, cfg *strategyconfig.Config) (*contracts.BacktestReport, error) {
	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: hash config: %v", contracts.ErrConfig, err)
	}

	periods := cfg.Periods()
	weights := cfg.FactorWeights()

	o.log.WithFields(map[string]interface{}{
		"strategy": cfg.Meta.StrategyID,
		"windows":  len(periods),
		"tickers":  len(cfg.Backtest.Tickers),
		"workers":  cfg.Backtest.MaxWorkers,
	}).Info("starting backtest batch")

	jobs := make(chan strategyconfig.LabeledPeriod, len(periods))
	results := make(chan *contracts.TaskOutcome, len(periods))

	var wg sync.WaitGroup
	for w := 0; w < cfg.Backtest.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lp := range jobs {
				results <- o.runTask(ctx, lp, cfg, weights)
			}
		}()
	}

	for _, lp := range periods {
		jobs <- lp
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make(map[string]*contracts.TaskOutcome, len(periods))
	for outcome := range results {
		outcomes[outcome.Label] = outcome
	}

	labels := make([]string, len(periods))
	for i, lp := range periods {
		labels[i] = lp.Label
	}

	report := Aggregate(hash, labels, outcomes)
	o.log.WithFields(map[string]interface{}{
		"succeeded": report.SuccessCount,
		"failed":    report.FailureCount,
	}).Info("backtest batch complete")

	return report, nil
}

// runTask executes one window end to end. Ticker-level failures stay in
// the outcome's failure map; the task itself fails only when no ticker
// survives.
func (o *Orchestrator) runTask(ctx context.Context, lp strategyconfig.LabeledPeriod, cfg *strategyconfig.Config, weights contracts.Weights) *contracts.TaskOutcome {
	tickers := cfg.Backtest.Tickers
	outcome := &contracts.TaskOutcome{
		Label:            lp.Label,
		Period:           lp.Spec,
		TickersRequested: len(tickers),
	}

	seriesByTicker, failures := o.fetcher.FetchBatch(ctx, tickers, lp.Spec, cfg.Backtest.MaxWorkers)
	outcome.TickerFailures = failures

	batch := make(map[string]*contracts.FactorSet, len(seriesByTicker))
	for _, ticker := range sortedKeys(seriesByTicker) {
		series := seriesByTicker[ticker]
		if err := factors.ValidateSeries(series, lp.Spec); err != nil {
			failures[ticker] = contracts.NewFetchFailure(ticker, err)
			continue
		}

		fs, err := o.engine.Compute(series, lookbackFor(lp.Spec, series.Len()))
		if err != nil {
			failures[ticker] = contracts.NewFetchFailure(ticker, err)
			continue
		}
		batch[ticker] = fs
	}

	if len(batch) == 0 {
		outcome.FailureReason = contracts.ReasonAllTickersFailed
		outcome.FailureDetail = fmt.Sprintf("all %d tickers failed for window %q", len(tickers), lp.Label)
		o.log.WithField("label", lp.Label).Error(outcome.FailureDetail)
		return outcome
	}

	scores, err := factors.BatchScores(batch, weights)
	if err != nil {
		outcome.FailureReason = contracts.ReasonOf(err)
		outcome.FailureDetail = err.Error()
		return outcome
	}

	candidates := make([]selection.Candidate, 0, len(batch))
	for ticker, score := range scores {
		candidates = append(candidates, selection.Candidate{
			Ticker:     ticker,
			Score:      score.Value,
			Parts:      score.Parts,
			Volatility: batch[ticker].LatestVolatility,
			Degraded:   seriesByTicker[ticker].Degraded,
		})
	}

	ranking, err := selection.Rank(candidates, cfg.Backtest.TopN)
	if err != nil {
		outcome.FailureReason = contracts.ReasonOf(err)
		outcome.FailureDetail = err.Error()
		return outcome
	}

	outcome.Ranking = ranking
	outcome.TickersValid = len(batch)
	return outcome
}

// lookbackFor is the momentum window in trading days for one task.
// Explicit-date windows span the whole fetched series.
func lookbackFor(spec contracts.PeriodSpec, seriesLen int) int {
	if spec.IsDayCount() {
		return spec.Days
	}
	return seriesLen - 1
}

func sortedKeys(m map[string]*contracts.AssetSeries) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
