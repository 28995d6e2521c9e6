package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
	"github.com/AmbitionsXXXV/quant/pkg/redis"
)

const defaultFetchWorkers = 5

// Fetcher acquires OHLCV history for batches of tickers through a
// Provider, applying the retry and degradation policy per ticker.
// An in-run cache guarantees each (ticker, period) pair hits the provider
// at most once even when windows overlap; the optional Redis layer
// persists series across runs.
type Fetcher struct {
	provider   Provider
	cache      *seriesCache
	store      *redis.Cache
	log        *logger.Logger
	workers    int
	retryLimit int
	retryDelay time.Duration
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithRetry sets the transient-failure retry budget
func WithRetry(limit int, delay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.retryLimit = limit
		f.retryDelay = delay
	}
}

// WithStore attaches a cross-run Redis series cache
func WithStore(store *redis.Cache) FetcherOption {
	return func(f *Fetcher) {
		f.store = store
	}
}

// NewFetcher creates a batch fetcher over the given provider
func NewFetcher(provider Provider, log *logger.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		provider:   provider,
		cache:      newSeriesCache(),
		log:        log,
		workers:    defaultFetchWorkers,
		retryLimit: 2,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type fetchResult struct {
	ticker  string
	series  *contracts.AssetSeries
	failure *contracts.FetchFailure
}

// FetchBatch fetches all tickers for one period through a worker pool
// bounded by workers (non-positive falls back to the default). Per-ticker
// failures never abort the batch; they come back in the failure map keyed
// by ticker.
func (f *Fetcher) FetchBatch(ctx context.Context, tickers []string, spec contracts.PeriodSpec, workers int) (map[string]*contracts.AssetSeries, map[string]*contracts.FetchFailure) {
	if workers <= 0 {
		workers = f.workers
	}

	jobs := make(chan string, len(tickers))
	results := make(chan fetchResult, len(tickers))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				series, err := f.Fetch(ctx, ticker, spec)
				if err != nil {
					results <- fetchResult{
						ticker:  ticker,
						failure: contracts.NewFetchFailure(ticker, err),
					}
					continue
				}
				results <- fetchResult{ticker: ticker, series: series}
			}
		}()
	}

	for _, ticker := range tickers {
		jobs <- ticker
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	seriesByTicker := make(map[string]*contracts.AssetSeries)
	failures := make(map[string]*contracts.FetchFailure)
	for res := range results {
		if res.failure != nil {
			failures[res.ticker] = res.failure
			continue
		}
		seriesByTicker[res.ticker] = res.series
	}

	f.log.WithFields(map[string]interface{}{
		"period":    spec.String(),
		"requested": len(tickers),
		"fetched":   len(seriesByTicker),
		"failed":    len(failures),
	}).Info("batch fetch complete")

	return seriesByTicker, failures
}

// Fetch acquires one series, deduplicated per (ticker, period) across
// concurrent callers
func (f *Fetcher) Fetch(ctx context.Context, ticker string, spec contracts.PeriodSpec) (*contracts.AssetSeries, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%s", ticker, spec.Key())
	return f.cache.do(key, func() (*contracts.AssetSeries, error) {
		return f.fetchOne(ctx, ticker, spec)
	})
}

func (f *Fetcher) fetchOne(ctx context.Context, ticker string, spec contracts.PeriodSpec) (*contracts.AssetSeries, error) {
	if series, ok := f.fromStore(ctx, ticker, spec); ok {
		return series, nil
	}

	req := resolveRequest(ticker, spec)
	bars, err := f.fetchWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	series, err := f.applyPolicy(ticker, spec, bars)
	if err != nil {
		return nil, err
	}

	f.toStore(ctx, ticker, spec, series)
	return series, nil
}

// fetchWithRetry retries transient failures with exponential backoff.
// Permanent failures (no data, config) surface immediately.
func (f *Fetcher) fetchWithRetry(ctx context.Context, req FetchRequest) ([]contracts.Bar, error) {
	delay := f.retryDelay

	var lastErr error
	for attempt := 0; attempt <= f.retryLimit; attempt++ {
		if attempt > 0 {
			f.log.WithFields(map[string]interface{}{
				"ticker":  req.Ticker,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("retrying fetch after transient failure")

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", contracts.ErrNetwork, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		bars, err := f.provider.FetchHistory(ctx, req)
		if err == nil {
			return bars, nil
		}

		lastErr = err
		if !contracts.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("retries exhausted for %s: %w", req.Ticker, lastErr)
}

// applyPolicy enforces the minimum-length and degradation rules for the
// requested period
func (f *Fetcher) applyPolicy(ticker string, spec contracts.PeriodSpec, bars []contracts.Bar) (*contracts.AssetSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s returned no records", contracts.ErrNoData, ticker)
	}

	series := &contracts.AssetSeries{Ticker: ticker, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	// Explicit start date and short day-count horizons need only enough
	// records to compute a return.
	if !spec.IsDayCount() || spec.Days < LongHorizonCutoffDays {
		if len(bars) < 2 {
			return nil, fmt.Errorf("%w: %s has %d records, need at least 2",
				contracts.ErrInsufficientData, ticker, len(bars))
		}
		return series, nil
	}

	// Long horizon: the provider was asked for everything it has. Accept
	// a shortfall down to the floor, flagged as degraded.
	if len(bars) >= spec.Days {
		return series, nil
	}
	if len(bars) < MinRecordsFloor {
		return nil, fmt.Errorf("%w: %s has %d records, floor is %d",
			contracts.ErrInsufficientData, ticker, len(bars), MinRecordsFloor)
	}

	series.Degraded = true
	series.ShortfallDays = spec.Days - len(bars)
	f.log.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"records":   len(bars),
		"requested": spec.Days,
		"shortfall": series.ShortfallDays,
	}).Warn("accepting degraded series")

	return series, nil
}

func (f *Fetcher) fromStore(ctx context.Context, ticker string, spec contracts.PeriodSpec) (*contracts.AssetSeries, bool) {
	if f.store == nil {
		return nil, false
	}

	var series contracts.AssetSeries
	ok, err := f.store.Get(ctx, redis.SeriesKey(ticker, spec.Key()), &series)
	if err != nil {
		f.log.WithError(err).WithField("ticker", ticker).Warn("series cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &series, true
}

func (f *Fetcher) toStore(ctx context.Context, ticker string, spec contracts.PeriodSpec, series *contracts.AssetSeries) {
	if f.store == nil {
		return
	}
	if err := f.store.Set(ctx, redis.SeriesKey(ticker, spec.Key()), series, redis.TTLDaily); err != nil {
		f.log.WithError(err).WithField("ticker", ticker).Warn("series cache write failed")
	}
}
