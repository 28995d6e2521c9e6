package commands

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/AmbitionsXXXV/quant/internal/backtest"
	"github.com/AmbitionsXXXV/quant/internal/marketdata"
	"github.com/AmbitionsXXXV/quant/internal/marketdata/yahoo"
	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
	"github.com/AmbitionsXXXV/quant/pkg/config"
	"github.com/AmbitionsXXXV/quant/pkg/httputil"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
	"github.com/AmbitionsXXXV/quant/pkg/redis"
)

// pipeline bundles the wired components every command needs
type pipeline struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	fetcher      *marketdata.Fetcher
	orchestrator *backtest.Orchestrator
	store        *backtest.Store
}

// newPipeline wires config → provider → fetcher → orchestrator.
// The strategy's acquisition policy (retry_limit, fetch_timeout_seconds)
// overrides the env defaults when set. The provider request rate is
// limited by Redis when it is enabled and by a local token bucket
// otherwise.
func newPipeline(strategy *strategyconfig.Config) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	fetchTimeout := cfg.Provider.FetchTimeout
	retryLimit := cfg.Provider.RetryLimit
	if strategy != nil {
		if d := strategy.Backtest.FetchTimeout(); d > 0 {
			fetchTimeout = d
		}
		if strategy.Backtest.RetryLimit != nil {
			retryLimit = *strategy.Backtest.RetryLimit
		}
	}

	httpClient := httputil.New(log, fetchTimeout).
		WithLimiter(providerLimiter(cfg, redisClient))
	provider := yahoo.NewClient(httpClient, log, cfg.Provider.BaseURL)

	opts := []marketdata.FetcherOption{
		marketdata.WithRetry(retryLimit, cfg.Provider.RetryDelay),
	}
	var cache *redis.Cache
	if redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "quant")
		opts = append(opts, marketdata.WithStore(cache))
	}
	fetcher := marketdata.NewFetcher(provider, log, opts...)

	return &pipeline{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		fetcher:      fetcher,
		orchestrator: backtest.NewOrchestrator(fetcher, log),
		store:        backtest.NewStore(cache, log),
	}, nil
}

func (p *pipeline) Close() {
	if err := p.redisClient.Close(); err != nil {
		p.log.WithError(err).Warn("redis close failed")
	}
}

// providerLimiter picks the distributed limiter when Redis is available so
// multiple processes share one provider budget
func providerLimiter(cfg *config.Config, redisClient *redis.Client) httputil.Limiter {
	if redisClient.Enabled() {
		rl := redis.NewRateLimiter(redisClient, "quant")
		limit := redis.RateLimitConfig{
			Key:    "provider",
			Limit:  cfg.Provider.RateLimitRPS,
			Window: time.Second,
		}
		return httputil.LimiterFunc(func(ctx context.Context) error {
			return rl.Wait(ctx, limit)
		})
	}

	local := rate.NewLimiter(rate.Limit(cfg.Provider.RateLimitRPS), cfg.Provider.RateLimitRPS)
	return httputil.LimiterFunc(local.Wait)
}
