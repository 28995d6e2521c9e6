package backtest

import (
	"context"
	"sync"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
	"github.com/AmbitionsXXXV/quant/pkg/redis"
)

const latestReportKey = "report:latest"

// Store holds the latest completed report for the API and scheduler.
// The in-memory slot is authoritative; Redis, when enabled, carries the
// report across restarts.
type Store struct {
	mu     sync.RWMutex
	latest *contracts.BacktestReport

	cache *redis.Cache
	log   *logger.Logger
}

// NewStore creates a report store. cache may be nil.
func NewStore(cache *redis.Cache, log *logger.Logger) *Store {
	return &Store{cache: cache, log: log}
}

// Put publishes a completed report as the latest
func (s *Store) Put(ctx context.Context, report *contracts.BacktestReport) {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, latestReportKey, report, redis.TTLDaily); err != nil {
		s.log.WithError(err).Warn("report cache write failed")
	}
}

// Latest returns the most recent report, falling back to Redis after a
// restart. Returns false when no batch has completed yet.
func (s *Store) Latest(ctx context.Context) (*contracts.BacktestReport, bool) {
	s.mu.RLock()
	report := s.latest
	s.mu.RUnlock()
	if report != nil {
		return report, true
	}

	if s.cache == nil {
		return nil, false
	}

	var cached contracts.BacktestReport
	ok, err := s.cache.Get(ctx, latestReportKey, &cached)
	if err != nil {
		s.log.WithError(err).Warn("report cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	if s.latest == nil {
		s.latest = &cached
	}
	report = s.latest
	s.mu.Unlock()
	return report, true
}
