package marketdata

import (
	"context"
	"time"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

const (
	// LongHorizonCutoffDays marks the boundary where a day-count request
	// switches to fetch-maximum-available with graceful degradation
	LongHorizonCutoffDays = 365

	// MinRecordsFloor is the minimum record count a degraded long-horizon
	// series must still reach to stay usable
	MinRecordsFloor = 30
)

// FetchRequest is a single provider query, already resolved from a
// PeriodSpec into provider terms
type FetchRequest struct {
	Ticker string

	// Range is a provider period keyword ("1y", "max", ...). Empty when
	// Start/End drive the query instead.
	Range string

	Start time.Time
	End   time.Time
}

// Provider returns historical OHLCV bars for one ticker.
// Implementations classify their failures with the contracts sentinels so
// the fetcher can decide on retry and degradation.
type Provider interface {
	FetchHistory(ctx context.Context, req FetchRequest) ([]contracts.Bar, error)
}

// periodLadder maps a day horizon onto the coarse ranges providers accept.
// Each rung carries a 1.5x margin over the requested days so trading-day
// gaps (weekends, holidays) do not starve the request.
var periodLadder = []struct {
	maxDays int
	rng     string
}{
	{3, "5d"},
	{20, "1mo"},
	{60, "3mo"},
	{120, "6mo"},
	{243, "1y"},
	{486, "2y"},
	{1216, "5y"},
	{2433, "10y"},
}

// RangeForDays picks the smallest provider range that covers days of
// trading history. Long horizons at or past the cutoff always request the
// full history so degradation has the most data to work with.
func RangeForDays(days int) string {
	if days >= LongHorizonCutoffDays {
		return "max"
	}
	for _, rung := range periodLadder {
		if days <= rung.maxDays {
			return rung.rng
		}
	}
	return "max"
}

// resolveRequest turns a validated PeriodSpec into a provider query
func resolveRequest(ticker string, spec contracts.PeriodSpec) FetchRequest {
	if !spec.IsDayCount() {
		return FetchRequest{
			Ticker: ticker,
			Start:  spec.StartDate,
			End:    time.Now().UTC(),
		}
	}
	return FetchRequest{Ticker: ticker, Range: RangeForDays(spec.Days)}
}
