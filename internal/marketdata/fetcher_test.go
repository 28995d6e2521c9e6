package marketdata

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
)

// fakeProvider serves canned bars per ticker and counts calls
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	delay time.Duration
	serve func(req FetchRequest, call int) ([]contracts.Bar, error)
}

func (p *fakeProvider) FetchHistory(_ context.Context, req FetchRequest) ([]contracts.Bar, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[req.Ticker]++
	call := p.calls[req.Ticker]
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.serve(req, call)
}

func (p *fakeProvider) callCount(ticker string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[ticker]
}

func makeBars(n int) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = contracts.Bar{
			Date: base.AddDate(0, 0, i), Open: price, High: price, Low: price,
			Close: price, Volume: 1000,
		}
	}
	return bars
}

func barsProvider(n int) *fakeProvider {
	return &fakeProvider{serve: func(FetchRequest, int) ([]contracts.Bar, error) {
		return makeBars(n), nil
	}}
}

func TestFetchLongHorizonDegradation(t *testing.T) {
	tests := []struct {
		name     string
		bars     int
		wantErr  bool
		degraded bool
	}{
		{"full history", 400, false, false},
		{"at floor", 30, false, true},
		{"below floor", 29, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(barsProvider(tt.bars), logger.NewNop())

			series, err := f.Fetch(context.Background(), "TST", contracts.PeriodDays(365))
			if tt.wantErr {
				assert.ErrorIs(t, err, contracts.ErrInsufficientData)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.degraded, series.Degraded)
			if tt.degraded {
				assert.Equal(t, 365-tt.bars, series.ShortfallDays)
			}
		})
	}
}

func TestFetchExplicitDateFloor(t *testing.T) {
	start := contracts.PeriodFrom(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	f := NewFetcher(barsProvider(1), logger.NewNop())
	_, err := f.Fetch(context.Background(), "TST", start)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	f = NewFetcher(barsProvider(2), logger.NewNop())
	series, err := f.Fetch(context.Background(), "TST", start)
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
	assert.False(t, series.Degraded)
}

func TestFetchRetriesTransientOnly(t *testing.T) {
	transient := &fakeProvider{serve: func(_ FetchRequest, call int) ([]contracts.Bar, error) {
		if call <= 2 {
			return nil, fmt.Errorf("%w: connection reset", contracts.ErrNetwork)
		}
		return makeBars(40), nil
	}}

	f := NewFetcher(transient, logger.NewNop(), WithRetry(2, time.Millisecond))
	series, err := f.Fetch(context.Background(), "FLAKY", contracts.PeriodDays(30))
	require.NoError(t, err)
	assert.Equal(t, 40, series.Len())
	assert.Equal(t, 3, transient.callCount("FLAKY"))
}

func TestFetchNoDataNotRetried(t *testing.T) {
	dead := &fakeProvider{serve: func(req FetchRequest, _ int) ([]contracts.Bar, error) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrNoData, req.Ticker)
	}}

	f := NewFetcher(dead, logger.NewNop(), WithRetry(3, time.Millisecond))
	_, err := f.Fetch(context.Background(), "GONE", contracts.PeriodDays(30))
	assert.ErrorIs(t, err, contracts.ErrNoData)
	assert.Equal(t, 1, dead.callCount("GONE"))
}

func TestFetchRetriesExhausted(t *testing.T) {
	down := &fakeProvider{serve: func(FetchRequest, int) ([]contracts.Bar, error) {
		return nil, fmt.Errorf("%w: timeout", contracts.ErrNetwork)
	}}

	f := NewFetcher(down, logger.NewNop(), WithRetry(2, time.Millisecond))
	_, err := f.Fetch(context.Background(), "DOWN", contracts.PeriodDays(30))
	assert.ErrorIs(t, err, contracts.ErrNetwork)
	assert.Equal(t, 3, down.callCount("DOWN"))
}

func TestFetchSingleFlight(t *testing.T) {
	slow := barsProvider(40)
	slow.delay = 20 * time.Millisecond

	f := NewFetcher(slow, logger.NewNop())
	spec := contracts.PeriodDays(60)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			series, err := f.Fetch(context.Background(), "SHARED", spec)
			assert.NoError(t, err)
			assert.Equal(t, 40, series.Len())
		}()
	}
	wg.Wait()

	// First caller fetched; everyone else waited on its entry
	assert.Equal(t, 1, slow.callCount("SHARED"))
}

func TestFetchFailureNotCached(t *testing.T) {
	// Down for the first three calls (one attempt plus two retries),
	// healthy afterwards.
	flaky := &fakeProvider{serve: func(_ FetchRequest, call int) ([]contracts.Bar, error) {
		if call <= 3 {
			return nil, fmt.Errorf("%w: timeout", contracts.ErrNetwork)
		}
		return makeBars(40), nil
	}}

	f := NewFetcher(flaky, logger.NewNop(), WithRetry(2, time.Millisecond))
	spec := contracts.PeriodDays(30)

	_, err := f.Fetch(context.Background(), "TST", spec)
	assert.ErrorIs(t, err, contracts.ErrNetwork)
	assert.Equal(t, 3, flaky.callCount("TST"))

	// The failure must not stick: the provider recovered, so a later
	// attempt on the same key re-fetches and succeeds.
	series, err := f.Fetch(context.Background(), "TST", spec)
	require.NoError(t, err)
	assert.Equal(t, 40, series.Len())
	assert.Equal(t, 4, flaky.callCount("TST"))
}

func TestFetchCancellationNotCached(t *testing.T) {
	flaky := &fakeProvider{serve: func(_ FetchRequest, call int) ([]contracts.Bar, error) {
		if call == 1 {
			return nil, fmt.Errorf("%w: connection reset", contracts.ErrNetwork)
		}
		return makeBars(40), nil
	}}

	f := NewFetcher(flaky, logger.NewNop(), WithRetry(2, time.Millisecond))
	spec := contracts.PeriodDays(30)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, "TST", spec)
	assert.ErrorIs(t, err, contracts.ErrNetwork)

	// A fresh context must not see the cancelled attempt's error
	series, err := f.Fetch(context.Background(), "TST", spec)
	require.NoError(t, err)
	assert.Equal(t, 40, series.Len())
}

func TestFetchBatchIsolatesFailures(t *testing.T) {
	mixed := &fakeProvider{serve: func(req FetchRequest, _ int) ([]contracts.Bar, error) {
		if req.Ticker == "BAD" {
			return nil, fmt.Errorf("%w: BAD", contracts.ErrNoData)
		}
		return makeBars(40), nil
	}}

	f := NewFetcher(mixed, logger.NewNop())
	series, failures := f.FetchBatch(context.Background(), []string{"A", "BAD", "C"}, contracts.PeriodDays(60), 3)

	require.Len(t, series, 2)
	assert.Contains(t, series, "A")
	assert.Contains(t, series, "C")

	require.Len(t, failures, 1)
	assert.Equal(t, contracts.ReasonNoData, failures["BAD"].Reason)
}

func TestFetchBatchBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	gated := &fakeProvider{serve: func(FetchRequest, int) ([]contracts.Bar, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return makeBars(40), nil
	}}

	f := NewFetcher(gated, logger.NewNop())
	tickers := []string{"A", "B", "C", "D", "E", "F"}
	series, failures := f.FetchBatch(context.Background(), tickers, contracts.PeriodDays(60), 2)

	assert.Len(t, series, len(tickers))
	assert.Empty(t, failures)
	assert.LessOrEqual(t, peak, 2)
}

func TestRangeForDays(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{1, "5d"},
		{5, "1mo"},
		{30, "3mo"},
		{90, "6mo"},
		{180, "1y"},
		{300, "2y"},
		{365, "max"},
		{5000, "max"},
	}

	for _, tt := range tests {
		if got := RangeForDays(tt.days); got != tt.want {
			t.Errorf("RangeForDays(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
