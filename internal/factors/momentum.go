package factors

import (
	"math"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
)

const (
	// VolatilityWindow is the rolling window for return volatility
	VolatilityWindow = 20

	// VolumeWindow bounds the recent-volume average for volume momentum
	VolumeWindow = 20
)

// Engine derives the per-asset factor set from an OHLCV series.
// All computations are pure; the logger only reports skipped columns.
type Engine struct {
	log       *logger.Logger
	rsiPeriod int
}

// NewEngine creates a factor engine with the default RSI period
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log, rsiPeriod: DefaultRSIPeriod}
}

// Compute builds the FactorSet for one series against a lookback horizon.
// lookback is the window length in trading days used by the momentum
// sub-factors; degraded series clamp it to the available history.
func (e *Engine) Compute(series *contracts.AssetSeries, lookback int) (*contracts.FactorSet, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	closes := series.Closes()
	volumes := series.Volumes()

	fs := &contracts.FactorSet{
		Ticker:       series.Ticker,
		MA5:          MovingAverage(closes, 5),
		MA20:         MovingAverage(closes, 20),
		DailyReturns: DailyReturns(closes),
	}
	fs.Volatility = RollingStd(fs.DailyReturns, VolatilityWindow)
	fs.RSI = RSI(closes, e.rsiPeriod)

	fs.PriceMomentum = priceMomentum(closes, lookback)
	fs.VolumeMomentum = volumeMomentum(volumes, VolumeWindow)
	fs.RSIMomentum = rsiMomentum(fs.RSI, lookback)

	if v, ok := lastValid(fs.RSI); ok {
		fs.LatestRSI = v
	}
	if v, ok := lastValid(fs.Volatility); ok {
		fs.LatestVolatility = v
	}

	e.log.WithFields(map[string]interface{}{
		"ticker":          series.Ticker,
		"bars":            len(series.Bars),
		"price_momentum":  fs.PriceMomentum,
		"volume_momentum": fs.VolumeMomentum,
		"rsi_momentum":    fs.RSIMomentum,
	}).Debug("factor set computed")

	return fs, nil
}

// priceMomentum is close_t / close_{t-L} - 1. A series shorter than the
// lookback falls back to its earliest close (degraded horizon).
func priceMomentum(closes []float64, lookback int) float64 {
	if len(closes) < 2 {
		return 0
	}

	start := len(closes) - 1 - lookback
	if start < 0 {
		start = 0
	}
	if closes[start] == 0 {
		return 0
	}
	return closes[len(closes)-1]/closes[start] - 1
}

// volumeMomentum compares the recent average volume against the average
// over all prior bars. Too little history yields a neutral zero.
func volumeMomentum(volumes []float64, window int) float64 {
	if len(volumes) <= window {
		return 0
	}

	recent := mean(volumes[len(volumes)-window:])
	prior := mean(volumes[:len(volumes)-window])
	if prior == 0 {
		return 0
	}
	return recent/prior - 1
}

// rsiMomentum is RSI_t - RSI_{t-L}, clamped to the valid RSI range when
// the warm-up window ate into the lookback
func rsiMomentum(rsi []float64, lookback int) float64 {
	latest, ok := lastValid(rsi)
	if !ok {
		return 0
	}

	idx := len(rsi) - 1 - lookback
	if idx < 0 {
		idx = 0
	}
	for idx < len(rsi)-1 && math.IsNaN(rsi[idx]) {
		idx++
	}
	if idx >= len(rsi)-1 {
		return 0
	}
	return latest - rsi[idx]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
