package contracts

// FactorSet holds the derived indicator columns and momentum sub-factors for
// one AssetSeries. Columns are aligned to the series bars; entries inside an
// indicator's warm-up window are NaN. Derived solely from the input series.
type FactorSet struct {
	Ticker string `json:"ticker"`

	// Indicator columns (aligned to bars, NaN during warm-up)
	MA5          []float64 `json:"-"`
	MA20         []float64 `json:"-"`
	DailyReturns []float64 `json:"-"`
	Volatility   []float64 `json:"-"`
	RSI          []float64 `json:"-"`

	// Momentum sub-factors over the task's lookback
	PriceMomentum  float64 `json:"price_momentum"`
	VolumeMomentum float64 `json:"volume_momentum"`
	RSIMomentum    float64 `json:"rsi_momentum"`

	// Latest readings used downstream
	LatestRSI        float64 `json:"latest_rsi"`
	LatestVolatility float64 `json:"latest_volatility"`
}

// Weights maps the three momentum sub-factors to their share of the
// composite score. Must sum to 1 within epsilon; enforced at configuration
// time, not at compute time.
type Weights struct {
	Price  float64 `json:"price" yaml:"price"`
	Volume float64 `json:"volume" yaml:"volume"`
	RSI    float64 `json:"rsi" yaml:"rsi"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Price + w.Volume + w.RSI
}

// WeightEpsilon is the tolerance for the weights-sum-to-one invariant
const WeightEpsilon = 1e-6

// DefaultWeights mirrors the classic price/volume/RSI split
func DefaultWeights() Weights {
	return Weights{
		Price:  0.7,
		Volume: 0.2,
		RSI:    0.1,
	}
}
