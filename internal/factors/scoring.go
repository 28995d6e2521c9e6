package factors

import (
	"fmt"
	"sort"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// Score is the composite momentum score of one asset, relative to the
// batch it was normalized against
type Score struct {
	Value float64
	Parts contracts.ScoreParts
}

// BatchScores normalizes each momentum sub-factor across the batch and
// blends them with the configured weights. Normalization is relative to
// the batch only, so the same batch always yields the same scores.
func BatchScores(batch map[string]*contracts.FactorSet, weights contracts.Weights) (map[string]Score, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty factor batch", contracts.ErrCompute)
	}

	tickers := make([]string, 0, len(batch))
	for t := range batch {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	price := make([]float64, len(tickers))
	volume := make([]float64, len(tickers))
	rsi := make([]float64, len(tickers))
	for i, t := range tickers {
		fs := batch[t]
		price[i] = fs.PriceMomentum
		volume[i] = fs.VolumeMomentum
		rsi[i] = fs.RSIMomentum
	}

	priceN, err := Normalize(price)
	if err != nil {
		return nil, fmt.Errorf("price momentum: %w", err)
	}
	volumeN, err := Normalize(volume)
	if err != nil {
		return nil, fmt.Errorf("volume momentum: %w", err)
	}
	rsiN, err := Normalize(rsi)
	if err != nil {
		return nil, fmt.Errorf("rsi momentum: %w", err)
	}

	scores := make(map[string]Score, len(tickers))
	for i, t := range tickers {
		parts := contracts.ScoreParts{
			Price:  priceN[i],
			Volume: volumeN[i],
			RSI:    rsiN[i],
		}
		scores[t] = Score{
			Value: weights.Price*parts.Price + weights.Volume*parts.Volume + weights.RSI*parts.RSI,
			Parts: parts,
		}
	}
	return scores, nil
}
