package factors

import (
	"fmt"
	"math"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// Normalize rescales a batch-relative factor vector with a z-score.
// A zero-variance batch carries no ordering information and maps to all
// zeros; non-finite inputs are a computation fault.
func Normalize(values []float64) ([]float64, error) {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite factor value at index %d", contracts.ErrCompute, i)
		}
	}

	out := make([]float64, len(values))
	if len(values) < 2 {
		return out, nil
	}

	sigma := stddev(values)
	if sigma == 0 {
		return out, nil
	}

	mu := mean(values)
	for i, v := range values {
		out[i] = (v - mu) / sigma
	}
	return out, nil
}
