package selection

import (
	"fmt"
	"sort"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// Candidate is one scored asset entering selection
type Candidate struct {
	Ticker     string
	Score      float64
	Parts      contracts.ScoreParts
	Volatility float64
	Degraded   bool
}

// Rank orders candidates by composite score (descending) and keeps the
// top n. Equal scores break toward the lower-volatility asset; a residual
// tie falls back to ticker order so the same input always produces the
// same ranking. Fewer than n survivors is not an error, only a shortfall.
func Rank(candidates []Candidate, n int) (*contracts.Ranking, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: top_n must be at least 1, got %d", contracts.ErrConfig, n)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates to rank", contracts.ErrCompute)
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].Volatility != ordered[j].Volatility {
			return ordered[i].Volatility < ordered[j].Volatility
		}
		return ordered[i].Ticker < ordered[j].Ticker
	})

	if len(ordered) > n {
		ordered = ordered[:n]
	}

	entries := make([]contracts.RankedAsset, len(ordered))
	for i, c := range ordered {
		entries[i] = contracts.RankedAsset{
			Ticker:     c.Ticker,
			Rank:       i + 1,
			Score:      c.Score,
			Parts:      c.Parts,
			Volatility: c.Volatility,
			Degraded:   c.Degraded,
		}
	}

	return &contracts.Ranking{
		Entries:   entries,
		Shortfall: len(entries) < n,
	}, nil
}
