package contracts

import "sort"

// ScoreParts is the per-sub-factor breakdown behind a composite score
type ScoreParts struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
	RSI    float64 `json:"rsi"`
}

// RankedAsset is one entry of a ranking
type RankedAsset struct {
	Ticker     string     `json:"ticker"`
	Rank       int        `json:"rank"` // 1-based
	Score      float64    `json:"score"`
	Parts      ScoreParts `json:"parts"`
	Volatility float64    `json:"volatility"` // tie-break key, ascending
	Degraded   bool       `json:"degraded,omitempty"`
}

// Ranking is the ordered top-N selection for one task
type Ranking struct {
	Entries []RankedAsset `json:"entries"`
	// Shortfall is set when fewer valid tickers existed than top_n
	Shortfall bool `json:"shortfall"`
}

// TaskOutcome is the tagged result of one (PeriodSpec, universe) task:
// either a ranking plus metadata, or a typed failure.
// ⭐ SSOT: 태스크 결과는 (label, ticker)로만 키잉 — 도착 순서 무관
type TaskOutcome struct {
	Label  string     `json:"label"`
	Period PeriodSpec `json:"period"`

	// Success path
	Ranking *Ranking `json:"ranking,omitempty"`

	// Failure path
	FailureReason FailureReason `json:"failure_reason,omitempty"`
	FailureDetail string        `json:"failure_detail,omitempty"`

	// Per-ticker failures inside an otherwise successful task,
	// keyed by ticker
	TickerFailures map[string]*FetchFailure `json:"ticker_failures,omitempty"`

	// Counts for the summary
	TickersRequested int `json:"tickers_requested"`
	TickersValid     int `json:"tickers_valid"`
}

// Succeeded reports whether the task produced a ranking
func (o *TaskOutcome) Succeeded() bool {
	return o.Ranking != nil
}

// TickerStat aggregates one ticker's appearances across labels
type TickerStat struct {
	Ticker      string  `json:"ticker"`
	Selections  int     `json:"selections"`  // times in a top list
	AvgScore    float64 `json:"avg_score"`   // mean score when selected
	AvgRank     float64 `json:"avg_rank"`    // mean 1-based rank when selected
	Consistency float64 `json:"consistency"` // selections / successful tasks
}

// LabelScore pairs a label with the mean score of its top list
type LabelScore struct {
	Label    string  `json:"label"`
	AvgScore float64 `json:"avg_score"`
}

// BacktestReport aggregates all TaskOutcomes of a batch. Immutable once all
// tasks complete; all maps are traversed in sorted key order when rendered so
// equal inputs serialize identically.
type BacktestReport struct {
	ConfigHash string `json:"config_hash"`

	// Labels in config order
	Labels []string `json:"labels"`

	// Outcomes keyed by label
	Outcomes map[string]*TaskOutcome `json:"outcomes"`

	SuccessCount int     `json:"success_count"`
	FailureCount int     `json:"failure_count"`
	SuccessRate  float64 `json:"success_rate"`

	// TickerStats keyed by ticker
	TickerStats map[string]*TickerStat `json:"ticker_stats"`

	// BestLabels ordered by descending mean top-list score
	BestLabels []LabelScore `json:"best_labels"`
}

// Outcome returns the outcome for a label
func (r *BacktestReport) Outcome(label string) (*TaskOutcome, bool) {
	o, ok := r.Outcomes[label]
	return o, ok
}

// SortedTickers returns the ticker stat keys in ascending order
func (r *BacktestReport) SortedTickers() []string {
	out := make([]string, 0, len(r.TickerStats))
	for t := range r.TickerStats {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
