package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy for the acquisition/backtest pipeline.
// ⭐ SSOT: 에러 분류는 여기서만 정의
//
// Ticker-level errors are recorded in that ticker's slot and never cross a
// task boundary. Task-level errors live in the TaskOutcome. Only ErrConfig
// aborts a batch, and it does so before any task is scheduled.
var (
	// ErrNetwork is a transient provider failure (connectivity, timeout,
	// throttling). Eligible for the retry budget.
	ErrNetwork = errors.New("network error")

	// ErrNoData means the provider has no history at all for the ticker
	// (unknown or delisted). Terminal; never retried.
	ErrNoData = errors.New("no data for ticker")

	// ErrInsufficientData means the fetched series is shorter than the
	// policy floor for its period mode. Terminal for that ticker.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrConfig is an invalid backtest configuration. Raised before any
	// task is scheduled.
	ErrConfig = errors.New("invalid config")

	// ErrAllTickersFailed means every ticker in a task failed; the task
	// reports this instead of an empty ranking.
	ErrAllTickersFailed = errors.New("all tickers failed")

	// ErrCompute is a numeric edge case not otherwise guarded, surfaced
	// per task.
	ErrCompute = errors.New("compute error")
)

// FailureReason is the serializable tag for a classified error
type FailureReason string

const (
	ReasonNetwork          FailureReason = "network_error"
	ReasonNoData           FailureReason = "no_data"
	ReasonInsufficientData FailureReason = "insufficient_data"
	ReasonConfig           FailureReason = "config_error"
	ReasonAllTickersFailed FailureReason = "all_tickers_failed"
	ReasonCompute          FailureReason = "compute_error"
	ReasonUnknown          FailureReason = "unknown"
)

// ReasonOf classifies an error against the taxonomy
func ReasonOf(err error) FailureReason {
	switch {
	case errors.Is(err, ErrNetwork):
		return ReasonNetwork
	case errors.Is(err, ErrNoData):
		return ReasonNoData
	case errors.Is(err, ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, ErrConfig):
		return ReasonConfig
	case errors.Is(err, ErrAllTickersFailed):
		return ReasonAllTickersFailed
	case errors.Is(err, ErrCompute):
		return ReasonCompute
	default:
		return ReasonUnknown
	}
}

// IsRetryable reports whether an error is eligible for the retry budget
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// FetchFailure records why a single ticker's acquisition failed
type FetchFailure struct {
	Ticker string        `json:"ticker"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("%s: %s (%s)", f.Ticker, f.Reason, f.Detail)
}

// NewFetchFailure classifies err into a FetchFailure for ticker
func NewFetchFailure(ticker string, err error) *FetchFailure {
	return &FetchFailure{
		Ticker: ticker,
		Reason: ReasonOf(err),
		Detail: err.Error(),
	}
}
