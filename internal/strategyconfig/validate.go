package strategyconfig

import (
	"fmt"
	"math"
	"time"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// ValidationError 검증 실패 (배치 스케줄링 전 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap classifies every validation failure as a configuration error
func (e ValidationError) Unwrap() error {
	return contracts.ErrConfig
}

// Validate checks all required constraints before any task is scheduled.
// 실패 시 error 반환 (배치 실행 중단)
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	b := cfg.Backtest

	// === Universe ===
	if len(b.Tickers) == 0 {
		return ValidationError{"backtest.tickers", "must not be empty"}
	}
	seen := make(map[string]bool, len(b.Tickers))
	for i, t := range b.Tickers {
		if t == "" {
			return ValidationError{fmt.Sprintf("backtest.tickers[%d]", i), "must not be empty"}
		}
		if seen[t] {
			return ValidationError{fmt.Sprintf("backtest.tickers[%d]", i), fmt.Sprintf("duplicate ticker %q", t)}
		}
		seen[t] = true
	}

	// === Selection ===
	if b.TopN < 1 {
		return ValidationError{"backtest.top_n", fmt.Sprintf("must be >= 1, got %d", b.TopN)}
	}
	if b.MaxWorkers < 1 {
		return ValidationError{"backtest.max_workers", fmt.Sprintf("must be >= 1, got %d", b.MaxWorkers)}
	}

	// === Periods ===
	if len(b.Periods) == 0 {
		return ValidationError{"backtest.periods", "must not be empty"}
	}
	labels := make(map[string]bool, len(b.Periods))
	for i, p := range b.Periods {
		field := fmt.Sprintf("backtest.periods[%d]", i)
		if p.Label == "" {
			return ValidationError{field + ".label", "required"}
		}
		if labels[p.Label] {
			return ValidationError{field + ".label", fmt.Sprintf("duplicate label %q", p.Label)}
		}
		labels[p.Label] = true

		hasDays := p.Days != 0
		hasStart := p.StartDate != ""
		if hasDays == hasStart {
			return ValidationError{field, "exactly one of days or start_date is required"}
		}
		if hasDays && p.Days < 1 {
			return ValidationError{field + ".days", fmt.Sprintf("must be >= 1, got %d", p.Days)}
		}
		if hasStart {
			start, err := time.Parse("2006-01-02", p.StartDate)
			if err != nil {
				return ValidationError{field + ".start_date", "must be YYYY-MM-DD"}
			}
			if !start.Before(time.Now()) {
				return ValidationError{field + ".start_date", "must be in the past"}
			}
		}
	}

	// === Weights ===
	w := b.Weights
	if w.Price != 0 || w.Volume != 0 || w.RSI != 0 {
		if w.Price < 0 || w.Volume < 0 || w.RSI < 0 {
			return ValidationError{"backtest.weights", "must be non-negative"}
		}
		sum := w.Price + w.Volume + w.RSI
		if math.Abs(sum-1.0) > contracts.WeightEpsilon {
			return ValidationError{"backtest.weights", fmt.Sprintf("must sum to 1.0, got %.6f", sum)}
		}
	}

	// === Acquisition policy ===
	if b.RetryLimit != nil && *b.RetryLimit < 0 {
		return ValidationError{"backtest.retry_limit", "must be >= 0"}
	}
	if b.FetchTimeoutSeconds < 0 {
		return ValidationError{"backtest.fetch_timeout_seconds", "must be >= 0"}
	}

	return nil
}
