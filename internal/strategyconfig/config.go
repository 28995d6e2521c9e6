package strategyconfig

import (
	"time"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

// Config는 백테스트 전략의 전체 설정
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Backtest describes one batch run: the ticker universe, the evaluation
// windows, and the scoring weights
type Backtest struct {
	Tickers             []string `yaml:"tickers" json:"tickers"`
	TopN                int      `yaml:"top_n" json:"top_n"`
	MaxWorkers          int      `yaml:"max_workers" json:"max_workers"`
	Periods             []Period `yaml:"periods" json:"periods"`
	Weights             Weights  `yaml:"weights" json:"weights"`
	RetryLimit          *int     `yaml:"retry_limit,omitempty" json:"retry_limit,omitempty"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds,omitempty" json:"fetch_timeout_seconds,omitempty"`
}

// FetchTimeout returns the per-request provider timeout, zero when unset
func (b Backtest) FetchTimeout() time.Duration {
	return time.Duration(b.FetchTimeoutSeconds) * time.Second
}

// Period is one evaluation window: exactly one of days or start_date
type Period struct {
	Label     string `yaml:"label" json:"label"`
	Days      int    `yaml:"days,omitempty" json:"days,omitempty"`
	StartDate string `yaml:"start_date,omitempty" json:"start_date,omitempty"` // YYYY-MM-DD
}

// Weights blends the three momentum sub-factors; must sum to 1
type Weights struct {
	Price  float64 `yaml:"price" json:"price"`
	Volume float64 `yaml:"volume" json:"volume"`
	RSI    float64 `yaml:"rsi" json:"rsi"`
}

// LabeledPeriod pairs a resolved PeriodSpec with its report label
type LabeledPeriod struct {
	Label string
	Spec  contracts.PeriodSpec
}

// Spec resolves a YAML period into a PeriodSpec. Call after Validate;
// an unparseable date here is a programming error.
func (p Period) Spec() contracts.PeriodSpec {
	if p.Days > 0 {
		return contracts.PeriodDays(p.Days)
	}
	start, _ := time.Parse("2006-01-02", p.StartDate)
	return contracts.PeriodFrom(start)
}

// Periods returns the validated windows in config order
func (c *Config) Periods() []LabeledPeriod {
	out := make([]LabeledPeriod, len(c.Backtest.Periods))
	for i, p := range c.Backtest.Periods {
		out[i] = LabeledPeriod{Label: p.Label, Spec: p.Spec()}
	}
	return out
}

// FactorWeights returns the weight mapping as the contracts type,
// defaulting when the section was omitted entirely
func (c *Config) FactorWeights() contracts.Weights {
	w := c.Backtest.Weights
	if w.Price == 0 && w.Volume == 0 && w.RSI == 0 {
		return contracts.DefaultWeights()
	}
	return contracts.Weights{Price: w.Price, Volume: w.Volume, RSI: w.RSI}
}
