package strategyconfig

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
)

const validYAML = `
meta:
  strategy_id: momentum_topn
  version: "1"
backtest:
  tickers: [AAPL, MSFT, GOOG]
  top_n: 2
  max_workers: 4
  periods:
    - label: 60d
      days: 60
    - label: 1y
      days: 365
    - label: ytd
      start_date: 2025-01-02
  weights:
    price: 0.6
    volume: 0.3
    rsi: 0.1
  retry_limit: 2
  fetch_timeout_seconds: 15
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Meta.StrategyID != "momentum_topn" {
		t.Errorf("expected strategy_id=momentum_topn, got %s", cfg.Meta.StrategyID)
	}
	if len(cfg.Backtest.Tickers) != 3 {
		t.Errorf("expected 3 tickers, got %d", len(cfg.Backtest.Tickers))
	}

	periods := cfg.Periods()
	if len(periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(periods))
	}
	if periods[0].Label != "60d" || periods[0].Spec.Days != 60 {
		t.Errorf("unexpected first period: %+v", periods[0])
	}
	if periods[2].Spec.IsDayCount() {
		t.Error("ytd period must be start-date mode")
	}

	w := cfg.FactorWeights()
	if w.Price != 0.6 || w.Volume != 0.3 || w.RSI != 0.1 {
		t.Errorf("unexpected weights: %+v", w)
	}
}

func TestParseUnknownField(t *testing.T) {
	yaml := strings.Replace(validYAML, "top_n: 2", "topn: 2", 1)
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestHashDeterministic(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantIn  string
	}{
		{"empty tickers", func(c *Config) { c.Backtest.Tickers = nil }, "tickers"},
		{"duplicate ticker", func(c *Config) { c.Backtest.Tickers = []string{"A", "A"} }, "duplicate"},
		{"zero top_n", func(c *Config) { c.Backtest.TopN = 0 }, "top_n"},
		{"zero workers", func(c *Config) { c.Backtest.MaxWorkers = 0 }, "max_workers"},
		{"no periods", func(c *Config) { c.Backtest.Periods = nil }, "periods"},
		{"period without mode", func(c *Config) { c.Backtest.Periods[0] = Period{Label: "x"} }, "exactly one"},
		{"period with both modes", func(c *Config) {
			c.Backtest.Periods[0] = Period{Label: "x", Days: 10, StartDate: "2024-01-01"}
		}, "exactly one"},
		{"duplicate label", func(c *Config) { c.Backtest.Periods[1].Label = "60d" }, "duplicate"},
		{"bad date", func(c *Config) { c.Backtest.Periods[2].StartDate = "01/02/2025" }, "YYYY-MM-DD"},
		{"weights sum", func(c *Config) { c.Backtest.Weights.Price = 0.9 }, "sum to 1.0"},
		{"negative weight", func(c *Config) {
			c.Backtest.Weights = Weights{Price: 1.5, Volume: -0.5, RSI: 0}
		}, "non-negative"},
		{"negative retry", func(c *Config) { n := -1; c.Backtest.RetryLimit = &n }, "retry_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(validYAML))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			tt.mutate(cfg)
			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, contracts.ErrConfig) {
				t.Errorf("expected ErrConfig classification, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("expected %q in error, got %q", tt.wantIn, err.Error())
			}
		})
	}
}

func TestAcquisitionOverridesParsed(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Backtest.RetryLimit == nil || *cfg.Backtest.RetryLimit != 2 {
		t.Errorf("expected retry_limit=2, got %v", cfg.Backtest.RetryLimit)
	}
	if got := cfg.Backtest.FetchTimeout(); got != 15*time.Second {
		t.Errorf("expected 15s fetch timeout, got %v", got)
	}

	// Omitted overrides stay unset so wiring can fall back to env defaults
	yaml := strings.Replace(validYAML, "  retry_limit: 2\n  fetch_timeout_seconds: 15\n", "", 1)
	cfg, err = Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Backtest.RetryLimit != nil {
		t.Errorf("expected unset retry_limit, got %d", *cfg.Backtest.RetryLimit)
	}
	if cfg.Backtest.FetchTimeout() != 0 {
		t.Errorf("expected zero fetch timeout, got %v", cfg.Backtest.FetchTimeout())
	}
}

func TestWeightEpsilonTolerance(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Float noise inside the epsilon still passes
	cfg.Backtest.Weights = Weights{Price: 0.6 + 5e-7, Volume: 0.3, RSI: 0.1}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected tolerance within epsilon, got %v", err)
	}
}

func TestDefaultWeightsWhenOmitted(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg.Backtest.Weights = Weights{}
	w := cfg.FactorWeights()
	if w != contracts.DefaultWeights() {
		t.Errorf("expected default weights, got %+v", w)
	}
}
