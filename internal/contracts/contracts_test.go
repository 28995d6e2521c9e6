package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPeriodSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    PeriodSpec
		wantErr bool
	}{
		{"day count", PeriodDays(60), false},
		{"explicit date", PeriodFrom(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), false},
		{"both modes", PeriodSpec{Days: 60, StartDate: time.Now()}, true},
		{"neither mode", PeriodSpec{}, true},
		{"negative days", PeriodDays(-5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig classification, got %v", err)
			}
		})
	}
}

func TestPeriodSpecKey(t *testing.T) {
	if got := PeriodDays(365).Key(); got != "d365" {
		t.Errorf("expected d365, got %s", got)
	}

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := PeriodFrom(start).Key(); got != "s2025-03-01" {
		t.Errorf("expected s2025-03-01, got %s", got)
	}

	// Keys normalize: equal specs, equal keys
	if PeriodDays(60).Key() != PeriodDays(60).Key() {
		t.Error("equal specs must share a cache key")
	}
}

func TestPeriodSpecJSON(t *testing.T) {
	day, err := json.Marshal(PeriodDays(60))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(day) != `{"days":60}` {
		t.Errorf("day-count spec serialized as %s", day)
	}

	from, err := json.Marshal(PeriodFrom(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(from) != `{"start_date":"2024-06-01"}` {
		t.Errorf("start-date spec serialized as %s", from)
	}

	var spec PeriodSpec
	if err := json.Unmarshal(from, &spec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if spec.IsDayCount() || !spec.StartDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("round trip lost start date: %+v", spec)
	}
}

func TestAssetSeriesValidate(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ordered := &AssetSeries{Ticker: "OK", Bars: []Bar{
		{Date: base, Close: 1},
		{Date: base.AddDate(0, 0, 1), Close: 2},
	}}
	if err := ordered.Validate(); err != nil {
		t.Errorf("ascending series must validate: %v", err)
	}

	duplicate := &AssetSeries{Ticker: "DUP", Bars: []Bar{
		{Date: base, Close: 1},
		{Date: base, Close: 2},
	}}
	if err := duplicate.Validate(); err == nil {
		t.Error("duplicate dates must fail validation")
	}

	reversed := &AssetSeries{Ticker: "REV", Bars: []Bar{
		{Date: base.AddDate(0, 0, 1), Close: 1},
		{Date: base, Close: 2},
	}}
	if err := reversed.Validate(); err == nil {
		t.Error("descending series must fail validation")
	}
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		err  error
		want FailureReason
	}{
		{fmt.Errorf("%w: timeout", ErrNetwork), ReasonNetwork},
		{fmt.Errorf("%w: GONE", ErrNoData), ReasonNoData},
		{fmt.Errorf("%w: 29 records", ErrInsufficientData), ReasonInsufficientData},
		{fmt.Errorf("%w: weights", ErrConfig), ReasonConfig},
		{ErrAllTickersFailed, ReasonAllTickersFailed},
		{fmt.Errorf("%w: NaN", ErrCompute), ReasonCompute},
		{errors.New("unclassified"), ReasonUnknown},
	}

	for _, tt := range tests {
		if got := ReasonOf(tt.err); got != tt.want {
			t.Errorf("ReasonOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("%w: reset", ErrNetwork)) {
		t.Error("network errors are retryable")
	}
	if IsRetryable(fmt.Errorf("%w: GONE", ErrNoData)) {
		t.Error("no-data is terminal, never retried")
	}
}

func TestWeightsSum(t *testing.T) {
	if got := DefaultWeights().Sum(); got != 1.0 {
		t.Errorf("default weights must sum to 1, got %v", got)
	}
}
