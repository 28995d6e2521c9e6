package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bar is a single OHLCV record
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// AssetSeries is a fetched price history for one ticker, strictly ascending
// by date with no duplicate dates. Immutable once fetched: consumers must not
// mutate Bars.
type AssetSeries struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`

	// Degraded is set when a long-horizon request returned fewer records
	// than asked for but at least the policy floor. ShortfallDays is the
	// gap between requested and received.
	Degraded      bool `json:"degraded"`
	ShortfallDays int  `json:"shortfall_days,omitempty"`
}

// Len returns the number of bars
func (s *AssetSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close column
func (s *AssetSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume column
func (s *AssetSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Validate checks the series ordering invariants
func (s *AssetSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("series %s: bars not strictly ascending at index %d", s.Ticker, i)
		}
	}
	return nil
}

// PeriodSpec selects a lookback window: either a trading-day count back from
// now, or an explicit start date. The two modes are mutually exclusive and
// determine the minimum-length policy applied after fetching.
type PeriodSpec struct {
	Days      int
	StartDate time.Time
}

type periodSpecJSON struct {
	Days      int    `json:"days,omitempty"`
	StartDate string `json:"start_date,omitempty"`
}

// MarshalJSON emits only the active mode: a zero StartDate would otherwise
// serialize as 0001-01-01 ("omitempty" does not elide zero time.Time).
func (p PeriodSpec) MarshalJSON() ([]byte, error) {
	out := periodSpecJSON{Days: p.Days}
	if !p.StartDate.IsZero() {
		out.StartDate = p.StartDate.Format("2006-01-02")
	}
	return json.Marshal(out)
}

func (p *PeriodSpec) UnmarshalJSON(data []byte) error {
	var in periodSpecJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Days = in.Days
	p.StartDate = time.Time{}
	if in.StartDate != "" {
		start, err := time.Parse("2006-01-02", in.StartDate)
		if err != nil {
			return fmt.Errorf("parse start_date: %w", err)
		}
		p.StartDate = start
	}
	return nil
}

// PeriodDays builds a day-count PeriodSpec
func PeriodDays(days int) PeriodSpec {
	return PeriodSpec{Days: days}
}

// PeriodFrom builds an explicit start-date PeriodSpec
func PeriodFrom(start time.Time) PeriodSpec {
	return PeriodSpec{StartDate: start}
}

// IsDayCount reports whether the period is in day-count mode
func (p PeriodSpec) IsDayCount() bool {
	return p.StartDate.IsZero()
}

// Validate checks mode exclusivity and bounds
func (p PeriodSpec) Validate() error {
	if p.Days > 0 && !p.StartDate.IsZero() {
		return fmt.Errorf("%w: period must set days or start_date, not both", ErrConfig)
	}
	if p.Days <= 0 && p.StartDate.IsZero() {
		return fmt.Errorf("%w: period must set days >= 1 or a start_date", ErrConfig)
	}
	return nil
}

// Key returns the normalized cache key component for the period.
// Day-count specs normalize to the count; explicit dates to the calendar day.
func (p PeriodSpec) Key() string {
	if p.IsDayCount() {
		return fmt.Sprintf("d%d", p.Days)
	}
	return "s" + p.StartDate.Format("2006-01-02")
}

// String implements fmt.Stringer
func (p PeriodSpec) String() string {
	if p.IsDayCount() {
		return fmt.Sprintf("%dd", p.Days)
	}
	return "from " + p.StartDate.Format("2006-01-02")
}
