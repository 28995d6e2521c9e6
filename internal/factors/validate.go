package factors

import (
	"fmt"

	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/internal/marketdata"
)

// ValidateSeries re-checks the acquisition minimum-length policy before a
// series enters factor computation. The fetcher enforces the same floors
// at fetch time; a series arriving here from a cache or a file still has
// to pass.
func ValidateSeries(series *contracts.AssetSeries, spec contracts.PeriodSpec) error {
	if err := series.Validate(); err != nil {
		return err
	}

	minLen := 2
	if spec.IsDayCount() && spec.Days >= marketdata.LongHorizonCutoffDays {
		minLen = marketdata.MinRecordsFloor
	}

	if series.Len() < minLen {
		return fmt.Errorf("%w: %s has %d records, need at least %d",
			contracts.ErrInsufficientData, series.Ticker, series.Len(), minLen)
	}
	return nil
}
