package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evaluate decides whether rain is expected afterMinutes from now.
//
// The first entry whose time is at or after now+afterMinutes is examined and
// scanning stops there. Its rainfall counts as rain when it is greater than or
// equal to threshold. An empty forecast, or one that ends before the target
// time, never reports rain.
func Evaluate(forecast Forecast, now time.Time, afterMinutes int, threshold float64) Verdict {
	target := now.Add(time.Duration(afterMinutes) * time.Minute)
	verdict := Verdict{Target: target}

	entry, ok := firstAtOrAfter(forecast.Entries, target)
	if !ok {
		return verdict
	}

	verdict.Entry = &entry
	verdict.RainExpected = entry.Rainfall.GreaterThanOrEqual(decimal.NewFromFloat(threshold))
	return verdict
}

func firstAtOrAfter(entries []ForecastEntry, target time.Time) (ForecastEntry, bool) {
	for _, e := range entries {
		if !e.Time.Before(target) {
			return e, true
		}
	}
	return ForecastEntry{}, false
}
