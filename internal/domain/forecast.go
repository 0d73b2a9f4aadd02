package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastEntry is a single precipitation sample.
type ForecastEntry struct {
	Time     time.Time       `json:"time"`
	Rainfall decimal.Decimal `json:"rainfall"`       // mm/h
	Kind     string          `json:"kind,omitempty"` // "observation" or "forecast"
}

// Forecast is the ordered sample series returned by the provider. Entries are
// kept in delivery order and never re-sorted.
type Forecast struct {
	Entries   []ForecastEntry
	FetchedAt time.Time

	// Raw is the provider response body, kept for archiving.
	Raw []byte `json:"-"`
}

// Verdict is the result of evaluating a forecast against the alert settings.
type Verdict struct {
	RainExpected bool
	Target       time.Time

	// Entry is the first sample at or after Target, nil when the forecast
	// horizon ends before Target.
	Entry *ForecastEntry
}
