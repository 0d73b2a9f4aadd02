package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sound is what gets played when an alert fires: either text for the speech
// synthesizer or a path to an audio file. Exactly one is set.
type Sound struct {
	Text string
	File string
}

// AlertEvent describes one invocation's decision. It is published to the
// optional event sink.
type AlertEvent struct {
	ID           string           `json:"id"`
	Outcome      string           `json:"outcome"`
	RainExpected bool             `json:"rain_expected"`
	TargetTime   time.Time        `json:"target_time"`
	ForecastTime *time.Time       `json:"forecast_time,omitempty"`
	Rainfall     *decimal.Decimal `json:"rainfall,omitempty"`
	Threshold    float64          `json:"threshold"`
	Coordinates  string           `json:"coordinates"`
	EvaluatedAt  time.Time        `json:"evaluated_at"`
}
