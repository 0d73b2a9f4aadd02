package domain

import (
	"context"
	"time"
)

// ForecastSource fetches the precipitation forecast for the configured
// location as of now.
type ForecastSource interface {
	Fetch(ctx context.Context, now time.Time) (Forecast, error)
}
