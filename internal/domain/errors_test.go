package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_ListsAllViolations(t *testing.T) {
	err := &ValidationError{Violations: []Violation{
		{Field: "yolp.appid", Message: "is required"},
		{Field: "weather.after_minutes", Message: "must be between 0 and 60"},
	}}

	assert.Equal(t, "invalid settings: yolp.appid is required; weather.after_minutes must be between 0 and 60", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNotFoundError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("load settings: %w", &NotFoundError{Path: "/etc/iwrs.ini"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "/etc/iwrs.ini")
}

func TestProviderError(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		err := &ProviderError{StatusCode: 403, Body: `{"Error":{"Message":"bad appid"}}`}
		assert.ErrorIs(t, err, ErrProvider)
		assert.Contains(t, err.Error(), "status 403")
	})

	t.Run("transport", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &ProviderError{Err: cause}
		assert.ErrorIs(t, err, ErrProvider)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "forecast request: connection refused", err.Error())
	})
}

func TestMalformedForecastError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &MalformedForecastError{Reason: "decode response", Err: cause}

	assert.ErrorIs(t, err, ErrMalformedForecast)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed forecast: decode response: unexpected EOF", err.Error())
	assert.Equal(t, "malformed forecast: no features", (&MalformedForecastError{Reason: "no features"}).Error())
}
