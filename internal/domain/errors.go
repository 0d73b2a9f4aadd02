package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrProvider          = errors.New("forecast provider error")
	ErrMalformedForecast = errors.New("malformed forecast")
)

// NotFoundError reports a missing settings file.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("settings file not found: %s", e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Violation is one failed settings rule.
type Violation struct {
	Field   string // "section.key", e.g. "weather.after_minutes"
	Message string
}

func (v Violation) String() string {
	return v.Field + " " + v.Message
}

// ValidationError aggregates every settings violation found in one pass.
// Violations are ordered as the fields appear in the settings schema.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "invalid settings: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProviderError reports a failed forecast request: either the transport
// failed (Err set) or the provider answered with a non-success status.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forecast request: %v", e.Err)
	}
	return fmt.Sprintf("forecast provider returned status %d: %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// MalformedForecastError reports a response that lacks the expected structure.
type MalformedForecastError struct {
	Reason string
	Err    error
}

func (e *MalformedForecastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed forecast: %s: %v", e.Reason, e.Err)
	}
	return "malformed forecast: " + e.Reason
}

func (e *MalformedForecastError) Unwrap() error { return e.Err }

func (e *MalformedForecastError) Is(target error) bool { return target == ErrMalformedForecast }
