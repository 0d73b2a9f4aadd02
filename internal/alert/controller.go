// Package alert decides, once per invocation, whether to sound the rain alert.
//
// The controller is a two-state machine persisted through a StateStore:
//
//	Idle     + rain    -> play, Activate -> OutcomeTriggered
//	Alerting + rain    -> nothing        -> OutcomeAlreadyAlerting
//	any      + no rain -> Clear          -> OutcomeNoRain
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
	"github.com/couchcryptid/rain-alert/internal/settings"
)

// StateStore persists whether an alert is in effect. Activate and Clear must
// be idempotent.
type StateStore interface {
	IsActive() (bool, error)
	Activate() error
	Clear() error
}

// Player plays a sound repeat times.
type Player interface {
	Play(ctx context.Context, sound domain.Sound, repeat int) error
}

// EventPublisher receives one AlertEvent per decision.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AlertEvent) error
}

// Controller wires a forecast source to the alert state machine.
type Controller struct {
	source    domain.ForecastSource
	store     StateStore
	player    Player
	publisher EventPublisher
	clock     clockwork.Clock
	settings  settings.Settings
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Controller. publisher may be nil.
func New(
	source domain.ForecastSource,
	store StateStore,
	player Player,
	publisher EventPublisher,
	clock clockwork.Clock,
	s settings.Settings,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		source:    source,
		store:     store,
		player:    player,
		publisher: publisher,
		clock:     clock,
		settings:  s,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run fetches the forecast for the current time and handles it.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	now := c.clock.Now()

	forecast, err := c.source.Fetch(ctx, now)
	if err != nil {
		return OutcomeNoRain, c.fail("fetch", fmt.Errorf("fetch forecast: %w", err))
	}
	return c.Handle(ctx, forecast, now)
}

// Handle evaluates forecast at now and applies the resulting transition.
//
// Playback happens before the state is activated, so a failed playback leaves
// the store idle and the next invocation alerts again.
func (c *Controller) Handle(ctx context.Context, forecast domain.Forecast, now time.Time) (Outcome, error) {
	s := c.settings
	verdict := domain.Evaluate(forecast, now, s.AfterMinutes, s.RainfallThreshold)
	c.logVerdict(verdict)

	var (
		outcome Outcome
		err     error
	)
	if verdict.RainExpected {
		outcome, err = c.onRain(ctx)
	} else {
		outcome, err = c.onNoRain()
	}
	if err != nil {
		return outcome, err
	}

	c.metrics.Invocations.WithLabelValues(outcome.String()).Inc()
	c.metrics.AlertActive.Set(boolGauge(outcome != OutcomeNoRain))
	c.metrics.LastRun.Set(float64(now.Unix()))
	c.publish(ctx, outcome, verdict, now)
	return outcome, nil
}

func (c *Controller) onRain(ctx context.Context) (Outcome, error) {
	active, err := c.store.IsActive()
	if err != nil {
		return OutcomeNoRain, c.fail("state", fmt.Errorf("read alert state: %w", err))
	}
	if active {
		c.logger.Info("rain expected, alert already active; playback suppressed")
		return OutcomeAlreadyAlerting, nil
	}

	c.logger.Info("rain expected, sounding alert", "repeat", c.settings.Repeat)
	if err := c.player.Play(ctx, c.settings.Sound(), c.settings.Repeat); err != nil {
		return OutcomeNoRain, c.fail("playback", fmt.Errorf("play alert: %w", err))
	}
	if err := c.store.Activate(); err != nil {
		return OutcomeNoRain, c.fail("state", fmt.Errorf("activate alert: %w", err))
	}
	return OutcomeTriggered, nil
}

func (c *Controller) onNoRain() (Outcome, error) {
	active, err := c.store.IsActive()
	if err != nil {
		return OutcomeNoRain, c.fail("state", fmt.Errorf("read alert state: %w", err))
	}
	if !active {
		c.logger.Info("no rain expected")
		return OutcomeNoRain, nil
	}
	if err := c.store.Clear(); err != nil {
		return OutcomeNoRain, c.fail("state", fmt.Errorf("clear alert: %w", err))
	}
	c.logger.Info("no rain expected, alert cleared")
	return OutcomeNoRain, nil
}

func (c *Controller) logVerdict(v domain.Verdict) {
	if v.Entry == nil {
		c.metrics.TargetRainfall.Set(-1)
		c.logger.Info("forecast does not reach target time",
			"target", v.Target,
			"threshold", c.settings.RainfallThreshold,
		)
		return
	}
	c.metrics.TargetRainfall.Set(v.Entry.Rainfall.InexactFloat64())
	c.logger.Info("forecast evaluated",
		"target", v.Target,
		"entry_time", v.Entry.Time,
		"rainfall", v.Entry.Rainfall.String(),
		"threshold", c.settings.RainfallThreshold,
		"rain_expected", v.RainExpected,
	)
}

func (c *Controller) publish(ctx context.Context, outcome Outcome, v domain.Verdict, now time.Time) {
	if c.publisher == nil {
		return
	}

	event := domain.AlertEvent{
		ID:           uuid.NewString(),
		Outcome:      outcome.String(),
		RainExpected: v.RainExpected,
		TargetTime:   v.Target,
		Threshold:    c.settings.RainfallThreshold,
		Coordinates:  c.settings.Coordinates,
		EvaluatedAt:  now,
	}
	if v.Entry != nil {
		event.ForecastTime = &v.Entry.Time
		event.Rainfall = &v.Entry.Rainfall
	}

	if err := c.publisher.Publish(ctx, event); err != nil {
		c.metrics.EventsPublished.WithLabelValues("error").Inc()
		c.logger.Warn("publish alert event failed", "id", event.ID, "error", err)
		return
	}
	c.metrics.EventsPublished.WithLabelValues("success").Inc()
}

// fail records a failed invocation at the given stage and returns err.
func (c *Controller) fail(stage string, err error) error {
	c.metrics.Errors.WithLabelValues(stage).Inc()
	c.metrics.Invocations.WithLabelValues("error").Inc()
	c.logger.Error("invocation failed", "stage", stage, "error", err)
	return err
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
