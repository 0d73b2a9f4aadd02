// Package config holds the runtime configuration: where state lives, how to
// reach the forecast provider, how to play sounds, and where to send metrics
// and events. Per-user alert settings live in the settings file instead (see
// package settings).
//
// Values come from the environment, optionally seeded from a .env file in the
// working directory. Every variable may carry the IWRS_ prefix
// (IWRS_LOG_LEVEL) or be given bare (LOG_LEVEL); the prefixed form wins.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata" // provider zone must resolve on hosts without zoneinfo

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "IWRS"

// Config holds all runtime settings, populated from environment variables.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Alert marker location.
	StateDir   string `envconfig:"STATE_DIR" default:"." validate:"required"`
	MarkerName string `envconfig:"MARKER_NAME" default:".raining" validate:"required,excludes=/"`

	// Forecast provider.
	TimeZone    string        `envconfig:"TIMEZONE" default:"Asia/Tokyo" validate:"required,timezone"`
	YOLPBaseURL string        `envconfig:"YOLP_BASE_URL" default:"https://map.yahooapis.jp" validate:"required,url"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	// Playback.
	SpeechCommand string        `envconfig:"SPEECH_COMMAND" default:"/opt/aquestalkpi/AquesTalkPi -b" validate:"required"`
	AudioCommand  string        `envconfig:"AUDIO_COMMAND" default:"aplay" validate:"required"`
	PlaybackPause time.Duration `envconfig:"PLAYBACK_PAUSE" default:"5s" validate:"gte=0"`

	// Alert event publishing, disabled when no brokers are set.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"rain-alerts" validate:"required"`

	// Metrics export, each disabled when empty.
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
	PushgatewayURL  string `envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
}

// Error reports a runtime configuration problem.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Message, e.Err)
	}
	return "config: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is normal; existing environment variables are never overridden.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, &Error{Message: "parse environment", Err: err}
	}

	cfg.KafkaBrokers = sharedcfg.ParseBrokers(strings.Join(cfg.KafkaBrokers, ","))

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &Error{Message: fmt.Sprintf("invalid %s (%s)", envName(fe.StructField()), fe.Tag()), Err: err}
		}
		return nil, &Error{Message: "validate", Err: err}
	}

	return &cfg, nil
}

// MarkerPath is the full path of the alert marker file.
func (c *Config) MarkerPath() string {
	return filepath.Join(c.StateDir, c.MarkerName)
}

// Location loads the provider time zone. Load has already validated the name.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// PublishEvents reports whether alert events go to Kafka.
func (c *Config) PublishEvents() bool {
	return len(c.KafkaBrokers) > 0
}

// envName maps a Config field name to its prefixed environment variable.
func envName(field string) string {
	f, ok := reflect.TypeFor[Config]().FieldByName(field)
	if !ok {
		return field
	}
	return envPrefix + "_" + f.Tag.Get("envconfig")
}
