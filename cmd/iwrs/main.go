// Command iwrs checks the YOLP short-term precipitation forecast once and
// plays an alert when rain is expected at the configured horizon.
//
// Usage:
//
//	iwrs -f /etc/iwrs/settings.ini
//
// The settings file may also be given with --conf or IWRS_CONF. Runtime
// options (state directory, commands, metrics, Kafka) come from IWRS_*
// environment variables; see package config.
//
// Exit status: 0 no rain, 1 alert triggered, 2 alert already active,
// 3 configuration error, 4 runtime error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rain-alert/internal/adapter/audio"
	kafkaadapter "github.com/couchcryptid/rain-alert/internal/adapter/kafka"
	"github.com/couchcryptid/rain-alert/internal/adapter/state"
	"github.com/couchcryptid/rain-alert/internal/adapter/yolp"
	"github.com/couchcryptid/rain-alert/internal/alert"
	"github.com/couchcryptid/rain-alert/internal/config"
	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
	"github.com/couchcryptid/rain-alert/internal/settings"
)

// exportTimeout bounds the metrics flush at exit.
const exportTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	confPath, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return alert.ExitConfigError
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return alert.ExitConfigError
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	exporter := observability.NewExporter(metrics.Registry, cfg.MetricsTextfile, cfg.PushgatewayURL, hostname(), logger)
	defer flush(exporter, logger)

	s, err := settings.Load(confPath)
	if err != nil {
		metrics.Errors.WithLabelValues("settings").Inc()
		logger.Error("failed to load settings", "path", confPath, "error", err)
		return alert.ExitConfigError
	}
	logger.Info("settings loaded", "path", confPath, "settings", s)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("failed to load time zone", "timezone", cfg.TimeZone, "error", err)
		return alert.ExitConfigError
	}

	var source domain.ForecastSource = yolp.NewClient(s.AppID, s.Coordinates, cfg.YOLPBaseURL, cfg.HTTPTimeout, loc, metrics, logger)
	if s.DownloadDir != "" {
		source = yolp.NewArchivingSource(source, s.DownloadDir, loc, metrics, logger)
		logger.Info("response archiving enabled", "dir", s.DownloadDir)
	}

	var publisher alert.EventPublisher
	if cfg.PublishEvents() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("alert event publishing enabled", "topic", cfg.KafkaTopic)
	}

	clock := clockwork.NewRealClock()
	store := state.NewFileStore(cfg.MarkerPath())
	player := audio.NewPlayer(cfg, clock, metrics, logger)
	ctrl := alert.New(source, store, player, publisher, clock, s, metrics, logger)

	outcome, err := ctrl.Run(ctx)
	if err != nil {
		return alert.ExitRuntimeError
	}
	logger.Info("invocation complete", "outcome", outcome.String(), "marker", store.Path())
	return int(outcome)
}

// parseFlags accepts -f and --conf as the same option, falling back to
// IWRS_CONF.
func parseFlags(args []string, stderr io.Writer) (string, error) {
	fs := flag.NewFlagSet("iwrs", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var confPath string
	def := sharedcfg.EnvOrDefault("IWRS_CONF", "")
	fs.StringVar(&confPath, "f", def, "settings file (INI, or YAML with .yaml/.yml)")
	fs.StringVar(&confPath, "conf", def, "same as -f")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: iwrs -f <settings file>\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if confPath == "" {
		fs.Usage()
		return "", errors.New("settings file is required")
	}
	return confPath, nil
}

func flush(exporter *observability.Exporter, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()
	if err := exporter.Export(ctx); err != nil {
		logger.Warn("metrics export failed", "error", err)
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
