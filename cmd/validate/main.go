// Command validate checks a settings file and, optionally, replays an
// archived YOLP response through the alert logic without touching the real
// alert marker or playing any sound.
//
// Usage:
//
//	go run ./cmd/validate -f settings.ini
//	go run ./cmd/validate -f settings.ini -response responses/202604261510.json
//	go run ./cmd/validate -f settings.ini -response r.json -now 202604261520 -active
//
// Without -now the evaluation time is taken from the response file name
// (YYYYMMDDHHMM.json) or, failing that, from the first sample. -active starts
// the replay as if an alert were already in effect.
//
// Exit status follows iwrs: 0/1/2 replay outcome (0 when no response is
// given), 3 invalid settings, 4 unreadable response.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rain-alert/internal/adapter/audio"
	"github.com/couchcryptid/rain-alert/internal/adapter/state"
	"github.com/couchcryptid/rain-alert/internal/adapter/yolp"
	"github.com/couchcryptid/rain-alert/internal/alert"
	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
	"github.com/couchcryptid/rain-alert/internal/settings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	conf     string
	response string
	now      string
	tz       string
	active   bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.conf, "f", "", "settings file to validate")
	fs.StringVar(&opts.response, "response", "", "archived YOLP response to replay")
	fs.StringVar(&opts.now, "now", "", "evaluation time, YYYYMMDDHHMM in -tz")
	fs.StringVar(&opts.tz, "tz", "Asia/Tokyo", "provider time zone")
	fs.BoolVar(&opts.active, "active", false, "replay with the alert already active")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return alert.ExitConfigError
	}
	if opts.conf == "" {
		fs.Usage()
		return alert.ExitConfigError
	}

	s, err := settings.Load(opts.conf)
	if err != nil {
		reportSettingsError(stderr, opts.conf, err)
		return alert.ExitConfigError
	}
	fmt.Fprintf(stdout, "PASS  %s\n", opts.conf)
	fmt.Fprintf(stdout, "      coordinates=%s after_minutes=%d threshold=%g repeat=%d\n",
		s.Coordinates, s.AfterMinutes, s.RainfallThreshold, s.Repeat)

	if opts.response == "" {
		return 0
	}

	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: time zone %q: %v\n", opts.tz, err)
		return alert.ExitConfigError
	}
	return replay(s, opts, loc, stdout, stderr)
}

func reportSettingsError(w io.Writer, path string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(w, "FAIL  %s (%d problems)\n", path, len(verr.Violations))
		for _, v := range verr.Violations {
			fmt.Fprintf(w, "      - %s\n", v)
		}
		return
	}
	fmt.Fprintf(w, "FAIL  %s: %v\n", path, err)
}

func replay(s settings.Settings, opts options, loc *time.Location, stdout, stderr io.Writer) int {
	body, err := os.ReadFile(opts.response)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: read response: %v\n", err)
		return alert.ExitRuntimeError
	}
	forecast, err := yolp.ParseResponse(body, loc)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return alert.ExitRuntimeError
	}

	now, err := evaluationTime(opts, forecast, loc)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return alert.ExitConfigError
	}

	verdict := domain.Evaluate(forecast, now, s.AfterMinutes, s.RainfallThreshold)
	fmt.Fprintf(stdout, "      now=%s target=%s entries=%d\n",
		now.Format(time.DateTime), verdict.Target.Format(time.DateTime), len(forecast.Entries))
	if verdict.Entry != nil {
		fmt.Fprintf(stdout, "      examined %s rainfall=%s\n",
			verdict.Entry.Time.Format(time.DateTime), verdict.Entry.Rainfall)
	} else {
		fmt.Fprintln(stdout, "      forecast ends before target")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := alert.New(
		staticSource{forecast},
		state.NewMemoryStore(opts.active),
		audio.NopPlayer{},
		nil,
		clockwork.NewFakeClockAt(now),
		s,
		observability.NewMetrics(),
		logger,
	)
	outcome, err := ctrl.Run(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return alert.ExitRuntimeError
	}
	fmt.Fprintf(stdout, "      outcome=%s\n", outcome)
	return int(outcome)
}

// evaluationTime picks -now, then the archive file name, then the first sample.
func evaluationTime(opts options, forecast domain.Forecast, loc *time.Location) (time.Time, error) {
	if opts.now != "" {
		t, err := time.ParseInLocation(yolp.DateLayout, opts.now, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("-now %q: %w", opts.now, err)
		}
		return t, nil
	}
	base := strings.TrimSuffix(filepath.Base(opts.response), filepath.Ext(opts.response))
	if t, err := time.ParseInLocation(yolp.DateLayout, base, loc); err == nil {
		return t, nil
	}
	if len(forecast.Entries) > 0 {
		return forecast.Entries[0].Time, nil
	}
	return time.Time{}, errors.New("cannot infer evaluation time; pass -now")
}

type staticSource struct{ forecast domain.Forecast }

func (s staticSource) Fetch(context.Context, time.Time) (domain.Forecast, error) {
	return s.forecast, nil
}
