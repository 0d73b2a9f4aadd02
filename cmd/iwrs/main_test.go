package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rain-alert/internal/adapter/yolp"
	"github.com/couchcryptid/rain-alert/internal/alert"
	"github.com/couchcryptid/rain-alert/internal/domain"
)

// yolpServer serves a forecast starting at the current 10-minute slot, every
// sample carrying the rainfall currently stored in rain.
func yolpServer(t *testing.T, rain *atomic.Value) *httptest.Server {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := time.ParseInLocation(yolp.DateLayout, r.URL.Query().Get("date"), loc)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		start = start.Truncate(10 * time.Minute)
		value := decimal.RequireFromString(rain.Load().(string))
		entries := make([]domain.ForecastEntry, 7)
		for i := range entries {
			entries[i] = domain.ForecastEntry{Time: start.Add(time.Duration(i*10) * time.Minute), Rainfall: value}
		}
		body, err := yolp.BuildResponse(r.URL.Query().Get("coordinates"), entries, loc)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeSettings(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "settings.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func setRuntimeEnv(t *testing.T, baseURL, stateDir string) {
	t.Helper()
	t.Setenv("IWRS_YOLP_BASE_URL", baseURL)
	t.Setenv("IWRS_STATE_DIR", stateDir)
	t.Setenv("IWRS_SPEECH_COMMAND", "echo")
	t.Setenv("IWRS_AUDIO_COMMAND", "cat")
	t.Setenv("IWRS_PLAYBACK_PAUSE", "0s")
	t.Setenv("IWRS_LOG_LEVEL", "error")
	t.Setenv("IWRS_CONF", "")
}

func TestRun_AlertLifecycle(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	dir := t.TempDir()
	archive := filepath.Join(dir, "responses")
	require.NoError(t, os.Mkdir(archive, 0o755))

	var rain atomic.Value
	rain.Store("1.5")
	srv := yolpServer(t, &rain)
	setRuntimeEnv(t, srv.URL, dir)
	t.Setenv("IWRS_METRICS_TEXTFILE", filepath.Join(dir, "iwrs.prom"))

	conf := writeSettings(t, dir, fmt.Sprintf(`[yolp]
appid = test
coordinates = 139.732293,35.663613
download_dir = %s

[weather]
after_minutes = 10
rainfall_threshold = 0.5

[audio]
message = rain soon
repeat = 2
`, archive))
	marker := filepath.Join(dir, ".raining")
	ctx := context.Background()
	var stderr bytes.Buffer

	assert.Equal(t, int(alert.OutcomeTriggered), run(ctx, []string{"-f", conf}, &stderr))
	assert.FileExists(t, marker)

	assert.Equal(t, int(alert.OutcomeAlreadyAlerting), run(ctx, []string{"--conf", conf}, &stderr))
	assert.FileExists(t, marker)

	rain.Store("0.25")
	assert.Equal(t, int(alert.OutcomeNoRain), run(ctx, []string{"-f", conf}, &stderr))
	assert.NoFileExists(t, marker)

	archived, err := os.ReadDir(archive)
	require.NoError(t, err)
	assert.NotEmpty(t, archived)

	prom, err := os.ReadFile(filepath.Join(dir, "iwrs.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `rain_alert_invocations_total{outcome="no_rain"} 1`)
}

func TestRun_ConfFromEnv(t *testing.T) {
	dir := t.TempDir()
	var rain atomic.Value
	rain.Store("0")
	srv := yolpServer(t, &rain)
	setRuntimeEnv(t, srv.URL, dir)

	conf := writeSettings(t, dir, `[yolp]
appid = test
coordinates = 139.732293,35.663613
[weather]
after_minutes = 0
rainfall_threshold = 0.1
[audio]
message = rain soon
`)
	t.Setenv("IWRS_CONF", conf)

	assert.Equal(t, int(alert.OutcomeNoRain), run(context.Background(), nil, &bytes.Buffer{}))
}

func TestRun_MissingFlag(t *testing.T) {
	t.Setenv("IWRS_CONF", "")
	var stderr bytes.Buffer

	assert.Equal(t, alert.ExitConfigError, run(context.Background(), nil, &stderr))
	assert.Contains(t, stderr.String(), "usage: iwrs -f")
}

func TestRun_Help(t *testing.T) {
	assert.Equal(t, 0, run(context.Background(), []string{"-h"}, &bytes.Buffer{}))
}

func TestRun_SettingsNotFound(t *testing.T) {
	dir := t.TempDir()
	setRuntimeEnv(t, "http://127.0.0.1:1", dir)

	code := run(context.Background(), []string{"-f", filepath.Join(dir, "missing.ini")}, &bytes.Buffer{})
	assert.Equal(t, alert.ExitConfigError, code)
}

func TestRun_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	setRuntimeEnv(t, "http://127.0.0.1:1", dir)
	conf := writeSettings(t, dir, "[yolp]\nappid = test\n")

	assert.Equal(t, alert.ExitConfigError, run(context.Background(), []string{"-f", conf}, &bytes.Buffer{}))
}

func TestRun_InvalidRuntimeConfig(t *testing.T) {
	dir := t.TempDir()
	setRuntimeEnv(t, "http://127.0.0.1:1", dir)
	t.Setenv("IWRS_LOG_LEVEL", "loud")
	conf := writeSettings(t, dir, "[yolp]\nappid = test\n")

	assert.Equal(t, alert.ExitConfigError, run(context.Background(), []string{"-f", conf}, &bytes.Buffer{}))
}

func TestRun_ProviderError(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	setRuntimeEnv(t, srv.URL, dir)

	conf := writeSettings(t, dir, strings.Join([]string{
		"[yolp]", "appid = test", "coordinates = 139.7,35.6",
		"[weather]", "after_minutes = 10", "rainfall_threshold = 0",
		"[audio]", "message = rain",
	}, "\n"))

	assert.Equal(t, alert.ExitRuntimeError, run(context.Background(), []string{"-f", conf}, &bytes.Buffer{}))
	assert.NoFileExists(t, filepath.Join(dir, ".raining"))
}
