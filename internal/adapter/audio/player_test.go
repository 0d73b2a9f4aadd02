package audio

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rain-alert/internal/config"
	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// testPlayer appends everything the audio command receives to out.
func testPlayer(out string) *Player {
	return &Player{
		speech:  []string{"echo"},
		audio:   []string{"sh", "-c", `if [ -n "$0" ] && [ "$0" != sh ]; then cat "$0"; else cat; fi >> '` + out + `'`},
		clock:   clockwork.NewFakeClock(),
		metrics: observability.NewMetrics(),
		logger:  discardLogger(),
	}
}

func readOut(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func TestPlay_SpeechPipedToAudio(t *testing.T) {
	requireShell(t)
	out := filepath.Join(t.TempDir(), "played")
	p := testPlayer(out)

	require.NoError(t, p.Play(context.Background(), domain.Sound{Text: "rain soon"}, 2))

	assert.Equal(t, "rain soon\nrain soon\n", readOut(t, out))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.Playbacks))
}

func TestPlay_File(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "played")
	wav := filepath.Join(dir, "alert.wav")
	require.NoError(t, os.WriteFile(wav, []byte("RIFF"), 0o644))
	p := testPlayer(out)

	require.NoError(t, p.Play(context.Background(), domain.Sound{File: wav}, 3))

	assert.Equal(t, "RIFFRIFFRIFF", readOut(t, out))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.metrics.Playbacks))
}

func TestPlay_RepeatZeroPlaysNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "played")
	p := testPlayer(out)
	p.audio = []string{"false"}

	require.NoError(t, p.Play(context.Background(), domain.Sound{Text: "rain soon"}, 0))

	assert.Empty(t, readOut(t, out))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.metrics.Playbacks))
}

func TestPlay_AudioFailure(t *testing.T) {
	requireShell(t)
	p := testPlayer(filepath.Join(t.TempDir(), "played"))
	p.audio = []string{"sh", "-c", "cat >/dev/null; echo 'no such device' >&2; exit 1"}

	err := p.Play(context.Background(), domain.Sound{Text: "rain soon"}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "play 1/2")
	assert.Contains(t, err.Error(), "audio command")
	assert.Contains(t, err.Error(), "no such device")
	assert.Equal(t, 0.0, testutil.ToFloat64(p.metrics.Playbacks))
}

func TestPlay_SpeechFailure(t *testing.T) {
	requireShell(t)
	p := testPlayer(filepath.Join(t.TempDir(), "played"))
	p.speech = []string{"false"}

	err := p.Play(context.Background(), domain.Sound{Text: "rain soon"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speech command")
}

func TestPlay_MissingCommand(t *testing.T) {
	p := testPlayer(filepath.Join(t.TempDir(), "played"))
	p.audio = []string{"/nonexistent/aplay"}

	err := p.Play(context.Background(), domain.Sound{File: "/tmp/x.wav"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio command")
}

func TestPlay_InvalidSound(t *testing.T) {
	p := testPlayer(filepath.Join(t.TempDir(), "played"))

	assert.Error(t, p.Play(context.Background(), domain.Sound{}, 1))
	assert.Error(t, p.Play(context.Background(), domain.Sound{Text: "a", File: "b"}, 1))
}

func TestPlay_PausesAfterEachPlay(t *testing.T) {
	requireShell(t)
	out := filepath.Join(t.TempDir(), "played")
	clock := clockwork.NewFakeClock()
	p := testPlayer(out)
	p.clock = clock
	p.pause = 5 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Play(ctx, domain.Sound{Text: "rain"}, 2) }()

	for range 2 {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(5 * time.Second)
	}

	require.NoError(t, <-done)
	assert.Equal(t, "rain\nrain\n", readOut(t, out))
}

func TestPlay_CanceledDuringPause(t *testing.T) {
	requireShell(t)
	p := testPlayer(filepath.Join(t.TempDir(), "played"))
	p.pause = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Play(ctx, domain.Sound{Text: "rain"}, 2) }()

	require.NoError(t, p.clock.(*clockwork.FakeClock).BlockUntilContext(context.Background(), 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNewPlayer_SplitsCommands(t *testing.T) {
	cfg := &config.Config{
		SpeechCommand: "/opt/aquestalkpi/AquesTalkPi -b",
		AudioCommand:  "aplay -q",
		PlaybackPause: 5 * time.Second,
	}
	p := NewPlayer(cfg, clockwork.NewRealClock(), observability.NewMetrics(), discardLogger())

	assert.Equal(t, []string{"/opt/aquestalkpi/AquesTalkPi", "-b"}, p.speech)
	assert.Equal(t, []string{"aplay", "-q"}, p.audio)
	assert.Equal(t, 5*time.Second, p.pause)
}

func TestNopPlayer(t *testing.T) {
	assert.NoError(t, NopPlayer{Logger: discardLogger()}.Play(context.Background(), domain.Sound{Text: "x"}, 3))
	assert.NoError(t, NopPlayer{}.Play(context.Background(), domain.Sound{Text: "x"}, 3))
}
