// Package audio plays alert sounds through external commands.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rain-alert/internal/config"
	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
)

// Player runs the speech and audio commands. Text is rendered by the speech
// command and piped into the audio command; files are handed to the audio
// command directly.
type Player struct {
	speech  []string
	audio   []string
	pause   time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPlayer builds a Player from the runtime config. Command strings are split
// on whitespace; the message or file is appended as the final argument.
func NewPlayer(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Player {
	return &Player{
		speech:  strings.Fields(cfg.SpeechCommand),
		audio:   strings.Fields(cfg.AudioCommand),
		pause:   cfg.PlaybackPause,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Play plays sound repeat times in sequence, waiting the configured pause
// after each play. repeat <= 0 plays nothing. The first failing play aborts
// the rest.
func (p *Player) Play(ctx context.Context, sound domain.Sound, repeat int) error {
	if (sound.Text == "") == (sound.File == "") {
		return errors.New("sound must have exactly one of text or file")
	}
	if len(p.audio) == 0 {
		return errors.New("audio command is empty")
	}
	if sound.Text != "" && len(p.speech) == 0 {
		return errors.New("speech command is empty")
	}

	for i := range repeat {
		p.logger.Info("playing alert", "play", i+1, "repeat", repeat, "file", sound.File)

		if err := p.playOnce(ctx, sound); err != nil {
			return fmt.Errorf("play %d/%d: %w", i+1, repeat, err)
		}
		p.metrics.Playbacks.Inc()

		if err := p.wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) playOnce(ctx context.Context, sound domain.Sound) error {
	if sound.File != "" {
		return run(exec.CommandContext(ctx, p.audio[0], append(p.audio[1:], sound.File)...))
	}
	return p.speak(ctx, sound.Text)
}

// speak runs `speech text | audio`.
func (p *Player) speak(ctx context.Context, text string) error {
	speech := exec.CommandContext(ctx, p.speech[0], append(p.speech[1:], text)...)
	audio := exec.CommandContext(ctx, p.audio[0], p.audio[1:]...)

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}
	var speechErr, audioErr bytes.Buffer
	speech.Stdout, speech.Stderr = w, &speechErr
	audio.Stdin, audio.Stderr = r, &audioErr

	if err := audio.Start(); err != nil {
		r.Close()
		w.Close()
		return fmt.Errorf("start audio command: %w", err)
	}
	r.Close()

	if err := speech.Start(); err != nil {
		w.Close()
		_ = audio.Wait()
		return fmt.Errorf("start speech command: %w", err)
	}
	w.Close()

	sErr := speech.Wait()
	aErr := audio.Wait()
	if sErr != nil {
		return fmt.Errorf("speech command: %w%s", sErr, stderrSuffix(&speechErr))
	}
	if aErr != nil {
		return fmt.Errorf("audio command: %w%s", aErr, stderrSuffix(&audioErr))
	}
	return nil
}

func (p *Player) wait(ctx context.Context) error {
	if p.pause <= 0 {
		return nil
	}
	select {
	case <-p.clock.After(p.pause):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func run(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio command: %w%s", err, stderrSuffix(&stderr))
	}
	return nil
}

func stderrSuffix(b *bytes.Buffer) string {
	s := strings.TrimSpace(b.String())
	if s == "" {
		return ""
	}
	return " (stderr: " + s + ")"
}

// NopPlayer accepts every play request without making a sound.
type NopPlayer struct {
	Logger *slog.Logger
}

func (n NopPlayer) Play(_ context.Context, sound domain.Sound, repeat int) error {
	if n.Logger != nil {
		n.Logger.Info("playback skipped (dry run)", "text", sound.Text, "file", sound.File, "repeat", repeat)
	}
	return nil
}
