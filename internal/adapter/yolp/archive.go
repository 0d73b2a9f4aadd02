package yolp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
)

// ArchivingSource wraps a ForecastSource and saves every raw response to a
// directory as <YYYYMMDDHHMM>.json, pretty-printed.
type ArchivingSource struct {
	inner   domain.ForecastSource
	dir     string
	loc     *time.Location
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewArchivingSource creates an archiving decorator around a source.
func NewArchivingSource(inner domain.ForecastSource, dir string, loc *time.Location, metrics *observability.Metrics, logger *slog.Logger) *ArchivingSource {
	return &ArchivingSource{
		inner:   inner,
		dir:     dir,
		loc:     loc,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch delegates to the wrapped source and archives whatever body came back,
// malformed responses included. A failed archive write is logged and counted
// but never fails the fetch.
func (a *ArchivingSource) Fetch(ctx context.Context, now time.Time) (domain.Forecast, error) {
	forecast, err := a.inner.Fetch(ctx, now)
	if len(forecast.Raw) > 0 {
		path, archiveErr := a.archive(now, forecast.Raw)
		if archiveErr != nil {
			a.metrics.ArchiveErrors.Inc()
			a.logger.Error("archive forecast response failed", "dir", a.dir, "error", archiveErr)
		} else {
			a.logger.Info("forecast response archived", "path", path)
		}
	}
	return forecast, err
}

func (a *ArchivingSource) archive(now time.Time, raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		// Keep undecodable bodies verbatim for diagnosis.
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')

	path := filepath.Join(a.dir, now.In(a.loc).Format(DateLayout)+".json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
