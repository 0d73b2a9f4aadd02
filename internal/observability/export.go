package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJob = "rain_alert"

// Exporter flushes the registry once at the end of an invocation.
type Exporter struct {
	gatherer     prometheus.Gatherer
	textfile     string
	pushgateway  string
	pushInstance string
	logger       *slog.Logger
}

// NewExporter creates an exporter. Empty textfile or pushgateway disables the
// corresponding sink; instance labels the pushed group (typically the
// host running the check).
func NewExporter(g prometheus.Gatherer, textfile, pushgateway, instance string, logger *slog.Logger) *Exporter {
	return &Exporter{
		gatherer:     g,
		textfile:     textfile,
		pushgateway:  pushgateway,
		pushInstance: instance,
		logger:       logger,
	}
}

// Export writes the node_exporter textfile and pushes to the Pushgateway,
// attempting both and joining their errors.
func (e *Exporter) Export(ctx context.Context) error {
	var errs []error

	if e.textfile != "" {
		if err := prometheus.WriteToTextfile(e.textfile, e.gatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		} else {
			e.logger.Debug("metrics written", "path", e.textfile)
		}
	}

	if e.pushgateway != "" {
		p := push.New(e.pushgateway, pushJob).Gatherer(e.gatherer)
		if e.pushInstance != "" {
			p = p.Grouping("instance", e.pushInstance)
		}
		if err := p.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		} else {
			e.logger.Debug("metrics pushed", "url", e.pushgateway)
		}
	}

	return errors.Join(errs...)
}
