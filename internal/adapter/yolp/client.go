package yolp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/couchcryptid/rain-alert/internal/domain"
	"github.com/couchcryptid/rain-alert/internal/observability"
)

// DateLayout is the YOLP timestamp format (YYYYMMDDHHMM).
const DateLayout = "200601021504"

// maxBodyBytes caps the response read; a normal response is a few KiB.
const maxBodyBytes = 1 << 20

// Client implements domain.ForecastSource using the YOLP weather API.
type Client struct {
	appID       string
	coordinates string
	httpClient  *http.Client
	baseURL     string
	loc         *time.Location
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a YOLP weather client for one location. loc is the
// provider's time zone, used both for the request date and for parsing sample
// times.
func NewClient(appID, coordinates, baseURL string, timeout time.Duration, loc *time.Location, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		appID:       appID,
		coordinates: coordinates,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		baseURL: baseURL,
		loc:     loc,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch requests the 10-minute precipitation series starting at now.
//
// Transport failures and non-200 answers return *domain.ProviderError; a
// response without the expected structure returns
// *domain.MalformedForecastError. Whenever a body was read it is kept on the
// returned Forecast's Raw field, including alongside a malformed-forecast
// error.
func (c *Client) Fetch(ctx context.Context, now time.Time) (domain.Forecast, error) {
	params := url.Values{
		"appid":       {c.appID},
		"coordinates": {c.coordinates},
		"output":      {"json"},
		"date":        {now.In(c.loc).Format(DateLayout)},
		"past":        {"0"},
		"interval":    {"10"},
	}
	fullURL := c.baseURL + "/weather/V1/place?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Forecast{}, &domain.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Forecast{}, &domain.ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Forecast{}, &domain.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	forecast, err := ParseResponse(body, c.loc)
	forecast.FetchedAt = now
	if err != nil {
		return forecast, err
	}

	c.metrics.ForecastEntries.Set(float64(len(forecast.Entries)))
	c.logger.Debug("forecast fetched",
		"coordinates", c.coordinates,
		"entries", len(forecast.Entries),
		"duration", time.Since(start),
	)
	return forecast, nil
}
