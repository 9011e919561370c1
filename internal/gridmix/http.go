package gridmix

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/zonecarbon/zonecarbon/internal/emissions"
)

// DefaultFetchTimeout bounds one intensity fetch. The engine treats a timeout
// as upstream unavailability; it never retries on its own.
const DefaultFetchTimeout = 5 * time.Second

// maxResponseBytes caps the intensity response body read.
const maxResponseBytes = 1 << 16

var fetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "zonecarbon_grid_fetch_total",
		Help: "Total grid carbon-intensity fetch attempts",
	},
	[]string{"provider", "status"},
)

// intensityResponse is the live feed's wire format (electricity-maps style).
type intensityResponse struct {
	CarbonIntensity float64 `json:"carbon_intensity"`
	Zone            string  `json:"zone"`
}

// HTTPProvider fetches live grid intensity from an HTTP feed. Requests are
// rate-limited and bounded by a per-fetch timeout; transport failures,
// timeouts and non-2xx responses surface as emissions.ErrUpstreamUnavailable,
// while a zone the feed cannot resolve surfaces as emissions.ErrInvalidZone.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHTTPProvider creates a provider for the feed at baseURL. A zero timeout
// means DefaultFetchTimeout.
func NewHTTPProvider(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPProvider {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		timeout: timeout,
		logger:  logger,
	}
}

// FetchIntensity performs one rate-limited fetch against the live feed.
func (p *HTTPProvider) FetchIntensity(ctx context.Context, q emissions.GridQuery) (emissions.GridIntensityReading, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		fetchTotal.WithLabelValues("http", "rate_limited").Inc()
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: %v", emissions.ErrUpstreamUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	u, err := url.Parse(p.baseURL + "/v1/carbon-intensity")
	if err != nil {
		return emissions.GridIntensityReading{}, fmt.Errorf("grid feed url: %w", err)
	}
	params := u.Query()
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(q.Lon, 'f', 6, 64))
	if q.CountryHint != "" {
		params.Set("country", q.CountryHint)
	}
	if q.ZoneName != "" {
		params.Set("zone", q.ZoneName)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return emissions.GridIntensityReading{}, fmt.Errorf("grid feed request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		fetchTotal.WithLabelValues("http", "error").Inc()
		p.logger.Warn().Err(err).Str("url", u.Host).Msg("grid intensity fetch failed")
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: %v", emissions.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		fetchTotal.WithLabelValues("http", "unresolved").Inc()
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: grid feed cannot resolve zone %q", emissions.ErrInvalidZone, q.ZoneName)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		fetchTotal.WithLabelValues("http", "error").Inc()
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: grid feed returned %d", emissions.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		fetchTotal.WithLabelValues("http", "error").Inc()
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: %v", emissions.ErrUpstreamUnavailable, err)
	}

	var out intensityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		fetchTotal.WithLabelValues("http", "error").Inc()
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: malformed grid feed response: %v", emissions.ErrUpstreamUnavailable, err)
	}
	if out.CarbonIntensity < 0 {
		fetchTotal.WithLabelValues("http", "error").Inc()
		return emissions.GridIntensityReading{}, fmt.Errorf("%w: negative intensity %v", emissions.ErrUpstreamUnavailable, out.CarbonIntensity)
	}

	fetchTotal.WithLabelValues("http", "ok").Inc()
	return emissions.GridIntensityReading{
		GramsPerKWh: out.CarbonIntensity,
		ZoneName:    out.Zone,
		Source:      "gridmix:" + u.Host,
	}, nil
}
