package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// DefaultOpenWeatherURL is the 5-day / 3-hour forecast endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/forecast"

// OpenWeatherProvider implements weather.Client for the OpenWeatherMap forecast API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
}

// OpenWeatherOption customises an OpenWeatherProvider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithBaseURL points the provider at another endpoint (tests, proxies).
func WithBaseURL(baseURL string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithUnits sets the "units" parameter.
func WithUnits(units string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if units != "" {
			p.units = units
		}
	}
}

// WithLanguage sets the "lang" parameter.
func WithLanguage(lang string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if lang != "" {
			p.lang = lang
		}
	}
}

// WithRateLimit paces outbound requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		p.httpCfg.RateLimit = rps
		p.httpCfg.Burst = burst
	}
}

// WithProviderLogger sets the provider's logger.
func WithProviderLogger(logger *zap.Logger) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		units:   "metric",
		lang:    "ja",
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("openweather"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.limiter = newLimiter(p.httpCfg)

	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch requests the forecast for q and returns the verbatim response body.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, q weather.Query) (string, error) {
	if p.apiKey == "" {
		return "", weather.ErrMissingAPIKey
	}

	u, err := p.buildURL(q)
	if err != nil {
		return "", err
	}

	p.logger.Debug("requesting forecast", zap.String("provider", p.name), zap.Stringer("query", queryString(q)))

	return doRequest(ctx, p.httpCfg, p.circuit, p.limiter, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
}

// buildURL renders the request URL. A query without coordinates for the current-location
// sentinel fails with weather.ErrLocationUnavailable before anything is sent.
func (p *OpenWeatherProvider) buildURL(q weather.Query) (string, error) {
	values := url.Values{}
	values.Set("APPID", p.apiKey)

	switch {
	case q.Coordinates != nil:
		values.Set("lat", strconv.FormatFloat(q.Coordinates.Latitude, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(q.Coordinates.Longitude, 'f', -1, 64))
	case weather.IsCurrentLocation(q.Name):
		return "", weather.ErrLocationUnavailable
	case strings.TrimSpace(q.Name) == "":
		return "", weather.ErrEmptyLocation
	default:
		values.Set("q", strings.TrimSpace(q.Name))
	}

	values.Set("units", p.units)
	values.Set("lang", p.lang)

	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil
}

type queryString weather.Query

func (q queryString) String() string {
	if q.Coordinates != nil {
		return q.Coordinates.String()
	}
	return q.Name
}

var _ weather.Client = (*OpenWeatherProvider)(nil)
