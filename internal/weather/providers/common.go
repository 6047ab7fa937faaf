package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// maxBodySnippet bounds how much of an error response ends up in an error message.
const maxBodySnippet = 256

var errNoHTTPClient = errors.New("http client not configured")

// HTTPClientConfig bundles the HTTP client and outbound pacing settings.
type HTTPClientConfig struct {
	Client *http.Client

	// RateLimit is the sustained request rate per second; zero disables pacing.
	RateLimit float64
	Burst     int
}

func newLimiter(cfg HTTPClientConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

// clientStatusError is a 4xx answer caused by the request itself (unknown city, bad key).
// It says nothing about upstream health, so the breaker does not count it.
type clientStatusError struct {
	body string
}

func (e *clientStatusError) Error() string {
	return fmt.Sprintf("%v: %s", weather.ErrUpstreamStatus, e.body)
}

func (e *clientStatusError) Unwrap() error {
	return weather.ErrUpstreamStatus
}

func isClientStatus(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     1 * time.Minute,
		Timeout:      30 * time.Second,
		IsSuccessful: func(err error) bool {
			var clientErr *clientStatusError
			return err == nil || errors.As(err, &clientErr)
		},
	})
}

// doRequest executes one GET through the rate limiter and circuit breaker and returns the
// response body. There is no retry: a failure is returned to the caller as is.
// Cancellation of ctx yields ctx.Err() and is not counted against the breaker.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	limiter *rate.Limiter,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (string, error) {
	if cfg.Client == nil {
		return "", errNoHTTPClient
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &weather.TransportError{Err: fmt.Errorf("%w: %v", weather.ErrRateLimited, err)}
		}
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return "", err
	}

	var cancelled error
	var status int
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			if ctx.Err() == context.Canceled {
				cancelled = ctx.Err()
				return nil, nil
			}
			return nil, execErr
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			if ctx.Err() == context.Canceled {
				cancelled = ctx.Err()
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if isClientStatus(resp.StatusCode) {
			return nil, &clientStatusError{body: snippet(body)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %s", weather.ErrUpstreamStatus, snippet(body))
		}
		return string(body), nil
	})

	if cancelled != nil {
		return "", cancelled
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &weather.TransportError{Err: fmt.Errorf("%w: %v", weather.ErrCircuitOpen, err)}
		}
		if status != 0 && (status < 200 || status >= 300) {
			return "", &weather.TransportError{StatusCode: status, Err: err}
		}
		return "", &weather.TransportError{Err: err}
	}

	body, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		return string(body[:maxBodySnippet]) + "..."
	}
	return string(body)
}
