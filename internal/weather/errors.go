package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationUnavailable is returned when the current location was requested but
	// permission is missing or the device has no last-known fix.
	ErrLocationUnavailable = errors.New("current location is unavailable")

	// ErrEmptyLocation is returned when the location name is blank.
	ErrEmptyLocation = errors.New("location must not be empty")

	// ErrMissingAPIKey is returned when no upstream API key is configured. Nothing is sent.
	ErrMissingAPIKey = errors.New("weather api key is not configured")

	ErrUpstreamStatus = errors.New("unexpected upstream status")
	ErrCircuitOpen    = errors.New("circuit breaker open")
	ErrRateLimited    = errors.New("rate limited")
)

// TransportError reports a failed upstream call: connection error, timeout or a non-2xx status.
type TransportError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("weather request failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("weather request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that is not a well-formed forecast document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode forecast: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
