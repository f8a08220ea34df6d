package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrUpstreamAuth means the provider rejected the credential (HTTP 401).
	ErrUpstreamAuth = errors.New("upstream authentication failed")
	// ErrUpstreamNotFound means the provider does not know the path (HTTP 404).
	ErrUpstreamNotFound = errors.New("upstream resource not found")
	// ErrUpstreamDisabled means no credential is configured.
	ErrUpstreamDisabled = errors.New("upstream credential not configured")
	// ErrRunInProgress is returned when an ingestion run is already active.
	ErrRunInProgress = errors.New("ingestion run already in progress")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status code %d", e.URL, e.Code)
}

// TransportError covers network failures, timeouts, oversized bodies and an
// open circuit breaker.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// outage reports whether err says the provider itself is unhealthy: a
// transport failure, a 429 or a 5xx. Other client errors are specific to the
// request and leave the breaker alone.
func outage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return IsTransport(err)
}

// BreakerOpen reports whether err was produced by an open breaker without
// reaching the provider.
func BreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
