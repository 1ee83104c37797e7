// Package errors holds the sentinel errors shared across ThriftPulse.
// Callers wrap them with fmt.Errorf and %w and test with errors.Is.
package errors

import "errors"

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Store errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrSignalNotFound indicates a market signal could not be found.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrJobAlreadyClosed indicates a collector job was closed twice.
	ErrJobAlreadyClosed = errors.New("collector job already closed")
)

// Client and connection errors.
var (
	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")

	// ErrHTTPStatus indicates a non-2xx upstream response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedJSON indicates a response could not be decoded as the expected JSON shape.
	ErrMalformedJSON = errors.New("malformed JSON")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStyleProfileInvalid indicates a style profile failed normalization.
	ErrStyleProfileInvalid = errors.New("style profile invalid")
)

// Rate limiting and throttling errors.
var (
	// ErrCooldownActive indicates an on-demand action was retried too soon.
	ErrCooldownActive = errors.New("cooldown active")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
