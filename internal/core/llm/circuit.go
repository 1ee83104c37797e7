package llm

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
)

const (
	circuitClosed = 0
	circuitOpen   = 1
)

// CircuitBreaker stops calling a provider after consecutive failures.
type CircuitBreaker struct {
	provider            ProviderName
	threshold           int
	resetAfter          time.Duration
	consecutiveFailures int
	openUntil           time.Time
	mu                  sync.Mutex
	logger              *zerolog.Logger
	now                 func() time.Time
}

// NewCircuitBreaker creates a closed breaker for provider.
func NewCircuitBreaker(provider ProviderName, threshold int, resetAfter time.Duration, logger *zerolog.Logger) *CircuitBreaker {
	observability.LLMCircuitState.WithLabelValues(string(provider)).Set(circuitClosed)

	return &CircuitBreaker{
		provider:   provider,
		threshold:  threshold,
		resetAfter: resetAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// Check returns an error while the circuit is open.
func (cb *CircuitBreaker) Check() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.now().Before(cb.openUntil) {
		return fmt.Errorf("%s: %w until %v", cb.provider, coreerrors.ErrCircuitBreakerOpen, cb.openUntil)
	}

	return nil
}

// RecordSuccess resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	observability.LLMCircuitState.WithLabelValues(string(cb.provider)).Set(circuitClosed)
}

// RecordFailure counts a failure and opens the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++

	if cb.consecutiveFailures < cb.threshold {
		return
	}

	cb.openUntil = cb.now().Add(cb.resetAfter)
	observability.LLMCircuitState.WithLabelValues(string(cb.provider)).Set(circuitOpen)

	cb.logger.Warn().
		Str(logKeyProvider, string(cb.provider)).
		Int("consecutive_failures", cb.consecutiveFailures).
		Time("open_until", cb.openUntil).
		Msg("LLM circuit breaker opened")
}

// IsOpen reports whether calls are currently blocked.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.Check() != nil
}
