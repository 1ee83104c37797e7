package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

const (
	logKeyProvider = "provider"
	logKeyModel    = "model"

	statusSuccess = "success"
	statusError   = "error"
)

type registered struct {
	provider Provider
	breaker  *CircuitBreaker
	limiter  *rate.Limiter
}

// Registry tries providers in registration order, retrying each with
// exponential backoff before falling back to the next.
type Registry struct {
	providers []registered
	cfg       Config
	logger    *zerolog.Logger
}

var _ ports.JSONCompleter = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Registry{cfg: cfg.withDefaults(), logger: logger}
}

// Register appends a provider with its own breaker and rate limiter.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, registered{
		provider: p,
		breaker:  NewCircuitBreaker(p.Name(), r.cfg.CircuitThreshold, r.cfg.CircuitReset, r.logger),
		limiter:  rate.NewLimiter(rate.Limit(r.cfg.RPS), r.cfg.Burst),
	})

	r.logger.Info().Str(logKeyProvider, string(p.Name())).Int("position", len(r.providers)).Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	return len(r.providers)
}

// CompleteJSON implements ports.JSONCompleter.
func (r *Registry) CompleteJSON(ctx context.Context, req ports.JSONRequest) (json.RawMessage, error) {
	if len(r.providers) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	var lastErr error

	for i, entry := range r.providers {
		if err := entry.breaker.Check(); err != nil {
			r.logger.Debug().Err(err).Str(logKeyProvider, string(entry.provider.Name())).Msg("skipping provider - circuit breaker open")

			lastErr = err

			continue
		}

		out, err := r.complete(ctx, entry, req)
		if err == nil {
			if i > 0 {
				r.logger.Info().
					Str(logKeyProvider, string(entry.provider.Name())).
					Str("from_provider", string(r.providers[0].provider.Name())).
					Msg("used fallback LLM provider")
			}

			return out, nil
		}

		lastErr = err

		r.logger.Warn().Err(err).Str(logKeyProvider, string(entry.provider.Name())).Msg("LLM provider failed")

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Join(ErrAllProvidersFailed, lastErr)
}

// complete runs one provider under the retry policy. Each attempt gets its
// own timeout.
func (r *Registry) complete(ctx context.Context, entry registered, req ports.JSONRequest) (json.RawMessage, error) {
	name := string(entry.provider.Name())

	var out json.RawMessage

	op := func() error {
		if err := entry.breaker.Check(); err != nil {
			return backoff.Permanent(err)
		}

		if err := entry.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer cancel()

		start := time.Now()
		res, err := entry.provider.CompleteJSON(callCtx, req)
		observability.LLMRequestDuration.WithLabelValues(name, req.Model).Observe(time.Since(start).Seconds())

		if err != nil {
			observability.LLMRequests.WithLabelValues(name, statusError).Inc()
			entry.breaker.RecordFailure()

			return err
		}

		observability.LLMRequests.WithLabelValues(name, statusSuccess).Inc()
		entry.breaker.RecordSuccess()

		out = res

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialBackoff
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.Retries)), ctx)

	notify := func(err error, wait time.Duration) {
		r.logger.Debug().Err(err).Str(logKeyProvider, name).Str(logKeyModel, req.Model).
			Dur("wait", wait).Msg("retrying LLM request")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}

	return out, nil
}
