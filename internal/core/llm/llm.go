// Package llm provides the JSON-mode completion client used for rating
// adjustments, corpus candidates and style profiles: OpenAI first,
// Anthropic as fallback.
package llm

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultRetries          = 2
	defaultAttemptTimeout   = 20 * time.Second
	defaultInitialBackoff   = 350 * time.Millisecond
	defaultRPS              = 2
	defaultBurst            = 4
	defaultCircuitThreshold = 5
	defaultCircuitReset     = time.Minute
)

// Config holds provider credentials and the shared call policy.
type Config struct {
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string

	AnthropicKey     string
	AnthropicBaseURL string
	AnthropicModel   string

	Retries          int
	AttemptTimeout   time.Duration
	InitialBackoff   time.Duration
	RPS              float64
	Burst            int
	CircuitThreshold int
	CircuitReset     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Retries < 0 {
		c.Retries = defaultRetries
	}

	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}

	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}

	if c.RPS <= 0 {
		c.RPS = defaultRPS
	}

	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}

	if c.CircuitThreshold <= 0 {
		c.CircuitThreshold = defaultCircuitThreshold
	}

	if c.CircuitReset <= 0 {
		c.CircuitReset = defaultCircuitReset
	}

	return c
}

// New registers every provider that has a key. The registry is empty when
// none do; callers check ProviderCount before wiring it in.
func New(cfg Config, logger *zerolog.Logger) *Registry {
	registry := NewRegistry(cfg, logger)

	if cfg.OpenAIKey != "" {
		registry.Register(NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model))
	}

	if cfg.AnthropicKey != "" {
		registry.Register(NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicBaseURL, cfg.AnthropicModel))
	}

	return registry
}
