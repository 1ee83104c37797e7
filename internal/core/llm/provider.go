package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mpull123/thriftpulse/internal/core/ports"
)

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
)

// Provider performs a single JSON completion. Retries, rate limiting and
// circuit breaking are the registry's job.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// CompleteJSON returns one JSON object. Errors that retrying cannot fix
	// are wrapped with backoff.Permanent.
	CompleteJSON(ctx context.Context, req ports.JSONRequest) (json.RawMessage, error)
}

// extractObject finds the first JSON object in model output, tolerating
// markdown fences and preamble text.
func extractObject(text string) (json.RawMessage, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}

		var obj json.RawMessage

		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&obj); err == nil && len(obj) > 0 && obj[0] == '{' {
			return obj, true
		}
	}

	return nil, false
}
