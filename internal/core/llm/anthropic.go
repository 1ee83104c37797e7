package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
)

// Anthropic model constants.
const (
	ModelClaudeHaiku = "claude-haiku-4.5"

	anthropicMaxTokensDefault = 1024
	modelPrefixClaude         = "claude"
	contentTypeText           = "text"
)

// jsonOnlySuffix stands in for OpenAI's JSON mode.
const jsonOnlySuffix = "\n\nRespond with a single JSON object and nothing else."

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates the fallback provider. The SDK's own retries
// are disabled so the registry's policy applies.
func NewAnthropicProvider(apiKey, baseURL, model string) Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if model == "" {
		model = ModelClaudeHaiku
	}

	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// resolveModel keeps Claude model names and maps anything else (OpenAI
// names from shared config) to the configured default.
func (p *anthropicProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return p.model
}

func (p *anthropicProvider) CompleteJSON(ctx context.Context, req ports.JSONRequest) (json.RawMessage, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokensDefault
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.resolveModel(req.Model)),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(req.Temperature)),
		System: []anthropic.TextBlockParam{
			{Text: req.System + jsonOnlySuffix},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	})
	if err != nil {
		err = fmt.Errorf("anthropic messages: %w", err)

		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && !retryableStatus(apiErr.StatusCode) {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	}

	text := extractTextFromResponse(resp)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("anthropic: %w", coreerrors.ErrEmptyResponse)
	}

	obj, ok := extractObject(text)
	if !ok {
		return nil, fmt.Errorf("anthropic: %w", coreerrors.ErrMalformedJSON)
	}

	return obj, nil
}

func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}
