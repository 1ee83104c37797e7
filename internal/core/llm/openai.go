package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
)

// DefaultOpenAIModel is used when neither the request nor config names one.
const DefaultOpenAIModel = "gpt-4o-mini"

type openaiProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider in JSON-object mode. An
// empty baseURL uses the public API.
func NewOpenAIProvider(apiKey, baseURL, model string) Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model == "" {
		model = DefaultOpenAIModel
	}

	return &openaiProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func (p *openaiProvider) CompleteJSON(ctx context.Context, req ports.JSONRequest) (json.RawMessage, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		err = fmt.Errorf("openai chat completion: %w", err)
		if !openaiRetryable(err) {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai: %w", coreerrors.ErrEmptyResponse)
	}

	obj, ok := extractObject(resp.Choices[0].Message.Content)
	if !ok {
		return nil, fmt.Errorf("openai: %w", coreerrors.ErrMalformedJSON)
	}

	return obj, nil
}

// openaiRetryable treats rate limits, server errors and transport failures
// as transient. Other 4xx responses will not improve on retry.
func openaiRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	return true
}

func retryableStatus(code int) bool {
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
