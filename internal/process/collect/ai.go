package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

const (
	defaultCorpusTerms = 25
	corpusTemperature  = 0.4
	corpusMaxTokens    = 900
	maxCorpusTermChars = 80
)

const corpusSystemPrompt = `You track secondhand fashion resale trends for thrift sourcing.
Return a JSON object only: {"terms": [string]}.
Each term is a short product phrase a reseller could search for, such as a brand plus garment
or a specific vintage style plus garment. No sentences, no hashtags, no prices.`

// CorpusConfig configures the AI candidate channel.
type CorpusConfig struct {
	Model    string
	MaxTerms int
	// Seeds are recent terms the model can build on; may be empty.
	Seeds []string
}

// CorpusCollector asks the LLM for candidate terms.
type CorpusCollector struct {
	llm    ports.JSONCompleter
	cfg    CorpusConfig
	logger *zerolog.Logger
}

var _ Collector = (*CorpusCollector)(nil)

// NewCorpusCollector creates the AI corpus collector. llm may be nil, in
// which case Collect fails with ErrClientDisabled.
func NewCorpusCollector(llm ports.JSONCompleter, cfg CorpusConfig, logger *zerolog.Logger) *CorpusCollector {
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = defaultCorpusTerms
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &CorpusCollector{llm: llm, cfg: cfg, logger: logger}
}

// Name implements Collector.
func (c *CorpusCollector) Name() string { return SourceAICorpus }

type corpusResponse struct {
	Terms []string `json:"terms"`
}

// Collect requests up to MaxTerms candidates. Each returned term is its own
// item; the classifier decides what survives.
func (c *CorpusCollector) Collect(ctx context.Context) (Batch, error) {
	batch := Batch{Source: SourceAICorpus, Channel: domain.ChannelAICorpus}

	if c.llm == nil {
		return batch, coreerrors.ErrClientDisabled
	}

	user, err := json.Marshal(map[string]any{
		"task":      "list currently rising resale fashion search terms",
		"max_terms": c.cfg.MaxTerms,
		"seeds":     c.cfg.Seeds,
	})
	if err != nil {
		return batch, fmt.Errorf("marshal corpus request: %w", err)
	}

	raw, err := c.llm.CompleteJSON(ctx, ports.JSONRequest{
		System:      corpusSystemPrompt,
		User:        string(user),
		Model:       c.cfg.Model,
		Temperature: corpusTemperature,
		MaxTokens:   corpusMaxTokens,
	})
	if err != nil {
		return batch, fmt.Errorf("complete corpus: %w", err)
	}

	var resp corpusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return batch, fmt.Errorf("%w: %w", coreerrors.ErrMalformedJSON, err)
	}

	seen := make(map[string]bool)

	for _, t := range resp.Terms {
		t = strings.Trim(textnorm.Clean(t), " .,;:-\"'")
		if t == "" || len([]rune(t)) > maxCorpusTermChars {
			continue
		}

		key := strings.ToLower(t)
		if seen[key] {
			continue
		}

		seen[key] = true

		batch.Items = append(batch.Items, Item{Title: t, Terms: []string{t}})
		if len(batch.Items) == c.cfg.MaxTerms {
			break
		}
	}

	if len(batch.Items) == 0 {
		return batch, fmt.Errorf("%w: no usable terms", coreerrors.ErrEmptyResponse)
	}

	c.logger.Info().Int("terms", len(batch.Items)).Msg("AI corpus collected")

	return batch, nil
}
