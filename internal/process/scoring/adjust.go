package scoring

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
	"github.com/mpull123/thriftpulse/internal/platform/observability"
)

const (
	maxAdjust         = 10
	maxExplanation    = 280
	maxRiskFlags      = 5
	maxRiskFlagLength = 60
	adjustTemperature = 0.2
	adjustMaxTokens   = 400

	outcomeDisabled = "disabled"
	outcomeApplied  = "applied"
	outcomeFallback = "fallback"
)

const adjustSystemPrompt = `You review deterministic resale ratings for secondhand fashion trend terms.
Given the evidence, suggest small corrections. Respond with a JSON object only:
{"confidence_adjust": integer -10..10, "sourcing_adjust": integer -10..10, "explanation": string, "risk_flags": [string]}
Never exceed the range. Use 0 when the evidence supports the base rating.`

// AdjusterConfig controls the AI adjustment layer.
type AdjusterConfig struct {
	Enabled bool
	Model   string
}

// AdjustRequest carries one term's base rating and the evidence behind it.
type AdjustRequest struct {
	Term  string
	Track domain.Track
	Base  domain.Rating
	Input RatingInput
	Price domain.PriceStats
	Flags domain.ChannelFlags
}

// Adjuster applies a bounded LLM correction to a base rating. Any failure
// returns the base rating tagged as a fallback; it never fails the caller.
type Adjuster struct {
	llm     ports.JSONCompleter
	cfg     AdjusterConfig
	logger  *zerolog.Logger
	enabled bool
}

// NewAdjuster creates an adjuster. It is disabled when cfg.Enabled is false
// or llm is nil (no API key configured).
func NewAdjuster(llm ports.JSONCompleter, cfg AdjusterConfig, logger *zerolog.Logger) *Adjuster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Adjuster{
		llm:     llm,
		cfg:     cfg,
		logger:  logger,
		enabled: cfg.Enabled && llm != nil,
	}
}

// Enabled reports whether the adjuster will call the LLM.
func (a *Adjuster) Enabled() bool {
	return a.enabled
}

type aiAdjustment struct {
	ConfidenceAdjust *float64 `json:"confidence_adjust"`
	SourcingAdjust   *float64 `json:"sourcing_adjust"`
	Explanation      string   `json:"explanation"`
	RiskFlags        []string `json:"risk_flags"`
}

// Adjust returns the adjusted rating, the base rating when disabled, or the
// base rating tagged deterministic_fallback on any error.
func (a *Adjuster) Adjust(ctx context.Context, req AdjustRequest) domain.Rating {
	if !a.enabled {
		observability.AIAdjustments.WithLabelValues(outcomeDisabled).Inc()
		return req.Base
	}

	adj, err := a.request(ctx, req)
	if err != nil {
		observability.AIAdjustments.WithLabelValues(outcomeFallback).Inc()
		a.logger.Warn().Err(err).Str("term", req.Term).Msg("AI rating adjustment failed, using deterministic rating")

		out := req.Base
		out.Source = domain.RatingFallback
		out.FallbackReason = textnorm.Truncate(err.Error(), maxExplanation)

		return out
	}

	observability.AIAdjustments.WithLabelValues(outcomeApplied).Inc()

	return applyAdjustment(req, adj)
}

func (a *Adjuster) request(ctx context.Context, req AdjustRequest) (aiAdjustment, error) {
	user, err := json.Marshal(map[string]any{
		"term":  req.Term,
		"track": req.Track,
		"base_rating": map[string]any{
			"confidence_score": req.Base.ConfidenceScore,
			"sourcing_score":   req.Base.SourcingScore,
			"grade":            req.Base.Grade,
		},
		"evidence": map[string]any{
			"heat_score":      req.Input.Heat,
			"sample_count":    req.Input.SampleCount,
			"source_count":    req.Input.SourceCount,
			"diversity_boost": req.Input.DiversityBoost,
			"price_spread":    Round(req.Input.SpreadPct),
			"price":           req.Price,
			"channels":        req.Flags,
		},
	})
	if err != nil {
		return aiAdjustment{}, fmt.Errorf("marshal adjust request: %w", err)
	}

	raw, err := a.llm.CompleteJSON(ctx, ports.JSONRequest{
		System:      adjustSystemPrompt,
		User:        string(user),
		Model:       a.cfg.Model,
		Temperature: adjustTemperature,
		MaxTokens:   adjustMaxTokens,
	})
	if err != nil {
		return aiAdjustment{}, fmt.Errorf("complete adjust: %w", err)
	}

	return decodeAdjustment(raw)
}

// decodeAdjustment requires both adjustments to be present numbers.
func decodeAdjustment(raw json.RawMessage) (aiAdjustment, error) {
	var adj aiAdjustment
	if err := json.Unmarshal(raw, &adj); err != nil {
		return aiAdjustment{}, fmt.Errorf("%w: %w", coreerrors.ErrMalformedJSON, err)
	}

	if adj.ConfidenceAdjust == nil || adj.SourcingAdjust == nil {
		return aiAdjustment{}, fmt.Errorf("%w: missing adjustment fields", coreerrors.ErrMalformedJSON)
	}

	return adj, nil
}

func applyAdjustment(req AdjustRequest, adj aiAdjustment) domain.Rating {
	confAdj := clamp(Round(*adj.ConfidenceAdjust), -maxAdjust, maxAdjust)
	srcAdj := clamp(Round(*adj.SourcingAdjust), -maxAdjust, maxAdjust)

	conf := ApplyEvidenceCaps(req.Base.ConfidenceScore+confAdj, req.Input.SampleCount, req.Input.SourceCount)

	out := finalize(conf, req.Base.SourcingScore+srcAdj, domain.RatingAIAdjusted)
	out.Explanation = textnorm.Truncate(textnorm.CompactWhitespace(adj.Explanation), maxExplanation)
	out.RiskFlags = cleanFlags(adj.RiskFlags)

	return out
}

func cleanFlags(flags []string) []string {
	var out []string

	for _, f := range flags {
		f = textnorm.Truncate(textnorm.CompactWhitespace(f), maxRiskFlagLength)
		if f == "" {
			continue
		}

		out = append(out, strings.ToLower(f))
		if len(out) == maxRiskFlags {
			break
		}
	}

	return out
}
