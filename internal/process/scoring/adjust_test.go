package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports/mocks"
)

func e2eRequest() AdjustRequest {
	in := RatingInput{Heat: 59, SampleCount: 12, SourceCount: 1, SpreadPct: 60, AvgPrice: 67}

	return AdjustRequest{
		Term:  "90s Carhartt Detroit Jacket Vintage",
		Track: domain.TrackBrandStyle,
		Base:  BuildBaseRating(in),
		Input: in,
		Price: domain.PriceStats{Avg: 67, Low: 50, Median: 65, High: 80, SampleCount: 12},
	}
}

func TestAdjuster_Disabled(t *testing.T) {
	req := e2eRequest()

	a := NewAdjuster(nil, AdjusterConfig{Enabled: true}, nil)
	assert.False(t, a.Enabled())
	assert.Equal(t, req.Base, a.Adjust(context.Background(), req))

	llm := mocks.NewJSONCompleter()
	a = NewAdjuster(llm, AdjusterConfig{Enabled: false}, nil)
	assert.Equal(t, req.Base, a.Adjust(context.Background(), req))
	assert.Empty(t, llm.Requests())
}

func TestAdjuster_Adjust(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantConf int
		wantSrc  int
		source   domain.RatingSource
		flags    []string
	}{
		{
			name:     "applied and recapped",
			body:     `{"confidence_adjust": 10, "sourcing_adjust": 5, "explanation": "Steady sold comps.", "risk_flags": ["Fakes common", " "]}`,
			wantConf: 72,
			wantSrc:  60,
			source:   domain.RatingAIAdjusted,
			flags:    []string{"fakes common"},
		},
		{
			name:     "out of range clamped",
			body:     `{"confidence_adjust": -40, "sourcing_adjust": 40, "explanation": "", "risk_flags": []}`,
			wantConf: 53,
			wantSrc:  65,
			source:   domain.RatingAIAdjusted,
		},
		{
			name:     "missing fields fall back",
			body:     `{"explanation": "looks fine"}`,
			wantConf: 63,
			wantSrc:  55,
			source:   domain.RatingFallback,
		},
		{
			name:     "not json falls back",
			body:     `[1, 2]`,
			wantConf: 63,
			wantSrc:  55,
			source:   domain.RatingFallback,
		},
		{
			name:     "call error falls back",
			err:      assert.AnError,
			wantConf: 63,
			wantSrc:  55,
			source:   domain.RatingFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := mocks.NewJSONCompleter()
			llm.Queue(tt.body, tt.err)

			a := NewAdjuster(llm, AdjusterConfig{Enabled: true, Model: "gpt-4o-mini"}, nil)
			got := a.Adjust(context.Background(), e2eRequest())

			assert.Equal(t, tt.wantConf, got.ConfidenceScore, "confidence")
			assert.Equal(t, tt.wantSrc, got.SourcingScore, "sourcing")
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.flags, got.RiskFlags)
			assert.Equal(t, Grade(got.ConfidenceScore, got.SourcingScore), got.Grade)

			if tt.source == domain.RatingFallback {
				assert.NotEmpty(t, got.FallbackReason)
			}

			reqs := llm.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "gpt-4o-mini", reqs[0].Model)
			assert.Contains(t, reqs[0].User, "90s Carhartt Detroit Jacket Vintage")
		})
	}
}

func TestAdjuster_NeverExceedsNoSampleCap(t *testing.T) {
	in := RatingInput{Heat: 99, SampleCount: 0, SourceCount: 5, DiversityBoost: 3}
	req := AdjustRequest{Term: "Barn Jacket", Base: BuildBaseRating(in), Input: in}

	llm := mocks.NewJSONCompleter()
	llm.Queue(`{"confidence_adjust": 10, "sourcing_adjust": 0, "explanation": "hype", "risk_flags": []}`, nil)

	got := NewAdjuster(llm, AdjusterConfig{Enabled: true}, nil).Adjust(context.Background(), req)

	assert.Equal(t, 55, got.ConfidenceScore)
}
