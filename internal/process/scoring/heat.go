// Package scoring turns per-term evidence into a heat score, a mention count
// and a confidence/sourcing rating, with an optional bounded AI adjustment.
// Every formula here is deterministic; only Adjuster performs I/O.
package scoring

import (
	"math"

	"github.com/mpull123/thriftpulse/internal/core/domain"
)

// DefaultHeat is the starting heat of a term with no history.
const DefaultHeat = 50

const (
	heatBase         = 35
	heatMin          = 20
	heatMax          = 99
	sampleScoreCap   = 40
	sampleScoreRate  = 2
	priceDeltaMin    = -12
	priceDeltaMax    = 20
	trendBoostPoints = 15

	compDepthThreshold = 10
)

// Round is half-up rounding: floor(x + 0.5).
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// HeatInput is the evidence the heat formula consumes.
type HeatInput struct {
	PreviousHeat  int
	PreviousPrice int
	CurrentPrice  int
	SampleCount   int
	TrendBoost    bool
}

// Heat computes the free-signal heat score. With no samples and no trend
// boost the previous heat is returned unchanged, so a failed fetch never
// decays a score.
func Heat(in HeatInput) int {
	prev := in.PreviousHeat
	if prev <= 0 {
		prev = DefaultHeat
	}

	sampleScore := min(sampleScoreCap, in.SampleCount*sampleScoreRate)
	if sampleScore < 0 {
		sampleScore = 0
	}

	if sampleScore == 0 && !in.TrendBoost {
		return prev
	}

	priceDelta := 0
	if in.PreviousPrice > 0 && in.CurrentPrice > 0 {
		pct := float64(in.CurrentPrice-in.PreviousPrice) / float64(in.PreviousPrice) * 100
		priceDelta = clamp(Round(pct/2), priceDeltaMin, priceDeltaMax)
	}

	boost := 0
	if in.TrendBoost {
		boost = trendBoostPoints
	}

	return clamp(heatBase+sampleScore+priceDelta+boost, heatMin, heatMax)
}

// MentionCount is an evidence-depth count, not a popularity score: samples,
// plus non-price channel hits, plus one when the comp check is deep enough.
// It never decreases when evidence is added.
func MentionCount(sampleCount float64, flags domain.ChannelFlags, compSampleSize int) int {
	n := Round(sampleCount)
	if n < 0 {
		n = 0
	}

	n += flags.NonPriceCount()

	if compSampleSize >= compDepthThreshold {
		n++
	}

	return n
}
