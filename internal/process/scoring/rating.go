package scoring

import (
	"github.com/mpull123/thriftpulse/internal/core/domain"
)

const (
	scoreMin = 10
	scoreMax = 99

	confBase         = 26
	confHeatWeight   = 0.32
	confSampleCap    = 28
	confSourceCap    = 18
	confSourceWeight = 6
	confDiversity    = 3

	srcBase         = 22
	srcHeatWeight   = 0.28
	srcSampleCap    = 24
	srcSourceCap    = 14
	srcSourceWeight = 4

	capNoSamples   = 55
	capFewSamples  = 68
	fewSamples     = 6
	capFewSources  = 72
	minSourceCount = 2

	maxDiversityBoost = 3
)

// spreadPenalties are applied in order; the first matching tier wins.
var spreadPenalties = []struct {
	above   float64
	penalty int
}{
	{above: 220, penalty: 12},
	{above: 150, penalty: 8},
	{above: 95, penalty: 4},
}

// priceTiers adjust sourcing by average price.
var priceTiers = []struct {
	atLeast int
	bonus   int
}{
	{atLeast: 180, bonus: 8},
	{atLeast: 90, bonus: 4},
}

const (
	cheapPrice   = 28
	cheapPenalty = 4
)

// RatingInput is the evidence both rating scores are built from.
type RatingInput struct {
	Heat           int
	SampleCount    int
	SourceCount    int
	DiversityBoost int
	SpreadPct      float64
	AvgPrice       int
}

// DiversityBoost is the number of corroborating source families beyond the
// first, clamped to [0, 3].
func DiversityBoost(flags domain.ChannelFlags) int {
	return clamp(flags.Families()-1, 0, maxDiversityBoost)
}

// BuildBaseRating computes the deterministic confidence and sourcing scores.
func BuildBaseRating(in RatingInput) domain.Rating {
	conf := confBase +
		Round(float64(in.Heat)*confHeatWeight) +
		min(confSampleCap, max(0, in.SampleCount)) +
		min(confSourceCap, max(0, in.SourceCount)*confSourceWeight) +
		clamp(in.DiversityBoost, 0, maxDiversityBoost)*confDiversity

	for _, tier := range spreadPenalties {
		if in.SpreadPct > tier.above {
			conf -= tier.penalty
			break
		}
	}

	conf = ApplyEvidenceCaps(conf, in.SampleCount, in.SourceCount)

	src := srcBase +
		Round(float64(in.Heat)*srcHeatWeight) +
		min(srcSampleCap, max(0, in.SampleCount)) +
		min(srcSourceCap, max(0, in.SourceCount)*srcSourceWeight)

	src += priceAdjustment(in.AvgPrice)

	return finalize(conf, src, domain.RatingDeterministic)
}

func priceAdjustment(avg int) int {
	for _, tier := range priceTiers {
		if avg >= tier.atLeast {
			return tier.bonus
		}
	}

	if avg <= cheapPrice {
		return -cheapPenalty
	}

	return 0
}

// ApplyEvidenceCaps lowers confidence to the evidence-depth ceiling. Caps
// only ever lower a score.
func ApplyEvidenceCaps(confidence, sampleCount, sourceCount int) int {
	switch {
	case sampleCount <= 0:
		confidence = min(confidence, capNoSamples)
	case sampleCount < fewSamples:
		confidence = min(confidence, capFewSamples)
	}

	if sourceCount < minSourceCount {
		confidence = min(confidence, capFewSources)
	}

	return confidence
}

// Grade maps the rounded mean of both scores to A/B/C/D.
func Grade(confidence, sourcing int) string {
	avg := Round(float64(confidence+sourcing) / 2)

	switch {
	case avg >= 85:
		return "A"
	case avg >= 72:
		return "B"
	case avg >= 58:
		return "C"
	default:
		return "D"
	}
}

// StageForGrade places A and B signals on the decision board.
func StageForGrade(grade string) domain.PipelineStage {
	if grade == "A" || grade == "B" {
		return domain.StageDecision
	}

	return domain.StageRadar
}

func finalize(conf, src int, source domain.RatingSource) domain.Rating {
	conf = clamp(conf, scoreMin, scoreMax)
	src = clamp(src, scoreMin, scoreMax)

	return domain.Rating{
		ConfidenceScore: conf,
		SourcingScore:   src,
		Grade:           Grade(conf, src),
		Source:          source,
	}
}
