package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
	"github.com/mpull123/thriftpulse/internal/process/scoring"
)

// target is one term to gather evidence for and score.
type target struct {
	term     string
	verdict  domain.Verdict
	prev     *domain.MarketSignal
	source   string
	rawTitle string
}

// isNew reports whether scoring target would create a visible signal
// rather than refresh one.
func (t target) isNew() bool {
	return t.prev == nil || t.prev.Stage == domain.StageArchived
}

type evidencePhases struct {
	price     phaseStats
	community phaseStats
}

// evaluateAll scores stored signals first, then new candidates, one term at
// a time.
func (p *Pipeline) evaluateAll(ctx context.Context, scope *RunScope, known knownSignals, fresh []domain.Candidate, summary *Summary, logger *zerolog.Logger) {
	targets := make([]target, 0, len(known.active)+len(fresh))
	targets = append(targets, known.active...)

	for _, c := range fresh {
		t := target{term: c.Term, verdict: c.Verdict, source: c.Source, rawTitle: c.RawTitle}
		if prev, ok := known.byKey[c.Key]; ok {
			t.prev = &prev
		}

		targets = append(targets, t)
	}

	var phases evidencePhases

	for _, t := range targets {
		p.evaluate(ctx, scope, t, &phases, summary, logger)
	}

	status, msg := phases.price.status()
	p.closeJob(ctx, scope, JobPriceSamples, status, msg, logger)

	status, msg = phases.community.status()
	p.closeJob(ctx, scope, JobCommunitySearch, status, msg, logger)
}

func (p *Pipeline) evaluate(ctx context.Context, scope *RunScope, t target, phases *evidencePhases, summary *Summary, logger *zerolog.Logger) {
	ctx, span := observability.StartSpan(ctx, "pipeline.evaluate_term", attribute.String(LogFieldTerm, t.term))
	defer span.End()

	sample := p.sampler.Sample(ctx, t.term, p.settings.PriceFallback)

	var priceErr error
	if sample.Pages == 0 {
		priceErr = sample.FetchErr
	}

	phases.price.record(priceErr)

	flags := scope.Evidence.Flags(t.term)
	if sample.Stats.SampleCount > 0 {
		flags.Set(domain.ChannelPriceSamples)
	}

	if p.community != nil {
		n, err := p.community.Mentions(ctx, t.term)
		phases.community.record(err)

		switch {
		case err != nil:
			logger.Debug().Err(err).Str(LogFieldTerm, t.term).Msg("community check failed")
		case n > 0:
			flags.Set(domain.ChannelCommunity)
		}
	}

	if t.isNew() && flags.Count() == 0 {
		p.reject(scope, summary, domain.RejectionLogRow{
			CollectorSource: t.source,
			RawTitle:        t.rawTitle,
			CandidateTerm:   t.term,
			RejectionReason: ReasonInsufficientEvidence,
		})

		return
	}

	sig := p.score(ctx, t, sample, flags)

	if err := p.store.UpsertSignal(ctx, &sig); err != nil {
		summary.Failed++
		span.RecordError(err)
		logger.Warn().Err(err).Str(LogFieldTerm, sig.TrendName).Msg("failed to save signal")

		return
	}

	summary.Scored++
	if t.prev == nil {
		summary.Created++
	}

	observability.SignalsScored.WithLabelValues(sig.Grade, string(sig.RatingSource)).Inc()
	observability.HeatScore.Observe(float64(sig.HeatScore))

	logger.Debug().
		Str(LogFieldTerm, sig.TrendName).
		Str(LogFieldGrade, sig.Grade).
		Int("heat", sig.HeatScore).
		Int("sources", sig.SourceSignalCount).
		Msg("scored term")

	if sample.Stats.SampleCount > 0 {
		p.recordCompCheck(ctx, sig, sample, logger)
	}

	if p.styles != nil {
		generated, err := p.styles.Refresh(ctx, &sig, scope.Styles)
		if generated {
			summary.StyleGenerated++
		}

		if err != nil {
			logger.Warn().Err(err).Str(LogFieldTerm, sig.TrendName).Msg("style profile refresh failed")
		}
	}
}

// score builds the signal to persist. Stored style-profile fields and
// visual cues carry over from the previous record.
func (p *Pipeline) score(ctx context.Context, t target, sample evidence.Sample, flags domain.ChannelFlags) domain.MarketSignal {
	var sig domain.MarketSignal
	if t.prev != nil {
		sig = *t.prev
	} else {
		sig.TrendName = t.term
	}

	stats := sample.Stats
	price := stats
	currentPrice := 0

	if stats.SampleCount > 0 {
		currentPrice = stats.Avg
	} else if t.prev != nil && t.prev.Price.Avg > 0 {
		// A run with no samples keeps the last known prices.
		price = t.prev.Price
	}

	heat := scoring.Heat(scoring.HeatInput{
		PreviousHeat:  sig.HeatScore,
		PreviousPrice: sig.Price.Avg,
		CurrentPrice:  currentPrice,
		SampleCount:   stats.SampleCount,
		TrendBoost:    flags[domain.ChannelSearchTrends],
	})

	input := scoring.RatingInput{
		Heat:           heat,
		SampleCount:    stats.SampleCount,
		SourceCount:    flags.Count(),
		DiversityBoost: scoring.DiversityBoost(flags),
		SpreadPct:      evidence.SpreadPct(price),
		AvgPrice:       price.Avg,
	}

	track := domain.TrackForType(t.verdict.Type)
	rating := scoring.BuildBaseRating(input)

	if p.adjuster != nil {
		rating = p.adjuster.Adjust(ctx, scoring.AdjustRequest{
			Term:  t.term,
			Track: track,
			Base:  rating,
			Input: input,
			Price: price,
			Flags: flags,
		})
	}

	sig.Track = track
	if t.verdict.Brand != "" {
		sig.HookBrand = t.verdict.Brand
	}

	sig.Price = price
	sig.HeatScore = heat
	sig.ConfidenceScore = rating.ConfidenceScore
	sig.SourcingScore = rating.SourcingScore
	sig.Grade = rating.Grade
	sig.RatingSource = rating.Source
	sig.MentionCount = scoring.MentionCount(float64(stats.SampleCount), flags, stats.SampleCount)
	sig.SourceSignalCount = flags.Count()
	sig.Stage = scoring.StageForGrade(rating.Grade)

	switch {
	case len(rating.RiskFlags) > 0:
		sig.RiskFactor = textnorm.Truncate(strings.Join(rating.RiskFlags, "; "), maxRiskFactor)
	case strings.HasPrefix(sig.RiskFactor, archiveNotePrefix):
		sig.RiskFactor = ""
	}

	if rating.Explanation != "" {
		sig.MarketSentiment = rating.Explanation
	}

	return sig
}

// recordCompCheck appends a price snapshot. Failures are logged only.
func (p *Pipeline) recordCompCheck(ctx context.Context, sig domain.MarketSignal, sample evidence.Sample, logger *zerolog.Logger) {
	check := &domain.CompCheck{
		SignalID:   sig.ID,
		TrendName:  sig.TrendName,
		SampleSize: sample.Stats.SampleCount,
		PriceLow:   sample.Stats.Low,
		PriceHigh:  sample.Stats.High,
		CheckedAt:  p.now().UTC(),
		Notes:      fmt.Sprintf("pages=%d median=%d avg=%d", sample.Pages, sample.Stats.Median, sample.Stats.Avg),
	}

	if err := p.store.InsertCompCheck(ctx, check); err != nil {
		logger.Warn().Err(err).Str(LogFieldTerm, sig.TrendName).Msg("failed to record comp check")
	}
}
