package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
	"github.com/mpull123/thriftpulse/internal/process/classify"
	"github.com/mpull123/thriftpulse/internal/process/collect"
	"github.com/mpull123/thriftpulse/internal/process/dedup"
)

// knownSignals indexes the stored signals of this run by dedupe key.
type knownSignals struct {
	byKey  map[string]domain.MarketSignal
	active []target
}

// reclassify re-runs the classifier over every non-archived signal. Signals
// that no longer pass either variant are archived, never deleted.
func (p *Pipeline) reclassify(ctx context.Context, existing []domain.MarketSignal, summary *Summary, logger *zerolog.Logger) knownSignals {
	known := knownSignals{byKey: make(map[string]domain.MarketSignal, len(existing))}

	for i := range existing {
		sig := existing[i]
		known.byKey[dedup.Key(sig.TrendName)] = sig

		if sig.Stage == domain.StageArchived {
			continue
		}

		v, _ := classify.Best(sig.TrendName)
		if v.OK {
			known.active = append(known.active, target{term: sig.TrendName, verdict: v, prev: &existing[i], source: "refresh"})
			continue
		}

		note := textnorm.Truncate(archiveNotePrefix+v.Reason, maxRiskFactor)
		if err := p.store.UpdateSignalStage(ctx, sig.ID, domain.StageArchived, note); err != nil {
			summary.Failed++
			logger.Warn().Err(err).Str(LogFieldSignal, sig.ID).Str(LogFieldTerm, sig.TrendName).Msg("failed to archive signal")

			continue
		}

		observability.SignalsArchived.Inc()
		summary.Archived++
		logger.Info().Str(LogFieldTerm, sig.TrendName).Str(LogFieldReason, v.Reason).Msg("Archived signal that no longer classifies")
	}

	return known
}

// collectAll runs every collector in turn, bracketing each with its job.
func (p *Pipeline) collectAll(ctx context.Context, scope *RunScope, summary *Summary, logger *zerolog.Logger) []domain.Candidate {
	var pool []domain.Candidate

	for _, c := range p.collectors {
		name := c.Name()

		batch, err := c.Collect(ctx)
		p.closeJob(ctx, scope, name, batch.Status(err), batch.ErrorMessage(err), logger)

		if err != nil {
			logger.Warn().Err(err).Str(LogFieldSource, name).Msg("collector failed")
			continue
		}

		if batch.Channel != "" {
			scope.Evidence.AddCorpus(batch.Channel, batch.Titles()...)
		}

		before := len(pool)

		for _, item := range batch.Items {
			summary.Titles++
			pool = append(pool, p.classifyItem(scope, name, batch.Channel, item, summary)...)
		}

		logger.Debug().Str(LogFieldSource, name).Int("titles", len(batch.Items)).Int(LogFieldCount, len(pool)-before).Msg("collector done")
	}

	return pool
}

// classifyItem keeps every strict pass from a title. When none pass, the
// relaxed variant gets a chance so one headline never starves the pool.
func (p *Pipeline) classifyItem(scope *RunScope, source string, ch domain.Channel, item collect.Item, summary *Summary) []domain.Candidate {
	observability.TermsExtracted.WithLabelValues(source).Add(float64(len(item.Terms)))

	if len(item.Terms) == 0 {
		p.reject(scope, summary, domain.RejectionLogRow{
			CollectorSource: source,
			RawTitle:        item.Title,
			RejectionReason: ReasonNoTerms,
		})

		return nil
	}

	verdicts := make([]domain.Verdict, len(item.Terms))
	anyStrict := false

	for i, term := range item.Terms {
		verdicts[i] = classify.Strict(term)
		anyStrict = anyStrict || verdicts[i].OK
	}

	var out []domain.Candidate

	for i, term := range item.Terms {
		v, variant := verdicts[i], VariantStrict
		meta := map[string]any{}

		if !anyStrict {
			meta["strict_reason"] = v.Reason
			v, variant = classify.Relaxed(term), VariantRelaxed
		}

		if !v.OK {
			meta["variant"] = variant
			observability.TermsRejected.WithLabelValues(v.Reason).Inc()
			p.reject(scope, summary, domain.RejectionLogRow{
				CollectorSource: source,
				RawTitle:        item.Title,
				CandidateTerm:   term,
				RejectionReason: v.Reason,
				Metadata:        meta,
			})

			continue
		}

		norm := dedup.Normalize(term)

		key := dedup.Key(norm)
		if key == "" {
			continue
		}

		observability.TermsAccepted.WithLabelValues(variant, string(v.Type)).Inc()
		summary.Accepted++

		if ch != "" {
			scope.Evidence.Mark(norm, ch)
		}

		out = append(out, domain.Candidate{Term: norm, Key: key, RawTitle: item.Title, Source: source, Verdict: v})
	}

	return out
}

func (p *Pipeline) reject(scope *RunScope, summary *Summary, row domain.RejectionLogRow) {
	summary.Rejected++
	scope.Rejections.Add(row)
}

// selectNew merges duplicates, drops terms already stored and applies the
// bucket cap and the new-signal limit, in collection order.
func (p *Pipeline) selectNew(pool []domain.Candidate, known knownSignals, scope *RunScope, summary *Summary) []domain.Candidate {
	merged := dedup.DeduplicateTerms(pool, p.logger)

	// A strict verdict wins over a relaxed one for the same term.
	for _, c := range pool {
		idx := merged.DuplicateMap[c.Key]
		kept := &merged.Items[idx]

		if kept.Verdict.Reason == classify.ReasonRelaxedOK && c.Verdict.Reason != classify.ReasonRelaxedOK {
			kept.Verdict = c.Verdict
		}
	}

	candidates := make([]domain.Candidate, 0, len(merged.Items))

	for _, c := range merged.Items {
		if prev, ok := known.byKey[c.Key]; ok && prev.Stage != domain.StageArchived {
			continue
		}

		candidates = append(candidates, c)
	}

	capped := dedup.CapBy(candidates, p.settings.BucketCap, func(c domain.Candidate) string { return c.Term })
	p.rejectMissing(scope, summary, candidates, capped, ReasonBucketCap)

	selected := capped
	if len(selected) > p.settings.MaxNewSignals {
		selected = capped[:p.settings.MaxNewSignals]
		p.rejectMissing(scope, summary, capped, selected, ReasonMaxNewSignals)
	}

	return selected
}

// rejectMissing logs every candidate of all that is absent from kept.
// kept must be an ordered subsequence of all.
func (p *Pipeline) rejectMissing(scope *RunScope, summary *Summary, all, kept []domain.Candidate, reason string) {
	j := 0

	for _, c := range all {
		if j < len(kept) && kept[j].Key == c.Key {
			j++
			continue
		}

		observability.TermsCapped.Inc()
		summary.Capped++
		p.reject(scope, summary, domain.RejectionLogRow{
			CollectorSource: c.Source,
			RawTitle:        c.RawTitle,
			CandidateTerm:   c.Term,
			RejectionReason: reason,
			Metadata:        map[string]any{"bucket": dedup.Bucket(c.Term)},
		})
	}
}
