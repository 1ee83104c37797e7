// Package pipeline runs one discovery-and-rating pass: collect candidate
// titles from every channel, classify and cap the terms, gather evidence
// for each term in turn, score it and persist the signal.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
	"github.com/mpull123/thriftpulse/internal/process/collect"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
	"github.com/mpull123/thriftpulse/internal/process/scoring"
	"github.com/mpull123/thriftpulse/internal/process/styleprofile"
)

// PriceSampler gathers sold-listing prices for a term.
type PriceSampler interface {
	Sample(ctx context.Context, term string, fallback int) evidence.Sample
}

// MentionChecker counts recent community mentions of a term.
type MentionChecker interface {
	Mentions(ctx context.Context, term string) (int, error)
}

// RatingAdjuster refines a deterministic rating. It never fails.
type RatingAdjuster interface {
	Adjust(ctx context.Context, req scoring.AdjustRequest) domain.Rating
}

// StyleRefresher regenerates stale style profiles within a per-run budget.
type StyleRefresher interface {
	NewBudget() *styleprofile.Budget
	Refresh(ctx context.Context, sig *domain.MarketSignal, budget *styleprofile.Budget) (bool, error)
}

// Settings are the run limits.
type Settings struct {
	PriceFallback   int
	BucketCap       int
	MaxNewSignals   int
	RejectionLogCap int
}

func (s Settings) withDefaults() Settings {
	if s.BucketCap <= 0 {
		s.BucketCap = DefaultBucketCap
	}

	if s.MaxNewSignals <= 0 {
		s.MaxNewSignals = DefaultMaxNewSignals
	}

	if s.RejectionLogCap < 0 {
		s.RejectionLogCap = DefaultRejectionLogCap
	}

	if s.PriceFallback < 0 {
		s.PriceFallback = 0
	}

	return s
}

// Deps are the collaborators a run uses. Community, Adjuster and Styles
// may be nil.
type Deps struct {
	Store      ports.Store
	Collectors []collect.Collector
	Sampler    PriceSampler
	Community  MentionChecker
	Adjuster   RatingAdjuster
	Styles     StyleRefresher
}

// Summary reports what one run did.
type Summary struct {
	RunID          string
	Titles         int
	Accepted       int
	Rejected       int
	Capped         int
	Scored         int
	Created        int
	Archived       int
	Failed         int
	StyleGenerated int
	Logged         int
	Duration       time.Duration
}

// Pipeline orchestrates runs. It holds no per-run state; each Run gets a
// fresh RunScope.
type Pipeline struct {
	settings   Settings
	store      ports.Store
	collectors []collect.Collector
	sampler    PriceSampler
	community  MentionChecker
	adjuster   RatingAdjuster
	styles     StyleRefresher
	logger     *zerolog.Logger
	now        func() time.Time
}

// New creates a pipeline.
func New(settings Settings, deps Deps, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		settings:   settings.withDefaults(),
		store:      deps.Store,
		collectors: deps.Collectors,
		sampler:    deps.Sampler,
		community:  deps.Community,
		adjuster:   deps.Adjuster,
		styles:     deps.Styles,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one pass to completion. Only the initial read of existing
// signals and cancellation are fatal; every other failure degrades a single
// channel or term. Every job opened is closed before Run returns.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	scope := newRunScope(p.now(), p.settings.RejectionLogCap, p.newStyleBudget())
	logger := p.logger.With().Str(LogFieldRunID, scope.ID).Logger()
	summary := Summary{RunID: scope.ID}

	ctx, span := observability.StartSpan(ctx, "pipeline.run", attribute.String(LogFieldRunID, scope.ID))
	defer span.End()

	logger.Info().Int("collectors", len(p.collectors)).Msg("Starting discovery run")

	p.openJobs(ctx, scope, &logger)

	existing, err := p.store.ListSignals(ctx, ports.SignalFilter{})
	if err != nil {
		err = p.abort(ctx, scope, &summary, fmt.Errorf("load existing signals: %w", err), &logger)
		span.RecordError(err)

		return summary, err
	}

	known := p.reclassify(ctx, existing, &summary, &logger)

	pool := p.collectAll(ctx, scope, &summary, &logger)
	if err = interrupted(ctx); err != nil {
		err = p.abort(ctx, scope, &summary, err, &logger)
		span.RecordError(err)

		return summary, err
	}

	fresh := p.selectNew(pool, known, scope, &summary)

	p.evaluateAll(ctx, scope, known, fresh, &summary, &logger)
	if err = interrupted(ctx); err != nil {
		err = p.abort(ctx, scope, &summary, err, &logger)
		span.RecordError(err)

		return summary, err
	}

	summary.Logged = scope.Rejections.Flush(ctx, p.store, &logger)

	p.finish(scope, &summary, RunStatusSuccess)

	logger.Info().
		Int("scored", summary.Scored).
		Int("created", summary.Created).
		Int("archived", summary.Archived).
		Int("failed", summary.Failed).
		Dur(LogFieldElapsed, summary.Duration).
		Msg("Discovery run finished")

	return summary, nil
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	return nil
}

// abort fails every job still open and keeps the rejections gathered so far.
func (p *Pipeline) abort(ctx context.Context, scope *RunScope, summary *Summary, cause error, logger *zerolog.Logger) error {
	p.failOpenJobs(ctx, scope, cause, logger)

	flushCtx, cancel := detached(ctx)
	defer cancel()

	summary.Logged = scope.Rejections.Flush(flushCtx, p.store, logger)

	p.finish(scope, summary, RunStatusFailed)
	logger.Error().Err(cause).Msg("discovery run failed")

	return cause
}

// detached outlives ctx's cancellation so bookkeeping writes still land
// after a timeout or shutdown.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

func (p *Pipeline) newStyleBudget() *styleprofile.Budget {
	if p.styles == nil {
		return styleprofile.NewBudget(0)
	}

	return p.styles.NewBudget()
}

func (p *Pipeline) finish(scope *RunScope, summary *Summary, status string) {
	summary.Duration = p.now().Sub(scope.Started)
	observability.RunDuration.WithLabelValues(status).Observe(summary.Duration.Seconds())
	observability.LastRunTimestamp.Set(float64(p.now().Unix()))
}

// jobNames lists every job a run brackets, in execution order.
func (p *Pipeline) jobNames() []string {
	names := make([]string, 0, len(p.collectors)+2)
	for _, c := range p.collectors {
		names = append(names, c.Name())
	}

	names = append(names, JobPriceSamples)

	if p.community != nil {
		names = append(names, JobCommunitySearch)
	}

	return names
}

func (p *Pipeline) openJobs(ctx context.Context, scope *RunScope, logger *zerolog.Logger) {
	for _, name := range p.jobNames() {
		job, err := p.store.OpenCollectorJob(ctx, name)
		if err != nil {
			logger.Warn().Err(err).Str(LogFieldSource, name).Msg("failed to open collector job")
			continue
		}

		scope.jobs[name] = job
	}
}

// closeJob closes a job once; later closes for the same name are no-ops.
func (p *Pipeline) closeJob(ctx context.Context, scope *RunScope, name string, status domain.JobStatus, msg string, logger *zerolog.Logger) {
	job, ok := scope.jobs[name]
	if !ok {
		return
	}

	delete(scope.jobs, name)
	observability.CollectorJobs.WithLabelValues(name, string(status)).Inc()

	closeCtx, cancel := detached(ctx)
	defer cancel()

	if err := p.store.CloseCollectorJob(closeCtx, job.ID, status, msg); err != nil {
		logger.Warn().Err(err).Str(LogFieldJobID, job.ID).Str(LogFieldSource, name).Msg("failed to close collector job")
	}
}

func (p *Pipeline) failOpenJobs(ctx context.Context, scope *RunScope, cause error, logger *zerolog.Logger) {
	for _, name := range p.jobNames() {
		p.closeJob(ctx, scope, name, domain.JobFailed, cause.Error(), logger)
	}
}

// phaseStats counts per-term outcomes of an evidence phase.
type phaseStats struct {
	attempted int
	failed    int
	last      error
}

func (s *phaseStats) record(err error) {
	s.attempted++

	if err != nil {
		s.failed++
		s.last = err
	}
}

// status maps per-term failures to the job status the phase closes with.
func (s *phaseStats) status() (domain.JobStatus, string) {
	switch {
	case s.failed == 0:
		return domain.JobSuccess, ""
	case s.failed == s.attempted:
		return domain.JobFailed, textnorm.Truncate(fmt.Sprintf("all %d terms failed: %v", s.attempted, s.last), maxJobMessage)
	default:
		return domain.JobDegraded, textnorm.Truncate(fmt.Sprintf("%d of %d terms failed: %v", s.failed, s.attempted, s.last), maxJobMessage)
	}
}
