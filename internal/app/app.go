// Package app provides the application bootstrap and run modes.
//
// The App type wires the store, fetcher, LLM registry and collectors into a
// discovery pipeline and exposes the operational modes:
//
//   - Run mode: one discovery-and-rating pass, then exit
//   - Serve mode: cron-scheduled passes plus the health and metrics server
//   - Style mode: on-demand style profile generation for one signal
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/fetch"
	"github.com/mpull123/thriftpulse/internal/core/llm"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/platform/config"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
	"github.com/mpull123/thriftpulse/internal/platform/worker"
	"github.com/mpull123/thriftpulse/internal/process/pipeline"
	"github.com/mpull123/thriftpulse/internal/process/scoring"
	"github.com/mpull123/thriftpulse/internal/process/styleprofile"
	db "github.com/mpull123/thriftpulse/internal/storage"
)

const (
	serviceName      = "thriftpulse"
	runTimeout       = 2 * time.Hour
	corpusSeedLimit  = 20
	logFieldSignalID = "signal_id"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	sources  config.Sources
	database *db.DB
	logger   *zerolog.Logger

	fetcher ports.TextSource
	llm     ports.JSONCompleter
	runs    observability.RunTracker
}

// New creates an App. It loads the source lists and registers every LLM
// provider that has a key; with none, AI features are skipped.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	a := &App{
		cfg:      cfg,
		sources:  sources,
		database: database,
		logger:   logger,
		fetcher: fetch.New(fetch.Config{
			RPS:       cfg.FetchRPS,
			Timeout:   cfg.FetchTimeout,
			Retries:   cfg.FetchRetries,
			UserAgent: cfg.FetchUserAgent,
		}, logger),
	}

	registry := llm.New(llm.Config{
		OpenAIKey:      cfg.OpenAIAPIKey,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		Model:          cfg.TrendClassifierModel,
		AnthropicKey:   cfg.AnthropicAPIKey,
		AnthropicModel: cfg.AnthropicModel,
		Retries:        cfg.AIRetries,
		AttemptTimeout: cfg.AITimeout,
		RPS:            cfg.AIRPS,
	}, logger)

	if registry.ProviderCount() > 0 {
		a.llm = registry
	} else {
		logger.Warn().Msg("No LLM provider configured, AI corpus, rating adjustment and style profiles are disabled")
	}

	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}

	return a, nil
}

// RunOnce runs one discovery pass.
func (a *App) RunOnce(ctx context.Context) error {
	p := a.newPipeline(ctx)
	started := time.Now().UTC()

	summary, err := p.Run(ctx)
	a.runs.Record(runStatus(started, summary, err))

	if err != nil {
		return fmt.Errorf("discovery run: %w", err)
	}

	a.logger.Info().
		Str("run_id", summary.RunID).
		Int("titles", summary.Titles).
		Int("accepted", summary.Accepted).
		Int("rejected", summary.Rejected).
		Int("capped", summary.Capped).
		Int("style_generated", summary.StyleGenerated).
		Msg("Run summary")

	return nil
}

// LastRun returns the outcome of the most recent RunOnce.
func (a *App) LastRun() (observability.RunStatus, bool) {
	return a.runs.Last()
}

func runStatus(started time.Time, s pipeline.Summary, err error) observability.RunStatus {
	st := observability.RunStatus{
		RunID:      s.RunID,
		StartedAt:  started,
		FinishedAt: started.Add(s.Duration),
		Scored:     s.Scored,
		Created:    s.Created,
		Archived:   s.Archived,
		Rejected:   s.Rejected,
		Failed:     s.Failed,
	}

	if err != nil {
		st.FinishedAt = time.Now().UTC()
		st.Error = err.Error()
	}

	return st
}

// Serve runs discovery on RUN_SCHEDULE until ctx ends, with tracing and the
// health server alongside.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Info().Msg("Starting serve mode")

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Environment: a.cfg.AppEnv,
		Endpoint:    a.cfg.OTLPEndpoint,
		Insecure:    a.cfg.OTLPInsecure,
		SampleRatio: a.cfg.TracingSampleRate,
	}, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("tracing disabled")
	}

	defer func() {
		//nolint:contextcheck // flush after ctx is done
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	go func() {
		if err := a.StartHealthServer(ctx); err != nil {
			a.logger.Error().Err(err).Msg("health check server error")
		}
	}()

	err = worker.Loop(ctx, worker.Config{
		Name:       "discovery",
		Schedule:   a.cfg.RunSchedule,
		RunOnStart: true,
		Timeout:    runTimeout,
		Job:        a.RunOnce,
		Logger:     a.logger,
	})
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, &a.runs, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// GenerateStyle regenerates one signal's style profile on demand. A fresh
// profile is returned without calling the LLM.
func (a *App) GenerateStyle(ctx context.Context, signalID string) (styleprofile.Result, error) {
	if signalID == "" {
		return styleprofile.Result{}, fmt.Errorf("%w: signal id is required", coreerrors.ErrInvalidInput)
	}

	if a.llm == nil {
		return styleprofile.Result{}, fmt.Errorf("style profile: %w", coreerrors.ErrClientDisabled)
	}

	cooldown := styleprofile.NewCooldown(a.cfg.StyleProfileCooldown)

	res, err := a.newStyleGenerator().OnDemand(ctx, signalID, cooldown)
	if err != nil {
		return res, fmt.Errorf("style profile: %w", err)
	}

	a.logger.Info().
		Str(logFieldSignalID, signalID).
		Bool("generated", res.Generated).
		Str("status", string(res.Status)).
		Msg("Style profile request finished")

	return res, nil
}

func (a *App) newStyleGenerator() *styleprofile.Generator {
	return styleprofile.NewGenerator(a.llm, a.database, styleprofile.Config{
		Model:     a.cfg.StyleProfileModel,
		TTLDays:   a.cfg.StyleProfileTTLDays,
		MaxPerRun: a.cfg.StyleProfileMaxPerRun,
		Cooldown:  a.cfg.StyleProfileCooldown,
	}, a.logger)
}

func (a *App) newPipeline(ctx context.Context) *pipeline.Pipeline {
	deps := pipeline.Deps{
		Store:      a.database,
		Collectors: a.newCollectors(a.corpusSeeds(ctx)),
		Sampler:    a.newSampler(),
		Community:  a.newCommunityChecker(),
	}

	if a.llm != nil {
		deps.Adjuster = scoring.NewAdjuster(a.llm, scoring.AdjusterConfig{
			Enabled: a.cfg.AIRatingEnabled,
			Model:   a.cfg.TrendClassifierModel,
		}, a.logger)

		if a.cfg.StyleProfileMaxPerRun > 0 {
			deps.Styles = a.newStyleGenerator()
		}
	}

	return pipeline.New(pipeline.Settings{
		PriceFallback:   a.cfg.PriceFallback,
		BucketCap:       a.cfg.BucketCap,
		MaxNewSignals:   a.cfg.MaxNewSignals,
		RejectionLogCap: a.cfg.RejectionLogCap,
	}, deps, a.logger)
}

// corpusSeeds lists decision-stage terms for the AI corpus prompt. A read
// failure only costs the seeds.
func (a *App) corpusSeeds(ctx context.Context) []string {
	if a.llm == nil || !a.cfg.AICorpusEnabled {
		return nil
	}

	signals, err := a.database.ListSignals(ctx, ports.SignalFilter{
		Stages: []domain.PipelineStage{domain.StageDecision},
		Limit:  corpusSeedLimit,
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to load corpus seeds")
		return nil
	}

	seeds := make([]string, 0, len(signals))
	for _, s := range signals {
		seeds = append(seeds, s.TrendName)
	}

	return seeds
}
