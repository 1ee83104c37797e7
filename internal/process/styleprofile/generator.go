package styleprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
)

// Version tags every profile written by this generator.
const Version = "v1"

// Mode distinguishes in-run refreshes from explicit requests. It prefixes
// stored error strings.
type Mode string

const (
	ModeSync     Mode = "sync"
	ModeOnDemand Mode = "on_demand"
)

const (
	generateTemperature = 0.15
	generateMaxTokens   = 700
	maxVisualCues       = 4
	maxErrorDetail      = 500

	errNotStyleTrack  = "not_style_track"
	errCooldownActive = "on_demand_cooldown_active"

	defaultTTLDays   = 14
	defaultCooldown  = 45 * time.Second
	defaultMaxPerRun = 12
)

const systemPrompt = "You are a thrift sourcing operator. Return strict JSON only. " +
	"Output should tell a buyer what to look for in-store, not quality boilerplate."

var hardConstraints = []string{
	"No exact or near-duplicate bullets across sections",
	"Do not use generic condition/quality filler",
	"Bullets must be specific but still findable in thrift stores",
	"Use silhouettes, variants, era cues, rack zones, and pass conditions",
	"At most 2 mainstream brand examples total, and only if category-fit",
	"If title already has a brand, do not force extra brand lines",
}

// Config controls generation and refresh.
type Config struct {
	Model     string
	TTLDays   int
	MaxPerRun int
	Cooldown  time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTLDays <= 0 {
		c.TTLDays = defaultTTLDays
	}

	if c.MaxPerRun <= 0 {
		c.MaxPerRun = defaultMaxPerRun
	}

	if c.Cooldown <= 0 {
		c.Cooldown = defaultCooldown
	}

	return c
}

// Budget counts generations within one run.
type Budget struct {
	limit int
	used  int
}

// NewBudget allows up to limit generations.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Take consumes one generation, or reports false when spent.
func (b *Budget) Take() bool {
	if b.used >= b.limit {
		return false
	}

	b.used++

	return true
}

// Used returns how many generations were taken.
func (b *Budget) Used() int { return b.used }

// Cooldown throttles on-demand generation per (signal, title).
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldown creates a cooldown tracker.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: make(map[string]time.Time)}
}

// Allow records an attempt for key unless one happened within the window.
func (c *Cooldown) Allow(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.last[key]; ok && now.Sub(last) < c.window {
		return false
	}

	c.last[key] = now

	return true
}

func cooldownKey(signalID, title string) string {
	return signalID + ":" + strings.ToLower(title)
}

// Result is the outcome of an on-demand request.
type Result struct {
	Generated bool
	Status    domain.StyleProfileStatus
	Error     string
	Profile   *domain.StyleProfile
	UpdatedAt time.Time
}

// Generator writes style profiles for style-track signals.
type Generator struct {
	llm    ports.JSONCompleter
	store  ports.SignalStore
	cfg    Config
	logger *zerolog.Logger
	now    func() time.Time
}

// NewGenerator creates a generator. A nil llm disables generation.
func NewGenerator(llm ports.JSONCompleter, store ports.SignalStore, cfg Config, logger *zerolog.Logger) *Generator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Generator{
		llm:    llm,
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether an LLM is configured.
func (g *Generator) Enabled() bool {
	return g.llm != nil
}

// NewCooldown returns a cooldown tracker sized from the config.
func (g *Generator) NewCooldown() *Cooldown {
	return NewCooldown(g.cfg.Cooldown)
}

// NewBudget returns a per-run budget sized from the config.
func (g *Generator) NewBudget() *Budget {
	return NewBudget(g.cfg.MaxPerRun)
}

type promptContext struct {
	HookBrand       *string  `json:"hook_brand"`
	MarketSentiment *string  `json:"market_sentiment"`
	RiskFactor      *string  `json:"risk_factor"`
	VisualCues      []string `json:"visual_cues"`
}

type promptSchema struct {
	ItemType          string `json:"item_type"`
	StylesToFind      string `json:"styles_to_find"`
	FindTheseFirst    string `json:"find_these_first"`
	WhereToCheckFirst string `json:"where_to_check_first"`
	PassIf            string `json:"pass_if"`
	ConfidenceNote    string `json:"confidence_note"`
}

type prompt struct {
	Task            string        `json:"task"`
	Title           string        `json:"title"`
	Track           string        `json:"track"`
	InferredType    string        `json:"inferred_item_type"`
	Context         promptContext `json:"context"`
	Schema          promptSchema  `json:"schema"`
	HardConstraints []string      `json:"hard_constraints"`
}

func optional(s string) *string {
	s = textnorm.CompactWhitespace(s)
	if s == "" {
		return nil
	}

	return &s
}

func buildPrompt(sig domain.MarketSignal, title string) (string, error) {
	track := textnorm.CompactWhitespace(string(sig.Track))
	if track == "" {
		track = string(domain.TrackStyle)
	}

	cues := sig.VisualCues
	if len(cues) > maxVisualCues {
		cues = cues[:maxVisualCues]
	}

	if cues == nil {
		cues = []string{}
	}

	body, err := json.Marshal(prompt{
		Task:         "Generate a style sourcing profile for one thrift node",
		Title:        title,
		Track:        track,
		InferredType: string(InferItemType(title)),
		Context: promptContext{
			HookBrand:       optional(sig.HookBrand),
			MarketSentiment: optional(sig.MarketSentiment),
			RiskFactor:      optional(sig.RiskFactor),
			VisualCues:      cues,
		},
		Schema: promptSchema{
			ItemType:          "outerwear|bottoms|footwear|knitwear|bags|dress|top|mixed",
			StylesToFind:      "array, 1-3 bullets, 6-120 chars each",
			FindTheseFirst:    "array, 1-3 bullets, 6-120 chars each",
			WhereToCheckFirst: "array, 1-2 bullets, 6-120 chars each",
			PassIf:            "array, 1-2 bullets, 6-120 chars each",
			ConfidenceNote:    "string <= 140 chars",
		},
		HardConstraints: hardConstraints,
	})
	if err != nil {
		return "", fmt.Errorf("marshal style prompt: %w", err)
	}

	return string(body), nil
}

// GenerationError is a failed generation. Text is the string stored on
// the signal.
type GenerationError struct {
	Text string
	Err  error
}

func (e *GenerationError) Error() string { return e.Text }

func (e *GenerationError) Unwrap() error { return e.Err }

// Generate asks the LLM for a profile and validates it. Failures are
// *GenerationError values prefixed by mode.
func (g *Generator) Generate(ctx context.Context, sig domain.MarketSignal, mode Mode) (domain.StyleProfile, error) {
	if g.llm == nil {
		return domain.StyleProfile{}, &GenerationError{
			Text: fmt.Sprintf("%s_style_profile_error llm not configured", mode),
			Err:  coreerrors.ErrClientDisabled,
		}
	}

	title := textnorm.CompactWhitespace(sig.TrendName)

	user, err := buildPrompt(sig, title)
	if err != nil {
		return domain.StyleProfile{}, &GenerationError{Text: fmt.Sprintf("%s_style_profile_error %s", mode, err), Err: err}
	}

	ctx, span := observability.StartSpan(ctx, "styleprofile.generate")
	defer span.End()

	raw, err := g.llm.CompleteJSON(ctx, ports.JSONRequest{
		System:      systemPrompt,
		User:        user,
		Model:       g.cfg.Model,
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		detail := textnorm.Truncate(textnorm.CompactWhitespace(err.Error()), maxErrorDetail)
		return domain.StyleProfile{}, &GenerationError{Text: fmt.Sprintf("%s_style_profile_error %s", mode, detail), Err: err}
	}

	profile, err := Normalize(raw, title)
	if err != nil {
		return domain.StyleProfile{}, &GenerationError{Text: fmt.Sprintf("%s_invalid_profile %s", mode, err), Err: err}
	}

	return profile, nil
}

// Refresh regenerates a signal's profile during a run when the track is
// style-like, the profile is stale and the budget allows it. It reports
// whether an LLM call was made. Only a failed store write is returned as
// an error; generation failures are recorded on the signal.
func (g *Generator) Refresh(ctx context.Context, sig *domain.MarketSignal, budget *Budget) (bool, error) {
	if g.llm == nil || !IsStyleLikeTrack(string(sig.Track)) {
		return false, nil
	}

	now := g.now()
	if !ShouldRefresh(*sig, g.cfg.TTLDays, now) {
		observability.StyleProfiles.WithLabelValues(string(ModeSync), "fresh").Inc()
		return false, nil
	}

	if !budget.Take() {
		observability.StyleProfiles.WithLabelValues(string(ModeSync), "budget_spent").Inc()
		return false, nil
	}

	update := g.attempt(ctx, *sig, ModeSync, now)

	if err := g.store.UpdateStyleProfile(ctx, sig.ID, update); err != nil {
		return true, fmt.Errorf("update style profile for %s: %w", sig.TrendName, err)
	}

	apply(sig, update)

	return true, nil
}

// OnDemand serves an explicit request for one signal. A fresh valid
// profile is returned without regeneration; otherwise the cooldown is
// checked before calling the LLM.
func (g *Generator) OnDemand(ctx context.Context, signalID string, cooldown *Cooldown) (Result, error) {
	sig, err := g.store.GetSignal(ctx, signalID)
	if err != nil {
		return Result{}, fmt.Errorf("get signal %s: %w", signalID, err)
	}

	if !IsStyleLikeTrack(string(sig.Track)) {
		return Result{Status: domain.StyleStatusMissing, Error: errNotStyleTrack},
			fmt.Errorf("%w: %s", coreerrors.ErrInvalidInput, errNotStyleTrack)
	}

	title := textnorm.CompactWhitespace(sig.TrendName)
	now := g.now()

	if !ShouldRefresh(*sig, g.cfg.TTLDays, now) {
		if existing, err := Revalidate(sig.StyleProfile, title); err == nil {
			observability.StyleProfiles.WithLabelValues(string(ModeOnDemand), "fresh").Inc()

			return Result{
				Status:    domain.StyleStatusOK,
				Profile:   &existing,
				UpdatedAt: sig.StyleProfileUpdatedAt,
			}, nil
		}
	}

	if !cooldown.Allow(cooldownKey(sig.ID, title), now) {
		observability.StyleProfiles.WithLabelValues(string(ModeOnDemand), "cooldown").Inc()

		return Result{
			Status:    domain.StyleStatusError,
			Error:     errCooldownActive,
			UpdatedAt: sig.StyleProfileUpdatedAt,
		}, coreerrors.ErrCooldownActive
	}

	update := g.attempt(ctx, *sig, ModeOnDemand, now)

	res := Result{
		Generated: update.Status == domain.StyleStatusOK,
		Status:    update.Status,
		Error:     update.Error,
		Profile:   update.Profile,
		UpdatedAt: update.UpdatedAt,
	}

	if err := g.store.UpdateStyleProfile(ctx, sig.ID, update); err != nil {
		return Result{
			Status:    domain.StyleStatusError,
			Error:     textnorm.Truncate("on_demand_update_failed "+err.Error(), maxErrorDetail),
			UpdatedAt: update.UpdatedAt,
		}, fmt.Errorf("update style profile for %s: %w", sig.TrendName, err)
	}

	if !res.Generated {
		return res, fmt.Errorf("generate style profile for %s: %s", sig.TrendName, res.Error)
	}

	return res, nil
}

// attempt generates a profile and turns the outcome into a column patch.
// Failures carry no profile.
func (g *Generator) attempt(ctx context.Context, sig domain.MarketSignal, mode Mode, now time.Time) ports.StyleProfileUpdate {
	profile, err := g.Generate(ctx, sig, mode)
	if err != nil {
		outcome := "error"
		if coreerrors.Is(err, coreerrors.ErrStyleProfileInvalid) {
			outcome = "invalid"
		}

		observability.StyleProfiles.WithLabelValues(string(mode), outcome).Inc()
		g.logger.Warn().Err(err).Str("term", sig.TrendName).Str("mode", string(mode)).Msg("style profile generation failed")

		return ports.StyleProfileUpdate{
			Status:    domain.StyleStatusError,
			Error:     err.Error(),
			Version:   Version,
			UpdatedAt: now,
		}
	}

	observability.StyleProfiles.WithLabelValues(string(mode), "generated").Inc()
	g.logger.Info().Str("term", sig.TrendName).Str("mode", string(mode)).
		Str("item_type", string(profile.ItemType)).Msg("style profile generated")

	return ports.StyleProfileUpdate{
		Profile:   &profile,
		Status:    domain.StyleStatusOK,
		Version:   Version,
		UpdatedAt: now,
	}
}

func apply(sig *domain.MarketSignal, u ports.StyleProfileUpdate) {
	sig.StyleProfile = u.Profile
	sig.StyleProfileStatus = u.Status
	sig.StyleProfileError = u.Error
	sig.StyleProfileVersion = u.Version
	sig.StyleProfileUpdatedAt = u.UpdatedAt
}
