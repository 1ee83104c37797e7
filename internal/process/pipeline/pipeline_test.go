package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/core/ports/mocks"
	"github.com/mpull123/thriftpulse/internal/process/collect"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
	"github.com/mpull123/thriftpulse/internal/process/scoring"
	"github.com/mpull123/thriftpulse/internal/process/styleprofile"
)

type stubCollector struct {
	name  string
	batch collect.Batch
	err   error
}

func (s stubCollector) Name() string { return s.name }

func (s stubCollector) Collect(context.Context) (collect.Batch, error) { return s.batch, s.err }

func newsCollector(items ...collect.Item) stubCollector {
	return stubCollector{
		name:  collect.SourceNewsRSS,
		batch: collect.Batch{Source: collect.SourceNewsRSS, Channel: domain.ChannelNewsRSS, Items: items},
	}
}

func item(title string, terms ...string) collect.Item {
	return collect.Item{Title: title, Terms: terms}
}

type stubSampler map[string]evidence.Sample

func (s stubSampler) Sample(_ context.Context, term string, fallback int) evidence.Sample {
	if res, ok := s[term]; ok {
		return res
	}

	return evidence.Sample{Stats: domain.PriceStats{Avg: fallback}, Pages: 1}
}

type stubCommunity struct {
	hits map[string]int
	err  error
}

func (s stubCommunity) Mentions(_ context.Context, term string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}

	return s.hits[term], nil
}

type stubStyles struct {
	limit     int
	refreshed []string
}

func (s *stubStyles) NewBudget() *styleprofile.Budget { return styleprofile.NewBudget(s.limit) }

func (s *stubStyles) Refresh(_ context.Context, sig *domain.MarketSignal, budget *styleprofile.Budget) (bool, error) {
	if !budget.Take() {
		return false, nil
	}

	s.refreshed = append(s.refreshed, sig.TrendName)

	return true, nil
}

var carharttSample = evidence.Sample{
	Stats: domain.PriceStats{Avg: 90, Low: 70, Median: 88, High: 110, SampleCount: 12},
	Pages: 1,
}

func jobStatuses(store *mocks.Store) map[string]domain.JobStatus {
	out := make(map[string]domain.JobStatus)
	for _, j := range store.Jobs() {
		out[j.SourceName] = j.Status
	}

	return out
}

func rejectionReasons(store *mocks.Store) []string {
	var out []string
	for _, r := range store.Rejections() {
		out = append(out, r.RejectionReason)
	}

	return out
}

func TestRun_EndToEnd(t *testing.T) {
	store := mocks.NewStore()
	store.PutSignal(domain.MarketSignal{TrendName: "Red Jacket", Track: domain.TrackStyle, Stage: domain.StageRadar, HeatScore: 55})
	store.PutSignal(domain.MarketSignal{
		TrendName:          "Schott Leather Jacket",
		Track:              domain.TrackBrandStyle,
		HookBrand:          "Schott",
		Stage:              domain.StageDecision,
		HeatScore:          60,
		Price:              domain.PriceStats{Avg: 100, Low: 80, Median: 95, High: 130, SampleCount: 9},
		StyleProfileStatus: domain.StyleStatusOK,
	})

	styles := &stubStyles{limit: 5}

	p := New(Settings{}, Deps{
		Store: store,
		Collectors: []collect.Collector{
			newsCollector(
				item("Carhartt Detroit Jacket is back", "Carhartt Detroit Jacket"),
				item("Bitcoin Carhartt Jacket drop", "Bitcoin Carhartt Jacket"),
				item("cargo pants everywhere", "cargo pants"),
			),
			stubCollector{name: collect.SourceAICorpus, batch: collect.Batch{
				Source:  collect.SourceAICorpus,
				Channel: domain.ChannelAICorpus,
				Items:   []collect.Item{item("carhartt detroit jacket", "carhartt detroit jacket")},
			}},
			stubCollector{name: collect.SourceQueryPack, batch: collect.Batch{
				Source: collect.SourceQueryPack,
				Items:  []collect.Item{item("Vintage Chore Coat", "Vintage Chore Coat")},
			}},
		},
		Sampler: stubSampler{
			"Carhartt Detroit Jacket": carharttSample,
			"Schott Leather Jacket":   {FetchErr: errors.New("timeout")},
		},
		Community: stubCommunity{},
		Styles:    styles,
	}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	carhartt, ok := store.SignalByName("Carhartt Detroit Jacket")
	require.True(t, ok)
	assert.Equal(t, domain.TrackBrandStyle, carhartt.Track)
	assert.Equal(t, "Carhartt", carhartt.HookBrand)
	assert.Equal(t, 59, carhartt.HeatScore)
	assert.Equal(t, 81, carhartt.ConfidenceScore)
	assert.Equal(t, 67, carhartt.SourcingScore)
	assert.Equal(t, "B", carhartt.Grade)
	assert.Equal(t, domain.StageDecision, carhartt.Stage)
	assert.Equal(t, 15, carhartt.MentionCount)
	assert.Equal(t, 3, carhartt.SourceSignalCount)
	assert.Equal(t, domain.RatingDeterministic, carhartt.RatingSource)
	assert.Equal(t, carharttSample.Stats, carhartt.Price)

	schott, ok := store.SignalByName("Schott Leather Jacket")
	require.True(t, ok)
	assert.Equal(t, 60, schott.HeatScore, "no samples and no trend boost keeps heat")
	assert.Equal(t, 100, schott.Price.Avg, "failed sampling keeps the last prices")
	assert.Equal(t, 45, schott.ConfidenceScore)
	assert.Equal(t, 43, schott.SourcingScore)
	assert.Equal(t, "D", schott.Grade)
	assert.Equal(t, domain.StageRadar, schott.Stage)
	assert.Equal(t, domain.StyleStatusOK, schott.StyleProfileStatus)

	red, ok := store.SignalByName("Red Jacket")
	require.True(t, ok)
	assert.Equal(t, domain.StageArchived, red.Stage)
	assert.Contains(t, red.RiskFactor, archiveNotePrefix)

	_, ok = store.SignalByName("Vintage Chore Coat")
	assert.False(t, ok, "a new term with no evidence is not stored")

	assert.Equal(t, []string{"blocked_non_fashion", "generic_style_only", ReasonInsufficientEvidence}, rejectionReasons(store))

	comps := store.CompChecks()
	require.Len(t, comps, 1)
	assert.Equal(t, carhartt.ID, comps[0].SignalID)
	assert.Equal(t, 12, comps[0].SampleSize)
	assert.Equal(t, 70, comps[0].PriceLow)
	assert.Equal(t, 110, comps[0].PriceHigh)

	assert.Equal(t, map[string]domain.JobStatus{
		collect.SourceNewsRSS:   domain.JobSuccess,
		collect.SourceAICorpus:  domain.JobSuccess,
		collect.SourceQueryPack: domain.JobSuccess,
		JobPriceSamples:         domain.JobDegraded,
		JobCommunitySearch:      domain.JobSuccess,
	}, jobStatuses(store))

	assert.Equal(t, []string{"Schott Leather Jacket", "Carhartt Detroit Jacket"}, styles.refreshed)

	assert.Equal(t, 5, summary.Titles)
	assert.Equal(t, 3, summary.Accepted)
	assert.Equal(t, 3, summary.Rejected)
	assert.Equal(t, 2, summary.Scored)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Archived)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.StyleGenerated)
	assert.Equal(t, 3, summary.Logged)
	assert.NotEmpty(t, summary.RunID)
}

func TestRun_CapsNewCandidates(t *testing.T) {
	store := mocks.NewStore()

	p := New(Settings{BucketCap: 1, MaxNewSignals: 1}, Deps{
		Store: store,
		Collectors: []collect.Collector{newsCollector(
			item("a", "Carhartt Detroit Jacket"),
			item("b", "Schott Leather Jacket"),
			item("c", "Vintage Chore Coat"),
			item("d", "Boxy Cropped Bomber Jacket"),
		)},
		Sampler: stubSampler{"Carhartt Detroit Jacket": carharttSample},
	}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	signals := store.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, "Carhartt Detroit Jacket", signals[0].TrendName)

	assert.Equal(t, []string{ReasonBucketCap, ReasonBucketCap, ReasonMaxNewSignals}, rejectionReasons(store))
	assert.Equal(t, 3, summary.Capped)
}

func TestRun_KnownTermIsRefreshedNotDuplicated(t *testing.T) {
	store := mocks.NewStore()
	id := store.PutSignal(domain.MarketSignal{
		TrendName: "Carhartt Detroit Jacket",
		Track:     domain.TrackBrandStyle,
		Stage:     domain.StageRadar,
		HeatScore: 50,
	})

	p := New(Settings{}, Deps{
		Store:      store,
		Collectors: []collect.Collector{newsCollector(item("Carhartt detroit jacket restock", "carhartt detroit jacket"))},
		Sampler:    stubSampler{"Carhartt Detroit Jacket": carharttSample},
	}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	signals := store.Signals()
	require.Len(t, signals, 1)
	assert.Equal(t, id, signals[0].ID)
	assert.Equal(t, 2, signals[0].SourceSignalCount, "news flag reaches the stored signal")
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Scored)
}

func TestRun_FatalStoreReadClosesJobs(t *testing.T) {
	store := mocks.NewStore()
	store.ListSignalsFn = func(context.Context, ports.SignalFilter) ([]domain.MarketSignal, error) {
		return nil, errors.New("connection refused")
	}

	p := New(Settings{}, Deps{
		Store:      store,
		Collectors: []collect.Collector{newsCollector(item("x", "Carhartt Detroit Jacket"))},
		Sampler:    stubSampler{},
		Community:  stubCommunity{},
	}, nil)

	_, err := p.Run(context.Background())
	require.ErrorContains(t, err, "connection refused")

	jobs := store.Jobs()
	require.Len(t, jobs, 3)

	for _, j := range jobs {
		assert.Equal(t, domain.JobFailed, j.Status, j.SourceName)
		assert.Contains(t, j.ErrorMessage, "load existing signals")
	}

	assert.Empty(t, store.Signals())
}

// cancellingCollector cancels the run mid-collection, like a shutdown would.
type cancellingCollector struct {
	stubCollector
	cancel context.CancelFunc
}

func (c cancellingCollector) Collect(ctx context.Context) (collect.Batch, error) {
	c.cancel()
	return c.batch, ctx.Err()
}

func TestRun_CancelledRunClosesEveryJob(t *testing.T) {
	store := mocks.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	p := New(Settings{}, Deps{
		Store: store,
		Collectors: []collect.Collector{
			cancellingCollector{stubCollector: newsCollector(item("Carhartt Detroit Jacket", "Carhartt Detroit Jacket")), cancel: cancel},
			stubCollector{name: collect.SourceQueryPack, batch: collect.Batch{
				Source: collect.SourceQueryPack,
				Items:  []collect.Item{item("cargo pants everywhere", "cargo pants")},
			}},
		},
		Sampler:   stubSampler{},
		Community: stubCommunity{},
	}, nil)

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	jobs := store.Jobs()
	require.Len(t, jobs, 4)

	for _, j := range jobs {
		assert.NotEqual(t, domain.JobRunning, j.Status, j.SourceName)
		assert.False(t, j.CompletedAt.IsZero(), j.SourceName)
	}

	statuses := jobStatuses(store)
	assert.Equal(t, domain.JobFailed, statuses[collect.SourceNewsRSS])
	assert.Equal(t, domain.JobSuccess, statuses[collect.SourceQueryPack])
	assert.Equal(t, domain.JobFailed, statuses[JobPriceSamples])
	assert.Equal(t, domain.JobFailed, statuses[JobCommunitySearch])

	for _, j := range jobs {
		if j.SourceName == JobPriceSamples {
			assert.Contains(t, j.ErrorMessage, "run interrupted")
		}
	}

	assert.Empty(t, store.Signals())
	assert.Equal(t, []string{"generic_style_only"}, rejectionReasons(store))
}

func TestRun_CollectorFailureIsIsolated(t *testing.T) {
	store := mocks.NewStore()

	p := New(Settings{}, Deps{
		Store: store,
		Collectors: []collect.Collector{
			stubCollector{name: collect.SourceSearchTrends, err: errors.New("all 2 feeds failed")},
			newsCollector(item("x", "Carhartt Detroit Jacket")),
		},
		Sampler:   stubSampler{"Carhartt Detroit Jacket": carharttSample},
		Community: stubCommunity{err: errors.New("rate limited")},
	}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scored)

	statuses := jobStatuses(store)
	assert.Equal(t, domain.JobFailed, statuses[collect.SourceSearchTrends])
	assert.Equal(t, domain.JobSuccess, statuses[collect.SourceNewsRSS])
	assert.Equal(t, domain.JobFailed, statuses[JobCommunitySearch])

	for _, j := range store.Jobs() {
		if j.SourceName == collect.SourceSearchTrends {
			assert.Equal(t, "all 2 feeds failed", j.ErrorMessage)
		}
	}
}

func TestRun_AIAdjustment(t *testing.T) {
	store := mocks.NewStore()
	llm := mocks.NewJSONCompleter()
	llm.Queue(`{"confidence_adjust": 5, "sourcing_adjust": 0, "explanation": "steady resale demand", "risk_flags": ["Wide price spread"]}`, nil)

	p := New(Settings{}, Deps{
		Store:      store,
		Collectors: []collect.Collector{newsCollector(item("x", "Carhartt Detroit Jacket"))},
		Sampler:    stubSampler{"Carhartt Detroit Jacket": carharttSample},
		Adjuster:   scoring.NewAdjuster(llm, scoring.AdjusterConfig{Enabled: true, Model: "gpt-4o-mini"}, nil),
	}, nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	sig, ok := store.SignalByName("Carhartt Detroit Jacket")
	require.True(t, ok)

	assert.Equal(t, domain.RatingAIAdjusted, sig.RatingSource)
	assert.Equal(t, "wide price spread", sig.RiskFactor)
	assert.Equal(t, "steady resale demand", sig.MarketSentiment)
	assert.Len(t, llm.Requests(), 1)
}

func TestRun_RejectionLogIsBestEffort(t *testing.T) {
	tests := []struct {
		name       string
		cap        int
		failWrites bool
		wantRows   int
		wantLogged int
	}{
		{name: "capped", cap: 1, wantRows: 1, wantLogged: 1},
		{name: "disabled", cap: 0, wantRows: 0, wantLogged: 0},
		{name: "write failure swallowed", cap: 10, failWrites: true, wantRows: 0, wantLogged: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			if tt.failWrites {
				store.InsertRejectionsFn = func(context.Context, []domain.RejectionLogRow) error {
					return errors.New("disk full")
				}
			}

			p := New(Settings{RejectionLogCap: tt.cap}, Deps{
				Store: store,
				Collectors: []collect.Collector{newsCollector(
					item("a", "cargo pants"),
					item("b", "Bitcoin Carhartt Jacket"),
				)},
				Sampler: stubSampler{},
			}, nil)

			summary, err := p.Run(context.Background())
			require.NoError(t, err)

			assert.Len(t, store.Rejections(), tt.wantRows)
			assert.Equal(t, tt.wantLogged, summary.Logged)
			assert.Equal(t, 2, summary.Rejected)
		})
	}
}

func TestRun_FreshScopePerRun(t *testing.T) {
	store := mocks.NewStore()
	styles := &stubStyles{limit: 1}

	p := New(Settings{}, Deps{
		Store:      store,
		Collectors: []collect.Collector{newsCollector(item("x", "Carhartt Detroit Jacket"), item("y", "Vintage Chore Coat"))},
		Sampler:    stubSampler{"Carhartt Detroit Jacket": carharttSample, "Vintage Chore Coat": carharttSample},
		Styles:     styles,
	}, nil)

	first, err := p.Run(context.Background())
	require.NoError(t, err)

	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 1, first.StyleGenerated)
	assert.Equal(t, 1, second.StyleGenerated, "the style budget resets every run")
}

func TestRejectionLog(t *testing.T) {
	l := NewRejectionLog(2)

	assert.True(t, l.Add(domain.RejectionLogRow{RejectionReason: "a"}))
	assert.True(t, l.Add(domain.RejectionLogRow{RejectionReason: "b"}))
	assert.False(t, l.Add(domain.RejectionLogRow{RejectionReason: "c"}))

	assert.Len(t, l.Rows(), 2)
	assert.Equal(t, 1, l.Dropped())
}

func TestPhaseStatsStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []error
		want    domain.JobStatus
	}{
		{name: "nothing attempted", want: domain.JobSuccess},
		{name: "all ok", results: []error{nil, nil}, want: domain.JobSuccess},
		{name: "some failed", results: []error{nil, assert.AnError}, want: domain.JobDegraded},
		{name: "all failed", results: []error{assert.AnError, assert.AnError}, want: domain.JobFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s phaseStats
			for _, err := range tt.results {
				s.record(err)
			}

			got, msg := s.status()
			assert.Equal(t, tt.want, got)

			if tt.want == domain.JobSuccess {
				assert.Empty(t, msg)
			} else {
				assert.Contains(t, msg, assert.AnError.Error())
			}
		})
	}
}
