package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
)

// Store is a thread-safe in-memory implementation of ports.Store.
type Store struct {
	mu         sync.RWMutex
	signals    map[string]*domain.MarketSignal
	byName     map[string]string
	comps      []domain.CompCheck
	jobs       map[string]*domain.CollectorJob
	jobOrder   []string
	rejections []domain.RejectionLogRow
	queryTerms []string

	// ListSignalsFn allows overriding ListSignals behavior.
	ListSignalsFn func(ctx context.Context, filter ports.SignalFilter) ([]domain.MarketSignal, error)

	// UpsertSignalFn allows overriding UpsertSignal behavior.
	UpsertSignalFn func(ctx context.Context, s *domain.MarketSignal) error

	// InsertCompCheckFn allows overriding InsertCompCheck behavior.
	InsertCompCheckFn func(ctx context.Context, c *domain.CompCheck) error

	// InsertRejectionsFn allows overriding InsertRejections behavior.
	InsertRejectionsFn func(ctx context.Context, rows []domain.RejectionLogRow) error

	// ListActiveQueryTermsFn allows overriding ListActiveQueryTerms behavior.
	ListActiveQueryTermsFn func(ctx context.Context) ([]string, error)

	// PingFn allows overriding Ping behavior.
	PingFn func(ctx context.Context) error
}

// NewStore creates a new empty mock store.
func NewStore() *Store {
	return &Store{
		signals: make(map[string]*domain.MarketSignal),
		byName:  make(map[string]string),
		jobs:    make(map[string]*domain.CollectorJob),
	}
}

// AddQueryTerms registers active query-pack terms.
func (s *Store) AddQueryTerms(terms ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queryTerms = append(s.queryTerms, terms...)
}

// PutSignal stores a signal directly, assigning an ID when empty.
func (s *Store) PutSignal(sig domain.MarketSignal) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}

	cp := sig
	s.signals[sig.ID] = &cp
	s.byName[sig.TrendName] = sig.ID

	return sig.ID
}

// ListSignals returns stored signals ordered by trend name.
func (s *Store) ListSignals(ctx context.Context, filter ports.SignalFilter) ([]domain.MarketSignal, error) {
	if s.ListSignalsFn != nil {
		return s.ListSignalsFn(ctx, filter)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MarketSignal, 0, len(s.signals))

	for _, sig := range s.signals {
		if !stageAllowed(sig.Stage, filter.Stages) {
			continue
		}

		out = append(out, *sig)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TrendName < out[j].TrendName })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func stageAllowed(stage domain.PipelineStage, allowed []domain.PipelineStage) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, a := range allowed {
		if a == stage {
			return true
		}
	}

	return false
}

// GetSignal returns a copy of the signal with id.
func (s *Store) GetSignal(_ context.Context, id string) (*domain.MarketSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.signals[id]
	if !ok {
		return nil, coreerrors.ErrSignalNotFound
	}

	cp := *sig

	return &cp, nil
}

// UpsertSignal inserts or updates by trend name, preserving style-profile fields.
func (s *Store) UpsertSignal(ctx context.Context, sig *domain.MarketSignal) error {
	if s.UpsertSignalFn != nil {
		return s.UpsertSignalFn(ctx, sig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if id, ok := s.byName[sig.TrendName]; ok {
		prev := s.signals[id]
		next := *sig
		next.ID = id
		next.CreatedAt = prev.CreatedAt
		next.UpdatedAt = now
		next.StyleProfile = prev.StyleProfile
		next.StyleProfileStatus = prev.StyleProfileStatus
		next.StyleProfileError = prev.StyleProfileError
		next.StyleProfileVersion = prev.StyleProfileVersion
		next.StyleProfileUpdatedAt = prev.StyleProfileUpdatedAt
		s.signals[id] = &next
		sig.ID = id

		return nil
	}

	sig.ID = uuid.NewString()
	sig.CreatedAt = now
	sig.UpdatedAt = now

	cp := *sig
	s.signals[sig.ID] = &cp
	s.byName[sig.TrendName] = sig.ID

	return nil
}

// UpdateSignalStage moves a signal to stage and records riskFactor when set.
func (s *Store) UpdateSignalStage(_ context.Context, id string, stage domain.PipelineStage, riskFactor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return coreerrors.ErrSignalNotFound
	}

	sig.Stage = stage
	if riskFactor != "" {
		sig.RiskFactor = riskFactor
	}

	sig.UpdatedAt = time.Now().UTC()

	return nil
}

// UpdateStyleProfile patches style-profile fields.
func (s *Store) UpdateStyleProfile(_ context.Context, id string, u ports.StyleProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return coreerrors.ErrSignalNotFound
	}

	sig.StyleProfile = u.Profile
	sig.StyleProfileStatus = u.Status
	sig.StyleProfileError = u.Error
	sig.StyleProfileVersion = u.Version
	sig.StyleProfileUpdatedAt = u.UpdatedAt

	return nil
}

// InsertCompCheck appends a comp check.
func (s *Store) InsertCompCheck(ctx context.Context, c *domain.CompCheck) error {
	if s.InsertCompCheckFn != nil {
		return s.InsertCompCheckFn(ctx, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	s.comps = append(s.comps, *c)

	return nil
}

// OpenCollectorJob records a running job.
func (s *Store) OpenCollectorJob(ctx context.Context, sourceName string) (*domain.CollectorJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open collector job: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job := &domain.CollectorJob{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		Status:     domain.JobRunning,
		StartedAt:  time.Now().UTC(),
	}

	s.jobs[job.ID] = job
	s.jobOrder = append(s.jobOrder, job.ID)

	cp := *job

	return &cp, nil
}

// CloseCollectorJob closes a running job once.
func (s *Store) CloseCollectorJob(ctx context.Context, id string, status domain.JobStatus, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("close collector job %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("collector job %s: %w", id, coreerrors.ErrNotFound)
	}

	if job.Status != domain.JobRunning {
		return fmt.Errorf("collector job %s: %w", id, coreerrors.ErrJobAlreadyClosed)
	}

	job.Status = status
	job.ErrorMessage = errMsg
	job.CompletedAt = time.Now().UTC()

	return nil
}

// InsertRejections appends rejection rows.
func (s *Store) InsertRejections(ctx context.Context, rows []domain.RejectionLogRow) error {
	if s.InsertRejectionsFn != nil {
		return s.InsertRejectionsFn(ctx, rows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rejections = append(s.rejections, rows...)

	return nil
}

// ListActiveQueryTerms returns registered query-pack terms.
func (s *Store) ListActiveQueryTerms(ctx context.Context) ([]string, error) {
	if s.ListActiveQueryTermsFn != nil {
		return s.ListActiveQueryTermsFn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.queryTerms...), nil
}

// Ping reports healthy unless PingFn says otherwise.
func (s *Store) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}

	return nil
}

// Signals returns copies of all stored signals ordered by trend name.
func (s *Store) Signals() []domain.MarketSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MarketSignal, 0, len(s.signals))
	for _, sig := range s.signals {
		out = append(out, *sig)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TrendName < out[j].TrendName })

	return out
}

// SignalByName returns the stored signal with trendName.
func (s *Store) SignalByName(trendName string) (domain.MarketSignal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[trendName]
	if !ok {
		return domain.MarketSignal{}, false
	}

	return *s.signals[id], true
}

// CompChecks returns appended comp checks in insertion order.
func (s *Store) CompChecks() []domain.CompCheck {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.CompCheck(nil), s.comps...)
}

// Jobs returns collector jobs in open order.
func (s *Store) Jobs() []domain.CollectorJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CollectorJob, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		out = append(out, *s.jobs[id])
	}

	return out
}

// Rejections returns appended rejection rows.
func (s *Store) Rejections() []domain.RejectionLogRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.RejectionLogRow(nil), s.rejections...)
}
