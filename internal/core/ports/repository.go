// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mpull123/thriftpulse/internal/core/domain"
)

// SignalFilter narrows ListSignals. Zero values mean no restriction.
type SignalFilter struct {
	Stages []domain.PipelineStage
	Limit  int
}

// SignalReader provides read access to market signals.
type SignalReader interface {
	ListSignals(ctx context.Context, filter SignalFilter) ([]domain.MarketSignal, error)
	GetSignal(ctx context.Context, id string) (*domain.MarketSignal, error)
}

// StyleProfileUpdate is a patch of a signal's style-profile columns.
type StyleProfileUpdate struct {
	Profile   *domain.StyleProfile
	Status    domain.StyleProfileStatus
	Error     string
	Version   string
	UpdatedAt time.Time
}

// SignalWriter provides write access to market signals.
type SignalWriter interface {
	// UpsertSignal inserts or updates by TrendName and fills in ID.
	// Style-profile columns are left untouched on update.
	UpsertSignal(ctx context.Context, s *domain.MarketSignal) error
	UpdateSignalStage(ctx context.Context, id string, stage domain.PipelineStage, riskFactor string) error
	UpdateStyleProfile(ctx context.Context, id string, update StyleProfileUpdate) error
}

// SignalStore combines signal read and write operations.
type SignalStore interface {
	SignalReader
	SignalWriter
}

// CompCheckRepository appends price snapshots.
type CompCheckRepository interface {
	InsertCompCheck(ctx context.Context, c *domain.CompCheck) error
}

// CollectorJobRepository brackets each source channel's work in a run.
type CollectorJobRepository interface {
	OpenCollectorJob(ctx context.Context, sourceName string) (*domain.CollectorJob, error)
	// CloseCollectorJob closes a running job exactly once.
	CloseCollectorJob(ctx context.Context, id string, status domain.JobStatus, errMsg string) error
}

// RejectionLogRepository appends diagnostic rows for rejected candidates.
type RejectionLogRepository interface {
	InsertRejections(ctx context.Context, rows []domain.RejectionLogRow) error
}

// QueryTermRepository lists the configured query-pack terms.
type QueryTermRepository interface {
	ListActiveQueryTerms(ctx context.Context) ([]string, error)
}

// HealthChecker reports store connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Store is everything the pipeline needs from persistence.
type Store interface {
	SignalStore
	CompCheckRepository
	CollectorJobRepository
	RejectionLogRepository
	QueryTermRepository
	HealthChecker
}

// TextSource fetches a raw response body (HTML, XML or RSS) for a URL.
type TextSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// JSONRequest is one JSON-mode completion request.
type JSONRequest struct {
	System      string
	User        string
	Model       string
	Temperature float32
	MaxTokens   int
}

// JSONCompleter returns a JSON object for a prompt, or an error after its
// retries are exhausted. Callers validate the shape themselves.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, req JSONRequest) (json.RawMessage, error)
}
