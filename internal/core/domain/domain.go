// Package domain holds the entities shared by the discovery and rating
// pipeline: trend terms and their verdicts, evidence, ratings, market
// signals, style profiles and the audit records written per run.
package domain

import "time"

// Track is the dashboard lane a signal is shown in.
type Track string

const (
	TrackBrand      Track = "Brand"
	TrackStyle      Track = "Style Category"
	TrackBrandStyle Track = "Brand + Style"
)

// TrackForType maps an accepted term type to its dashboard track.
func TrackForType(t TermType) Track {
	switch t {
	case TermBrand:
		return TrackBrand
	case TermBrandStyle:
		return TrackBrandStyle
	default:
		return TrackStyle
	}
}

// PipelineStage governs dashboard visibility of a signal.
type PipelineStage string

const (
	StageRadar    PipelineStage = "radar"
	StageDecision PipelineStage = "decision"
	StageArchived PipelineStage = "archived"
)

// MarketSignal is the central persisted record, unique by TrendName.
type MarketSignal struct {
	ID                string
	TrendName         string
	Track             Track
	HookBrand         string
	Price             PriceStats
	HeatScore         int
	ConfidenceScore   int
	SourcingScore     int
	Grade             string
	MentionCount      int
	SourceSignalCount int
	RatingSource      RatingSource
	RiskFactor        string
	MarketSentiment   string
	VisualCues        []string
	Stage             PipelineStage

	StyleProfile          *StyleProfile
	StyleProfileStatus    StyleProfileStatus
	StyleProfileError     string
	StyleProfileVersion   string
	StyleProfileUpdatedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompCheck is an immutable snapshot appended each time price evidence is refreshed.
type CompCheck struct {
	ID         string
	SignalID   string
	TrendName  string
	SampleSize int
	PriceLow   int
	PriceHigh  int
	CheckedAt  time.Time
	Notes      string
}

// JobStatus is the lifecycle state of a collector job.
type JobStatus string

const (
	JobRunning  JobStatus = "running"
	JobSuccess  JobStatus = "success"
	JobDegraded JobStatus = "degraded"
	JobFailed   JobStatus = "failed"
)

// CollectorJob brackets one source channel's work within a run.
type CollectorJob struct {
	ID           string
	SourceName   string
	Status       JobStatus
	StartedAt    time.Time
	CompletedAt  time.Time
	ErrorMessage string
}

// RejectionLogRow is a best-effort diagnostic record of a rejected candidate.
type RejectionLogRow struct {
	CollectorSource string
	RawTitle        string
	CandidateTerm   string
	RejectionReason string
	Metadata        map[string]any
}
