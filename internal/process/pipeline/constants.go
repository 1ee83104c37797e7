package pipeline

import "time"

// Job names for the per-term evidence phases. Collector jobs use the
// collector's own name.
const (
	JobPriceSamples    = "price_samples"
	JobCommunitySearch = "community_search"
)

// Rejection reasons added on top of the classifier's.
const (
	ReasonNoTerms              = "no_terms_extracted"
	ReasonBucketCap            = "bucket_cap"
	ReasonMaxNewSignals        = "max_new_signals"
	ReasonInsufficientEvidence = "insufficient_evidence"
)

// Classifier variants, used as metric labels and rejection metadata.
const (
	VariantStrict  = "strict"
	VariantRelaxed = "relaxed"
)

// Run status labels.
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Log field constants
const (
	LogFieldRunID   = "run_id"
	LogFieldJobID   = "job_id"
	LogFieldSource  = "source"
	LogFieldTerm    = "term"
	LogFieldReason  = "reason"
	LogFieldCount   = "count"
	LogFieldSignal  = "signal_id"
	LogFieldGrade   = "grade"
	LogFieldElapsed = "elapsed"
)

// Defaults applied when Settings leaves a limit unset.
const (
	DefaultBucketCap       = 3
	DefaultMaxNewSignals   = 40
	DefaultRejectionLogCap = 200

	archiveNotePrefix = "archived: "
	maxRiskFactor     = 300
	maxJobMessage     = 500

	bookkeepingTimeout = 10 * time.Second
)
