package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TermsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_terms_extracted_total",
		Help: "Candidate terms extracted from source titles",
	}, []string{"source"})

	TermsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_terms_rejected_total",
		Help: "Candidate terms rejected by the classifier",
	}, []string{"reason"})

	TermsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_terms_accepted_total",
		Help: "Candidate terms accepted by the classifier",
	}, []string{"variant", "type"})

	TermsCapped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thriftpulse_terms_capped_total",
		Help: "Terms dropped by per-bucket diversity caps",
	})

	CollectorJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_collector_jobs_total",
		Help: "Collector jobs closed, by source and status",
	}, []string{"source", "status"})

	FeedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_feed_items_total",
		Help: "Feed items read, by channel and outcome",
	}, []string{"channel", "outcome"})

	PriceSamples = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thriftpulse_price_samples",
		Help:    "Sold-listing price samples collected per term",
		Buckets: []float64{0, 1, 5, 10, 20, 40, 80, 120, 180},
	})

	SignalsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_signals_scored_total",
		Help: "Signals scored, by grade and rating source",
	}, []string{"grade", "source"})

	SignalsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thriftpulse_signals_archived_total",
		Help: "Signals archived after failing reclassification",
	})

	HeatScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thriftpulse_heat_score",
		Help:    "Distribution of computed heat scores",
		Buckets: []float64{20, 30, 40, 50, 60, 70, 80, 90, 99},
	})

	AIAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_ai_adjustments_total",
		Help: "AI rating adjustment outcomes",
	}, []string{"outcome"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thriftpulse_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_llm_requests_total",
		Help: "LLM requests by provider and status",
	}, []string{"provider", "status"})

	LLMCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "thriftpulse_llm_circuit_open",
		Help: "1 when a provider circuit breaker is open",
	}, []string{"provider"})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_fetch_requests_total",
		Help: "HTTP fetches by host and status",
	}, []string{"host", "status"})

	StyleProfiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thriftpulse_style_profiles_total",
		Help: "Style profile generation outcomes",
	}, []string{"mode", "outcome"})

	RejectionLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thriftpulse_rejection_log_dropped_total",
		Help: "Rejection rows not written because of the per-run cap or a write error",
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thriftpulse_run_duration_seconds",
		Help:    "Duration of a full discovery run",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
	}, []string{"status"})

	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thriftpulse_last_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	})
)
