package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
	"github.com/mpull123/thriftpulse/internal/process/styleprofile"
)

// RunScope holds the state that lives for exactly one run. Nothing in it
// outlives Run, so repeated runs never share counters or caches.
type RunScope struct {
	ID      string
	Started time.Time

	Evidence   *evidence.Aggregator
	Styles     *styleprofile.Budget
	Rejections *RejectionLog

	jobs map[string]*domain.CollectorJob
}

func newRunScope(now time.Time, rejectionCap int, styles *styleprofile.Budget) *RunScope {
	return &RunScope{
		ID:         uuid.NewString(),
		Started:    now,
		Evidence:   evidence.NewAggregator(),
		Styles:     styles,
		Rejections: NewRejectionLog(rejectionCap),
		jobs:       make(map[string]*domain.CollectorJob),
	}
}

// RejectionLog buffers rejection rows up to a per-run cap.
type RejectionLog struct {
	cap     int
	rows    []domain.RejectionLogRow
	dropped int
}

// NewRejectionLog creates a log that keeps at most limit rows.
func NewRejectionLog(limit int) *RejectionLog {
	return &RejectionLog{cap: limit}
}

// Add buffers row, or counts it as dropped once the cap is reached.
func (l *RejectionLog) Add(row domain.RejectionLogRow) bool {
	if len(l.rows) >= l.cap {
		l.dropped++
		return false
	}

	l.rows = append(l.rows, row)

	return true
}

// Rows returns the buffered rows.
func (l *RejectionLog) Rows() []domain.RejectionLogRow { return l.rows }

// Dropped returns how many rows exceeded the cap.
func (l *RejectionLog) Dropped() int { return l.dropped }

// Flush writes the buffered rows. Write failures are logged and swallowed.
func (l *RejectionLog) Flush(ctx context.Context, repo ports.RejectionLogRepository, logger *zerolog.Logger) int {
	if l.dropped > 0 {
		observability.RejectionLogDropped.Add(float64(l.dropped))
	}

	if len(l.rows) == 0 {
		return 0
	}

	if err := repo.InsertRejections(ctx, l.rows); err != nil {
		observability.RejectionLogDropped.Add(float64(len(l.rows)))
		logger.Warn().Err(err).Int(LogFieldCount, len(l.rows)).Msg("failed to write rejection log")

		return 0
	}

	return len(l.rows)
}
