package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
)

// InsertCompCheck appends a price snapshot and fills in its ID.
func (db *DB) InsertCompCheck(ctx context.Context, c *domain.CompCheck) error {
	if c.CheckedAt.IsZero() {
		c.CheckedAt = db.now().UTC()
	}

	id := uuid.NewString()

	_, err := db.X.ExecContext(ctx, db.X.Rebind(`
		INSERT INTO comp_checks (id, signal_id, trend_name, sample_size, price_low, price_high, checked_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, c.SignalID, c.TrendName, c.SampleSize, c.PriceLow, c.PriceHigh, formatTime(c.CheckedAt), c.Notes)
	if err != nil {
		return fmt.Errorf("insert comp check: %w", err)
	}

	c.ID = id

	return nil
}

type compCheckRow struct {
	ID         string `db:"id"`
	SignalID   string `db:"signal_id"`
	TrendName  string `db:"trend_name"`
	SampleSize int    `db:"sample_size"`
	PriceLow   int    `db:"price_low"`
	PriceHigh  int    `db:"price_high"`
	CheckedAt  string `db:"checked_at"`
	Notes      string `db:"notes"`
}

// ListCompChecks returns a signal's snapshots, oldest first.
func (db *DB) ListCompChecks(ctx context.Context, signalID string) ([]domain.CompCheck, error) {
	var rows []compCheckRow

	err := db.X.SelectContext(ctx, &rows, db.X.Rebind(`
		SELECT id, signal_id, trend_name, sample_size, price_low, price_high, checked_at, notes
		FROM comp_checks WHERE signal_id = ? ORDER BY checked_at`), signalID)
	if err != nil {
		return nil, fmt.Errorf("list comp checks: %w", err)
	}

	out := make([]domain.CompCheck, len(rows))
	for i, r := range rows {
		out[i] = domain.CompCheck{
			ID:         r.ID,
			SignalID:   r.SignalID,
			TrendName:  r.TrendName,
			SampleSize: r.SampleSize,
			PriceLow:   r.PriceLow,
			PriceHigh:  r.PriceHigh,
			CheckedAt:  parseTime(r.CheckedAt),
			Notes:      r.Notes,
		}
	}

	return out, nil
}

// OpenCollectorJob records a running job for sourceName.
func (db *DB) OpenCollectorJob(ctx context.Context, sourceName string) (*domain.CollectorJob, error) {
	job := &domain.CollectorJob{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		Status:     domain.JobRunning,
		StartedAt:  db.now().UTC(),
	}

	_, err := db.X.ExecContext(ctx, db.X.Rebind(`
		INSERT INTO collector_jobs (id, source_name, status, started_at) VALUES (?, ?, ?, ?)`),
		job.ID, job.SourceName, string(job.Status), formatTime(job.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("open collector job %s: %w", sourceName, err)
	}

	return job, nil
}

// CloseCollectorJob closes a running job. A second close returns
// ErrJobAlreadyClosed; an unknown id returns ErrNotFound.
func (db *DB) CloseCollectorJob(ctx context.Context, id string, status domain.JobStatus, errMsg string) error {
	res, err := db.X.ExecContext(ctx, db.X.Rebind(`
		UPDATE collector_jobs SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ? AND status = ?`),
		string(status), formatTime(db.now()), errMsg, id, string(domain.JobRunning))
	if err != nil {
		return fmt.Errorf("close collector job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n > 0 {
		return nil
	}

	var count int
	if err := db.X.GetContext(ctx, &count, db.X.Rebind("SELECT COUNT(*) FROM collector_jobs WHERE id = ?"), id); err != nil {
		return fmt.Errorf("look up collector job: %w", err)
	}

	if count == 0 {
		return fmt.Errorf("collector job %s: %w", id, coreerrors.ErrNotFound)
	}

	return fmt.Errorf("collector job %s: %w", id, coreerrors.ErrJobAlreadyClosed)
}

type jobRow struct {
	ID           string `db:"id"`
	SourceName   string `db:"source_name"`
	Status       string `db:"status"`
	StartedAt    string `db:"started_at"`
	CompletedAt  string `db:"completed_at"`
	ErrorMessage string `db:"error_message"`
}

// RecentCollectorJobs returns the latest jobs, newest first.
func (db *DB) RecentCollectorJobs(ctx context.Context, limit int) ([]domain.CollectorJob, error) {
	var rows []jobRow

	err := db.X.SelectContext(ctx, &rows, db.X.Rebind(`
		SELECT id, source_name, status, started_at, completed_at, error_message
		FROM collector_jobs ORDER BY started_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list collector jobs: %w", err)
	}

	out := make([]domain.CollectorJob, len(rows))
	for i, r := range rows {
		out[i] = domain.CollectorJob{
			ID:           r.ID,
			SourceName:   r.SourceName,
			Status:       domain.JobStatus(r.Status),
			StartedAt:    parseTime(r.StartedAt),
			CompletedAt:  parseTime(r.CompletedAt),
			ErrorMessage: r.ErrorMessage,
		}
	}

	return out, nil
}

// InsertRejections appends rejection rows in one transaction.
func (db *DB) InsertRejections(ctx context.Context, rows []domain.RejectionLogRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.X.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rejection insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO rejection_log (id, collector_source, raw_title, candidate_term, rejection_reason, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare rejection insert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(db.now())

	for _, r := range rows {
		meta := r.Metadata
		if meta == nil {
			meta = map[string]any{}
		}

		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal rejection metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, uuid.NewString(), r.CollectorSource, r.RawTitle,
			r.CandidateTerm, r.RejectionReason, string(data), now); err != nil {
			return fmt.Errorf("insert rejection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rejections: %w", err)
	}

	return nil
}

// CountRejections returns the number of rows logged for reason, or all
// rows when reason is empty.
func (db *DB) CountRejections(ctx context.Context, reason string) (int, error) {
	query := "SELECT COUNT(*) FROM rejection_log"

	var args []interface{}

	if reason != "" {
		query += " WHERE rejection_reason = ?"
		args = append(args, reason)
	}

	var n int
	if err := db.X.GetContext(ctx, &n, db.X.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count rejections: %w", err)
	}

	return n, nil
}

// ListActiveQueryTerms returns active query-pack terms in insertion order.
func (db *DB) ListActiveQueryTerms(ctx context.Context) ([]string, error) {
	var terms []string

	err := db.X.SelectContext(ctx, &terms,
		"SELECT term FROM query_pack_terms WHERE active = TRUE ORDER BY created_at, term")
	if err != nil {
		return nil, fmt.Errorf("list query terms: %w", err)
	}

	return terms, nil
}

// AddQueryTerms registers terms, reactivating any that were disabled.
// Blank terms are skipped.
func (db *DB) AddQueryTerms(ctx context.Context, terms ...string) (int, error) {
	added := 0
	now := formatTime(db.now())

	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		_, err := db.X.ExecContext(ctx, db.X.Rebind(`
			INSERT INTO query_pack_terms (id, term, active, created_at) VALUES (?, ?, TRUE, ?)
			ON CONFLICT (term) DO UPDATE SET active = TRUE`),
			uuid.NewString(), t, now)
		if err != nil {
			return added, fmt.Errorf("add query term %q: %w", t, err)
		}

		added++
	}

	return added, nil
}

// DisableQueryTerm deactivates term. Unknown terms return ErrNotFound.
func (db *DB) DisableQueryTerm(ctx context.Context, term string) error {
	res, err := db.X.ExecContext(ctx,
		db.X.Rebind("UPDATE query_pack_terms SET active = FALSE WHERE term = ?"), strings.TrimSpace(term))
	if err != nil {
		return fmt.Errorf("disable query term: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("query term %q: %w", term, coreerrors.ErrNotFound)
	}

	return nil
}
