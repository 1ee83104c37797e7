package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
)

const signalColumns = `id, trend_name, track, hook_brand, exit_price, price_low, price_median,
	price_high, sample_count, heat_score, confidence_score, sourcing_score, grade,
	mention_count, source_signal_count, rating_source, risk_factor, market_sentiment,
	visual_cues, pipeline_stage, style_profile_json, style_profile_status,
	style_profile_error, style_profile_version, style_profile_updated_at,
	created_at, updated_at`

type signalRow struct {
	ID                    string         `db:"id"`
	TrendName             string         `db:"trend_name"`
	Track                 string         `db:"track"`
	HookBrand             string         `db:"hook_brand"`
	ExitPrice             int            `db:"exit_price"`
	PriceLow              int            `db:"price_low"`
	PriceMedian           int            `db:"price_median"`
	PriceHigh             int            `db:"price_high"`
	SampleCount           int            `db:"sample_count"`
	HeatScore             int            `db:"heat_score"`
	ConfidenceScore       int            `db:"confidence_score"`
	SourcingScore         int            `db:"sourcing_score"`
	Grade                 string         `db:"grade"`
	MentionCount          int            `db:"mention_count"`
	SourceSignalCount     int            `db:"source_signal_count"`
	RatingSource          string         `db:"rating_source"`
	RiskFactor            string         `db:"risk_factor"`
	MarketSentiment       string         `db:"market_sentiment"`
	VisualCues            string         `db:"visual_cues"`
	PipelineStage         string         `db:"pipeline_stage"`
	StyleProfileJSON      sql.NullString `db:"style_profile_json"`
	StyleProfileStatus    string         `db:"style_profile_status"`
	StyleProfileError     string         `db:"style_profile_error"`
	StyleProfileVersion   string         `db:"style_profile_version"`
	StyleProfileUpdatedAt string         `db:"style_profile_updated_at"`
	CreatedAt             string         `db:"created_at"`
	UpdatedAt             string         `db:"updated_at"`
}

func (r signalRow) toDomain() domain.MarketSignal {
	sig := domain.MarketSignal{
		ID:        r.ID,
		TrendName: r.TrendName,
		Track:     domain.Track(r.Track),
		HookBrand: r.HookBrand,
		Price: domain.PriceStats{
			Avg:         r.ExitPrice,
			Low:         r.PriceLow,
			Median:      r.PriceMedian,
			High:        r.PriceHigh,
			SampleCount: r.SampleCount,
		},
		HeatScore:             r.HeatScore,
		ConfidenceScore:       r.ConfidenceScore,
		SourcingScore:         r.SourcingScore,
		Grade:                 r.Grade,
		MentionCount:          r.MentionCount,
		SourceSignalCount:     r.SourceSignalCount,
		RatingSource:          domain.RatingSource(r.RatingSource),
		RiskFactor:            r.RiskFactor,
		MarketSentiment:       r.MarketSentiment,
		Stage:                 domain.PipelineStage(r.PipelineStage),
		StyleProfileStatus:    domain.StyleProfileStatus(r.StyleProfileStatus),
		StyleProfileError:     r.StyleProfileError,
		StyleProfileVersion:   r.StyleProfileVersion,
		StyleProfileUpdatedAt: parseTime(r.StyleProfileUpdatedAt),
		CreatedAt:             parseTime(r.CreatedAt),
		UpdatedAt:             parseTime(r.UpdatedAt),
	}

	// Malformed cues decode as none.
	_ = json.Unmarshal([]byte(r.VisualCues), &sig.VisualCues)

	if r.StyleProfileJSON.Valid && r.StyleProfileJSON.String != "" {
		var p domain.StyleProfile
		if err := json.Unmarshal([]byte(r.StyleProfileJSON.String), &p); err == nil {
			sig.StyleProfile = &p
		}
	}

	return sig
}

// ListSignals returns signals ordered by trend name.
func (db *DB) ListSignals(ctx context.Context, filter ports.SignalFilter) ([]domain.MarketSignal, error) {
	query := "SELECT " + signalColumns + " FROM market_signals"

	var args []interface{}

	if len(filter.Stages) > 0 {
		stages := make([]string, len(filter.Stages))
		for i, s := range filter.Stages {
			stages[i] = string(s)
		}

		q, a, err := sqlx.In(query+" WHERE pipeline_stage IN (?)", stages)
		if err != nil {
			return nil, fmt.Errorf("build signal filter: %w", err)
		}

		query, args = q, a
	}

	query += " ORDER BY trend_name"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []signalRow
	if err := db.X.SelectContext(ctx, &rows, db.X.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	out := make([]domain.MarketSignal, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}

	return out, nil
}

// GetSignal returns the signal with id or ErrSignalNotFound.
func (db *DB) GetSignal(ctx context.Context, id string) (*domain.MarketSignal, error) {
	var row signalRow

	err := db.X.GetContext(ctx, &row, db.X.Rebind("SELECT "+signalColumns+" FROM market_signals WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("signal %s: %w", id, coreerrors.ErrSignalNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get signal: %w", err)
	}

	sig := row.toDomain()

	return &sig, nil
}

const upsertSignalQuery = `
INSERT INTO market_signals (
	id, trend_name, track, hook_brand, exit_price, price_low, price_median, price_high,
	sample_count, heat_score, confidence_score, sourcing_score, grade, mention_count,
	source_signal_count, rating_source, risk_factor, market_sentiment, visual_cues,
	pipeline_stage, created_at, updated_at
) VALUES (
	:id, :trend_name, :track, :hook_brand, :exit_price, :price_low, :price_median, :price_high,
	:sample_count, :heat_score, :confidence_score, :sourcing_score, :grade, :mention_count,
	:source_signal_count, :rating_source, :risk_factor, :market_sentiment, :visual_cues,
	:pipeline_stage, :created_at, :updated_at
)
ON CONFLICT (trend_name) DO UPDATE SET
	track = excluded.track,
	hook_brand = excluded.hook_brand,
	exit_price = excluded.exit_price,
	price_low = excluded.price_low,
	price_median = excluded.price_median,
	price_high = excluded.price_high,
	sample_count = excluded.sample_count,
	heat_score = excluded.heat_score,
	confidence_score = excluded.confidence_score,
	sourcing_score = excluded.sourcing_score,
	grade = excluded.grade,
	mention_count = excluded.mention_count,
	source_signal_count = excluded.source_signal_count,
	rating_source = excluded.rating_source,
	risk_factor = excluded.risk_factor,
	market_sentiment = excluded.market_sentiment,
	visual_cues = excluded.visual_cues,
	pipeline_stage = excluded.pipeline_stage,
	updated_at = excluded.updated_at
RETURNING id, created_at`

// UpsertSignal inserts or updates by trend name and fills in ID and
// timestamps. Style-profile columns are never written here.
func (db *DB) UpsertSignal(ctx context.Context, sig *domain.MarketSignal) error {
	cues := sig.VisualCues
	if cues == nil {
		cues = []string{}
	}

	cuesJSON, err := json.Marshal(cues)
	if err != nil {
		return fmt.Errorf("marshal visual cues: %w", err)
	}

	stage := sig.Stage
	if stage == "" {
		stage = domain.StageRadar
	}

	now := formatTime(db.now())

	row := signalRow{
		ID:                uuid.NewString(),
		TrendName:         sig.TrendName,
		Track:             string(sig.Track),
		HookBrand:         sig.HookBrand,
		ExitPrice:         sig.Price.Avg,
		PriceLow:          sig.Price.Low,
		PriceMedian:       sig.Price.Median,
		PriceHigh:         sig.Price.High,
		SampleCount:       sig.Price.SampleCount,
		HeatScore:         sig.HeatScore,
		ConfidenceScore:   sig.ConfidenceScore,
		SourcingScore:     sig.SourcingScore,
		Grade:             sig.Grade,
		MentionCount:      sig.MentionCount,
		SourceSignalCount: sig.SourceSignalCount,
		RatingSource:      string(sig.RatingSource),
		RiskFactor:        sig.RiskFactor,
		MarketSentiment:   sig.MarketSentiment,
		VisualCues:        string(cuesJSON),
		PipelineStage:     string(stage),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	rows, err := db.X.NamedQueryContext(ctx, upsertSignalQuery, row)
	if err != nil {
		return fmt.Errorf("upsert signal %q: %w", sig.TrendName, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("upsert signal %q: %w", sig.TrendName, err)
		}

		return fmt.Errorf("upsert signal %q: no row returned", sig.TrendName)
	}

	var createdAt string
	if err := rows.Scan(&sig.ID, &createdAt); err != nil {
		return fmt.Errorf("scan upserted signal: %w", err)
	}

	sig.Stage = stage
	sig.CreatedAt = parseTime(createdAt)
	sig.UpdatedAt = parseTime(now)

	return nil
}

// UpdateSignalStage moves a signal to stage. An empty riskFactor keeps the
// stored one.
func (db *DB) UpdateSignalStage(ctx context.Context, id string, stage domain.PipelineStage, riskFactor string) error {
	now := formatTime(db.now())

	var (
		res sql.Result
		err error
	)

	if riskFactor == "" {
		res, err = db.X.ExecContext(ctx,
			db.X.Rebind("UPDATE market_signals SET pipeline_stage = ?, updated_at = ? WHERE id = ?"),
			string(stage), now, id)
	} else {
		res, err = db.X.ExecContext(ctx,
			db.X.Rebind("UPDATE market_signals SET pipeline_stage = ?, risk_factor = ?, updated_at = ? WHERE id = ?"),
			string(stage), riskFactor, now, id)
	}

	if err != nil {
		return fmt.Errorf("update signal stage: %w", err)
	}

	return requireRow(res, id)
}

// UpdateStyleProfile writes the style-profile columns of one signal.
func (db *DB) UpdateStyleProfile(ctx context.Context, id string, u ports.StyleProfileUpdate) error {
	var profile sql.NullString

	if u.Profile != nil {
		data, err := json.Marshal(u.Profile)
		if err != nil {
			return fmt.Errorf("marshal style profile: %w", err)
		}

		profile = sql.NullString{String: string(data), Valid: true}
	}

	res, err := db.X.ExecContext(ctx, db.X.Rebind(`
		UPDATE market_signals
		SET style_profile_json = ?, style_profile_status = ?, style_profile_error = ?,
			style_profile_version = ?, style_profile_updated_at = ?
		WHERE id = ?`),
		profile, string(u.Status), u.Error, u.Version, formatTime(u.UpdatedAt), id)
	if err != nil {
		return fmt.Errorf("update style profile: %w", err)
	}

	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("signal %s: %w", id, coreerrors.ErrSignalNotFound)
	}

	return nil
}
