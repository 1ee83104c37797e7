package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports"
)

var _ ports.Store = (*Store)(nil)

var _ ports.TextSource = (*TextSource)(nil)

var _ ports.JSONCompleter = (*JSONCompleter)(nil)

func TestStore_UpsertPreservesStyleProfile(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sig := &domain.MarketSignal{TrendName: "Barn Jacket", HeatScore: 50}
	require.NoError(t, store.UpsertSignal(ctx, sig))
	require.NotEmpty(t, sig.ID)

	require.NoError(t, store.UpdateStyleProfile(ctx, sig.ID, ports.StyleProfileUpdate{Status: domain.StyleStatusOK, Version: "v1"}))

	again := &domain.MarketSignal{TrendName: "Barn Jacket", HeatScore: 70}
	require.NoError(t, store.UpsertSignal(ctx, again))
	assert.Equal(t, sig.ID, again.ID)

	got, err := store.GetSignal(ctx, sig.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.HeatScore)
	assert.Equal(t, domain.StyleStatusOK, got.StyleProfileStatus)
	assert.Len(t, store.Signals(), 1)
}

func TestStore_CollectorJobClosesOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job, err := store.OpenCollectorJob(ctx, "news_rss")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, job.Status)

	require.NoError(t, store.CloseCollectorJob(ctx, job.ID, domain.JobSuccess, ""))

	err = store.CloseCollectorJob(ctx, job.ID, domain.JobFailed, "late")
	assert.ErrorIs(t, err, coreerrors.ErrJobAlreadyClosed)
	assert.Equal(t, domain.JobSuccess, store.Jobs()[0].Status)
}

func TestStore_ListSignalsFilter(t *testing.T) {
	store := NewStore()
	store.PutSignal(domain.MarketSignal{TrendName: "B", Stage: domain.StageRadar})
	store.PutSignal(domain.MarketSignal{TrendName: "A", Stage: domain.StageArchived})

	got, err := store.ListSignals(context.Background(), ports.SignalFilter{Stages: []domain.PipelineStage{domain.StageRadar}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].TrendName)
}

func TestTextSource(t *testing.T) {
	src := NewTextSource()
	src.Set("https://a.test/feed", "<rss/>")
	src.SetPrefix("https://b.test/", "body")
	src.Fail("https://c.test/", assert.AnError)

	ctx := context.Background()

	body, err := src.Fetch(ctx, "https://a.test/feed")
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", body)

	body, err = src.Fetch(ctx, "https://b.test/anything?q=1")
	require.NoError(t, err)
	assert.Equal(t, "body", body)

	_, err = src.Fetch(ctx, "https://c.test/")
	assert.ErrorIs(t, err, assert.AnError)

	_, err = src.Fetch(ctx, "https://d.test/")
	assert.ErrorIs(t, err, ErrURLNotFound)
	assert.Len(t, src.Calls(), 4)
}

func TestJSONCompleter(t *testing.T) {
	c := NewJSONCompleter()
	c.Queue(`{"a":1}`, nil)
	c.Queue("", assert.AnError)

	ctx := context.Background()

	got, err := c.CompleteJSON(ctx, ports.JSONRequest{User: "one"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	_, err = c.CompleteJSON(ctx, ports.JSONRequest{User: "two"})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = c.CompleteJSON(ctx, ports.JSONRequest{User: "three"})
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Len(t, c.Requests(), 3)
}
