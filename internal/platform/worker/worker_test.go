package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "descriptor", spec: "@every 6h"},
		{name: "daily", spec: "@daily"},
		{name: "five fields", spec: "0 9 * * 1-5"},
		{name: "padded", spec: "  @hourly "},
		{name: "empty", spec: "", wantErr: true},
		{name: "seconds field", spec: "0 0 9 * * *", wantErr: true},
		{name: "garbage", spec: "whenever", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := ParseSchedule(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)

			now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
			assert.True(t, sched.Next(now).After(now))
		})
	}
}

func TestParseSchedule_Every(t *testing.T) {
	sched, err := ParseSchedule("@every 6h")
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(6*time.Hour), sched.Next(now))
}

func TestLoop_RunOnStartThenStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0

	err := Loop(ctx, Config{
		Name:       "test",
		Schedule:   "@every 1h",
		RunOnStart: true,
		Job: func(context.Context) error {
			runs++
			cancel()

			return nil
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runs)
}

func TestLoop_InvalidSchedule(t *testing.T) {
	err := Loop(context.Background(), Config{Name: "test", Schedule: ""})
	require.ErrorIs(t, err, ErrEmptySchedule)
}

func TestLoop_SurvivesJobPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := Loop(ctx, Config{
		Name:       "test",
		Schedule:   "@every 1h",
		RunOnStart: true,
		Job: func(context.Context) error {
			cancel()
			panic("boom")
		},
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	sentinel := errors.New("done")
	err = RunWithTimeout(context.Background(), 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)

		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	require.NoError(t, Wait(context.Background(), 0))
}
