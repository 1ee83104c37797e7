// Package worker runs a job on a cron schedule until its context ends.
// Each invocation is isolated: a failing or panicking job is logged and the
// loop waits for the next slot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldNext   = "next_run"
)

// ErrEmptySchedule is returned for a blank schedule spec.
var ErrEmptySchedule = errors.New("empty schedule")

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Config configures a scheduled loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// Schedule is a 5-field cron expression or a descriptor such as
	// "@every 6h" or "@daily".
	Schedule string

	// RunOnStart runs the job once before waiting for the first slot.
	RunOnStart bool

	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration

	Job Job

	Logger *zerolog.Logger
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates spec.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptySchedule
	}

	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	return sched, nil
}

// Loop runs cfg.Job at every scheduled time. It returns a wrapped context
// error when ctx is canceled, or an error for an invalid schedule.
func Loop(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sched, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Str("schedule", cfg.Schedule).Msg("starting scheduled loop")
	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("scheduled loop stopped")

	if cfg.RunOnStart {
		runOnce(ctx, cfg, logger)
	}

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		next := sched.Next(time.Now())
		logger.Info().Str(logFieldWorker, cfg.Name).Time(logFieldNext, next).Msg("waiting for next run")

		if err := WaitUntil(ctx, next); err != nil {
			return fmt.Errorf("scheduled loop %s: %w", cfg.Name, err)
		}

		runOnce(ctx, cfg, logger)
	}
}

func runOnce(ctx context.Context, cfg Config, logger *zerolog.Logger) {
	if cfg.Job == nil {
		return
	}

	defer RecoverPanic(logger, cfg.Name)

	err := RunWithTimeout(ctx, cfg.Timeout, func(ctx context.Context) error { return cfg.Job(ctx) })
	if err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("scheduled job failed")
	}
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("scheduled loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// WaitUntil blocks until the specified time or context is canceled.
func WaitUntil(ctx context.Context, t time.Time) error {
	return Wait(ctx, time.Until(t))
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// A non-positive timeout runs fn with ctx unchanged.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}
