package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
	"github.com/mpull123/thriftpulse/internal/process/extract"
)

// DefaultFeedMaxAge skips feed items older than two weeks.
const DefaultFeedMaxAge = 14 * 24 * time.Hour

// ErrNoFeeds indicates a feed collector was configured without URLs.
var ErrNoFeeds = errors.New("no feed URLs configured")

const (
	feedOutcomeKept  = "kept"
	feedOutcomeStale = "stale"
	feedOutcomeEmpty = "empty"
)

// FeedConfig configures one feed-backed channel.
type FeedConfig struct {
	Source  string
	Channel domain.Channel
	URLs    []string
	MaxAge  time.Duration
	// StripPublisher removes trailing " - Publisher" headline suffixes.
	StripPublisher bool
}

// FeedCollector reads titles from RSS/Atom feeds for one channel.
type FeedCollector struct {
	source ports.TextSource
	cfg    FeedConfig
	logger *zerolog.Logger
	now    func() time.Time
}

var _ Collector = (*FeedCollector)(nil)

// NewFeedCollector creates a feed collector.
func NewFeedCollector(source ports.TextSource, cfg FeedConfig, logger *zerolog.Logger) *FeedCollector {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultFeedMaxAge
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &FeedCollector{source: source, cfg: cfg, logger: logger, now: time.Now}
}

// Name implements Collector.
func (c *FeedCollector) Name() string { return c.cfg.Source }

// Collect fetches every feed URL in order. It fails only when no feed could
// be fetched.
func (c *FeedCollector) Collect(ctx context.Context) (Batch, error) {
	batch := Batch{Source: c.cfg.Source, Channel: c.cfg.Channel}

	if len(c.cfg.URLs) == 0 {
		return batch, ErrNoFeeds
	}

	now := c.now()
	seen := make(map[string]bool)
	fetched := 0

	for _, u := range c.cfg.URLs {
		body, err := c.source.Fetch(ctx, u)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", c.cfg.Source).Str("url", u).Msg("feed fetch failed")
			batch.Errs = append(batch.Errs, fmt.Errorf("fetch %s: %w", u, err))

			continue
		}

		fetched++

		entries := ParseFeed(body)
		if len(entries) == 0 {
			observability.FeedItems.WithLabelValues(string(c.cfg.Channel), feedOutcomeEmpty).Inc()
			c.logger.Debug().Str("source", c.cfg.Source).Str("url", u).Msg("feed had no entries")
		}

		for _, e := range entries {
			if !e.Fresh(now, c.cfg.MaxAge) {
				observability.FeedItems.WithLabelValues(string(c.cfg.Channel), feedOutcomeStale).Inc()
				continue
			}

			title := e.Title
			if c.cfg.StripPublisher {
				title = stripPublisher(title)
			}

			if seen[title] {
				continue
			}

			seen[title] = true

			observability.FeedItems.WithLabelValues(string(c.cfg.Channel), feedOutcomeKept).Inc()
			batch.Items = append(batch.Items, Item{Title: title, Terms: extract.Terms(title)})
		}
	}

	if fetched == 0 {
		err := errors.Join(batch.Errs...)
		batch.Errs = nil

		return batch, fmt.Errorf("all %d feeds failed: %w", len(c.cfg.URLs), err)
	}

	c.logger.Info().
		Str("source", c.cfg.Source).
		Int("feeds", fetched).
		Int("items", len(batch.Items)).
		Msg("feed collection complete")

	return batch, nil
}
