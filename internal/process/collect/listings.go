package collect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
	"github.com/mpull123/thriftpulse/internal/process/extract"
)

// DefaultDiscoveryURL lists newly posted listings for a seed query.
const DefaultDiscoveryURL = "https://www.ebay.com/sch/i.html?_nkw=%s&_sacat=11450&_sop=10"

const defaultListingsPerQuery = 40

// ErrNoQueries indicates a listing collector was configured without seed queries.
var ErrNoQueries = errors.New("no discovery queries configured")

// ListingConfig configures marketplace discovery.
type ListingConfig struct {
	URLTemplate string
	Selectors   evidence.Selectors
	Queries     []string
	MaxPerQuery int
}

// ListingCollector turns marketplace listing titles for seed queries into
// candidates.
type ListingCollector struct {
	source ports.TextSource
	cfg    ListingConfig
	logger *zerolog.Logger
}

var _ Collector = (*ListingCollector)(nil)

// NewListingCollector creates a marketplace discovery collector.
func NewListingCollector(source ports.TextSource, cfg ListingConfig, logger *zerolog.Logger) *ListingCollector {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultDiscoveryURL
	}

	if cfg.Selectors.Item == "" {
		cfg.Selectors = evidence.SoldListingSelectors
	}

	if cfg.MaxPerQuery <= 0 {
		cfg.MaxPerQuery = defaultListingsPerQuery
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ListingCollector{source: source, cfg: cfg, logger: logger}
}

// Name implements Collector.
func (c *ListingCollector) Name() string { return SourceSecondaryMarket }

// QueryURL returns the discovery URL for a seed query.
func (c *ListingCollector) QueryURL(query string) string {
	return fmt.Sprintf(c.cfg.URLTemplate, url.QueryEscape(strings.ToLower(strings.TrimSpace(query))))
}

// Collect fetches one results page per seed query.
func (c *ListingCollector) Collect(ctx context.Context) (Batch, error) {
	batch := Batch{Source: SourceSecondaryMarket, Channel: domain.ChannelSecondaryMarket}

	if len(c.cfg.Queries) == 0 {
		return batch, ErrNoQueries
	}

	seen := make(map[string]bool)
	fetched := 0

	for _, q := range c.cfg.Queries {
		body, err := c.source.Fetch(ctx, c.QueryURL(q))
		if err != nil {
			c.logger.Warn().Err(err).Str("query", q).Msg("discovery fetch failed")
			batch.Errs = append(batch.Errs, fmt.Errorf("query %q: %w", q, err))

			continue
		}

		fetched++
		taken := 0

		for _, l := range evidence.ParseListings(body, c.cfg.Selectors) {
			if taken == c.cfg.MaxPerQuery {
				break
			}

			key := evidence.LinkKey(l.Link)
			if key == "" {
				key = strings.ToLower(l.Title)
			}

			if seen[key] {
				continue
			}

			seen[key] = true

			terms := extract.ListingTerms(l.Title)
			if len(terms) == 0 {
				continue
			}

			batch.Items = append(batch.Items, Item{Title: l.Title, Terms: terms})
			taken++
		}
	}

	if fetched == 0 {
		err := errors.Join(batch.Errs...)
		batch.Errs = nil

		return batch, fmt.Errorf("all %d discovery queries failed: %w", len(c.cfg.Queries), err)
	}

	c.logger.Info().Int("queries", fetched).Int("items", len(batch.Items)).Msg("marketplace discovery complete")

	return batch, nil
}
