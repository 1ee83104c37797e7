package collect

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
)

// DefaultCommunitySearchURL is the weekly community search feed for a term.
const DefaultCommunitySearchURL = "https://www.reddit.com/search.rss?q=%s&sort=new&t=week"

// CommunityChecker counts recent community posts mentioning a term.
type CommunityChecker struct {
	source      ports.TextSource
	urlTemplate string
	maxAge      time.Duration
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewCommunityChecker creates a checker. An empty template uses the default
// search feed.
func NewCommunityChecker(source ports.TextSource, urlTemplate string, maxAge time.Duration, logger *zerolog.Logger) *CommunityChecker {
	if urlTemplate == "" {
		urlTemplate = DefaultCommunitySearchURL
	}

	if maxAge <= 0 {
		maxAge = DefaultFeedMaxAge
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &CommunityChecker{source: source, urlTemplate: urlTemplate, maxAge: maxAge, logger: logger, now: time.Now}
}

// SearchURL returns the search feed URL for term.
func (c *CommunityChecker) SearchURL(term string) string {
	return fmt.Sprintf(c.urlTemplate, url.QueryEscape(term))
}

// Mentions returns how many recent posts mention every word of term. When
// the body is not a feed it falls back to counting raw case-insensitive
// occurrences of the term. A feed with no entries counts zero even though
// its title echoes the query.
func (c *CommunityChecker) Mentions(ctx context.Context, term string) (int, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return 0, nil
	}

	body, err := c.source.Fetch(ctx, c.SearchURL(term))
	if err != nil {
		return 0, fmt.Errorf("community search %q: %w", term, err)
	}

	entries, isFeed := parseFeed(body)
	if !isFeed {
		return countRaw(body, term), nil
	}

	now := c.now()
	hits := 0

	for _, e := range entries {
		if !e.Fresh(now, c.maxAge) {
			continue
		}

		var corpus evidence.Corpus
		corpus.Add(e.Title)

		if corpus.Mentions(term) {
			hits++
		}
	}

	c.logger.Debug().Str("term", term).Int("hits", hits).Msg("community check")

	return hits, nil
}

func countRaw(body, term string) int {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(textnorm.CompactWhitespace(term)))
	if err != nil {
		return 0
	}

	return len(re.FindAllStringIndex(body, -1))
}
