package evidence

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/internal/platform/observability"
)

// DefaultSoldURL is the sold/completed listings search.
const DefaultSoldURL = "https://www.ebay.com/sch/i.html?_nkw=%s&_sacat=0&rt=nc&LH_Sold=1&LH_Complete=1"

const (
	defaultMaxPages  = 3
	defaultSampleCap = 180
)

// SamplerConfig bounds price sampling per term.
type SamplerConfig struct {
	URLTemplate string
	Selectors   Selectors
	MaxPages    int
	SampleCap   int
}

// Sample is the result of sampling one term.
type Sample struct {
	Stats    domain.PriceStats
	Prices   []decimal.Decimal
	Titles   []string
	Pages    int
	FetchErr error
}

// Sampler collects sold-listing prices for a term.
type Sampler struct {
	source ports.TextSource
	cfg    SamplerConfig
	logger *zerolog.Logger
}

// NewSampler creates a sampler. Non-positive limits use defaults.
func NewSampler(source ports.TextSource, cfg SamplerConfig, logger *zerolog.Logger) *Sampler {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultSoldURL
	}

	if cfg.Selectors.Item == "" {
		cfg.Selectors = SoldListingSelectors
	}

	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}

	if cfg.SampleCap <= 0 {
		cfg.SampleCap = defaultSampleCap
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Sampler{source: source, cfg: cfg, logger: logger}
}

// SearchURL returns the results URL for term and 1-based page.
func (s *Sampler) SearchURL(term string, page int) string {
	u := fmt.Sprintf(s.cfg.URLTemplate, url.QueryEscape(strings.ToLower(term)))
	if page > 1 {
		u += fmt.Sprintf("&_pgn=%d", page)
	}

	return u
}

// Sample fetches up to MaxPages result pages or until SampleCap prices are
// collected, de-duplicating listings by link. Fetch failures stop paging and
// are reported in FetchErr; whatever was collected is still summarized.
func (s *Sampler) Sample(ctx context.Context, term string, fallback int) Sample {
	var (
		res  Sample
		seen = make(map[string]bool)
	)

	for page := 1; page <= s.cfg.MaxPages && len(res.Prices) < s.cfg.SampleCap; page++ {
		body, err := s.source.Fetch(ctx, s.SearchURL(term, page))
		if err != nil {
			res.FetchErr = err
			s.logger.Warn().Err(err).Str("term", term).Int("page", page).Msg("price page fetch failed")

			break
		}

		res.Pages++

		added := s.collectPage(body, seen, &res)
		if added == 0 {
			break
		}
	}

	res.Stats = ComputeStats(res.Prices, fallback)
	observability.PriceSamples.Observe(float64(res.Stats.SampleCount))

	return res
}

func (s *Sampler) collectPage(body string, seen map[string]bool, res *Sample) int {
	added, priced := 0, 0

	for _, l := range ParseListings(body, s.cfg.Selectors) {
		if !l.HasPrice {
			continue
		}

		priced++

		if key := LinkKey(l.Link); key != "" {
			if seen[key] {
				continue
			}

			seen[key] = true
		}

		if len(res.Prices) >= s.cfg.SampleCap {
			return added
		}

		res.Prices = append(res.Prices, l.Price)
		res.Titles = append(res.Titles, l.Title)
		added++
	}

	if priced > 0 {
		return added
	}

	for _, p := range ScrapeRawPrices(body) {
		if len(res.Prices) >= s.cfg.SampleCap {
			break
		}

		res.Prices = append(res.Prices, p)
		added++
	}

	return added
}
