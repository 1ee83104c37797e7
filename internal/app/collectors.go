package app

import (
	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/process/collect"
	"github.com/mpull123/thriftpulse/internal/process/evidence"
)

// newCollectors builds the channels in run order. Feed channels with no
// URLs and the AI corpus without a provider are left out.
func (a *App) newCollectors(seeds []string) []collect.Collector {
	var out []collect.Collector

	feeds := []collect.FeedConfig{
		{Source: collect.SourceNewsRSS, Channel: domain.ChannelNewsRSS, URLs: a.sources.NewsFeeds, StripPublisher: true},
		{Source: collect.SourceSearchTrends, Channel: domain.ChannelSearchTrends, URLs: a.sources.TrendFeeds},
		{Source: collect.SourceCommunity, Channel: domain.ChannelCommunity, URLs: a.sources.CommunityFeeds},
	}

	for _, fc := range feeds {
		if len(fc.URLs) == 0 {
			a.logger.Info().Str("source", fc.Source).Msg("No feeds configured, skipping channel")
			continue
		}

		fc.MaxAge = a.cfg.FeedMaxAge()
		out = append(out, collect.NewFeedCollector(a.fetcher, fc, a.logger))
	}

	if a.llm != nil && a.cfg.AICorpusEnabled {
		out = append(out, collect.NewCorpusCollector(a.llm, collect.CorpusConfig{
			Model:    a.cfg.TrendClassifierModel,
			MaxTerms: a.cfg.AICorpusTerms,
			Seeds:    seeds,
		}, a.logger))
	}

	market := a.sources.Marketplace
	if len(market.DiscoveryQueries) > 0 {
		out = append(out, collect.NewListingCollector(a.fetcher, collect.ListingConfig{
			URLTemplate: market.DiscoveryURL,
			Selectors:   evidence.Selectors(market.Selectors),
			Queries:     market.DiscoveryQueries,
		}, a.logger))
	}

	return append(out, collect.NewQueryPackCollector(a.database))
}

func (a *App) newSampler() *evidence.Sampler {
	return evidence.NewSampler(a.fetcher, evidence.SamplerConfig{
		URLTemplate: a.sources.Marketplace.SoldURL,
		Selectors:   evidence.Selectors(a.sources.Marketplace.Selectors),
		MaxPages:    a.cfg.PriceMaxPages,
		SampleCap:   a.cfg.PriceSampleCap,
	}, a.logger)
}

func (a *App) newCommunityChecker() *collect.CommunityChecker {
	return collect.NewCommunityChecker(a.fetcher, a.sources.CommunitySearchURL, a.cfg.FeedMaxAge(), a.logger)
}
