package domain

// Channel is one independent evidence source a term can appear in.
type Channel string

const (
	ChannelPriceSamples    Channel = "price_samples"
	ChannelNewsRSS         Channel = "news_rss"
	ChannelSearchTrends    Channel = "search_trends"
	ChannelCommunity       Channel = "community"
	ChannelAICorpus        Channel = "ai_corpus"
	ChannelSecondaryMarket Channel = "secondary_market"
)

// AllChannels lists every channel in a fixed order.
var AllChannels = []Channel{
	ChannelPriceSamples,
	ChannelNewsRSS,
	ChannelSearchTrends,
	ChannelCommunity,
	ChannelAICorpus,
	ChannelSecondaryMarket,
}

// ChannelFlags records whether a term appeared in each channel during a run.
type ChannelFlags map[Channel]bool

// Set marks a channel as hit.
func (f ChannelFlags) Set(c Channel) { f[c] = true }

// Merge ORs other into f.
func (f ChannelFlags) Merge(other ChannelFlags) {
	for c, ok := range other {
		if ok {
			f[c] = true
		}
	}
}

// Count returns the number of true flags (source_signal_count).
func (f ChannelFlags) Count() int {
	n := 0

	for _, c := range AllChannels {
		if f[c] {
			n++
		}
	}

	return n
}

// NonPriceCount returns the number of true flags other than price samples.
func (f ChannelFlags) NonPriceCount() int {
	n := f.Count()
	if f[ChannelPriceSamples] {
		n--
	}

	return n
}

// Families returns how many distinct source families corroborate the term.
func (f ChannelFlags) Families() int {
	families := 0

	if f[ChannelPriceSamples] || f[ChannelSecondaryMarket] {
		families++
	}

	if f[ChannelNewsRSS] || f[ChannelSearchTrends] {
		families++
	}

	if f[ChannelCommunity] {
		families++
	}

	if f[ChannelAICorpus] {
		families++
	}

	return families
}

// PriceStats are robust price statistics over sampled sold listings.
type PriceStats struct {
	Avg         int `json:"avg"`
	Low         int `json:"low"`
	Median      int `json:"median"`
	High        int `json:"high"`
	SampleCount int `json:"sample_count"`
}

// RatingSource tells whether a rating came from the formula alone or was
// adjusted by the AI layer.
type RatingSource string

const (
	RatingDeterministic RatingSource = "deterministic"
	RatingAIAdjusted    RatingSource = "ai_adjusted"
	RatingFallback      RatingSource = "deterministic_fallback"
)

// Rating is a confidence/sourcing grade for one term.
type Rating struct {
	ConfidenceScore int          `json:"confidence_score"`
	SourcingScore   int          `json:"sourcing_score"`
	Grade           string       `json:"grade"`
	Source          RatingSource `json:"source"`
	Explanation     string       `json:"explanation,omitempty"`
	RiskFlags       []string     `json:"risk_flags,omitempty"`
	FallbackReason  string       `json:"fallback_reason,omitempty"`
}
