package evidence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/ports/mocks"
)

func decimals(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, decimal.NewFromFloat(v))
	}

	return out
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "$45.00", want: "45", ok: true},
		{input: "$1,249.99", want: "1249.99", ok: true},
		{input: "$40.00 to $55.00", want: "40", ok: true},
		{input: "US $12.50", want: "12.5", ok: true},
		{input: "$5.00", ok: false},
		{input: "$5000", ok: false},
		{input: "$4,999.99", want: "4999.99", ok: true},
		{input: "Tap item to see current price", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
			}
		})
	}
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := decimals(10, 20, 30, 40)

	assert.Equal(t, 10, Percentile(sorted, 0.25))
	assert.Equal(t, 20, Percentile(sorted, 0.5))
	assert.Equal(t, 30, Percentile(sorted, 0.75))
	assert.Equal(t, 0, Percentile(nil, 0.5))
	assert.Equal(t, 19, Percentile(decimals(19.99), 0.5))
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(decimals(95, 40, 45, 50, 55, 60, 65, 70, 75, 80, 85, 90), 0)

	assert.Equal(t, domain.PriceStats{Avg: 67, Low: 50, Median: 65, High: 80, SampleCount: 12}, stats)
}

func TestComputeStatsNoSamples(t *testing.T) {
	assert.Equal(t, domain.PriceStats{Avg: 42}, ComputeStats(nil, 42))
}

func TestSpreadPct(t *testing.T) {
	assert.InDelta(t, 60.0, SpreadPct(domain.PriceStats{Low: 50, High: 80}), 0.001)
	assert.Zero(t, SpreadPct(domain.PriceStats{High: 80}))
}

func TestLinkKey(t *testing.T) {
	assert.Equal(t, "itm:111111111", LinkKey("https://www.ebay.com/itm/carhartt-detroit/111111111?hash=abc"))
	assert.Equal(t, "itm:111111111", LinkKey("https://www.ebay.com/itm/111111111"))
	assert.Equal(t, "https://shop.example/p/abc", LinkKey("https://Shop.Example/p/ABC/?utm=1#x"))
	assert.Empty(t, LinkKey("  "))
}

const soldPage = `<html><body><ul>
<li class="s-item"><div class="s-item__title">Shop on eBay</div><span class="s-item__price">$20.00</span><a class="s-item__link" href="https://ebay.com/itm/123456789"></a></li>
<li class="s-item"><div class="s-item__title">Carhartt Detroit Jacket</div><span class="s-item__price">$120.00</span><a class="s-item__link" href="https://www.ebay.com/itm/carhartt-detroit/111111111?hash=abc"></a></li>
<li class="s-item"><div class="s-item__title">Carhartt Detroit Jacket J97</div><span class="s-item__price">$1,250.50</span><a class="s-item__link" href="https://www.ebay.com/itm/222222222"></a></li>
<li class="s-item"><div class="s-item__title">Duplicate</div><span class="s-item__price">$99.00</span><a class="s-item__link" href="https://www.ebay.com/itm/111111111"></a></li>
<li class="s-item"><div class="s-item__title">Junk</div><span class="s-item__price">$1.00</span><a class="s-item__link" href="https://www.ebay.com/itm/333333333"></a></li>
</ul></body></html>`

const rawPage = `<div>Sold for $80.00 and then $95.00, shipping $2.00</div>`

func TestParseListings(t *testing.T) {
	got := ParseListings(soldPage, SoldListingSelectors)
	require.Len(t, got, 4)
	assert.Equal(t, "Carhartt Detroit Jacket", got[0].Title)
	assert.True(t, got[0].HasPrice)
	assert.False(t, got[3].HasPrice)
}

func TestSampler_PagesAndFallback(t *testing.T) {
	src := mocks.NewTextSource()
	s := NewSampler(src, SamplerConfig{}, nil)

	src.Set(s.SearchURL("Carhartt Detroit Jacket", 1), soldPage)
	src.Set(s.SearchURL("Carhartt Detroit Jacket", 2), rawPage)
	src.Fail(s.SearchURL("Carhartt Detroit Jacket", 3), assert.AnError)

	res := s.Sample(context.Background(), "Carhartt Detroit Jacket", 0)

	assert.Equal(t, 2, res.Pages)
	assert.ErrorIs(t, res.FetchErr, assert.AnError)
	assert.Equal(t, domain.PriceStats{Avg: 386, Low: 80, Median: 95, High: 120, SampleCount: 4}, res.Stats)
}

func TestSampler_SampleCap(t *testing.T) {
	src := mocks.NewTextSource()
	s := NewSampler(src, SamplerConfig{SampleCap: 2}, nil)
	src.SetPrefix("https://www.ebay.com/", soldPage)

	res := s.Sample(context.Background(), "detroit jacket", 0)

	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 2, res.Stats.SampleCount)
	assert.NoError(t, res.FetchErr)
}

func TestSampler_NoSamplesIsNotFailure(t *testing.T) {
	src := mocks.NewTextSource()
	s := NewSampler(src, SamplerConfig{}, nil)
	src.SetPrefix("https://www.ebay.com/", "<html><body>No exact matches found</body></html>")

	res := s.Sample(context.Background(), "mohair cardigan", 55)

	assert.NoError(t, res.FetchErr)
	assert.Equal(t, domain.PriceStats{Avg: 55}, res.Stats)
	assert.Len(t, src.Calls(), 1)
}

func TestSearchURL(t *testing.T) {
	s := NewSampler(mocks.NewTextSource(), SamplerConfig{}, nil)

	assert.Equal(t,
		"https://www.ebay.com/sch/i.html?_nkw=carhartt+detroit+jacket&_sacat=0&rt=nc&LH_Sold=1&LH_Complete=1&_pgn=2",
		s.SearchURL("Carhartt Detroit Jacket", 2))
}

func TestAggregator(t *testing.T) {
	a := NewAggregator()
	a.Mark("Carhartt Detroit Jacket", domain.ChannelNewsRSS)
	a.Mark("carhartt  detroit jacket", domain.ChannelAICorpus)
	a.AddCorpus(domain.ChannelCommunity, "Found a blanket-lined Carhartt Detroit jacket today", "random post")
	a.AddCorpus(domain.ChannelSecondaryMarket, "Carhartt Active Jacket")

	flags := a.Flags("Carhartt Detroit Jacket")

	assert.True(t, flags[domain.ChannelNewsRSS])
	assert.True(t, flags[domain.ChannelAICorpus])
	assert.True(t, flags[domain.ChannelCommunity])
	assert.False(t, flags[domain.ChannelSecondaryMarket])
	assert.Equal(t, 3, flags.Count())
	assert.Empty(t, a.Flags("Barn Jacket"))
}
