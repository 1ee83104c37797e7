package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/ports/mocks"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const newsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Style desk</title>
<item><title>Carhartt Detroit Jacket prices climb - Hypebeast</title><pubDate>Fri, 27 Feb 2026 10:00:00 GMT</pubDate></item>
<item><title>Cargo pants had a moment</title><pubDate>Mon, 01 Dec 2025 10:00:00 GMT</pubDate></item>
<item><title>Barn coats &amp; chore coats return</title></item>
</channel></rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Trends</title>
<entry><title>double knee pants</title><updated>2026-02-28T08:00:00Z</updated></entry>
</feed>`

func TestParseFeed(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantTitles []string
		wantDated  []bool
	}{
		{
			name:       "rss",
			body:       newsFeed,
			wantTitles: []string{"Carhartt Detroit Jacket prices climb - Hypebeast", "Cargo pants had a moment", "Barn coats & chore coats return"},
			wantDated:  []bool{true, true, false},
		},
		{
			name:       "atom",
			body:       atomFeed,
			wantTitles: []string{"double knee pants"},
			wantDated:  []bool{true},
		},
		{
			name:       "malformed falls back to scan",
			body:       `garbage <item><title><![CDATA[Double knee pants <b>sell</b> out]]></title><pubDate>2026-02-28</pubDate></item> trailing`,
			wantTitles: []string{"Double knee pants sell out"},
			wantDated:  []bool{true},
		},
		{name: "html page", body: `<html><body><p>not a feed</p></body></html>`},
		{name: "empty", body: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := ParseFeed(tt.body)
			require.Len(t, entries, len(tt.wantTitles))

			for i, e := range entries {
				assert.Equal(t, tt.wantTitles[i], e.Title)
				assert.Equal(t, tt.wantDated[i], !e.Published.IsZero(), e.Title)
			}
		})
	}
}

func TestFeedEntryFresh(t *testing.T) {
	maxAge := 14 * 24 * time.Hour

	assert.True(t, FeedEntry{}.Fresh(testNow, maxAge))
	assert.True(t, FeedEntry{Published: testNow.Add(-13 * 24 * time.Hour)}.Fresh(testNow, maxAge))
	assert.False(t, FeedEntry{Published: testNow.Add(-15 * 24 * time.Hour)}.Fresh(testNow, maxAge))
	assert.True(t, FeedEntry{Published: testNow.Add(-400 * 24 * time.Hour)}.Fresh(testNow, 0))
}

func TestStripPublisher(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Carhartt Detroit Jacket prices climb - Hypebeast", "Carhartt Detroit Jacket prices climb"},
		{"Barn coats return - The New York Times", "Barn coats return"},
		{"Y2K - the comeback of low rise denim and baby tees", "Y2K - the comeback of low rise denim and baby tees"},
		{"No suffix here", "No suffix here"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripPublisher(tt.in), tt.in)
	}
}

func newFeedCollector(src *mocks.TextSource, urls ...string) *FeedCollector {
	c := NewFeedCollector(src, FeedConfig{
		Source:         SourceNewsRSS,
		Channel:        domain.ChannelNewsRSS,
		URLs:           urls,
		StripPublisher: true,
	}, nil)
	c.now = func() time.Time { return testNow }

	return c
}

func TestFeedCollector_Collect(t *testing.T) {
	src := mocks.NewTextSource()
	src.Set("https://feeds.test/news", newsFeed)
	src.Set("https://feeds.test/dupe", newsFeed)

	batch, err := newFeedCollector(src, "https://feeds.test/news", "https://feeds.test/dupe").Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Carhartt Detroit Jacket prices climb", "Barn coats & chore coats return"}, batch.Titles())
	assert.Contains(t, batch.Items[0].Terms, "Carhartt Detroit Jacket prices climb")
	assert.Equal(t, domain.JobSuccess, batch.Status(nil))
	assert.Empty(t, batch.ErrorMessage(nil))
}

func TestFeedCollector_PartialAndTotalFailure(t *testing.T) {
	errDown := errors.New("connection refused")

	src := mocks.NewTextSource()
	src.Set("https://feeds.test/news", newsFeed)
	src.Fail("https://feeds.test/down", errDown)

	batch, err := newFeedCollector(src, "https://feeds.test/down", "https://feeds.test/news").Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Items, 2)
	assert.Equal(t, domain.JobDegraded, batch.Status(err))
	assert.Contains(t, batch.ErrorMessage(err), "connection refused")

	batch, err = newFeedCollector(src, "https://feeds.test/down").Collect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	assert.Empty(t, batch.Items)
	assert.Equal(t, domain.JobFailed, batch.Status(err))

	_, err = newFeedCollector(src).Collect(context.Background())
	assert.ErrorIs(t, err, ErrNoFeeds)
}

const discoveryPage = `<html><body><ul class="srp-results">
<li class="s-item"><a class="s-item__link" href="https://www.ebay.com/itm/123456789?hash=a"><div class="s-item__title">Shop on eBay</div></a><span class="s-item__price">$20.00</span></li>
<li class="s-item"><a class="s-item__link" href="https://www.ebay.com/itm/223456789?hash=b"><div class="s-item__title">New Listing: Vintage Carhartt Detroit Jacket Men's Size L NWT</div></a><span class="s-item__price">$120.00</span></li>
<li class="s-item"><a class="s-item__link" href="https://www.ebay.com/itm/223456789?hash=c"><div class="s-item__title">Vintage Carhartt Detroit Jacket Men's Size L NWT</div></a><span class="s-item__price">$120.00</span></li>
<li class="s-item"><a class="s-item__link" href="https://www.ebay.com/itm/323456789"><div class="s-item__title">Levi's 501 Jeans W32 L30 Used</div></a><span class="s-item__price">$45.00</span></li>
</ul></body></html>`

func TestListingCollector(t *testing.T) {
	src := mocks.NewTextSource()
	c := NewListingCollector(src, ListingConfig{Queries: []string{"Vintage Jacket", "levis jeans"}}, nil)

	src.Set(c.QueryURL("Vintage Jacket"), discoveryPage)
	src.Fail(c.QueryURL("levis jeans"), errors.New("503"))

	assert.Equal(t, "https://www.ebay.com/sch/i.html?_nkw=vintage+jacket&_sacat=11450&_sop=10", c.QueryURL("Vintage Jacket"))

	batch, err := c.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Items, 2)
	assert.Equal(t, domain.ChannelSecondaryMarket, batch.Channel)
	assert.Equal(t, "Vintage Carhartt Detroit Jacket", batch.Items[0].Terms[0])
	assert.Equal(t, "Levi's 501 Jeans", batch.Items[1].Terms[0])
	assert.Equal(t, domain.JobDegraded, batch.Status(err))

	_, err = NewListingCollector(src, ListingConfig{}, nil).Collect(context.Background())
	assert.ErrorIs(t, err, ErrNoQueries)
}

func TestCorpusCollector(t *testing.T) {
	llm := mocks.NewJSONCompleter()
	llm.Queue(`{"terms": ["Carhartt Detroit Jacket", " carhartt detroit jacket ", "", "Arc'teryx Beta Shell Jacket."]}`, nil)

	c := NewCorpusCollector(llm, CorpusConfig{Model: "gpt-4o-mini", MaxTerms: 5, Seeds: []string{"Barn Coat"}}, nil)

	batch, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Carhartt Detroit Jacket", "Arc'teryx Beta Shell Jacket"}, batch.Titles())
	assert.Equal(t, []string{"Carhartt Detroit Jacket"}, batch.Items[0].Terms)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-4o-mini", reqs[0].Model)
	assert.Contains(t, reqs[0].User, "Barn Coat")
}

func TestCorpusCollector_Failures(t *testing.T) {
	_, err := NewCorpusCollector(nil, CorpusConfig{}, nil).Collect(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrClientDisabled)

	llm := mocks.NewJSONCompleter()
	llm.Queue(`{"terms": "not a list"}`, nil)
	llm.Queue(`{"terms": []}`, nil)
	llm.Queue("", errors.New("all providers failed"))

	c := NewCorpusCollector(llm, CorpusConfig{}, nil)

	_, err = c.Collect(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrMalformedJSON)

	_, err = c.Collect(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrEmptyResponse)

	_, err = c.Collect(context.Background())
	assert.ErrorContains(t, err, "all providers failed")
}

func TestQueryPackCollector(t *testing.T) {
	store := mocks.NewStore()
	store.AddQueryTerms("Barn Coat", "  ", "Double Knee Pants")

	batch, err := NewQueryPackCollector(store).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Barn Coat", "Double Knee Pants"}, batch.Titles())
	assert.Empty(t, batch.Channel)

	store.ListActiveQueryTermsFn = func(context.Context) ([]string, error) {
		return nil, errors.New("relation does not exist")
	}

	_, err = NewQueryPackCollector(store).Collect(context.Background())
	assert.ErrorContains(t, err, "list query terms")
}

const communityFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>search results</title>
<entry><title>Found a Carhartt Detroit jacket at Goodwill for $12</title><updated>2026-02-27T08:00:00Z</updated></entry>
<entry><title>Detroit jacket vs chore coat?</title><updated>2026-02-27T09:00:00Z</updated></entry>
<entry><title>My old carhartt detroit jacket</title><updated>2025-10-01T09:00:00Z</updated></entry>
</feed>`

func TestCommunityChecker(t *testing.T) {
	src := mocks.NewTextSource()
	c := NewCommunityChecker(src, "", 0, nil)
	c.now = func() time.Time { return testNow }

	assert.Equal(t, "https://www.reddit.com/search.rss?q=Carhartt+Detroit+Jacket&sort=new&t=week", c.SearchURL("Carhartt Detroit Jacket"))

	src.Set(c.SearchURL("Carhartt Detroit Jacket"), communityFeed)
	src.Set(c.SearchURL("Barn Coat"), `<html><body>barn coat thread ... BARN COAT haul</body></html>`)
	src.Fail(c.SearchURL("Chore Coat"), errors.New("429"))

	hits, err := c.Mentions(context.Background(), "Carhartt Detroit Jacket")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	hits, err = c.Mentions(context.Background(), "Barn Coat")
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	_, err = c.Mentions(context.Background(), "Chore Coat")
	assert.Error(t, err)

	hits, err = c.Mentions(context.Background(), "  ")
	require.NoError(t, err)
	assert.Zero(t, hits)
}

func TestCommunityChecker_EmptyFeedCountsZero(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "atom",
			body: `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>search results - Carhartt Detroit Jacket</title>
<updated>2026-03-01T08:00:00Z</updated></feed>`,
		},
		{
			name: "rss",
			body: `<?xml version="1.0"?><rss version="2.0"><channel>
<title>carhartt detroit jacket : search results</title></channel></rss>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mocks.NewTextSource()
			c := NewCommunityChecker(src, "", 0, nil)
			c.now = func() time.Time { return testNow }
			src.Set(c.SearchURL("Carhartt Detroit Jacket"), tt.body)

			hits, err := c.Mentions(context.Background(), "Carhartt Detroit Jacket")
			require.NoError(t, err)
			assert.Zero(t, hits)
		})
	}
}
