package evidence

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

// Listing is one parsed search-result row.
type Listing struct {
	Title    string
	Price    decimal.Decimal
	HasPrice bool
	Link     string
}

// Selectors locate listing rows and their fields in a search results page.
type Selectors struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Price string `yaml:"price"`
	Link  string `yaml:"link"`
}

// SoldListingSelectors match the sold-listings results page.
var SoldListingSelectors = Selectors{
	Item:  ".s-item",
	Title: ".s-item__title",
	Price: ".s-item__price",
	Link:  "a.s-item__link",
}

var (
	rawPriceRe = regexp.MustCompile(`\$\s?([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2})?|[0-9]+(?:\.[0-9]{2})?)`)
	itemIDRe   = regexp.MustCompile(`/itm/(?:[^/?#]+/)?([0-9]{6,})`)
)

// placeholderTitles are template rows search pages render before results.
var placeholderTitles = []string{"shop on ebay", "results matching fewer words"}

// ParseListings extracts listing rows from a results page. Malformed HTML
// yields fewer rows, never an error.
func ParseListings(body string, sel Selectors) []Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var out []Listing

	doc.Find(sel.Item).Each(func(_ int, s *goquery.Selection) {
		title := textnorm.Clean(s.Find(sel.Title).First().Text())
		if isPlaceholder(title) {
			return
		}

		l := Listing{Title: title}

		if sel.Price != "" {
			l.Price, l.HasPrice = ParsePrice(s.Find(sel.Price).First().Text())
		}

		if sel.Link != "" {
			l.Link, _ = s.Find(sel.Link).First().Attr("href")
		}

		if l.Title == "" && !l.HasPrice {
			return
		}

		out = append(out, l)
	})

	return out
}

func isPlaceholder(title string) bool {
	lower := strings.ToLower(title)
	for _, p := range placeholderTitles {
		if strings.Contains(lower, p) {
			return true
		}
	}

	return false
}

// ScrapeRawPrices is the fallback when selectors find nothing: every
// dollar amount in the raw body that passes ParsePrice.
func ScrapeRawPrices(body string) []decimal.Decimal {
	var out []decimal.Decimal

	for _, m := range rawPriceRe.FindAllStringSubmatch(body, -1) {
		if p, ok := ParsePrice(m[1]); ok {
			out = append(out, p)
		}
	}

	return out
}

// LinkKey normalizes a listing link for de-duplication: the numeric item id
// when present, otherwise the lowercased URL without query or fragment.
func LinkKey(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	if m := itemIDRe.FindStringSubmatch(link); m != nil {
		return "itm:" + m[1]
	}

	u, err := url.Parse(link)
	if err != nil {
		return strings.ToLower(link)
	}

	u.RawQuery = ""
	u.Fragment = ""

	return strings.ToLower(strings.TrimSuffix(u.String(), "/"))
}
