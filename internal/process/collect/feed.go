package collect

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

// FeedEntry is one title read from an RSS/Atom body.
type FeedEntry struct {
	Title     string
	Published time.Time
}

var (
	entryBlockRe = regexp.MustCompile(`(?is)<(?:item|entry)\b[^>]*>(.*?)</(?:item|entry)>`)
	entryTitleRe = regexp.MustCompile(`(?is)<title\b[^>]*>(.*?)</title>`)
	entryDateRe  = regexp.MustCompile(`(?is)<(pubDate|published|updated|dc:date)\b[^>]*>(.*?)</(?:pubDate|published|updated|dc:date)>`)
	cdataRe      = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
)

// ParseFeed reads entries from a feed body. Bodies gofeed rejects, or that
// yield no items, are scanned with a tolerant regex instead.
func ParseFeed(body string) []FeedEntry {
	entries, _ := parseFeed(body)
	return entries
}

// parseFeed is ParseFeed that also reports whether body is a feed at all.
// A feed gofeed accepts counts even with no items.
func parseFeed(body string) ([]FeedEntry, bool) {
	if strings.TrimSpace(body) == "" {
		return nil, false
	}

	feed, err := gofeed.NewParser().ParseString(body)
	if err == nil && len(feed.Items) > 0 {
		out := make([]FeedEntry, 0, len(feed.Items))

		for _, item := range feed.Items {
			title := textnorm.Clean(item.Title)
			if title == "" {
				continue
			}

			out = append(out, FeedEntry{Title: title, Published: itemTime(item)})
		}

		return out, true
	}

	scanned := scanFeed(body)

	return scanned, err == nil || len(scanned) > 0
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	case item.Published != "":
		return parseDate(item.Published)
	default:
		return parseDate(item.Updated)
	}
}

func scanFeed(body string) []FeedEntry {
	var out []FeedEntry

	for _, block := range entryBlockRe.FindAllStringSubmatch(body, -1) {
		m := entryTitleRe.FindStringSubmatch(block[1])
		if m == nil {
			continue
		}

		title := textnorm.Clean(unwrapCDATA(m[1]))
		if title == "" {
			continue
		}

		entry := FeedEntry{Title: title}
		if d := entryDateRe.FindStringSubmatch(block[1]); d != nil {
			entry.Published = parseDate(unwrapCDATA(d[2]))
		}

		out = append(out, entry)
	}

	return out
}

func unwrapCDATA(s string) string {
	return cdataRe.ReplaceAllString(s, "$1")
}

// parseDate returns the zero time for blank or unparseable dates.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// Fresh reports whether an entry is recent enough to use. Undated entries
// are kept.
func (e FeedEntry) Fresh(now time.Time, maxAge time.Duration) bool {
	if e.Published.IsZero() || maxAge <= 0 {
		return true
	}

	return now.Sub(e.Published) <= maxAge
}

// stripPublisher drops a trailing " - Publisher" suffix news aggregators
// append to headlines.
func stripPublisher(title string) string {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title
	}

	if suffix := strings.TrimSpace(title[i+3:]); textnorm.WordCount(suffix) > 4 {
		return title
	}

	return strings.TrimSpace(title[:i])
}
