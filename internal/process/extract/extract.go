// Package extract pulls candidate trend phrases out of headlines, feed titles
// and marketplace listing titles. Extraction is best-effort pattern matching:
// it never fails, it only returns fewer candidates.
package extract

import (
	"regexp"
	"strings"

	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/process/lexicon"
)

// perCategory bounds how many nouns, qualifiers and brands combine with each
// other.
const perCategory = 3

// listingWindow is how many words of a cleaned listing title become a candidate.
const listingWindow = 6

var segmentSplitRe = regexp.MustCompile(`(?i)\s+vs\.?\s+|,|\s+\|\s+`)

// Terms returns candidate phrases found in title, in surfacing order:
// brand+noun combinations, qualifier+noun combinations, then the title's
// " vs " / comma segments as whole phrases.
func Terms(title string) []string {
	clean := textnorm.Clean(title)
	if clean == "" {
		return nil
	}

	match := textnorm.ForMatch(clean)

	nouns := lexicon.Nouns.Find(match, perCategory)
	qualifiers := lexicon.Qualifiers.Find(match, perCategory)

	brands := lexicon.FindBrands(match)
	if len(brands) > perCategory {
		brands = brands[:perCategory]
	}

	out := newOrderedSet()

	for _, b := range brands {
		for _, n := range nouns {
			out.add(b.Name + " " + n)
		}
	}

	for _, q := range qualifiers {
		for _, n := range nouns {
			if q == n {
				continue
			}

			out.add(q + " " + n)
		}
	}

	for _, seg := range segmentSplitRe.Split(clean, -1) {
		out.add(strings.Trim(textnorm.CompactWhitespace(seg), " .-:;\"'"))
	}

	return out.items
}

var listingBoilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*new\s+listing\s*:?\s*`),
	regexp.MustCompile(`(?i)\b(?:men's|women's|mens|womens|men|women|boys|girls|unisex|adult)\b`),
	regexp.MustCompile(`(?i)\bsize\s*:?\s*(?:xxs|xs|s|sm|m|md|l|lg|xl|xxl|xxxl|os|osfa|one size|[0-9]{1,2}(?:\.[0-9])?[a-z]?|w?[0-9]{2}\s*x\s*l?[0-9]{2})\b`),
	regexp.MustCompile(`(?i)\bw[0-9]{2}\s*l[0-9]{2}\b`),
	regexp.MustCompile(`(?i)\b[0-9]{2}\s*x\s*[0-9]{2}\b`),
	regexp.MustCompile(`(?i)\b(?:nwt|nwot|nwob|nib|euc|guc|vguc|pre-?owned|used|new with tags|new without tags|brand new|excellent condition|good condition|great condition)\b`),
	regexp.MustCompile(`(?i)\b(?:free|fast)\s+shipping\b`),
	regexp.MustCompile(`(?i)\blot\s+of\s+[0-9]+\b`),
	regexp.MustCompile(`(?i)\b(?:rare|htf|l@@k|look|authentic|genuine)\b`),
	regexp.MustCompile(`#\S+`),
	regexp.MustCompile(`[|/*~!]+`),
	regexp.MustCompile(`\(\s*\)|\[\s*\]`),
}

// ListingTitle strips seller boilerplate (size, condition, gender, shipping)
// from a marketplace listing title and keeps a short leading window.
func ListingTitle(title string) string {
	s := textnorm.Clean(title)
	for _, re := range listingBoilerplate {
		s = re.ReplaceAllString(s, " ")
	}

	words := strings.Fields(s)

	kept := words[:0]

	for _, w := range words {
		w = strings.Trim(w, "-.,:;")
		if w != "" {
			kept = append(kept, w)
		}
	}

	if len(kept) > listingWindow {
		kept = kept[:listingWindow]
	}

	return strings.Join(kept, " ")
}

// ListingTerms returns candidates for a listing title: the cleaned window
// first, then whatever Terms finds in it.
func ListingTerms(title string) []string {
	window := ListingTitle(title)
	if window == "" {
		return nil
	}

	out := newOrderedSet()
	out.add(window)

	for _, t := range Terms(window) {
		out.add(t)
	}

	return out.items
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]bool{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}

	k := strings.ToLower(v)
	if s.seen[k] {
		return
	}

	s.seen[k] = true
	s.items = append(s.items, v)
}
