// Package lexicon holds the vocabularies the extractor and classifier match
// against: apparel nouns, qualifiers, brands, editorial noise, blocked
// non-fashion terms and the normalization tables. Control flow lives in the
// extract, classify and dedup packages; this package is data plus matchers.
package lexicon

import (
	"regexp"
	"sort"
	"strings"
)

var separatorRe = regexp.MustCompile(`[\s-]+`)

// Vocabulary is a fixed word list compiled into a single word-boundary regex.
// Multi-word and hyphenated entries match with any run of spaces or hyphens
// between their parts ("double knee" matches "double-knee").
type Vocabulary struct {
	terms     []string
	canonical map[string]string
	re        *regexp.Regexp
}

// NewVocabulary compiles terms. Longer entries win when alternatives overlap.
func NewVocabulary(terms ...string) *Vocabulary {
	v := &Vocabulary{
		terms:     append([]string(nil), terms...),
		canonical: make(map[string]string, len(terms)),
	}

	ordered := append([]string(nil), terms...)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	alts := make([]string, 0, len(ordered))

	for _, t := range ordered {
		parts := separatorRe.Split(strings.ToLower(strings.TrimSpace(t)), -1)
		quoted := make([]string, 0, len(parts))

		for _, p := range parts {
			if p != "" {
				quoted = append(quoted, regexp.QuoteMeta(p))
			}
		}

		if len(quoted) == 0 {
			continue
		}

		alts = append(alts, strings.Join(quoted, `[\s-]*`))
		v.canonical[surfaceKey(t)] = t
	}

	v.re = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)

	return v
}

func surfaceKey(s string) string {
	return separatorRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// Terms returns the vocabulary entries in declaration order.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Contains reports whether any entry occurs in text. text must already be
// lowercased (see textnorm.ForMatch).
func (v *Vocabulary) Contains(text string) bool {
	return v.re.MatchString(text)
}

// Find returns the canonical entries occurring in text in order of first
// appearance, without repeats. limit <= 0 means no limit.
func (v *Vocabulary) Find(text string, limit int) []string {
	matches := v.re.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))

	var out []string

	for _, m := range matches {
		term, ok := v.canonical[surfaceKey(m)]
		if !ok {
			term = m
		}

		if seen[term] {
			continue
		}

		seen[term] = true
		out = append(out, term)

		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}

// Count returns the number of distinct entries occurring in text.
func (v *Vocabulary) Count(text string) int {
	return len(v.Find(text, 0))
}
