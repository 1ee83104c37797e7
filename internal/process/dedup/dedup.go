// Package dedup canonicalizes trend terms, reduces them to dedupe keys and
// applies per-bucket diversity caps to the merged candidate pool.
package dedup

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/process/lexicon"
)

var (
	keyStripRe   = regexp.MustCompile(`[^a-z0-9 -]`)
	edgePunct    = " \t\"'.,;:!?-_*#|/()[]{}"
	firstWordCut = " .,;:!?"
)

// Passes after the first only clean fragments that case folding exposed.
const maxNormalizePasses = 8

// Normalize canonicalizes a trend term for display: filler prefixes stripped,
// spelling variants unified, title case applied. Normalize is idempotent:
// it repeats until case folding exposes no new entity or tag to clean.
func Normalize(term string) string {
	s := normalizePass(term)

	for range maxNormalizePasses {
		next := normalizePass(s)
		if next == s {
			break
		}

		s = next
	}

	return s
}

func normalizePass(term string) string {
	s := strings.Trim(textnorm.Clean(term), edgePunct)
	s = stripFillerPrefixes(s)

	for _, sp := range lexicon.Spellings {
		s = sp.Pattern.ReplaceAllString(s, sp.Replace)
	}

	s = strings.Trim(textnorm.CompactWhitespace(s), edgePunct)

	return titleCase(s)
}

func stripFillerPrefixes(s string) string {
	for {
		fields := strings.Fields(s)
		if len(fields) < 2 {
			return s
		}

		first := strings.ToLower(strings.Trim(fields[0], firstWordCut))
		if !lexicon.FillerPrefixes[first] {
			return s
		}

		rest := strings.Trim(strings.Join(fields[1:], " "), edgePunct)
		if rest == "" {
			return s
		}

		s = rest
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWord(w, i == 0)
	}

	return strings.Join(words, " ")
}

func titleWord(w string, first bool) string {
	lower := strings.ToLower(w)

	if up, ok := lexicon.UppercaseWords[lower]; ok {
		return up
	}

	if !first && lexicon.LowercaseWords[lower] {
		return lower
	}

	if isMixedCase(w) {
		return w
	}

	parts := strings.Split(lower, "-")
	for i, p := range parts {
		if up, ok := lexicon.UppercaseWords[p]; ok {
			parts[i] = up
			continue
		}

		parts[i] = capitalize(p)
	}

	return strings.Join(parts, "-")
}

// isMixedCase reports deliberate casing like "McQueen" or "L.L.Bean": an
// upper-case letter after the first rune together with a lower-case letter.
func isMixedCase(w string) bool {
	_, size := utf8.DecodeRuneInString(w)
	rest := w[size:]

	hasUpper := strings.IndexFunc(rest, unicode.IsUpper) >= 0
	hasLower := strings.IndexFunc(w, unicode.IsLower) >= 0

	return hasUpper && hasLower && !strings.Contains(w, "-")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

// Key reduces a term to its identity: normalized, lowercased, diacritics
// removed, stripped to [a-z0-9 -], whitespace collapsed.
func Key(term string) string {
	s := strings.ToLower(textnorm.StripDiacritics(Normalize(term)))
	s = keyStripRe.ReplaceAllString(s, "")

	return textnorm.CompactWhitespace(s)
}

// SameTerm reports whether a and b share a dedupe key.
func SameTerm(a, b string) bool {
	return Key(a) == Key(b)
}

// Bucket assigns the coarse category label used only for diversity capping.
func Bucket(term string) string {
	words := strings.Fields(Key(term))
	has := func(options ...string) bool {
		for _, w := range words {
			for _, o := range options {
				if w == o {
					return true
				}
			}
		}

		return false
	}

	switch {
	case has("vintage") && has("90s"):
		return "vintage-90s"
	case has("vintage"):
		return "vintage"
	case has("jacket", "jackets"):
		return "jacket"
	case has("boot", "boots"):
		return "boots"
	case has("cardigan", "cardigans"):
		return "cardigan"
	case has("denim", "jean", "jeans"):
		return "denim"
	}

	if len(words) > 2 {
		words = words[:2]
	}

	return strings.Join(words, " ")
}

// ApplyDiversityCaps keeps terms in input order and drops any whose bucket
// already holds capPerBucket terms. capPerBucket <= 0 disables the cap.
func ApplyDiversityCaps(terms []string, capPerBucket int) []string {
	return CapBy(terms, capPerBucket, func(s string) string { return s })
}

// CapBy is ApplyDiversityCaps for any element type.
func CapBy[T any](items []T, capPerBucket int, term func(T) string) []T {
	if capPerBucket <= 0 {
		return items
	}

	counts := make(map[string]int)
	out := make([]T, 0, len(items))

	for _, item := range items {
		b := Bucket(term(item))
		if counts[b] >= capPerBucket {
			continue
		}

		counts[b]++
		out = append(out, item)
	}

	return out
}
