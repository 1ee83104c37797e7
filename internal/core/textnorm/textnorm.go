// Package textnorm provides the whitespace, entity, encoding and case cleanup
// shared by every stage of the discovery pipeline.
//
// Inputs are headlines, feed titles, listing titles and LLM output, which
// arrive with HTML entities, stray tags, Windows-1252 mojibake ("Ã©", "â€™")
// and inconsistent apostrophes. Everything here is pure and safe to call on
// malformed input.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe     = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:])`)
	repeatedDots     = regexp.MustCompile(`\.{2,}`)
	nonCompareRe     = regexp.MustCompile(`[^a-z0-9\s]`)
)

// mojibakeMarkers are byte sequences that only show up when UTF-8 text was
// decoded as Windows-1252 somewhere upstream.
var mojibakeMarkers = []string{"Ã", "Â", "â€"}

// mojibakeReplacements cover the common cases when the whole string cannot
// be round-tripped (mixed clean and corrupted text).
var mojibakeReplacements = strings.NewReplacer(
	"â€™", "'",
	"â€˜", "'",
	"â€œ", `"`,
	"â€\u009d", `"`,
	"â€“", "-",
	"â€”", "-",
	"Ã©", "é",
	"Ã¨", "è",
	"Ã¶", "ö",
	"Ã¼", "ü",
	"Ã±", "ñ",
	"Ã¡", "á",
	"Ã³", "ó",
	"Â ", " ",
	"Â", "",
)

var quoteReplacer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"ʼ", "'",
	"`", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	" ", " ",
)

// CompactWhitespace collapses runs of whitespace into single spaces and trims.
func CompactWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NormalizeLine compacts whitespace and tidies punctuation spacing.
func NormalizeLine(s string) string {
	s = CompactWhitespace(s)
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = repeatedDots.ReplaceAllString(s, ".")

	return strings.TrimSpace(s)
}

// DecodeEntities resolves HTML entities such as &amp; and &#39;, including
// double-escaped ones ("&amp;amp;").
func DecodeEntities(s string) string {
	for strings.Contains(s, "&") {
		next := html.UnescapeString(s)
		if next == s {
			break
		}

		s = next
	}

	return s
}

// StripTags returns only the text content of an HTML fragment.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder

	z := html.NewTokenizer(strings.NewReader(s))

	for {
		switch z.Next() {
		case html.ErrorToken:
			return CompactWhitespace(b.String())
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

// FixMojibake repairs UTF-8 text that was mis-decoded as Windows-1252.
func FixMojibake(s string) string {
	if !hasMojibake(s) {
		return s
	}

	encoded, err := charmap.Windows1252.NewEncoder().String(s)
	if err == nil && utf8.ValidString(encoded) && !hasMojibake(encoded) {
		return encoded
	}

	return mojibakeReplacements.Replace(s)
}

func hasMojibake(s string) bool {
	for _, m := range mojibakeMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}

	return false
}

// NormalizeQuotes maps typographic quotes and dashes to ASCII.
func NormalizeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}

// StripDiacritics removes combining marks ("hermès" -> "hermes").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

// Lower lowercases with Unicode-aware rules.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Clean is the standard cleanup applied to any raw title before matching:
// entities, tags, mojibake, quotes and whitespace.
func Clean(s string) string {
	s = DecodeEntities(s)
	s = StripTags(s)
	s = FixMojibake(s)
	s = NormalizeQuotes(s)

	return CompactWhitespace(s)
}

// ForMatch is Clean plus lowercasing and diacritic removal; the form every
// lexicon lookup runs against.
func ForMatch(s string) string {
	return Lower(StripDiacritics(Clean(s)))
}

// ForCompare lowercases and replaces everything outside [a-z0-9\s] with spaces.
func ForCompare(s string) string {
	return CompactWhitespace(nonCompareRe.ReplaceAllString(strings.ToLower(s), " "))
}

// Tokens splits ForCompare output into words longer than two characters.
func Tokens(s string) []string {
	fields := strings.Fields(ForCompare(s))
	out := fields[:0]

	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}

	return out
}

// WordCount counts space-separated words after compaction.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}

	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
