// Package styleprofile validates LLM-written sourcing guidance for style
// signals, decides when it is stale, and regenerates it.
package styleprofile

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	coreerrors "github.com/mpull123/thriftpulse/internal/core/errors"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

// Validation codes carried by ValidationError.
const (
	CodePayloadMissing  = "style_profile_payload_missing"
	CodeSectionsMissing = "style_profile_required_sections_missing"
)

const (
	minLineLen        = 6
	maxLineLen        = 120
	maxConfidenceNote = 140
	nearDuplicate     = 0.65

	maxStyles = 3
	maxFirst  = 3
	maxWhere  = 2
	maxPass   = 2
)

// ValidationError reports why a payload could not become a profile.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string { return e.Code }

func (e *ValidationError) Unwrap() error { return coreerrors.ErrStyleProfileInvalid }

// Normalize turns an arbitrary JSON payload into a valid profile for title.
// Anything other than a JSON object is CodePayloadMissing.
func Normalize(payload json.RawMessage, title string) (domain.StyleProfile, error) {
	var fields map[string]any
	if len(payload) == 0 || json.Unmarshal(payload, &fields) != nil || fields == nil {
		return domain.StyleProfile{}, &ValidationError{Code: CodePayloadMissing}
	}

	return normalizeFields(fields, title)
}

// Revalidate runs a stored profile through the same rules, since the
// rules or the signal's title may have changed since it was written.
func Revalidate(p *domain.StyleProfile, title string) (domain.StyleProfile, error) {
	if p == nil {
		return domain.StyleProfile{}, &ValidationError{Code: CodePayloadMissing}
	}

	return normalizeFields(map[string]any{
		"item_type":            string(p.ItemType),
		"styles_to_find":       anySlice(p.StylesToFind),
		"find_these_first":     anySlice(p.FindTheseFirst),
		"where_to_check_first": anySlice(p.WhereToCheckFirst),
		"pass_if":              anySlice(p.PassIf),
		"confidence_note":      p.ConfidenceNote,
	}, title)
}

func normalizeFields(fields map[string]any, title string) (domain.StyleProfile, error) {
	titleType := InferItemType(title)

	itemType := domain.StyleItemType(coerceString(fields["item_type"]))
	if !itemType.Valid() {
		itemType = titleType
	}

	note := textnorm.CompactWhitespace(coerceString(fields["confidence_note"]))

	p := domain.StyleProfile{
		ItemType:          itemType,
		StylesToFind:      cleanList(fields["styles_to_find"], maxStyles, title, titleType),
		FindTheseFirst:    cleanList(fields["find_these_first"], maxFirst, title, titleType),
		WhereToCheckFirst: cleanList(fields["where_to_check_first"], maxWhere, title, titleType),
		PassIf:            cleanList(fields["pass_if"], maxPass, title, titleType),
		ConfidenceNote:    textnorm.Truncate(note, maxConfidenceNote),
	}

	p = dedupeAcrossSections(p)
	p = capBrandLines(p, title)

	if len(p.StylesToFind) == 0 || len(p.FindTheseFirst) == 0 ||
		len(p.WhereToCheckFirst) == 0 || len(p.PassIf) == 0 {
		return domain.StyleProfile{}, &ValidationError{Code: CodeSectionsMissing}
	}

	return p, nil
}

// InferItemType picks the garment category a title is about, preferring
// outerwear, then footwear, dress, knitwear, bags, bottoms and top.
func InferItemType(title string) domain.StyleItemType {
	hits := lineTypes(title)
	for _, t := range titleTypePriority {
		if hits[t] {
			return t
		}
	}

	return domain.ItemMixed
}

// IsNearDuplicate reports whether two lines share at least 65% of the
// larger line's distinct tokens.
func IsNearDuplicate(a, b string) bool {
	at := tokenSet(a)
	bt := tokenSet(b)

	if len(at) == 0 || len(bt) == 0 {
		return false
	}

	overlap := 0

	for tok := range at {
		if bt[tok] {
			overlap++
		}
	}

	return float64(overlap)/float64(max(len(at), len(bt))) >= nearDuplicate
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range textnorm.Tokens(s) {
		set[tok] = true
	}

	return set
}

func lineTypes(line string) map[domain.StyleItemType]bool {
	norm := textnorm.ForCompare(line)
	hits := make(map[domain.StyleItemType]bool)

	for t, nouns := range nounsByType {
		for _, noun := range nouns {
			if strings.Contains(norm, noun) {
				hits[t] = true
				break
			}
		}
	}

	return hits
}

func compatible(line string, titleType domain.StyleItemType) bool {
	if titleType == domain.ItemMixed {
		return true
	}

	types := lineTypes(line)

	return len(types) == 0 || types[titleType]
}

func hasCue(line string) bool {
	norm := textnorm.ForCompare(line)
	for _, cue := range styleCues {
		if strings.Contains(norm, cue) {
			return true
		}
	}

	return len(lineTypes(line)) > 0
}

// mirrorsTitle is true when the line is the title plus at most two words.
func mirrorsTitle(line, title string) bool {
	a := textnorm.ForCompare(line)
	b := textnorm.ForCompare(title)

	if a == "" || b == "" {
		return false
	}

	if a == b {
		return true
	}

	if !strings.Contains(a, b) {
		return false
	}

	extra := strings.Fields(strings.Replace(a, b, "", 1))

	return len(extra) <= 2
}

func isGeneric(line, title string) bool {
	if line == "" || mirrorsTitle(line, title) {
		return true
	}

	for _, re := range genericPatterns {
		if re.MatchString(line) {
			return true
		}
	}

	return !hasCue(line)
}

func cleanList(value any, limit int, title string, titleType domain.StyleItemType) []string {
	raw, ok := value.([]any)
	if !ok {
		return []string{}
	}

	out := []string{}

	for _, item := range raw {
		line := textnorm.NormalizeLine(coerceString(item))

		n := utf8.RuneCountInString(line)
		if n < minLineLen || n > maxLineLen {
			continue
		}

		if !compatible(line, titleType) || isGeneric(line, title) || nearAny(out, line) {
			continue
		}

		out = append(out, line)
		if len(out) >= limit {
			break
		}
	}

	return out
}

func nearAny(kept []string, line string) bool {
	for _, k := range kept {
		if IsNearDuplicate(k, line) {
			return true
		}
	}

	return false
}

// dedupeAcrossSections drops lines that repeat an earlier kept line,
// scanning sections in display order.
func dedupeAcrossSections(p domain.StyleProfile) domain.StyleProfile {
	var seen []string

	keep := func(items []string, limit int) []string {
		out := []string{}

		for _, item := range items {
			if nearAny(seen, item) {
				continue
			}

			out = append(out, item)
			seen = append(seen, item)
		}

		return truncate(out, limit)
	}

	p.StylesToFind = keep(p.StylesToFind, maxStyles)
	p.FindTheseFirst = keep(p.FindTheseFirst, maxFirst)
	p.WhereToCheckFirst = keep(p.WhereToCheckFirst, maxWhere)
	p.PassIf = keep(p.PassIf, maxPass)

	return p
}

// capBrandLines allows one brand-citing line when the title names a
// mainstream brand and two otherwise, counted across all sections.
func capBrandLines(p domain.StyleProfile, title string) domain.StyleProfile {
	allowed := 2
	if brandMentions(title) > 0 {
		allowed = 1
	}

	used := 0

	filter := func(items []string, limit int) []string {
		out := []string{}

		for _, line := range items {
			if brandMentions(line) > 0 {
				if used >= allowed {
					continue
				}
				used++
			}

			out = append(out, line)
		}

		return truncate(out, limit)
	}

	p.StylesToFind = filter(p.StylesToFind, maxStyles)
	p.FindTheseFirst = filter(p.FindTheseFirst, maxFirst)
	p.WhereToCheckFirst = filter(p.WhereToCheckFirst, maxWhere)
	p.PassIf = filter(p.PassIf, maxPass)

	return p
}

func brandMentions(line string) int {
	norm := textnorm.ForCompare(line)
	n := 0

	for _, b := range mainstreamBrands {
		if strings.Contains(norm, b) {
			n++
		}
	}

	return n
}

func truncate(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}

	return items
}

// coerceString mirrors loose JSON input: strings pass through, numbers and
// booleans are formatted, anything else is empty.
func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

func anySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}

	return out
}
