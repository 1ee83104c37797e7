// Package classify is the accept/reject gate for candidate trend terms.
//
// Strict runs a fixed priority chain and is used for terms that enter the
// scored pipeline. Relaxed keeps only the noise, length and blocklist checks
// and is used when strict yields nothing for a title. Rule order is part of
// the contract: reordering changes which terms are accepted.
package classify

import (
	"regexp"
	"strings"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/process/lexicon"
)

// Rejection and acceptance reasons.
const (
	ReasonOK                   = "ok"
	ReasonBrandOnly            = "brand_only"
	ReasonRelaxedOK            = "relaxed_ok"
	ReasonEmpty                = "empty"
	ReasonTooShort             = "too_short"
	ReasonTooLong              = "too_long"
	ReasonEditorialNoise       = "editorial_noise"
	ReasonHeadlineFragment     = "headline_fragment"
	ReasonTooManyWords         = "too_many_words"
	ReasonBlockedNonFashion    = "blocked_non_fashion"
	ReasonNoFashionKeyword     = "no_fashion_keyword"
	ReasonNoProductNoun        = "no_product_noun"
	ReasonLowSpecificity       = "low_specificity"
	ReasonUnstructured         = "unstructured"
	ReasonWeakTrendSpecificity = "weak_trend_specificity"
	ReasonGenericStyleOnly     = "generic_style_only"
	ReasonRelaxedNoSignal      = "relaxed_no_signal"
)

const (
	minChars        = 4
	maxCharsStrict  = 60
	maxCharsRelaxed = 70
	maxWordsStrict  = 6
	maxWordsRelaxed = 7

	fragmentMinWords    = 4
	punctNoiseMinWords  = 6
	strongQualifierHits = 2
	strongMinWords      = 3
)

var (
	yearRe       = regexp.MustCompile(`\b(?:19|20)[0-9]{2}\b`)
	noisePunctRe = regexp.MustCompile(`[?!:]`)
	digitHyphen  = regexp.MustCompile(`[0-9-]`)
)

// features is everything the rules need, computed once per term.
type features struct {
	raw        string
	match      string
	words      int
	brand      string
	hasNoun    bool
	qualifiers int
}

func analyze(term string) features {
	raw := textnorm.Clean(term)
	match := textnorm.ForMatch(raw)

	return features{
		raw:        raw,
		match:      match,
		words:      textnorm.WordCount(raw),
		brand:      lexicon.DetectBrand(match),
		hasNoun:    lexicon.Nouns.Contains(match),
		qualifiers: lexicon.Qualifiers.Count(match),
	}
}

func reject(reason string) domain.Verdict {
	return domain.Verdict{OK: false, Reason: reason, Type: domain.TermRejected}
}

// Strict classifies term with the full rule chain.
func Strict(term string) domain.Verdict {
	f := analyze(term)

	if v, ok := checkBasics(f, maxCharsStrict); !ok {
		return v
	}

	if lexicon.Connectives.Contains(f.match) && f.words >= fragmentMinWords {
		return reject(ReasonHeadlineFragment)
	}

	if f.words > maxWordsStrict {
		return reject(ReasonTooManyWords)
	}

	if lexicon.Blocked.Contains(f.match) {
		return reject(ReasonBlockedNonFashion)
	}

	if !hasFashionKeyword(f) {
		return reject(ReasonNoFashionKeyword)
	}

	if f.brand != "" && !f.hasNoun {
		return domain.Verdict{OK: true, Reason: ReasonBrandOnly, Type: domain.TermBrand, Brand: f.brand}
	}

	if !f.hasNoun {
		return reject(ReasonNoProductNoun)
	}

	if !passesSpecificity(f) {
		return reject(ReasonLowSpecificity)
	}

	if !isStructured(f) {
		return reject(ReasonUnstructured)
	}

	if !hasStrongTrendSpecificity(f) {
		return reject(ReasonWeakTrendSpecificity)
	}

	if f.brand == "" && IsGenericStyle(f.raw) {
		return reject(ReasonGenericStyleOnly)
	}

	return domain.Verdict{OK: true, Reason: ReasonOK, Type: termType(f), Brand: f.brand}
}

// Relaxed classifies term for discovery: noise, length and blocklist checks,
// then accepts on a brand or on a noun backed by a fashion signal.
func Relaxed(term string) domain.Verdict {
	f := analyze(term)

	if v, ok := checkBasics(f, maxCharsRelaxed); !ok {
		return v
	}

	if f.words > maxWordsRelaxed {
		return reject(ReasonTooManyWords)
	}

	if lexicon.Blocked.Contains(f.match) {
		return reject(ReasonBlockedNonFashion)
	}

	if f.brand == "" && IsGenericStyle(f.raw) {
		return reject(ReasonGenericStyleOnly)
	}

	if f.brand != "" || (f.hasNoun && hasRelaxedSignal(f)) {
		return domain.Verdict{OK: true, Reason: ReasonRelaxedOK, Type: termType(f), Brand: f.brand}
	}

	return reject(ReasonRelaxedNoSignal)
}

// Best prefers a strict verdict and falls back to relaxed.
func Best(term string) (domain.Verdict, bool) {
	if v := Strict(term); v.OK {
		return v, true
	}

	v := Relaxed(term)

	return v, false
}

// checkBasics covers the length and editorial-noise rules shared by both variants.
func checkBasics(f features, maxChars int) (domain.Verdict, bool) {
	n := len([]rune(f.raw))

	switch {
	case n == 0:
		return reject(ReasonEmpty), false
	case n < minChars:
		return reject(ReasonTooShort), false
	case n > maxChars:
		return reject(ReasonTooLong), false
	}

	if IsEditorialNoise(f.raw) {
		return reject(ReasonEditorialNoise), false
	}

	return domain.Verdict{}, true
}

// IsEditorialNoise reports headline boilerplate: known phrases, a year token,
// or question/exclamation/colon punctuation in a longer phrase.
func IsEditorialNoise(s string) bool {
	match := textnorm.ForMatch(s)

	if lexicon.EditorialNoise.Contains(match) || yearRe.MatchString(match) {
		return true
	}

	return noisePunctRe.MatchString(match) && textnorm.WordCount(match) >= punctNoiseMinWords
}

// IsGenericStyle reports whether s is exactly a too-generic style term.
func IsGenericStyle(s string) bool {
	key := strings.Join(strings.Fields(strings.Trim(textnorm.ForMatch(s), " .,!?")), " ")

	return lexicon.GenericStyles[key]
}

func hasFashionKeyword(f features) bool {
	return f.brand != "" || f.hasNoun || lexicon.FashionKeywords.Contains(f.match)
}

func hasRelaxedSignal(f features) bool {
	return f.qualifiers > 0 || lexicon.FashionKeywords.Contains(f.match)
}

// Specificity scores how concrete a term is: brand +2, material +2,
// style/era word +1, three or more words +1, digit or hyphen +1.
func Specificity(term string) int {
	return specificity(analyze(term))
}

func specificity(f features) int {
	score := 0

	if f.brand != "" {
		score += 2
	}

	if lexicon.Materials.Contains(f.match) {
		score += 2
	}

	if lexicon.StyleKeywords.Contains(f.match) {
		score++
	}

	if f.words >= 3 {
		score++
	}

	if digitHyphen.MatchString(f.match) {
		score++
	}

	return score
}

func passesSpecificity(f features) bool {
	s := specificity(f)

	return (f.words >= 2 && s >= 1) || s >= 2
}

func isStructured(f features) bool {
	return f.hasNoun && (f.qualifiers > 0 || f.brand != "")
}

func hasStrongTrendSpecificity(f features) bool {
	if !f.hasNoun {
		return false
	}

	if f.brand != "" || lexicon.HighSignal.Contains(f.match) {
		return true
	}

	return f.qualifiers >= strongQualifierHits && f.words >= strongMinWords
}

func termType(f features) domain.TermType {
	switch {
	case f.brand != "" && !f.hasNoun:
		return domain.TermBrand
	case f.brand != "" && isStructured(f) && f.qualifiers > 0:
		return domain.TermBrandStyle
	default:
		return domain.TermStyle
	}
}
