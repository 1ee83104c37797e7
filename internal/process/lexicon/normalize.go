package lexicon

import "regexp"

// FillerPrefixes are marketing words LLMs like to prepend to a term.
var FillerPrefixes = map[string]bool{
	"chic":       true,
	"luxe":       true,
	"elevated":   true,
	"trendy":     true,
	"stylish":    true,
	"effortless": true,
	"iconic":     true,
	"timeless":   true,
	"must-have":  true,
	"coveted":    true,
}

// Spelling is a canonical spelling rewrite, applied case-insensitively.
type Spelling struct {
	Pattern *regexp.Regexp
	Replace string
}

func spelling(pattern, replace string) Spelling {
	return Spelling{Pattern: regexp.MustCompile(`(?i)` + pattern), Replace: replace}
}

// Spellings canonicalize common variants so they share a dedupe key.
var Spellings = []Spelling{
	spelling(`\b(?:tee|t)[\s-]*shirts\b`, "t-shirts"),
	spelling(`\b(?:tee|t)[\s-]*shirt\b`, "t-shirt"),
	spelling(`\bhigh[\s-]*waist(?:ed)?\b`, "high-waisted"),
	spelling(`\bwide[\s-]+leg(?:ged)?\b`, "wide-leg"),
	spelling(`\bmid[\s-]+rise\b`, "mid-rise"),
	spelling(`\bgore[\s-]*tex\b`, "gore-tex"),
	spelling(`\bcrew[\s-]+neck\b`, "crewneck"),
	spelling(`\bdouble[\s-]+knee\b`, "double knee"),
	spelling(`\bsweat[\s-]+shirt\b`, "sweatshirt"),
	spelling(`\bhoody\b`, "hoodie"),
	spelling(`\btie[\s-]*dyed?\b`, "tie-dye"),
	spelling(`\bnineties\b`, "90s"),
	spelling(`\beighties\b`, "80s"),
	spelling(`\bseventies\b`, "70s"),
	spelling(`'(\d0s)\b`, "$1"),
	spelling(`\by[\s-]*2[\s-]*k\b`, "y2k"),
	spelling(`\bsneaks\b`, "sneakers"),
}

// UppercaseWords keep full capitals in title case.
var UppercaseWords = map[string]string{
	"og":  "OG",
	"wip": "WIP",
	"xt":  "XT",
	"usa": "USA",
	"y2k": "Y2K",
	"tnf": "TNF",
	"cdg": "CDG",
	"ugg": "UGG",
	"nwt": "NWT",
	"mlb": "MLB",
}

// LowercaseWords stay lowercase in title case unless first.
var LowercaseWords = map[string]bool{
	"and":  true,
	"of":   true,
	"with": true,
	"the":  true,
	"a":    true,
	"in":   true,
	"for":  true,
	"or":   true,
	"vs":   true,
}
