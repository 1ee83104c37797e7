package styleprofile

import (
	"regexp"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

// nounsByType are substring cues for each garment category. Mixed has none.
var nounsByType = map[domain.StyleItemType][]string{
	domain.ItemOuterwear: {"jacket", "coat", "anorak", "parka", "blazer", "trench", "windbreaker", "shell"},
	domain.ItemBottoms:   {"pants", "jeans", "trousers", "cargo", "chino", "skirt", "shorts", "culotte"},
	domain.ItemFootwear:  {"boots", "boot", "sneakers", "sneaker", "shoe", "shoes", "loafer", "loafers", "clog"},
	domain.ItemKnitwear:  {"hoodie", "sweater", "cardigan", "knit", "crewneck", "sweatshirt"},
	domain.ItemBags:      {"bag", "tote", "crossbody", "handbag", "backpack", "satchel", "messenger"},
	domain.ItemDress:     {"dress", "maxi", "midi", "slip dress", "gown"},
	domain.ItemTop:       {"shirt", "tee", "t-shirt", "top", "blouse", "tank"},
}

// titleTypePriority decides the inferred type when a title hits several.
var titleTypePriority = []domain.StyleItemType{
	domain.ItemOuterwear,
	domain.ItemFootwear,
	domain.ItemDress,
	domain.ItemKnitwear,
	domain.ItemBags,
	domain.ItemBottoms,
	domain.ItemTop,
}

var mainstreamBrands = compareForms(
	"converse", "adidas", "nike", "new balance", "vans", "reebok",
	"dr martens", "timberland", "carhartt", "levi's", "levis", "patagonia",
	"the north face", "north face", "coach", "sorel", "salomon", "puma",
)

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bprioriti[sz]e clean condition\b`),
	regexp.MustCompile(`(?i)\bquality construction\b`),
	regexp.MustCompile(`(?i)\bstrong construction\b`),
	regexp.MustCompile(`(?i)\bcondition and quality\b`),
	regexp.MustCompile(`(?i)\bmatch the core silhouette first\b`),
	regexp.MustCompile(`(?i)\bbefore brand hunting\b`),
	regexp.MustCompile(`(?i)\btrend hype\b`),
	regexp.MustCompile(`(?i)\bclean condition over hype\b`),
}

// styleCues are matched against the compare form, so hyphenated cues
// appear with a space.
var styleCues = compareForms(
	"cropped", "oversized", "wide-leg", "high-rise", "high-waisted",
	"straight leg", "chunky", "platform", "colorblock", "90s", "vintage",
	"distressed", "washed", "raw hem", "mid-rise", "belted", "double knee",
	"chelsea", "tabi", "lug sole", "east-west", "hobo", "crossbody", "mini",
	"maxi", "midi", "cargo", "pleated", "straight fit",
)

func compareForms(words ...string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, textnorm.ForCompare(w))
	}

	return out
}

func init() {
	for t, nouns := range nounsByType {
		nounsByType[t] = compareForms(nouns...)
	}
}
