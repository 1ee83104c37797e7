package lexicon

import (
	"regexp"
	"sort"
	"strings"
)

// Brand is a brand lexicon entry. Pattern runs against lowercased text and
// absorbs apostrophe, accent, mojibake and spacing variants.
type Brand struct {
	Name    string
	Pattern *regexp.Regexp
	// Except suppresses a match when the brand word is really a style
	// ("coach jacket").
	Except *regexp.Regexp
}

func brand(name, pattern string) Brand {
	return Brand{Name: name, Pattern: regexp.MustCompile(`\b(?:` + pattern + `)\b`)}
}

func brandExcept(name, pattern, except string) Brand {
	b := brand(name, pattern)
	b.Except = regexp.MustCompile(except)

	return b
}

const apos = `(?:'|’|‘|â€™|\s)?`

// Brands is the brand lexicon. More specific entries come before their
// prefixes ("carhartt wip" before "carhartt").
var Brands = []Brand{
	brand("Carhartt WIP", `carhartt\s*wip`),
	brand("Carhartt", `carhartt`),
	brand("Levi's", `levi`+apos+`s|levis`),
	brand("Patagonia", `patagonia`),
	brand("The North Face", `(?:the\s+)?north\s*face|tnf`),
	brand("Nike", `nike`),
	brand("Adidas", `adidas`),
	brand("New Balance", `new\s*balance`),
	brand("Converse", `converse`),
	brand("Vans", `vans`),
	brand("Reebok", `reebok`),
	brand("Dr. Martens", `dr\.?\s*martens?|doc\s*martens?|docs\s+martens`),
	brand("Timberland", `timberlands?`),
	brandExcept("Coach", `coach`, `\bcoach(?:es)?\s*jackets?\b`),
	brand("Sorel", `sorel`),
	brand("Salomon", `salomon`),
	brand("Puma", `puma`),
	brand("Ralph Lauren", `(?:polo\s+)?ralph\s*lauren`),
	brand("Tommy Hilfiger", `tommy\s*hilfiger`),
	brand("Champion", `champion`),
	brand("Stüssy", `st(?:u|ü|ã¼)ssy`),
	brand("Supreme", `supreme`),
	brand("Arc'teryx", `arc`+apos+`teryx`),
	brand("Barbour", `barbour`),
	brand("L.L.Bean", `l\.?\s*l\.?\s*bean`),
	brand("Filson", `filson`),
	brand("Pendleton", `pendleton`),
	brand("Wrangler", `wrangler`),
	brand("Dickies", `dickies`),
	brand("Stone Island", `stone\s*island`),
	brand("Hermès", `herm(?:e|è|ã¨)s`),
	brand("Prada", `prada`),
	brand("Miu Miu", `miu\s*miu`),
	brand("Gucci", `gucci`),
	brand("Burberry", `burberry`),
	brand("Birkenstock", `birkenstocks?`),
	brand("UGG", `uggs?`),
	brand("Asics", `asics`),
	brand("Oakley", `oakley`),
	brand("Harley-Davidson", `harley[\s-]*davidson`),
	brand("Columbia", `columbia\s+(?:sportswear|jacket|fleece|parka|vest|pfg)`),
	brand("Eddie Bauer", `eddie\s*bauer`),
	brand("Woolrich", `woolrich`),
	brand("Schott", `schott`),
	brand("Red Wing", `red\s*wing`),
	brand("Comme des Garçons", `comme\s+des\s+gar(?:c|ç|ã§)ons|cdg`),
	brand("Issey Miyake", `issey\s*miyake`),
	brand("Yohji Yamamoto", `yohji(?:\s*yamamoto)?`),
	brand("Maison Margiela", `(?:maison\s+)?margiela`),
	brand("Bape", `bape|a\s+bathing\s+ape`),
	brand("Kapital", `kapital`),
	brand("Rick Owens", `rick\s*owens`),
	brand("Acne Studios", `acne\s*studios`),
	brand("Lululemon", `lululemon`),
	brand("Eileen Fisher", `eileen\s*fisher`),
	brand("J.Crew", `j\.?\s*crew`),
	brand("Abercrombie & Fitch", `abercrombie(?:\s*(?:&|and)\s*fitch)?`),
}

// BrandMatch is a detected brand and where it starts in the text.
type BrandMatch struct {
	Name  string
	Index int
}

// FindBrands returns every brand in text ordered by position. text must be
// lowercased. Overlapping entries at the same position keep the first
// lexicon entry.
func FindBrands(text string) []BrandMatch {
	var out []BrandMatch

	taken := map[int]bool{}

	for _, b := range Brands {
		loc := b.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}

		if b.Except != nil && b.Except.MatchString(text) {
			continue
		}

		if taken[loc[0]] || containsName(out, b.Name) {
			continue
		}

		taken[loc[0]] = true

		out = append(out, BrandMatch{Name: b.Name, Index: loc[0]})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	return out
}

// DetectBrand returns the earliest brand in text, or "".
func DetectBrand(text string) string {
	found := FindBrands(text)
	if len(found) == 0 {
		return ""
	}

	return found[0].Name
}

// NameHasBrand reports whether s (in any case) names a brand.
func NameHasBrand(s string) bool {
	return DetectBrand(strings.ToLower(s)) != ""
}

func containsName(ms []BrandMatch, name string) bool {
	for _, m := range ms {
		if m.Name == name {
			return true
		}
	}

	return false
}
