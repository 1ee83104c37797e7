package lexicon

// Nouns are apparel product nouns. A strict trend term must name one unless
// it is a bare brand.
var Nouns = NewVocabulary(
	"jacket", "jackets", "coat", "coats", "parka", "anorak", "blazer", "trench",
	"windbreaker", "vest", "gilet", "fleece", "hoodie", "hoodies", "sweatshirt",
	"crewneck", "sweater", "sweaters", "cardigan", "cardigans", "knit", "pullover",
	"flannel", "jersey", "shirt", "shirts", "t-shirt", "t-shirts", "tee", "tees",
	"polo", "blouse", "tank", "jeans", "jean", "pants", "trousers", "chinos",
	"shorts", "skirt", "overalls", "jumpsuit", "dress", "gown", "boots", "boot",
	"sneakers", "sneaker", "shoes", "shoe", "loafers", "loafer", "clogs", "mules",
	"sandals", "trainers", "bag", "bags", "tote", "handbag", "backpack", "satchel",
	"belt", "scarf", "beanie", "cap", "hat", "kimono",
)

// Qualifiers modify a noun into a specific style ("cropped", "detroit").
// Materials are qualifiers too.
var Qualifiers = NewVocabulary(
	"vintage", "90s", "80s", "70s", "00s", "y2k", "retro", "archive", "deadstock",
	"cropped", "distressed", "oversized", "boxy", "baggy", "washed", "faded",
	"raw", "selvedge", "double knee", "carpenter", "chore", "detroit", "trucker",
	"bomber", "varsity", "military", "workwear", "western", "utility", "cargo",
	"pleated", "wide-leg", "straight leg", "high-waisted", "low rise", "mid-rise",
	"chunky", "platform", "quilted", "puffer", "shearling", "sherpa", "corduroy",
	"leather", "suede", "denim", "wool", "cashmere", "mohair", "nylon", "canvas",
	"linen", "tweed", "camo", "plaid", "striped", "graphic", "band", "tie-dye",
	"embroidered", "patchwork", "chelsea", "combat", "moto", "biker", "harrington",
	"barn", "duck", "fisherman", "cable knit", "track", "coach", "slip", "maxi",
	"midi", "mini", "tabi", "lug sole", "gore-tex",
)

// Materials score higher than other qualifiers in the specificity check.
var Materials = NewVocabulary(
	"leather", "suede", "denim", "wool", "cashmere", "mohair", "corduroy",
	"shearling", "sherpa", "canvas", "nylon", "linen", "tweed", "selvedge",
	"gore-tex", "duck canvas", "silk", "velvet", "fleece",
)

// StyleKeywords are style or era words worth one specificity point.
var StyleKeywords = NewVocabulary(
	"vintage", "90s", "80s", "70s", "00s", "y2k", "retro", "archive", "deadstock",
	"workwear", "western", "military", "grunge", "gorpcore", "preppy", "streetwear",
	"skater", "cargo", "cropped", "oversized", "distressed", "boxy", "baggy",
	"chunky", "platform", "carpenter", "chore", "double knee", "varsity", "bomber",
	"trucker", "utility", "washed", "faded", "wide-leg", "high-waisted", "pleated",
	"biker", "moto", "combat", "harrington", "fisherman", "cable knit",
)

// HighSignal phrases make a noun-bearing term specific enough without a brand.
var HighSignal = NewVocabulary(
	"double knee", "gore-tex", "air force 1", "air max", "air jordan", "dunk",
	"501", "505", "550", "990", "samba", "gazelle", "chuck 70", "selvedge",
	"chore coat", "detroit jacket", "active jacket", "barn jacket", "carpenter",
	"fisherman", "cable knit", "shearling", "corduroy", "suede", "leather",
	"cargo", "tabi", "lug sole", "mary jane", "penny loafer", "rick owens",
	"deadstock", "harrington", "varsity", "souvenir", "sashiko", "boro",
)

// FashionKeywords is the domain allowlist: one of these, a brand or a noun must
// appear for a term to be considered fashion at all.
var FashionKeywords = NewVocabulary(
	"thrift", "thrifted", "thrifting", "vintage", "fashion", "style", "streetwear",
	"workwear", "denim", "apparel", "outfit", "wardrobe", "resale", "secondhand",
	"y2k", "archive", "deadstock", "designer", "menswear", "womenswear",
	"gorpcore", "grunge", "preppy", "western", "retro", "leather", "knitwear",
	"footwear", "outerwear",
)

// Connectives mark headline fragments when combined with four or more words.
var Connectives = NewVocabulary("from", "to", "for", "with", "and", "or", "vs")

// Blocked are non-fashion topics; any hit rejects regardless of other content.
var Blocked = NewVocabulary(
	"nfl", "nba", "mlb", "nhl", "mls", "fifa", "super bowl", "world cup",
	"playoffs", "playoff", "touchdown", "quarterback", "lakers", "yankees",
	"cowboys", "patriots", "detroit lions", "detroit pistons", "red sox",
	"stock market", "stocks", "shares", "earnings", "dividend", "nasdaq",
	"dow jones", "s&p", "bitcoin", "crypto", "cryptocurrency", "ethereum",
	"inflation", "interest rate", "mortgage", "recession", "tariff", "tariffs",
	"weather", "forecast", "hurricane", "tornado", "snowstorm", "heatwave",
	"election", "senate", "congress", "president", "politics", "democrat",
	"republican", "governor", "lawsuit",
)

// EditorialNoise are boilerplate headline phrases that never name a product.
var EditorialNoise = NewVocabulary(
	"how to wear", "how to style", "best dressed", "worst dressed", "red carpet",
	"street style", "what to wear", "outfit ideas", "gift guide", "gift ideas",
	"shop now", "shop the", "trends to know", "you need", "everything you",
	"fashion week", "runway", "celebrity", "celebrities", "spotted", "review",
	"reviews", "interview", "podcast", "newsletter", "exclusive", "lookbook",
	"wishlist", "must-have", "must have", "deal", "deals", "discount", "coupon",
	"promo code", "on sale", "top 10", "ways to", "here's", "according to",
	"editor", "editors", "the best", "announces", "launches", "giveaway",
)

// GenericStyles are terms too generic to be a trend without a brand.
var GenericStyles = map[string]bool{
	"cargo pants":       true,
	"leather jacket":    true,
	"denim jacket":      true,
	"jean jacket":       true,
	"suede jacket":      true,
	"leather boots":     true,
	"wool coat":         true,
	"wool sweater":      true,
	"vintage jacket":    true,
	"vintage jeans":     true,
	"vintage t-shirt":   true,
	"vintage dress":     true,
	"vintage sweater":   true,
	"oversized hoodie":  true,
	"oversized t-shirt": true,
	"graphic t-shirt":   true,
	"graphic tee":       true,
	"cropped jacket":    true,
	"wide-leg jeans":    true,
	"baggy jeans":       true,
	"platform sneakers": true,
	"chunky sneakers":   true,
	"leather bag":       true,
	"leather belt":      true,
	"denim skirt":       true,
	"corduroy pants":    true,
	"combat boots":      true,
}
