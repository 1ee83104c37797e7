package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "title case", input: "vintage denim jacket", expected: "Vintage Denim Jacket"},
		{name: "filler prefix", input: "chic elevated barn jacket", expected: "Barn Jacket"},
		{name: "filler only", input: "Chic", expected: "Chic"},
		{name: "tee shirt", input: "faded band tee shirt", expected: "Faded Band T-Shirt"},
		{name: "high waisted", input: "high waisted mom jeans", expected: "High-Waisted Mom Jeans"},
		{name: "lower conjunctions", input: "Barn Jacket With Corduroy Collar", expected: "Barn Jacket with Corduroy Collar"},
		{name: "uppercase set", input: "carhartt wip og active jacket", expected: "Carhartt WIP OG Active Jacket"},
		{name: "apostrophe brand", input: "levi’s 501 jeans", expected: "Levi's 501 Jeans"},
		{name: "mixed case kept", input: "McQueen platform boots", expected: "McQueen Platform Boots"},
		{name: "edge punctuation", input: `"Y2K mini skirt!"`, expected: "Y2K Mini Skirt"},
		{name: "decade apostrophe", input: "'90s Nike windbreaker", expected: "90s Nike Windbreaker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Chic",
		"chic chic",
		"trendy, stylish double-knee carpenter pants",
		"AND or WITH",
		"tee-shirt  vs   T SHIRT",
		"&amp;amp; leather",
		"Leviâ€™s trucker",
		"McQueen boots",
		"HIGH WAISTED wide leg JEANS",
		"y-2-k cropped   baby tee",
		"<b>gore tex</b> shell",
		"--- vintage ---",
		"the north face nuptse",
		"'70s suede fringe jacket",
		"hoody, crew neck sweat shirt",
		"ÃœBER parka",
		"e9c&lTak0Ct:é!léé:-<99ecvAC.",
		"&LT;b&GT; chore coat",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("Vintage  Denim Jacket"), Key("vintage denim jacket"))
	assert.Equal(t, "vintage denim jacket", Key("Vintage  Denim Jacket"))
	assert.Equal(t, "levis 501 jeans", Key("Levi's 501 Jeans"))
	assert.Equal(t, "hermes kelly bag", Key("Hermès Kelly Bag"))
	assert.Equal(t, "t-shirt", Key("Tee Shirt"))
	assert.True(t, SameTerm("stylish barn jacket", "Barn   Jacket"))
	assert.False(t, SameTerm("barn jacket", "barn coat"))
}

func TestBucket(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Vintage 90s Nike Windbreaker", expected: "vintage-90s"},
		{input: "Vintage Chore Coat", expected: "vintage"},
		{input: "Carhartt Detroit Jacket", expected: "jacket"},
		{input: "Red Wing Moc Toe Boots", expected: "boots"},
		{input: "Mohair Cardigan", expected: "cardigan"},
		{input: "Selvedge Jeans", expected: "denim"},
		{input: "Double Knee Carpenter Pants", expected: "double knee"},
		{input: "Nike", expected: "nike"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Bucket(tt.input))
		})
	}
}

func TestApplyDiversityCaps(t *testing.T) {
	tests := []struct {
		name     string
		terms    []string
		cap      int
		expected []string
	}{
		{
			name:     "keeps first two per bucket",
			terms:    []string{"jacket a", "jacket b", "jacket c"},
			cap:      2,
			expected: []string{"jacket a", "jacket b"},
		},
		{
			name:     "order decides membership at the boundary",
			terms:    []string{"jacket c", "jacket a", "jacket b"},
			cap:      2,
			expected: []string{"jacket c", "jacket a"},
		},
		{
			name:     "buckets are independent",
			terms:    []string{"Barn Jacket", "Vintage Tee", "Chore Jacket", "Vintage Dress", "Bomber Jacket"},
			cap:      1,
			expected: []string{"Barn Jacket", "Vintage Tee"},
		},
		{
			name:     "cap disabled",
			terms:    []string{"jacket a", "jacket b"},
			cap:      0,
			expected: []string{"jacket a", "jacket b"},
		},
		{
			name:     "empty",
			terms:    nil,
			cap:      3,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplyDiversityCaps(tt.terms, tt.cap))
		})
	}
}
