package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVocabularyFind(t *testing.T) {
	v := NewVocabulary("jacket", "double knee", "t-shirt")

	assert.Equal(t, []string{"double knee", "jacket"}, v.Find("double-knee pants and a jacket, another jacket", 0))
	assert.Equal(t, []string{"t-shirt"}, v.Find("faded t shirt", 0))
	assert.Equal(t, []string{"double knee"}, v.Find("double knee jacket", 1))
	assert.False(t, v.Contains("jackets"))
	assert.True(t, v.Contains("the jacket."))
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "carhartt detroit jacket", expected: "Carhartt"},
		{name: "apostrophe", input: "levi's 501", expected: "Levi's"},
		{name: "curly apostrophe", input: "levi’s trucker", expected: "Levi's"},
		{name: "no apostrophe", input: "levis orange tab", expected: "Levi's"},
		{name: "mojibake apostrophe", input: "leviâ€™s 505", expected: "Levi's"},
		{name: "spacing", input: "newbalance 990", expected: "New Balance"},
		{name: "accent", input: "stüssy tee", expected: "Stüssy"},
		{name: "accent stripped", input: "stussy tee", expected: "Stüssy"},
		{name: "specific before prefix", input: "carhartt wip jacket", expected: "Carhartt WIP"},
		{name: "earliest wins", input: "nike vs adidas", expected: "Nike"},
		{name: "earliest wins reversed", input: "adidas vs nike", expected: "Adidas"},
		{name: "coach jacket is a style", input: "nylon coach jacket", expected: ""},
		{name: "coach bag is a brand", input: "coach tabby bag", expected: "Coach"},
		{name: "none", input: "vintage denim jacket", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectBrand(tt.input))
		})
	}
}

func TestFindBrandsOrdered(t *testing.T) {
	found := FindBrands("patagonia and the north face fleece")
	if assert.Len(t, found, 2) {
		assert.Equal(t, "Patagonia", found[0].Name)
		assert.Equal(t, "The North Face", found[1].Name)
	}
}

func TestBlockedIsWordBounded(t *testing.T) {
	assert.True(t, Blocked.Contains("bitcoin hoodie"))
	assert.False(t, Blocked.Contains("carhartt detroit jacket"))
	assert.False(t, Blocked.Contains("nfld fleece"))
}
