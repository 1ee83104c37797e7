package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "   ", expected: ""},
		{name: "whitespace runs", input: "  vintage \t denim\n jacket ", expected: "vintage denim jacket"},
		{name: "entities", input: "Levi&#39;s 501 &amp; more", expected: "Levi's 501 & more"},
		{name: "tags", input: "<b>Carhartt</b> <i>Detroit</i> Jacket", expected: "Carhartt Detroit Jacket"},
		{name: "mojibake apostrophe", input: "Leviâ€™s Trucker", expected: "Levi's Trucker"},
		{name: "mojibake accent", input: "HermÃ¨s scarf", expected: "Hermès scarf"},
		{name: "curly quotes", input: "Levi’s “501”", expected: `Levi's "501"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestForMatch(t *testing.T) {
	assert.Equal(t, "hermes birkin bag", ForMatch("HERMÈS  Birkin Bag"))
	assert.Equal(t, "levi's trucker", ForMatch("Leviâ€™s Trucker"))
}

func TestFixMojibakeLeavesCleanText(t *testing.T) {
	for _, s := range []string{"plain ascii", "Café", "naïve – dash"} {
		assert.Equal(t, s, FixMojibake(s))
	}
}

func TestNormalizeLine(t *testing.T) {
	assert.Equal(t, "Check the tag, then the seams.", NormalizeLine("  Check the tag , then the seams.. "))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"double", "knee", "carpenter", "pants"}, Tokens("Double-knee carpenter pants, OK?"))
	assert.Empty(t, Tokens("a an to"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("  "))
	assert.Equal(t, 3, WordCount(" a  b c "))
}
