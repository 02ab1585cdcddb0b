package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("test"))
	assert.Equal(t, 12, EstimateTokens("The quick brown fox jumps over the lazy dog."))
}

func TestEstimateTokens_Sinhala(t *testing.T) {
	// 8 Sinhala runes at 2 chars/token.
	assert.Equal(t, 5, EstimateTokens("ආයුබෝවන්"))

	// Dense scripts cost more per rune than Latin.
	assert.Greater(t, EstimateTokens("ආයුබෝවන්"), EstimateTokens("abcdefgh"))
}

func TestEstimateTokens_CJK(t *testing.T) {
	// 4 CJK runes at 2 chars/token.
	assert.Equal(t, 3, EstimateTokens("你好世界"))
}

func TestEstimateTokens_Mixed(t *testing.T) {
	// dense=8 at /2, other=3 at /4, truncated, plus margin.
	assert.Equal(t, 5, EstimateTokens("hi ආයුබෝවන්"))
}
