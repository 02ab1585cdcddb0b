package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimize_PhraseCompression(t *testing.T) {
	o := NewPromptOptimizer(false)

	res := o.Optimize("Could you please translate this to Sinhala?")
	assert.Equal(t, "translate this to Sinhala?", res.Text)
	assert.Equal(t, 43, res.OriginalLength)
	assert.Equal(t, 26, res.OptimizedLength)
	assert.Equal(t, 4, res.TokensSaved)
	assert.Equal(t, "prompt_compression", res.Strategy)
}

func TestOptimize_Whitespace(t *testing.T) {
	o := NewPromptOptimizer(false)
	res := o.Optimize("  hello    world\n\n\n\nfoo  ")
	assert.Equal(t, "hello world foo", res.Text)
}

func TestOptimize_Punctuation(t *testing.T) {
	o := NewPromptOptimizer(false)
	res := o.Optimize("wait ... what ?")
	assert.Equal(t, "wait. what?", res.Text)
}

func TestOptimize_Aggressive(t *testing.T) {
	aggressive := NewPromptOptimizer(true)
	res := aggressive.Optimize("this is really very simple")
	assert.Equal(t, "this is simple", res.Text)

	// Non-aggressive mode keeps filler words.
	plain := NewPromptOptimizer(false)
	assert.Equal(t, "this is really very simple", plain.Optimize("this is really very simple").Text)
}

func TestOptimize_Converges(t *testing.T) {
	o := NewPromptOptimizer(false)
	first := o.Optimize("Could you please translate this to Sinhala?")
	second := o.Optimize(first.Text)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 0, second.TokensSaved)
}

func TestOptimize_SavingsNeverNegative(t *testing.T) {
	o := NewPromptOptimizer(false)
	assert.Equal(t, 0, o.Optimize("hi").TokensSaved)
	assert.GreaterOrEqual(t, o.Optimize("in the event that x").TokensSaved, 0)
}
