package tokenizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_Fits(t *testing.T) {
	tr := NewResponseTruncator()
	assert.Equal(t, "short answer", tr.Truncate("short answer", 100, StrategySmart))
	assert.Equal(t, "", tr.Truncate("", 10, StrategyHard))
}

func TestTruncate_Hard(t *testing.T) {
	tr := NewResponseTruncator()
	got := tr.Truncate(strings.Repeat("a", 50), 5, StrategyHard)
	assert.Equal(t, strings.Repeat("a", 20)+"...", got)
}

func TestTruncate_SmartSentenceBoundary(t *testing.T) {
	tr := NewResponseTruncator()
	text := "Alpha beta gamma delta epsilon zeta. More text follows here beyond budget."
	got := tr.Truncate(text, 10, StrategySmart)
	assert.Equal(t, "Alpha beta gamma delta epsilon zeta.", got)
}

func TestTruncate_SmartWordBoundary(t *testing.T) {
	tr := NewResponseTruncator()
	text := "This is sentence one. This is sentence two. And more trailing text beyond."
	got := tr.Truncate(text, 10, StrategySmart)
	assert.Equal(t, "This is sentence one. This is sentence...", got)
}

func TestTruncate_SmartDenseScriptBoundaries(t *testing.T) {
	tr := NewResponseTruncator()

	// A sentence end at rune 8 of a 40-rune budget sits below 50% and must
	// be rejected even though its byte offset is inflated by the 3-byte
	// Sinhala runes. Falls through to a hard cut of the full budget.
	text := strings.Repeat("ස", 8) + ". " + strings.Repeat("a", 60)
	got := tr.Truncate(text, 10, StrategySmart)
	assert.Equal(t, strings.Repeat("ස", 8)+". "+strings.Repeat("a", 30)+"...", got)

	// A sentence end at rune 25 clears the 50% threshold and is kept.
	text = strings.Repeat("ම", 25) + ". " + strings.Repeat("ස", 30)
	got = tr.Truncate(text, 10, StrategySmart)
	assert.Equal(t, strings.Repeat("ම", 25)+".", got)
}

func TestTruncate_DenseScriptStaysValid(t *testing.T) {
	tr := NewResponseTruncator()
	got := tr.Truncate(strings.Repeat("ස", 100), 5, StrategyHard)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 20+len(ellipsisMarker), utf8.RuneCountInString(got))
}
