package tokenizer

// Truncation strategies.
const (
	StrategyHard  = "hard"
	StrategySmart = "smart"
)

const ellipsisMarker = "..."

// Sentence-ending markers, tried in order during smart truncation.
var sentenceEnds = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// ResponseTruncator bounds response text to a token budget at a sentence or
// word boundary. Stateless.
type ResponseTruncator struct{}

// NewResponseTruncator creates a ResponseTruncator.
func NewResponseTruncator() *ResponseTruncator {
	return &ResponseTruncator{}
}

// Truncate cuts text so it fits within maxTokens (at ~4 chars per token).
// Text that already fits is returned unchanged.
//
// "hard" cuts exactly at the character budget. "smart" prefers the last
// sentence end at or past 50% of the budget, then the last word boundary at
// or past 70%, then falls back to a hard cut — degraded boundaries beat an
// empty result.
func (t *ResponseTruncator) Truncate(text string, maxTokens int, strategy string) string {
	maxChars := maxTokens * 4

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	truncated := runes[:maxChars]

	if strategy == StrategyHard {
		return string(truncated) + ellipsisMarker
	}

	// Boundary offsets are rune positions so multi-byte scripts measure
	// against the budget the same way ASCII does.
	for _, marker := range sentenceEnds {
		if idx := lastIndexRunes(truncated, marker); idx > maxChars/2 {
			return string(truncated[:idx+1])
		}
	}

	if idx := lastIndexRunes(truncated, " "); float64(idx) > float64(maxChars)*0.7 {
		return string(truncated[:idx]) + ellipsisMarker
	}

	return string(truncated) + ellipsisMarker
}

// lastIndexRunes returns the rune offset of the last occurrence of marker in
// runes, or -1 if it does not occur.
func lastIndexRunes(runes []rune, marker string) int {
	m := []rune(marker)
	for i := len(runes) - len(m); i >= 0; i-- {
		match := true
		for j := range m {
			if runes[i+j] != m[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
