// Package tokenizer provides token estimation, prompt optimization,
// conversation summarization mechanics, response truncation, and intent
// detection. Everything here is pure compute over precompiled tables and is
// safe for concurrent use.
package tokenizer

// EstimateTokens estimates the LLM token count of a text string without
// calling a real tokenizer.
//
// Heuristic: dense scripts (Sinhala, CJK, kana) cost ~1 token per 2
// characters, everything else ~1 token per 4 characters. The +1 margin makes
// any non-empty text cost at least one token. Empty text is exactly 0.
//
// All token counts in the daemon come from this one function so that routing
// thresholds and "tokens saved" reports stay internally consistent.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	var dense, other int
	for _, r := range text {
		if isDenseScript(r) {
			dense++
		} else {
			other++
		}
	}
	return int(float64(dense)/2+float64(other)/4) + 1
}

// isDenseScript reports whether r belongs to a script where characters carry
// roughly twice the token weight of Latin text.
func isDenseScript(r rune) bool {
	switch {
	case r >= 0x0D80 && r <= 0x0DFF: // Sinhala
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return true
	case r >= 0x3040 && r <= 0x30FF: // Hiragana + Katakana
		return true
	}
	return false
}
