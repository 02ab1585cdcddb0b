// Package limiter detects provider throttling signals in transport errors.
package limiter

import "strings"

// Throttling keywords per provider family, matched case-insensitively against
// the error text. The openai list doubles as the default for unknown models.
var patterns = map[string][]string{
	"openai": {
		"rate limit",
		"rate_limit",
		"too many requests",
		"429",
		"insufficient_quota",
	},
	"anthropic": {
		"rate limit",
		"overloaded",
		"429",
		"529",
	},
	"deepseek": {
		"rate limit",
		"too many requests",
		"429",
	},
	"groq": {
		"rate limit",
		"over capacity",
		"429",
	},
}

// Model substring -> pattern family. Checked in order.
var families = []struct {
	substr string
	family string
}{
	{"claude", "anthropic"},
	{"anthropic", "anthropic"},
	{"deepseek", "deepseek"},
	{"groq", "groq"},
	{"gpt", "openai"},
}

// Detector checks provider error text for throttling signals.
type Detector struct {
	family   string
	keywords []string
}

// ForModel creates a Detector for the family embedded in a model identifier,
// e.g. "deepseek/deepseek-chat" -> deepseek.
func ForModel(model string) *Detector {
	lower := strings.ToLower(model)
	family := "openai"
	for _, f := range families {
		if strings.Contains(lower, f.substr) {
			family = f.family
			break
		}
	}
	return &Detector{family: family, keywords: patterns[family]}
}

// DetectLimit returns true if the text contains a throttling signal.
func (d *Detector) DetectLimit(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
