package tokenizer

import "regexp"

// Intent tags produced by the detector.
const (
	IntentGeneral        = "general"
	IntentTranslate      = "translate"
	IntentSummarize      = "summarize"
	IntentFormatWhatsApp = "format_whatsapp"
	IntentFormatTelegram = "format_telegram"
	IntentPIIRedact      = "pii_redact"
	IntentExcel          = "excel"
	IntentWord           = "word"
	IntentPowerPoint     = "powerpoint"
	IntentSearch         = "search"
)

// Intent patterns. Order matters — first match wins, ties are resolved by
// declaration order alone. Sinhala patterns are plain substrings: Go's \b is
// ASCII-only and would never fire next to Sinhala letters.
var intentPatterns = []struct {
	intent   string
	patterns []string
}{
	{IntentTranslate, []string{
		`(?i)\btranslate\b`,
		`පරිවර්තනය`, // Sinhala: translate
		`(?i)to\s+sinhala\b`,
		`(?i)to\s+english\b`,
		`(?i)in\s+sinhala\b`,
		`(?i)in\s+english\b`,
	}},
	{IntentSummarize, []string{
		`(?i)\bsummar`,
		`සාරාංශ`, // Sinhala: summary
		`(?i)\btl;?dr\b`,
		`(?i)\bbrief\b`,
		`(?i)\bshort\b.*\bversion\b`,
	}},
	{IntentFormatWhatsApp, []string{
		`(?i)\bwhatsapp\b`,
		`(?i)\bwa\s+format\b`,
	}},
	{IntentFormatTelegram, []string{
		`(?i)\btelegram\b`,
		`(?i)\btg\s+format\b`,
	}},
	{IntentPIIRedact, []string{
		`(?i)\bredact\b`,
		`(?i)\bhide\b.*\b(nic|phone|email)\b`,
		`(?i)\bremove\b.*\bpersonal\b`,
		`මකන්න`, // Sinhala: delete/remove
	}},
	{IntentExcel, []string{
		`(?i)\bexcel\b`,
		`(?i)\bspreadsheet\b`,
		`(?i)\bxlsx?\b`,
	}},
	{IntentWord, []string{
		`(?i)\bword\b.*\bdoc`,
		`(?i)\bdocx?\b`,
	}},
	{IntentPowerPoint, []string{
		`(?i)\bpowerpoint\b`,
		`(?i)\bpptx?\b`,
		`(?i)\bslides?\b`,
		`(?i)\bpresentation\b`,
	}},
	{IntentSearch, []string{
		`(?i)\bsearch\b`,
		`(?i)\bfind\b.*\b(online|web)\b`,
		`(?i)\blook\s+up\b`,
		`(?i)\bgoogle\b`,
	}},
}

type intentRule struct {
	intent   string
	patterns []*regexp.Regexp
}

// IntentDetector classifies free text into a fixed intent vocabulary.
// Stateless after construction.
type IntentDetector struct {
	rules []intentRule
}

// NewIntentDetector compiles the intent pattern tables.
func NewIntentDetector() *IntentDetector {
	rules := make([]intentRule, 0, len(intentPatterns))
	for _, ip := range intentPatterns {
		compiled := make([]*regexp.Regexp, 0, len(ip.patterns))
		for _, p := range ip.patterns {
			compiled = append(compiled, regexp.MustCompile(p))
		}
		rules = append(rules, intentRule{intent: ip.intent, patterns: compiled})
	}
	return &IntentDetector{rules: rules}
}

// Detect returns the first matching intent, or "general" if nothing matches.
func (d *IntentDetector) Detect(text string) string {
	for _, rule := range d.rules {
		for _, p := range rule.patterns {
			if p.MatchString(text) {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}
