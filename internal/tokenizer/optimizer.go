package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// OptimizationResult describes a single optimization pass.
type OptimizationResult struct {
	Text            string `json:"text"`
	OriginalLength  int    `json:"original_length"`
	OptimizedLength int    `json:"optimized_length"`
	TokensSaved     int    `json:"tokens_saved"`
	Strategy        string `json:"strategy"`
}

// Verbose phrase -> shorter equivalent. Applied in order; earlier
// substitutions can change what later patterns see.
var compressionTable = []struct {
	pattern     string
	replacement string
}{
	{`(?i)please\s+`, ""},
	{`(?i)could\s+you\s+`, ""},
	{`(?i)would\s+you\s+`, ""},
	{`(?i)i\s+would\s+like\s+you\s+to\s+`, ""},
	{`(?i)i\s+want\s+you\s+to\s+`, ""},
	{`(?i)can\s+you\s+`, ""},
	{`(?i)in\s+order\s+to\s+`, "to "},
	{`(?i)due\s+to\s+the\s+fact\s+that\s+`, "because "},
	{`(?i)at\s+this\s+point\s+in\s+time\s+`, "now "},
	{`(?i)in\s+the\s+event\s+that\s+`, "if "},
	{`(?i)for\s+the\s+purpose\s+of\s+`, "to "},
	{`(?i)with\s+regards\s+to\s+`, "about "},
	{`(?i)with\s+respect\s+to\s+`, "about "},
	{`(?i)a\s+large\s+number\s+of\s+`, "many "},
	{`(?i)a\s+small\s+number\s+of\s+`, "few "},
	{`(?i)in\s+spite\s+of\s+the\s+fact\s+that\s+`, "although "},
	{`(?i)the\s+fact\s+that\s+`, "that "},
}

// Filler words stripped in aggressive mode. Whole-word matches only.
var fillerWords = []string{
	`actually`, `basically`, `essentially`, `simply`,
	`just`, `really`, `very`, `quite`,
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	multiDotRe     = regexp.MustCompile(`\.{2,}`)
	spacePunctRe   = regexp.MustCompile(`\s+([.,!?;:])`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

type compiledCompression struct {
	re          *regexp.Regexp
	replacement string
}

// PromptOptimizer applies lossy-but-safe text compression to reduce input
// tokens. Pure function of input and mode; stateless after construction.
type PromptOptimizer struct {
	aggressive   bool
	compressions []compiledCompression
	fillers      []*regexp.Regexp
}

// NewPromptOptimizer compiles the compression tables. With aggressive=true
// filler words are additionally stripped (may slightly change register).
func NewPromptOptimizer(aggressive bool) *PromptOptimizer {
	o := &PromptOptimizer{aggressive: aggressive}
	for _, c := range compressionTable {
		o.compressions = append(o.compressions, compiledCompression{
			re:          regexp.MustCompile(c.pattern),
			replacement: c.replacement,
		})
	}
	for _, w := range fillerWords {
		o.fillers = append(o.fillers, regexp.MustCompile(`(?i)\b`+w+`\b\s*`))
	}
	return o
}

// Optimize compresses text for minimal token usage. TokensSaved is floored at
// zero — a pass that expands the text never reports a negative saving.
func (o *PromptOptimizer) Optimize(text string) OptimizationResult {
	originalLen := utf8.RuneCountInString(text)

	// 1. Normalize whitespace.
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	// 2. Phrase compressions, in table order.
	for _, c := range o.compressions {
		text = c.re.ReplaceAllString(text, c.replacement)
	}

	// 3. Redundant punctuation.
	text = multiDotRe.ReplaceAllString(text, ".")
	text = spacePunctRe.ReplaceAllString(text, "$1")

	// 4. Collapse newline runs.
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")

	// 5. Aggressive mode: strip fillers.
	if o.aggressive {
		for _, f := range o.fillers {
			text = f.ReplaceAllString(text, "")
		}
	}

	optimizedLen := utf8.RuneCountInString(text)
	saved := (originalLen - optimizedLen) / 4
	if saved < 0 {
		saved = 0
	}

	return OptimizationResult{
		Text:            text,
		OriginalLength:  originalLen,
		OptimizedLength: optimizedLen,
		TokensSaved:     saved,
		Strategy:        "prompt_compression",
	}
}
