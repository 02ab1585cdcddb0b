// Package router implements deterministic cost-first model routing.
// Routing is a plain ordered rule table — no model is ever consulted to pick
// a model.
package router

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/thaaaru/kadiya/internal/tokenizer"
)

// Tier is a cost/capability bucket, ordered by ascending cost.
type Tier string

const (
	TierCheapGeneral Tier = "cheap_general"
	TierStructured   Tier = "structured"
	TierFallback     Tier = "fallback"
	TierSensitive    Tier = "sensitive"
)

// Fixed routing reasons. Retry and large-input reasons carry a count suffix.
const (
	ReasonSensitive     = "sensitive_content_detected"
	ReasonJSONRequired  = "json_output_required"
	ReasonDefaultCheap  = "default_cheap_routing"
	ReasonModelOverride = "model_override"
)

// safeDefaultModel is substituted when a tier has no configured models.
// Routing fails closed to the cheapest known model instead of blocking.
const safeDefaultModel = "deepseek/deepseek-chat"

// largeInputThreshold is the input-token count above which a request is
// considered too large for the cheap tier.
const largeInputThreshold = 4000

// TierConfig holds the candidate models and token allowances for one tier.
// Models are ordered; the first entry is preferred.
type TierConfig struct {
	Models          []string
	MaxInputTokens  int
	MaxOutputTokens int
}

// DefaultTiers returns the built-in tier tables.
func DefaultTiers() map[Tier]TierConfig {
	return map[Tier]TierConfig{
		TierCheapGeneral: {
			Models:          []string{"deepseek/deepseek-chat", "groq/llama-3.3-70b-versatile"},
			MaxInputTokens:  4000,
			MaxOutputTokens: 1024,
		},
		TierStructured: {
			Models:          []string{"anthropic/claude-3-haiku-20240307", "openai/gpt-4o-mini"},
			MaxInputTokens:  8000,
			MaxOutputTokens: 2048,
		},
		TierFallback: {
			Models:          []string{"openai/gpt-4o-mini", "anthropic/claude-3-haiku-20240307"},
			MaxInputTokens:  16000,
			MaxOutputTokens: 4096,
		},
		TierSensitive: {
			Models:          []string{"anthropic/claude-3-haiku-20240307"},
			MaxInputTokens:  8000,
			MaxOutputTokens: 2048,
		},
	}
}

// DefaultIntentLimits returns the built-in intent -> max-output-tokens table.
// Intents absent here fall back to the tier default.
func DefaultIntentLimits() map[string]int {
	return map[string]int{
		"translate":       512,
		"summarize":       256,
		"format":          256,
		"format_whatsapp": 256,
		"format_telegram": 512,
		"pii_redact":      1024,
		"search":          512,
		"general":         1024,
	}
}

// Patterns that indicate the caller wants JSON/structured output.
var jsonPatterns = []string{
	`\bjson\b`,
	`\bstructured\b`,
	`\bschema\b`,
	`\{\s*"`,
	`\bparse\b.*\boutput\b`,
}

// Patterns that indicate sensitive content: secrecy keywords plus Sri Lankan
// NIC and phone number shapes.
var sensitivityPatterns = []string{
	`\bnic\b`,
	`\bpassword\b`,
	`\bcredit\s*card\b`,
	`\bbank\b.*\baccount\b`,
	`\bconfidential\b`,
	`\bprivate\b`,
	`\bsecret\b`,
	`\d{9}[vVxX]`,
	`\d{12}`,
	`\+94\d{9}`,
	`0\d{9}`,
}

// Context carries everything the router needs for one decision. Build it with
// NewContext — InputTokens is always derived from InputText, never supplied,
// so it cannot disagree with the text it summarizes.
type Context struct {
	Intent      string
	InputText   string
	NeedsJSON   bool
	Sensitivity bool
	RetryCount  int
	InputTokens int
}

// NewContext builds a routing context, estimating input tokens from the text.
func NewContext(intent, inputText string, needsJSON, sensitivity bool, retryCount int) Context {
	if intent == "" {
		intent = "general"
	}
	if retryCount < 0 {
		retryCount = 0
	}
	return Context{
		Intent:      intent,
		InputText:   inputText,
		NeedsJSON:   needsJSON,
		Sensitivity: sensitivity,
		RetryCount:  retryCount,
		InputTokens: tokenizer.EstimateTokens(inputText),
	}
}

// Decision is the routing outcome for one request.
type Decision struct {
	Tier            Tier   `json:"tier"`
	Model           string `json:"model"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	Reason          string `json:"reason"`
}

// Router evaluates the routing rule table. Stateless after construction;
// safe for concurrent use.
type Router struct {
	tiers        map[Tier]TierConfig
	intentLimits map[string]int
	jsonRe       *regexp.Regexp
	sensitiveRe  *regexp.Regexp
}

// New creates a Router. Nil tiers or intentLimits select the built-in tables.
func New(tiers map[Tier]TierConfig, intentLimits map[string]int) *Router {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	if intentLimits == nil {
		intentLimits = DefaultIntentLimits()
	}
	return &Router{
		tiers:        tiers,
		intentLimits: intentLimits,
		jsonRe:       regexp.MustCompile(`(?i)` + strings.Join(jsonPatterns, "|")),
		sensitiveRe:  regexp.MustCompile(`(?i)` + strings.Join(sensitivityPatterns, "|")),
	}
}

// Route picks a tier, model, output-token ceiling and reason for the request.
//
// Rule order is the specification — first match wins:
//  1. sensitive content        -> SENSITIVE
//  2. retry_count > 1          -> FALLBACK
//  3. JSON required            -> STRUCTURED
//  4. input > 4000 tokens      -> STRUCTURED
//  5. otherwise                -> CHEAP_GENERAL
//
// Explicit flags OR with auto-detection; a caller cannot force-disable
// detection by passing false.
func (r *Router) Route(ctx Context) Decision {
	needsJSON := ctx.NeedsJSON || r.jsonRe.MatchString(ctx.InputText)
	sensitivity := ctx.Sensitivity || r.sensitiveRe.MatchString(ctx.InputText)

	var tier Tier
	var reason string
	switch {
	case sensitivity:
		tier, reason = TierSensitive, ReasonSensitive
	case ctx.RetryCount > 1:
		tier, reason = TierFallback, fmt.Sprintf("retry_escalation_count_%d", ctx.RetryCount)
	case needsJSON:
		tier, reason = TierStructured, ReasonJSONRequired
	case ctx.InputTokens > largeInputThreshold:
		tier, reason = TierStructured, fmt.Sprintf("large_input_%d_tokens", ctx.InputTokens)
	default:
		tier, reason = TierCheapGeneral, ReasonDefaultCheap
	}

	tierConfig := r.tiers[tier]

	model := safeDefaultModel
	if len(tierConfig.Models) > 0 {
		model = tierConfig.Models[0]
	} else {
		// Degraded mode, not an error: routing never blocks a request for
		// lack of configuration.
		log.Printf("router: tier %s has no models, using safe default %s", tier, safeDefaultModel)
	}

	maxOutput := tierConfig.MaxOutputTokens
	if limit, ok := r.intentLimits[ctx.Intent]; ok {
		maxOutput = limit
	}

	return Decision{
		Tier:            tier,
		Model:           model,
		MaxOutputTokens: maxOutput,
		Reason:          reason,
	}
}
