package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_SensitiveAlwaysWins(t *testing.T) {
	r := New(nil, nil)

	// Explicit flag, plus a retry count that would otherwise escalate.
	d := r.Route(NewContext("general", "hello", false, true, 3))
	assert.Equal(t, TierSensitive, d.Tier)
	assert.Equal(t, ReasonSensitive, d.Reason)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", d.Model)
}

func TestRoute_SensitiveAutoDetected(t *testing.T) {
	r := New(nil, nil)

	cases := []string{
		"my password is hunter2",
		"NIC number please",
		"verify 856234917v for me",
		"call me on +94771234567",
		"call me on 0771234567",
		"this is confidential",
	}
	for _, text := range cases {
		d := r.Route(NewContext("general", text, false, false, 0))
		assert.Equal(t, TierSensitive, d.Tier, "input: %s", text)
	}
}

func TestRoute_RetryEscalation(t *testing.T) {
	r := New(nil, nil)

	d := r.Route(NewContext("general", "hello", false, false, 2))
	assert.Equal(t, TierFallback, d.Tier)
	assert.Equal(t, "openai/gpt-4o-mini", d.Model)
	assert.Equal(t, "retry_escalation_count_2", d.Reason)

	// One retry is not enough to escalate.
	d = r.Route(NewContext("general", "hello", false, false, 1))
	assert.Equal(t, TierCheapGeneral, d.Tier)
}

func TestRoute_JSONRequired(t *testing.T) {
	r := New(nil, nil)

	d := r.Route(NewContext("general", "hello", true, false, 0))
	assert.Equal(t, TierStructured, d.Tier)
	assert.Equal(t, ReasonJSONRequired, d.Reason)
	assert.Equal(t, "anthropic/claude-3-haiku-20240307", d.Model)

	// Auto-detected from the text.
	d = r.Route(NewContext("general", "respond with json only", false, false, 0))
	assert.Equal(t, TierStructured, d.Tier)
	assert.Equal(t, ReasonJSONRequired, d.Reason)
}

func TestRoute_JSONBeatsLargeInput(t *testing.T) {
	r := New(nil, nil)

	// Both JSON and >4000 input tokens; JSON is the earlier rule.
	big := "return json for " + strings.Repeat("data ", 4000)
	d := r.Route(NewContext("general", big, false, false, 0))
	assert.Equal(t, ReasonJSONRequired, d.Reason)
}

func TestRoute_LargeInput(t *testing.T) {
	r := New(nil, nil)

	big := strings.Repeat("word ", 4000)
	ctx := NewContext("general", big, false, false, 0)
	assert.Greater(t, ctx.InputTokens, largeInputThreshold)

	d := r.Route(ctx)
	assert.Equal(t, TierStructured, d.Tier)
	assert.Contains(t, d.Reason, "large_input_")
}

func TestRoute_DefaultCheap(t *testing.T) {
	r := New(nil, nil)

	d := r.Route(NewContext("general", "what's the capital of France?", false, false, 0))
	assert.Equal(t, TierCheapGeneral, d.Tier)
	assert.Equal(t, ReasonDefaultCheap, d.Reason)
	assert.Equal(t, "deepseek/deepseek-chat", d.Model)
	assert.Equal(t, 1024, d.MaxOutputTokens)
}

func TestRoute_IntentLimits(t *testing.T) {
	r := New(nil, nil)

	d := r.Route(NewContext("summarize", "make this brief", false, false, 0))
	assert.Equal(t, 256, d.MaxOutputTokens)

	d = r.Route(NewContext("translate", "say hi", false, false, 0))
	assert.Equal(t, 512, d.MaxOutputTokens)

	// Unknown intents fall back to the tier default.
	d = r.Route(NewContext("excel", "make a sheet", false, false, 0))
	assert.Equal(t, 1024, d.MaxOutputTokens)
}

func TestRoute_EmptyTierFailsClosed(t *testing.T) {
	tiers := DefaultTiers()
	tiers[TierSensitive] = TierConfig{MaxOutputTokens: 2048}
	r := New(tiers, nil)

	d := r.Route(NewContext("general", "", false, true, 0))
	assert.Equal(t, safeDefaultModel, d.Model)
	assert.Equal(t, TierSensitive, d.Tier)
}

func TestNewContext_Defaults(t *testing.T) {
	ctx := NewContext("", "hello", false, false, -2)
	assert.Equal(t, "general", ctx.Intent)
	assert.Equal(t, 0, ctx.RetryCount)
	assert.Equal(t, 2, ctx.InputTokens)
}
