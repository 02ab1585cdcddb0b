package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaaaru/kadiya/internal/router"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, "Asia/Colombo", p.Locale.Timezone)
	assert.Equal(t, "LKR", p.Locale.Currency)
	assert.Equal(t, "deepseek/deepseek-chat", p.Agent.Model)
	assert.Equal(t, 0.3, p.Agent.Temperature)
	assert.Equal(t, 2048, p.TokenLimits.MaxOutputTokens)
	assert.Equal(t, 10, p.Conversation.SummarizeAfterTurns)
	assert.Equal(t, 2, p.Conversation.RetainLastMessages)
}

func TestLoadProfile_MissingFileUsesDefaults(t *testing.T) {
	p := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, "default", p.Name)
}

func TestLoadProfile_OverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kadiya-test.yaml")
	data := `
name: test
locale:
  currency: USD
token_limits:
  max_output_tokens: 512
  intent_limits:
    translate: 128
conversation:
  summarize_after_turns: 4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	p := LoadProfile(path)
	assert.Equal(t, "test", p.Name)
	assert.Equal(t, "USD", p.Locale.Currency)
	assert.Equal(t, 512, p.TokenLimits.MaxOutputTokens)
	assert.Equal(t, 4, p.Conversation.SummarizeAfterTurns)

	// Fields absent from the file keep defaults.
	assert.Equal(t, "Asia/Colombo", p.Locale.Timezone)
	assert.Equal(t, 2, p.Conversation.RetainLastMessages)
}

func TestLoadProfile_BrokenYAMLFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))

	p := LoadProfile(path)
	assert.Equal(t, "default", p.Name)
}

func TestRouterTiers_Merge(t *testing.T) {
	p := DefaultProfile()
	p.Routing.Tiers = map[string]TierSettings{
		"cheap_general": {Models: []string{"groq/llama-3.3-70b-versatile"}},
	}

	tiers := p.RouterTiers()
	assert.Equal(t, []string{"groq/llama-3.3-70b-versatile"}, tiers[router.TierCheapGeneral].Models)
	// Unset fields keep built-in values.
	assert.Equal(t, 1024, tiers[router.TierCheapGeneral].MaxOutputTokens)
	// Untouched tiers stay at defaults.
	assert.NotEmpty(t, tiers[router.TierSensitive].Models)
}

func TestIntentLimits_Merge(t *testing.T) {
	p := DefaultProfile()
	p.TokenLimits.IntentLimits = map[string]int{"translate": 128}

	limits := p.IntentLimits()
	assert.Equal(t, 128, limits["translate"])
	assert.Equal(t, 256, limits["summarize"])
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("KADIYA_WORK_DIR", t.TempDir())
	t.Setenv("KADIYA_API_TOKEN", "sekrit")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")

	cfg := Load()
	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, "sekrit", cfg.APIToken)
	assert.Equal(t, int64(12345), cfg.TelegramChatID)
	assert.NotNil(t, cfg.Profile)
}
