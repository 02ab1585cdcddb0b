// Package config loads daemon configuration from environment variables and
// the optional profile YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/thaaaru/kadiya/internal/router"
)

// Config holds all runtime configuration for the kadiya daemon.
type Config struct {
	Port    string
	WorkDir string
	DBPath  string

	// Bearer token for /api/v1/*. Empty disables API auth (local use).
	APIToken string

	TelegramToken  string
	TelegramChatID int64

	// Optional URL for outbound JSON event delivery. Empty disables webhooks.
	WebhookURL string

	// Provider credentials. APIBase may point at any OpenAI-compatible
	// gateway.
	ProviderAPIKey  string
	ProviderAPIBase string

	ProfileName string
	Profile     *Profile
}

// Load reads environment variables, resolves the profile file, and returns a
// Config. Optional fields get sensible defaults.
func Load() *Config {
	workDir := getEnv("KADIYA_WORK_DIR", defaultWorkDir())
	profileName := getEnv("KADIYA_PROFILE", "sl")

	cfg := &Config{
		Port:    getEnv("PORT", "8088"),
		WorkDir: workDir,
		DBPath:  getEnv("KADIYA_DB_PATH", filepath.Join(workDir, "kadiya.db")),

		APIToken: os.Getenv("KADIYA_API_TOKEN"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		WebhookURL: os.Getenv("KADIYA_WEBHOOK_URL"),

		ProviderAPIKey:  os.Getenv("KADIYA_API_KEY"),
		ProviderAPIBase: os.Getenv("KADIYA_API_BASE"),

		ProfileName: profileName,
	}
	cfg.TelegramChatID, _ = strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	cfg.Profile = LoadProfile(profilePath(profileName, workDir))
	return cfg
}

// profilePath returns the first existing candidate path for the named
// profile, or the primary candidate when none exists yet.
func profilePath(profile, workDir string) string {
	candidates := []string{
		filepath.Join("configs", "kadiya-"+profile+".yaml"),
		filepath.Join(workDir, "kadiya-"+profile+".yaml"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".kadiya", "kadiya-"+profile+".yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[0]
}

func defaultWorkDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".kadiya")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ── Profile (YAML) ───────────────────────────────────────────────────────────

// Locale holds regional customization settings.
type Locale struct {
	Timezone        string   `yaml:"timezone"`
	Currency        string   `yaml:"currency"`
	Units           string   `yaml:"units"`
	Languages       []string `yaml:"languages"`
	AllowSinglish   bool     `yaml:"allow_singlish"`
	BilingualOutput bool     `yaml:"bilingual_output"`
}

// Tone holds output tone settings.
type Tone struct {
	Verbosity string `yaml:"verbosity"` // low | medium | high
	Style     string `yaml:"style"`
	Format    string `yaml:"format"` // plain | markdown | whatsapp | telegram
}

// AgentDefaults overrides model defaults for cost optimization.
type AgentDefaults struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// TierSettings configures one routing tier in YAML form.
type TierSettings struct {
	Models          []string `yaml:"models"`
	MaxInputTokens  int      `yaml:"max_input_tokens"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
}

// Routing holds the model routing configuration.
type Routing struct {
	DefaultTier string                  `yaml:"default_tier"`
	Tiers       map[string]TierSettings `yaml:"tiers"`
}

// TokenLimits holds hard token ceilings and per-intent overrides.
type TokenLimits struct {
	MaxInputTokens  int            `yaml:"max_input_tokens"`
	MaxOutputTokens int            `yaml:"max_output_tokens"`
	IntentLimits    map[string]int `yaml:"intent_limits"`
}

// Conversation holds summarization settings.
type Conversation struct {
	SummarizeAfterTurns int    `yaml:"summarize_after_turns"`
	SummarizeModel      string `yaml:"summarize_model"`
	RetainLastMessages  int    `yaml:"retain_last_messages"`
}

// Logging holds logging toggles. Prompts and PII are never logged; the
// toggles only exist so a profile can turn aggregate lines off.
type Logging struct {
	LogTokens  bool `yaml:"log_tokens"`
	LogCost    bool `yaml:"log_cost"`
	LogLatency bool `yaml:"log_latency"`
}

// Optimization holds prompt optimization settings.
type Optimization struct {
	Aggressive bool `yaml:"aggressive"`
}

// Profile is the YAML profile schema (kadiya-<profile>.yaml).
type Profile struct {
	Name         string        `yaml:"name"`
	Locale       Locale        `yaml:"locale"`
	Tone         Tone          `yaml:"tone"`
	Agent        AgentDefaults `yaml:"agent"`
	Routing      Routing       `yaml:"routing"`
	TokenLimits  TokenLimits   `yaml:"token_limits"`
	Conversation Conversation  `yaml:"conversation"`
	Logging      Logging       `yaml:"logging"`
	Optimization Optimization  `yaml:"optimization"`
}

// DefaultProfile returns the built-in profile used when no YAML file exists.
func DefaultProfile() *Profile {
	return &Profile{
		Name: "default",
		Locale: Locale{
			Timezone:      "Asia/Colombo",
			Currency:      "LKR",
			Units:         "metric",
			Languages:     []string{"si", "en"},
			AllowSinglish: true,
		},
		Tone: Tone{Verbosity: "low", Style: "concise", Format: "plain"},
		Agent: AgentDefaults{
			Model:       "deepseek/deepseek-chat",
			MaxTokens:   2048,
			Temperature: 0.3,
		},
		Routing: Routing{DefaultTier: string(router.TierCheapGeneral)},
		TokenLimits: TokenLimits{
			MaxInputTokens:  8000,
			MaxOutputTokens: 2048,
		},
		Conversation: Conversation{
			SummarizeAfterTurns: 10,
			SummarizeModel:      "deepseek/deepseek-chat",
			RetainLastMessages:  2,
		},
		Logging: Logging{LogTokens: true, LogCost: true, LogLatency: true},
	}
}

// LoadProfile reads a profile YAML file, falling back to defaults when the
// file is missing. Fields absent from the file keep their default values.
func LoadProfile(path string) *Profile {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		// A broken profile falls back to defaults rather than blocking startup.
		fmt.Fprintf(os.Stderr, "config: profile %s: %v (using defaults)\n", path, err)
		return DefaultProfile()
	}
	return p
}

// RouterTiers converts the profile's tier settings into router tables.
// Tiers absent from the profile keep their built-in configuration.
func (p *Profile) RouterTiers() map[router.Tier]router.TierConfig {
	tiers := router.DefaultTiers()
	for name, ts := range p.Routing.Tiers {
		tc := tiers[router.Tier(name)]
		if len(ts.Models) > 0 {
			tc.Models = ts.Models
		}
		if ts.MaxInputTokens > 0 {
			tc.MaxInputTokens = ts.MaxInputTokens
		}
		if ts.MaxOutputTokens > 0 {
			tc.MaxOutputTokens = ts.MaxOutputTokens
		}
		tiers[router.Tier(name)] = tc
	}
	return tiers
}

// IntentLimits merges profile intent limits over the built-in table.
func (p *Profile) IntentLimits() map[string]int {
	limits := router.DefaultIntentLimits()
	for intent, limit := range p.TokenLimits.IntentLimits {
		limits[intent] = limit
	}
	return limits
}
