package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// ProviderConfig holds credentials for one provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Config selects and configures a provider.
type Config struct {
	Provider string

	Anthropic  ProviderConfig
	OpenAI     ProviderConfig
	Gemini     ProviderConfig
	OpenRouter ProviderConfig

	Retry RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig has every model set and no credentials.
func DefaultConfig() Config {
	return Config{
		Anthropic:  ProviderConfig{Model: "claude-haiku"},
		OpenAI:     ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:     ProviderConfig{Model: "gemini-flash"},
		OpenRouter: ProviderConfig{Model: "openai/gpt-4o-mini", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// providerEnv lists providers in discovery order with the vendor's own
// API key variable.
var providerEnv = []struct {
	name   string
	prefix string
	stdKey string
}{
	{ProviderOpenAI, "MATHDRILL_OPENAI", "OPENAI_API_KEY"},
	{ProviderGemini, "MATHDRILL_GEMINI", "GEMINI_API_KEY"},
	{ProviderAnthropic, "MATHDRILL_ANTHROPIC", "ANTHROPIC_API_KEY"},
	{ProviderOpenRouter, "MATHDRILL_OPENROUTER", "OPENROUTER_API_KEY"},
}

func (c *Config) slot(name string) *ProviderConfig {
	switch name {
	case ProviderAnthropic:
		return &c.Anthropic
	case ProviderOpenAI:
		return &c.OpenAI
	case ProviderGemini:
		return &c.Gemini
	case ProviderOpenRouter:
		return &c.OpenRouter
	}
	return nil
}

// FromEnv reads MATHDRILL_* variables, falling back to the vendors'
// standard API key variables. When MATHDRILL_LLM_PROVIDER is unset the
// first provider with a key wins. It returns ErrNotConfigured when no
// provider has a key.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := DefaultConfig()

	for _, p := range providerEnv {
		slot := cfg.slot(p.name)
		slot.APIKey = firstNonEmpty(getenv(p.prefix+"_API_KEY"), getenv(p.stdKey))
		if m := getenv(p.prefix + "_MODEL"); m != "" {
			slot.Model = m
		}
		if u := getenv(p.prefix + "_BASE_URL"); u != "" {
			slot.BaseURL = u
		}
	}
	if d := getenv("MATHDRILL_LLM_TIMEOUT"); d != "" {
		t, err := time.ParseDuration(d)
		if err != nil {
			return Config{}, fmt.Errorf("MATHDRILL_LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = t
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(getenv("MATHDRILL_LLM_PROVIDER")))
	if cfg.Provider == "" {
		for _, p := range providerEnv {
			if cfg.slot(p.name).APIKey != "" {
				cfg.Provider = p.name
				break
			}
		}
	}
	if cfg.Provider == "" {
		return cfg, ErrNotConfigured
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected provider can be constructed.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	slot := c.slot(c.Provider)
	if slot == nil {
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if slot.APIKey == "" {
		return fmt.Errorf("MATHDRILL_%s_API_KEY is required for the %s provider",
			strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}

// Active returns the settings of the selected provider.
func (c Config) Active() ProviderConfig {
	if slot := c.slot(c.Provider); slot != nil {
		return *slot
	}
	return ProviderConfig{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveModel maps a short alias to a model ID. Unknown names pass
// through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
