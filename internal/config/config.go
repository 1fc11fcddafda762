package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is loaded once at startup and passed by value or pointer into the
// components that need it.  Nothing reads the environment after Load.
type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	APIKey         string        `mapstructure:"OPENROUTER_API_KEY"`
	BaseURL        string        `mapstructure:"OPENROUTER_BASE_URL"`
	Model          string        `mapstructure:"OPENROUTER_MODEL"`
	Temperature    float32       `mapstructure:"OPENROUTER_TEMPERATURE"`
	Timeout        time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	PromptProfile  string        `mapstructure:"PROMPT_PROFILE"`
	CORSOrigins    []string      `mapstructure:"-"`
	FeedbackAPIKey string        `mapstructure:"FEEDBACK_API_KEY"`
	OTLPEndpoint   string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from the environment, falling back to a .env
// file in the working directory when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct:free")
	v.SetDefault("OPENROUTER_TEMPERATURE", 0.7)
	v.SetDefault("UPSTREAM_TIMEOUT", "30s")
	v.SetDefault("PROMPT_PROFILE", "detailed")
	v.SetDefault("CORS_ORIGINS", "*")

	// Unmarshal only sees keys viper knows about, so bind the ones
	// without defaults explicitly.
	v.BindEnv("OPENROUTER_API_KEY")
	v.BindEnv("FEEDBACK_API_KEY")
	v.BindEnv("OTEL_EXPORTER_OTLP_ENDPOINT")

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.PromptProfile = strings.ToLower(strings.TrimSpace(cfg.PromptProfile))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.  A missing API key
// is allowed here: the server still starts and every diagnosis request
// fails with a configuration error until the key is provided.
func (c *Config) Validate() error {
	switch c.PromptProfile {
	case "detailed", "concise":
	default:
		return fmt.Errorf("PROMPT_PROFILE must be \"detailed\" or \"concise\", got %q", c.PromptProfile)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("OPENROUTER_TEMPERATURE must be between 0 and 2, got %v", c.Temperature)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("OPENROUTER_BASE_URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("OPENROUTER_MODEL is required")
	}
	return nil
}

// IsDev reports whether the server runs in development mode, which
// switches logging to the console writer.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasAPIKey reports whether the upstream credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
