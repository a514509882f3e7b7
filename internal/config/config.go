package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string

	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	Persona         string
	ProviderTimeout time.Duration
	MaxTokens       int

	SessionBackend string
	DatabaseURL    string
	BoltPath       string
	SessionSecret  string
	CookieMaxAge   time.Duration
	CookieSecure   bool
	ReseedUnknown  bool

	CORSOrigins []string

	NatsURL   string
	NatsToken string
}

// providerKeyEnv names the API key variable for each provider.
var providerKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load reads configuration from the environment. Variables from an .env file
// (ENV_FILE, default ".env") are applied first without overriding the process env.
func Load() Config {
	if err := godotenv.Load(envStr("ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read env file: %v\n", err)
	}

	provider := strings.ToLower(envStr("LLM_PROVIDER", "groq"))
	apiKey := envStr("LLM_API_KEY", "")
	if apiKey == "" {
		if key, ok := providerKeyEnv[provider]; ok {
			apiKey = envStr(key, "")
		}
	}

	return Config{
		Port:     envInt("SOLACE_PORT", 5000),
		LogLevel: envStr("LOG_LEVEL", "info"),

		Provider:        provider,
		APIKey:          apiKey,
		Model:           envStr("LLM_MODEL", ""),
		BaseURL:         envStr("LLM_BASE_URL", ""),
		Persona:         envStr("CHAT_PERSONA", ""),
		ProviderTimeout: envDuration("PROVIDER_TIMEOUT", 120*time.Second),
		MaxTokens:       envInt("LLM_MAX_TOKENS", 1024),

		SessionBackend: envStr("SESSION_BACKEND", "memory"),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		BoltPath:       envStr("SESSION_BOLT_PATH", "data/sessions.bolt"),
		SessionSecret:  envStr("SESSION_SECRET", ""),
		CookieMaxAge:   envDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		CookieSecure:   envBool("SESSION_COOKIE_SECURE", false),
		ReseedUnknown:  envBool("SESSION_RESEED_UNKNOWN", false),

		CORSOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),
	}
}

// KeyEnv returns the environment variable holding the selected provider's key.
func (c Config) KeyEnv() string {
	if key, ok := providerKeyEnv[c.Provider]; ok {
		return key
	}
	return "LLM_API_KEY"
}

// Validate reports configuration the process must not start with.
func (c Config) Validate() error {
	if _, ok := providerKeyEnv[c.Provider]; !ok {
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s environment variable is not set", c.KeyEnv())
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
