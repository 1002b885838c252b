package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the courtside server.
type Config struct {
	DataDir             string
	BindAddress         string
	Port                int
	PublicMetrics       bool
	AdminKey            string
	LogLevel            string
	LogFormat           string
	StripeAPIKey        string
	StripeWebhookSecret string
	ModelPicksFile      string // optional JSON seed file for model picks
	SessionTTLHours     int
}

// StoreDir returns the directory where the main database lives.
func (c *Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}

// SessionsDir returns the directory for the session token database.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// Load reads server configuration from environment variables. A .env file is
// loaded if present but not required.
func Load() (*Config, error) {
	// Best-effort .env loading (not required)
	_ = godotenv.Load()

	port, err := envOrDefaultInt("COURTSIDE_PORT", 8080)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := envOrDefaultInt("COURTSIDE_SESSION_TTL_HOURS", 24*7)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:             envOrDefault("COURTSIDE_DATA_DIR", "/var/lib/courtside"),
		BindAddress:         envOrDefault("COURTSIDE_BIND_ADDRESS", "0.0.0.0"),
		Port:                port,
		PublicMetrics:       envBool("COURTSIDE_PUBLIC_METRICS"),
		AdminKey:            strings.TrimSpace(os.Getenv("COURTSIDE_ADMIN_KEY")),
		LogLevel:            envOrDefault("COURTSIDE_LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("COURTSIDE_LOG_FORMAT", "auto"),
		StripeAPIKey:        strings.TrimSpace(os.Getenv("STRIPE_API_KEY")),
		StripeWebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		ModelPicksFile:      strings.TrimSpace(os.Getenv("COURTSIDE_MODEL_PICKS_FILE")),
		SessionTTLHours:     sessionTTL,
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.StripeAPIKey == "" {
		missing = append(missing, "STRIPE_API_KEY")
	}
	if c.StripeWebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("COURTSIDE_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("COURTSIDE_SESSION_TTL_HOURS must be at least 1, got %d", c.SessionTTLHours)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
		}
		return n, nil
	}
	return fallback, nil
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
