package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.SessionTTLHours != 168 {
		t.Errorf("SessionTTLHours = %d, want 168", cfg.SessionTTLHours)
	}
	if cfg.PublicMetrics {
		t.Error("PublicMetrics should default to false")
	}
	if !strings.HasSuffix(cfg.StoreDir(), "store") {
		t.Errorf("StoreDir = %q", cfg.StoreDir())
	}
	if !strings.HasSuffix(cfg.SessionsDir(), "sessions") {
		t.Errorf("SessionsDir = %q", cfg.SessionsDir())
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("STRIPE_API_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing Stripe credentials")
	}
	if !strings.Contains(err.Error(), "STRIPE_API_KEY") || !strings.Contains(err.Error(), "STRIPE_WEBHOOK_SECRET") {
		t.Errorf("error should name every missing variable, got: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COURTSIDE_PORT", "9090")
	t.Setenv("COURTSIDE_PUBLIC_METRICS", "true")
	t.Setenv("COURTSIDE_DATA_DIR", "/tmp/courtside-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if !cfg.PublicMetrics {
		t.Error("PublicMetrics should be true")
	}
	if cfg.DataDir != "/tmp/courtside-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("COURTSIDE_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric port")
	}

	t.Setenv("COURTSIDE_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	t.Setenv("COURTSIDE_PORT", "8080")
	t.Setenv("COURTSIDE_SESSION_TTL_HOURS", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero session TTL")
	}
}
