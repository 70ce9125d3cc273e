package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_MODEL", "")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("EXPIRY_SWEEP_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.DefaultModel != "google/gemini-2.5-flash" {
		t.Fatalf("DefaultModel mismatch: got %q", cfg.DefaultModel)
	}
	if cfg.UpstreamTimeout != 60*time.Second {
		t.Fatalf("UpstreamTimeout mismatch: got %s", cfg.UpstreamTimeout)
	}
	if cfg.OpenRouterReferer != "simple-test" || cfg.OpenRouterTitle != "simple-agent" {
		t.Fatalf("OpenRouter headers mismatch: %q %q", cfg.OpenRouterReferer, cfg.OpenRouterTitle)
	}
	if cfg.ExpirySweepEvery != 5*time.Minute {
		t.Fatalf("ExpirySweepEvery mismatch: got %s", cfg.ExpirySweepEvery)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error without DATABASE_URL")
	}
}

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("SESSION_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error without SESSION_SECRET")
	}
}

func TestLoadConfigProviderKeysAndOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("OPENROUTER_API_KEY", " or-key ")
	t.Setenv("DMXAPI_API_KEY", "dmx-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,http://localhost:5173 ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ProviderKeys["openrouter"] != "or-key" {
		t.Fatalf("openrouter key = %q", cfg.ProviderKeys["openrouter"])
	}
	if cfg.ProviderKeys["dmxapi"] != "dmx-key" {
		t.Fatalf("dmxapi key = %q", cfg.ProviderKeys["dmxapi"])
	}
	expected := []string{"https://app.example.com", "http://localhost:5173"}
	if len(cfg.CORSAllowedOrigins) != len(expected) {
		t.Fatalf("CORSAllowedOrigins mismatch: got %#v want %#v", cfg.CORSAllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}
