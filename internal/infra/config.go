package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int32
	SessionSecret      string
	SessionIssuer      string
	DefaultModel       string
	CatalogPath        string
	ProviderKeys       map[string]string
	OpenRouterReferer  string
	OpenRouterTitle    string
	UpstreamTimeout    time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	GeoIPDBPath        string
	ExpirySweepEvery   time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionIssuer: getEnv("SESSION_ISSUER", "llm-meter"),
		DefaultModel:  getEnv("DEFAULT_MODEL", "google/gemini-2.5-flash"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
		ProviderKeys: map[string]string{
			"openrouter": strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			"dmxapi":     strings.TrimSpace(os.Getenv("DMXAPI_API_KEY")),
			"custom":     strings.TrimSpace(os.Getenv("CUSTOM_API_KEY")),
		},
		OpenRouterReferer:  getEnv("OPENROUTER_REFERER", "simple-test"),
		OpenRouterTitle:    getEnv("OPENROUTER_TITLE", "simple-agent"),
		UpstreamTimeout:    time.Second * time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 60)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		ExpirySweepEvery:   time.Second * time.Duration(getEnvInt("EXPIRY_SWEEP_SECONDS", 300)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
