package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the environment-driven settings for the dashboard server.
type Config struct {
	Port         string
	DatabasePath string

	// CacheTTL is the default lifetime of cached Zoho responses.
	CacheTTL time.Duration
	// CacheSweepInterval is how often the cache reclaims expired entries.
	CacheSweepInterval time.Duration

	Zoho ZohoConfig
}

// ZohoConfig carries the Zoho Books OAuth credentials and endpoints.
type ZohoConfig struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	OrganizationID string
	APIBaseURL     string
	AccountsURL    string
}

// Load reads the configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8008"),
		DatabasePath:       getEnv("DATABASE_PATH", "billing-dashboard.db"),
		CacheTTL:           getDurationEnv("CACHE_TTL", 10*time.Minute),
		CacheSweepInterval: getDurationEnv("CACHE_SWEEP_INTERVAL", time.Minute),
		Zoho: ZohoConfig{
			ClientID:       getEnv("ZOHO_CLIENT_ID", ""),
			ClientSecret:   getEnv("ZOHO_CLIENT_SECRET", ""),
			RefreshToken:   getEnv("ZOHO_REFRESH_TOKEN", ""),
			OrganizationID: getEnv("ZOHO_ORGANIZATION_ID", ""),
			APIBaseURL:     getEnv("ZOHO_API_BASE_URL", ""),
			AccountsURL:    getEnv("ZOHO_ACCOUNTS_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDurationEnv parses values like "10m" or "90s". A bare number is taken as
// seconds, for compatibility with deployments that configured plain integers.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
