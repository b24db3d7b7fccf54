// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides redis connection settings for the session store.
type RedisConfig interface {
	GetRedisURL() string
}

// SessionConfig provides settings for the session context store.
type SessionConfig interface {
	RedisConfig
	GetSessionTTL() time.Duration
	GetStoreTimeout() time.Duration
}

// ClassifierConfig provides settings for the language classifier.
type ClassifierConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetClassifierTimeout() time.Duration
	IsClassifierEnabled() bool
}

// SearchConfig provides tunables for the search and fallback engine.
type SearchConfig interface {
	GetRadiusKM() float64
	GetCatalogTimeout() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	RedisURL          string
	SessionTTL        time.Duration
	StoreTimeout      time.Duration
	GeminiAPIKey      string
	GeminiModel       string
	ClassifierTimeout time.Duration
	CatalogTimeout    time.Duration
	RadiusKM          float64
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SessionConfig implementation
func (c *Config) GetRedisURL() string            { return c.RedisURL }
func (c *Config) GetSessionTTL() time.Duration   { return c.SessionTTL }
func (c *Config) GetStoreTimeout() time.Duration { return c.StoreTimeout }

// ClassifierConfig implementation
func (c *Config) GetGeminiAPIKey() string             { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string              { return c.GeminiModel }
func (c *Config) GetClassifierTimeout() time.Duration { return c.ClassifierTimeout }
func (c *Config) IsClassifierEnabled() bool           { return c.GeminiAPIKey != "" }

// SearchConfig implementation
func (c *Config) GetRadiusKM() float64             { return c.RadiusKM }
func (c *Config) GetCatalogTimeout() time.Duration { return c.CatalogTimeout }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		SessionTTL:        mustDuration(getEnv("SESSION_TTL", "90m")),
		StoreTimeout:      mustDuration(getEnv("SESSION_STORE_TIMEOUT", "3s")),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ClassifierTimeout: mustDuration(getEnv("CLASSIFIER_TIMEOUT", "10s")),
		CatalogTimeout:    mustDuration(getEnv("CATALOG_TIMEOUT", "5s")),
		RadiusKM:          mustFloat(getEnv("RADIUS_KM", "10")),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if cfg.RadiusKM <= 0 {
		return nil, fmt.Errorf("RADIUS_KM must be positive")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
