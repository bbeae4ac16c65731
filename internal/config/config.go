// Package config loads the gateway's two configuration surfaces: the
// provider-routing YAML file and the environment-derived infrastructure
// settings (Redis, Postgres, Qdrant, server bind address, rate limit and
// cache tuning).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig names one upstream provider and the models it serves.
// The API key itself is never stored inline — only the name of the
// environment variable holding it, resolved lazily so that a missing
// credential surfaces as a request-time 400, not a startup crash.
type ProviderConfig struct {
	Name      string   `yaml:"name"`
	APIKeyEnv string   `yaml:"api_key_env"`
	Models    []string `yaml:"models"`
}

// APIKey resolves the configured environment variable. An empty value
// is treated the same as "unset" — callers must reject it the same way.
func (p ProviderConfig) APIKey() (string, bool) {
	v := os.Getenv(p.APIKeyEnv)
	if v == "" {
		return "", false
	}
	return v, true
}

// ServesModel reports whether this provider is configured to serve model.
func (p ProviderConfig) ServesModel(model string) bool {
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// ProvidersConfig is the root of the provider-routing YAML file. Order
// is significant: Resolve scans Providers in file order and the first
// model match wins.
type ProvidersConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// LoadProviders reads and parses the provider-routing YAML file at path.
// A missing file is a fatal startup error, not a recoverable one.
func LoadProviders(path string) (*ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider config %q: %w", path, err)
	}
	var cfg ProvidersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing provider config %q: %w", path, err)
	}
	return &cfg, nil
}

// Infra holds every infrastructure setting sourced from the environment.
type Infra struct {
	BindAddr string

	RedisHost string
	RedisPort string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	QdrantHost string
	QdrantPort string

	ExactCacheTTL           time.Duration
	SemanticSimilarityThreshold float64
	RateLimitPerMinute      int
	UpstreamTimeout         time.Duration

	LogLevel string
}

// LoadInfra loads a .env file if present (silently ignored if absent),
// then reads every infrastructure setting from the environment, applying
// the defaults named in the gateway's external-interface contract.
func LoadInfra() *Infra {
	_ = godotenv.Load()

	return &Infra{
		BindAddr: getEnv("GATEWAY_BIND_ADDR", ":8080"),

		RedisHost: getEnv("REDIS_HOST", "redis"),
		RedisPort: getEnv("REDIS_PORT", "6379"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "gateway"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "gateway"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		QdrantHost: getEnv("QDRANT_HOST", "localhost"),
		QdrantPort: getEnv("QDRANT_PORT", "6334"),

		ExactCacheTTL:               getDurationSecondsEnv("EXACT_CACHE_TTL_SECONDS", 3600),
		SemanticSimilarityThreshold: getFloatEnv("SEMANTIC_SIMILARITY_THRESHOLD", 0.95),
		RateLimitPerMinute:          getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 10),
		UpstreamTimeout:             getDurationSecondsEnv("UPSTREAM_TIMEOUT_SECONDS", 30),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDurationSecondsEnv(key string, defSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, defSeconds)) * time.Second
}
