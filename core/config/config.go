package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Port    string
	OTel    OTelConfig
	GitHub  GitHubConfig
	Backend BackendConfig
	Cleanup CleanupConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type GitHubConfig struct {
	Token         string
	WebhookSecret string
	BaseURL       string
	BotLogin      string
}

type BackendConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type CleanupConfig struct {
	RedisURL       string
	Channel        string
	Group          string
	Consumer       string
	Concurrency    int
	MaxAttempts    int
	BackoffBase    time.Duration
	PromoteEvery   time.Duration
	ReclaimMinIdle time.Duration
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the webhook server
//   - .env.worker for the cleanup worker
//
// Falls back to .env if the service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("REPOSIGNAL_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("REPOSIGNAL_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "reposignal"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		GitHub: GitHubConfig{
			Token:         getEnv("GITHUB_TOKEN", ""),
			WebhookSecret: getEnv("GITHUB_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("GITHUB_BASE_URL", ""),
			BotLogin:      getEnv("BOT_LOGIN", "reposignal[bot]"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:4000"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Cleanup: CleanupConfig{
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Channel:        getEnv("CLEANUP_CHANNEL", "reposignal-cleanup"),
			Group:          getEnv("CLEANUP_CONSUMER_GROUP", "reposignal-cleanup-workers"),
			Consumer:       getEnv("CLEANUP_CONSUMER_NAME", "worker"),
			Concurrency:    getEnvInt("CLEANUP_CONCURRENCY", 5),
			MaxAttempts:    getEnvInt("CLEANUP_MAX_ATTEMPTS", 3),
			BackoffBase:    getEnvDuration("CLEANUP_BACKOFF_BASE", 5*time.Second),
			PromoteEvery:   getEnvDuration("CLEANUP_PROMOTE_INTERVAL", time.Second),
			ReclaimMinIdle: getEnvDuration("CLEANUP_RECLAIM_MIN_IDLE", 5*time.Minute),
		},
	}

	if cfg.GitHub.Token == "" {
		return Config{}, fmt.Errorf("GITHUB_TOKEN is required")
	}
	if cfg.Backend.Token == "" {
		return Config{}, fmt.Errorf("BACKEND_TOKEN is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
