package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/solux-card/solux_card/internal/provider"
)

const (
	defaultAppName         = "Solux"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultProviderTimeout = 10 * time.Second
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	providerTimeoutEnvVar  = "PROVIDER_TIMEOUT"
	providerDelayEnvVar    = "PROVIDER_FALLBACK_DELAY"
	defaultSubmitsPerMin   = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	SeedFile       string
	SubmitsPerMin  int
	Provider       ProviderConfig
}

// ProviderConfig configures the card issuer gateway.
type ProviderConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	FallbackDelay time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
// Postgres and Redis are optional in development environments.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		SeedFile:       os.Getenv("SEED_FILE"),
		SubmitsPerMin:  defaultSubmitsPerMin,
		Provider: ProviderConfig{
			BaseURL:       getEnv("PROVIDER_BASE_URL", provider.SandboxURL),
			APIKey:        os.Getenv("PROVIDER_API_KEY"),
			Timeout:       defaultProviderTimeout,
			FallbackDelay: provider.DefaultFallbackDelay,
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("ENROLLMENT_SUBMITS_PER_MINUTE"); v != "" {
		if cfg.SubmitsPerMin, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid ENROLLMENT_SUBMITS_PER_MINUTE: %w", err)
		}
	}
	if cfg.Provider.Timeout, err = durationFromEnv("", providerTimeoutEnvVar, cfg.Provider.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.Provider.FallbackDelay, err = durationFromEnv("", providerDelayEnvVar, cfg.Provider.FallbackDelay); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the service runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// durationFromEnv prefers an integer seconds variable, then a Go duration
// string, then fallback.
func durationFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if secondsVar != "" {
		if v := os.Getenv(secondsVar); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
