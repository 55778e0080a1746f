// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultCurrency     = "USD"
	defaultSyncKey      = "storefront.cart"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Stripe  StripeConfig
	Sync    SyncConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CatalogConfig selects the catalog source. When ProjectID is empty the
// binary falls back to its embedded static catalog.
type CatalogConfig struct {
	ProjectID  string
	Collection string
}

// StripeConfig holds the payment provider settings.
type StripeConfig struct {
	APIKey   string
	Currency string
}

// SyncConfig configures the optional Pub/Sub cart synchronization. Sync is
// enabled only when both Topic and Subscription are set.
type SyncConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
	Key          string
}

// Load reads the optional .env file and then the process environment.
func Load() (Config, error) {
	if err := loadEnvFile(defaultEnvFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         envOrDefault("PORT", defaultPort),
			ReadTimeout:  durationOrDefault("SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationOrDefault("SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationOrDefault("SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Catalog: CatalogConfig{
			ProjectID:  strings.TrimSpace(os.Getenv("CATALOG_PROJECT_ID")),
			Collection: envOrDefault("CATALOG_COLLECTION", "products"),
		},
		Stripe: StripeConfig{
			APIKey:   strings.TrimSpace(os.Getenv("STRIPE_API_KEY")),
			Currency: envOrDefault("STRIPE_CURRENCY", defaultCurrency),
		},
		Sync: SyncConfig{
			ProjectID:    strings.TrimSpace(os.Getenv("SYNC_PROJECT_ID")),
			Topic:        strings.TrimSpace(os.Getenv("SYNC_TOPIC")),
			Subscription: strings.TrimSpace(os.Getenv("SYNC_SUBSCRIPTION")),
			Key:          envOrDefault("SYNC_KEY", defaultSyncKey),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SyncEnabled reports whether cross-context cart sync should start.
func (c Config) SyncEnabled() bool {
	return c.Sync.Topic != "" && c.Sync.Subscription != ""
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("config: server port must not be empty")
	}
	if c.SyncEnabled() && c.Sync.ProjectID == "" {
		return errors.New("config: SYNC_PROJECT_ID is required when sync topic is set")
	}
	if c.Catalog.ProjectID != "" && strings.TrimSpace(c.Catalog.Collection) == "" {
		return errors.New("config: CATALOG_COLLECTION must not be empty")
	}
	return nil
}

// loadEnvFile applies KEY=VALUE pairs from the file without overriding
// variables already present in the environment. A missing file is fine.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("config: set %s: %w", key, err)
		}
	}
	return scanner.Err()
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
