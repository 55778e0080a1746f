package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Fatalf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Stripe.Currency != defaultCurrency {
		t.Fatalf("expected default currency, got %s", cfg.Stripe.Currency)
	}
	if cfg.Sync.Key != defaultSyncKey {
		t.Fatalf("expected default sync key, got %s", cfg.Sync.Key)
	}
	if cfg.SyncEnabled() {
		t.Fatalf("sync must be disabled without topic and subscription")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("STRIPE_CURRENCY", "EUR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("expected 5s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Stripe.Currency != "EUR" {
		t.Fatalf("expected EUR, got %s", cfg.Stripe.Currency)
	}
}

func TestLoadRejectsSyncWithoutProject(t *testing.T) {
	t.Setenv("SYNC_TOPIC", "cart-topic")
	t.Setenv("SYNC_SUBSCRIPTION", "cart-sub")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when sync is enabled without SYNC_PROJECT_ID")
	}

	t.Setenv("SYNC_PROJECT_ID", "demo-project")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.SyncEnabled() {
		t.Fatalf("expected sync enabled")
	}
}

func TestDurationOrDefaultIgnoresInvalid(t *testing.T) {
	t.Setenv("SERVER_WRITE_TIMEOUT", "not-a-duration")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("invalid duration must fall back to default, got %v", cfg.Server.WriteTimeout)
	}
}
