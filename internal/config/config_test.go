package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("SLOT_LOCK_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()

	if cfg.StorageDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StorageDriver)
	}
	if cfg.SlotLockTTL != 5*time.Second {
		t.Fatalf("expected fallback ttl, got %v", cfg.SlotLockTTL)
	}
	if cfg.SlotLockAttempts != 3 {
		t.Fatalf("expected 3 lock attempts, got %d", cfg.SlotLockAttempts)
	}
	if !cfg.AllowDirectCompletion {
		t.Fatalf("direct completion should default to true")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}
