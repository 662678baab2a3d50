package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dabdns-bridge.yaml")
	doc := `
redis_address: "redis:6379"
bridge_server_address: "bridge.local"
port: "9000"
mux_config: "/etc/odr/dabmux.info"
resolver_timeout: "2s"
lookup_parallelism: 8
cache_ttl: "10m"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.Port != "9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ResolverTimeout.Std() != 2*time.Second {
		t.Errorf("resolver timeout = %v, want 2s", cfg.ResolverTimeout.Std())
	}
	if cfg.CacheTTL.Std() != 10*time.Minute {
		t.Errorf("cache ttl = %v, want 10m", cfg.CacheTTL.Std())
	}
	// Unset knob gets its default.
	if cfg.SnapshotTTL.Std() != 30*time.Second {
		t.Errorf("snapshot ttl = %v, want default 30s", cfg.SnapshotTTL.Std())
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("resolver_timeout: \"soon\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a bad duration")
	}
}
