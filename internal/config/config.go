// Package config loads the server configuration file and carries build
// metadata.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the dabdns-bridge.yaml shape.
type Config struct {
	RedisAddr        string `yaml:"redis_address"`
	BridgeServerAddr string `yaml:"bridge_server_address"`
	Port             string `yaml:"port"`
	MuxConfig        string `yaml:"mux_config"`

	ResolverTimeout   Duration `yaml:"resolver_timeout"`
	LookupParallelism int      `yaml:"lookup_parallelism"`
	CacheTTL          Duration `yaml:"cache_ttl"`
	SnapshotTTL       Duration `yaml:"snapshot_ttl"`
}

// Load reads and decodes path, applying defaults for unset knobs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Port == "" {
		c.Port = "8290"
	}
	if c.ResolverTimeout <= 0 {
		c.ResolverTimeout = Duration(5 * time.Second)
	}
	if c.LookupParallelism <= 0 {
		c.LookupParallelism = 4
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = Duration(15 * time.Minute)
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = Duration(30 * time.Second)
	}
}
