package config

import (
	"fmt"
	"time"
)

// Config represents a handseal.yaml configuration file.
// All values are optional and act as defaults for handseal flags.
// CLI flags always override config values.
type Config struct {
	Identity  string          `yaml:"identity"`
	Authority AuthorityConfig `yaml:"authority"`
	Storage   StorageConfig   `yaml:"storage"`
	Adapter   AdapterConfig   `yaml:"adapter"`
	Replay    ReplayConfig    `yaml:"replay"`
	// HashAlgorithm selects the integrity hash ("sha256" or "fnv32").
	HashAlgorithm string `yaml:"hash_algorithm"`
}

// AuthorityConfig points at the remote authority.
type AuthorityConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty"`
}

// StorageConfig selects the outbox persistence backend.
type StorageConfig struct {
	// Backend is one of: memory, file, redis, s3. Empty means memory.
	Backend string `yaml:"backend"`
	// Path is the directory for the file backend.
	Path string `yaml:"path"`
	// URL is the connection URL for the redis backend.
	URL string `yaml:"url"`
	// Bucket/Prefix/Region/Endpoint configure the s3 backend.
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds downstream notification defaults.
type AdapterConfig struct {
	// Type is one of: webhook, redis. Empty disables notifications.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// ReplayConfig tunes the outbox drain loop.
type ReplayConfig struct {
	Interval Duration `yaml:"interval,omitempty"`
	Batch    int      `yaml:"batch,omitempty"`
	Capacity int      `yaml:"capacity,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks enum-valued fields. Zero values pass: every field has a
// usable default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "memory", "file", "redis", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q (want memory, file, redis, or s3)", c.Storage.Backend)
	}

	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unknown adapter type %q (want webhook or redis)", c.Adapter.Type)
	}

	switch c.HashAlgorithm {
	case "", "sha256", "fnv32":
	default:
		return fmt.Errorf("unknown hash algorithm %q (want sha256 or fnv32)", c.HashAlgorithm)
	}

	if c.Replay.Batch < 0 {
		return fmt.Errorf("replay batch must be >= 0, got %d", c.Replay.Batch)
	}
	if c.Replay.Capacity < 0 {
		return fmt.Errorf("replay capacity must be >= 0, got %d", c.Replay.Capacity)
	}
	return nil
}
