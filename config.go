package storm

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by clients and schema loaders.
type Config struct {
	// DefaultSchema is used for tables declared without a schema.
	DefaultSchema string `yaml:"default_schema"`
	// Debug logs every statement sent to the database.
	Debug bool `yaml:"debug"`
	// SlowThreshold is the duration above which statements are logged as slow.
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	// StatementCache configures caching of compiled statement text.
	StatementCache StatementCacheConfig `yaml:"statement_cache"`
}

// StatementCacheConfig configures the compiled statement cache.
type StatementCacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		DefaultSchema: "dbo",
		SlowThreshold: 100 * time.Millisecond,
		StatementCache: StatementCacheConfig{
			Enabled: true,
		},
	}
}

// LoadConfig decodes a YAML configuration on top of DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("storm: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads the configuration from a YAML file.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("storm: open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate reports configuration values that cannot be used.
func (c Config) Validate() error {
	if c.DefaultSchema == "" {
		return fmt.Errorf("storm: default_schema must not be empty")
	}
	if c.SlowThreshold < 0 {
		return fmt.Errorf("storm: slow_threshold must not be negative")
	}
	if c.StatementCache.TTL < 0 {
		return fmt.Errorf("storm: statement_cache.ttl must not be negative")
	}
	return nil
}
