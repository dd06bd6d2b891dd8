package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nspsplit/nspsplit/internal/progress"
	"github.com/nspsplit/nspsplit/pkg/parts"
)

// Config defines configuration for the nspsplit CLI.
type Config struct {
	PartSize   int64       `yaml:"part_size"`
	BufferSize int64       `yaml:"buffer_size"`
	Extension  string      `yaml:"extension"` // Combined file extension; empty uses the source extension
	Extensions []string    `yaml:"extensions"`
	Manifest   bool        `yaml:"manifest"`
	Verify     bool        `yaml:"verify"`
	Progress   bool        `yaml:"progress"`
	Bucket     string      `yaml:"bucket"`
	Watch      WatchConfig `yaml:"watch"`
}

// WatchConfig defines drop-folder watcher behavior.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Output   string        `yaml:"output"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		PartSize:   parts.DefaultPartSize,
		BufferSize: parts.DefaultBufferSize,
		Extensions: append([]string(nil), parts.ArchiveExtensions...),
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	PartSize   string          `yaml:"part_size"`
	BufferSize string          `yaml:"buffer_size"`
	Extension  string          `yaml:"extension"`
	Extensions []string        `yaml:"extensions"`
	Manifest   bool            `yaml:"manifest"`
	Verify     bool            `yaml:"verify"`
	Progress   bool            `yaml:"progress"`
	Bucket     string          `yaml:"bucket"`
	Watch      yamlWatchConfig `yaml:"watch"`
}

type yamlWatchConfig struct {
	Debounce string `yaml:"debounce"`
	Output   string `yaml:"output"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.PartSize != "" {
		size, err := progress.ParseBytes(yc.PartSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse part_size: %w", err)
		}
		cfg.PartSize = size
	}
	if yc.BufferSize != "" {
		size, err := progress.ParseBytes(yc.BufferSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse buffer_size: %w", err)
		}
		cfg.BufferSize = size
	}
	if yc.Extension != "" {
		cfg.Extension = yc.Extension
	}
	if len(yc.Extensions) > 0 {
		cfg.Extensions = yc.Extensions
	}
	cfg.Manifest = yc.Manifest
	cfg.Verify = yc.Verify
	cfg.Progress = yc.Progress
	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.Watch.Debounce != "" {
		d, err := time.ParseDuration(yc.Watch.Debounce)
		if err != nil {
			return Config{}, fmt.Errorf("parse watch.debounce: %w", err)
		}
		cfg.Watch.Debounce = d
	}
	if yc.Watch.Output != "" {
		cfg.Watch.Output = yc.Watch.Output
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the NSPSPLIT_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("NSPSPLIT_PART_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse NSPSPLIT_PART_SIZE: %w", err)
		}
		c.PartSize = size
	}
	if v := os.Getenv("NSPSPLIT_BUFFER_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse NSPSPLIT_BUFFER_SIZE: %w", err)
		}
		c.BufferSize = size
	}
	if v := os.Getenv("NSPSPLIT_EXTENSION"); v != "" {
		c.Extension = v
	}
	if v := os.Getenv("NSPSPLIT_EXTENSIONS"); v != "" {
		c.Extensions = splitList(v)
	}
	if v := os.Getenv("NSPSPLIT_MANIFEST"); v != "" {
		c.Manifest = v == "true" || v == "1"
	}
	if v := os.Getenv("NSPSPLIT_VERIFY"); v != "" {
		c.Verify = v == "true" || v == "1"
	}
	if v := os.Getenv("NSPSPLIT_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("NSPSPLIT_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("NSPSPLIT_WATCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse NSPSPLIT_WATCH_DEBOUNCE: %w", err)
		}
		c.Watch.Debounce = d
	}
	if v := os.Getenv("NSPSPLIT_WATCH_OUTPUT"); v != "" {
		c.Watch.Output = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.PartSize <= 0 {
		return errors.New("config: part_size must be positive")
	}
	if c.BufferSize <= 0 {
		return errors.New("config: buffer_size must be positive")
	}
	if c.BufferSize > int64(int(^uint(0)>>1)) {
		return errors.New("config: buffer_size too large")
	}
	if len(c.Extensions) == 0 {
		return errors.New("config: at least one archive extension is required")
	}
	if c.Watch.Debounce < 0 {
		return errors.New("config: watch.debounce must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.PartSize != 0 {
		c.PartSize = override.PartSize
	}
	if override.BufferSize != 0 {
		c.BufferSize = override.BufferSize
	}
	if override.Extension != "" {
		c.Extension = override.Extension
	}
	if len(override.Extensions) > 0 {
		c.Extensions = override.Extensions
	}
	if override.Manifest {
		c.Manifest = override.Manifest
	}
	if override.Verify {
		c.Verify = override.Verify
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.Watch.Debounce != 0 {
		c.Watch.Debounce = override.Watch.Debounce
	}
	if override.Watch.Output != "" {
		c.Watch.Output = override.Watch.Output
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
