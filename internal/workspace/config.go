package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fbkclanna/cargo-mono/internal/registry"
)

// ConfigFileName is the optional per-repository configuration file.
const ConfigFileName = ".cargo-mono.yaml"

// Config is the content of .cargo-mono.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Registry RegistryConfig `yaml:"registry"`
	Publish  PublishConfig  `yaml:"publish"`
	Bump     BumpConfig     `yaml:"bump"`
}

// RegistryConfig selects the index used to look up published versions.
type RegistryConfig struct {
	Index   string `yaml:"index"`
	Offline bool   `yaml:"offline"`
}

// PublishConfig holds publish defaults.
type PublishConfig struct {
	Delay    time.Duration `yaml:"delay"`
	NoVerify bool          `yaml:"no_verify"`
	Registry string        `yaml:"registry,omitempty"` // passed to cargo publish --registry
	Skip     []string      `yaml:"skip,omitempty"`
}

// BumpConfig holds bump defaults.
type BumpConfig struct {
	Commit     bool `yaml:"commit"`
	AllowDirty bool `yaml:"allow_dirty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Registry: RegistryConfig{Index: registry.DefaultIndex},
		Publish:  PublishConfig{Delay: 5 * time.Second},
	}
}

// LoadConfig reads path. A missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates config content. Unset keys keep their
// default values.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Version = 0
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}
	if cfg.Publish.Delay < 0 {
		return fmt.Errorf("config: publish.delay must not be negative")
	}
	if cfg.Registry.Index == "" {
		return fmt.Errorf("config: registry.index must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Publish.Skip))
	for i, name := range cfg.Publish.Skip {
		if name == "" {
			return fmt.Errorf("config: publish.skip[%d] is empty", i)
		}
		if seen[name] {
			return fmt.Errorf("config: publish.skip: duplicate package %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Skipped reports whether name is listed in publish.skip.
func (c *Config) Skipped(name string) bool {
	for _, s := range c.Publish.Skip {
		if s == name {
			return true
		}
	}
	return false
}
