package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/lexdesk-go/internal/infra/confloader"
)

// NewLoader returns a confloader.Loader layered as defaults, file at path
// (skipped when it does not exist), LEXDESK_* environment, overrides.
func NewLoader(path string, overrides map[string]any) *confloader.Loader {
	opts := []confloader.Option{
		confloader.WithDefaults(defaultsMap()),
		confloader.WithOverrides(overrides),
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			opts = append(opts, confloader.WithConfigFile(path))
		}
	}
	return confloader.NewLoader(opts...)
}

// Load reads and verifies the configuration.
func Load(path string, overrides map[string]any) (*Config, error) {
	return Reload(NewLoader(path, overrides))
}

// Reload re-reads every layer of l and verifies the result.
func Reload(l *confloader.Loader) (*Config, error) {
	cfg := &Config{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		return errors.New("config: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
