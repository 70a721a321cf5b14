package confloader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "LEXDESK_"

// Loader reads the configuration layers into a struct. Every Load starts
// from an empty tree, so a Loader can be reused after the file changes.
type Loader struct {
	envPrefix string
	filePath  string
	defaults  map[string]any
	overrides map[string]any

	mu   sync.Mutex
	last *koanf.Koanf
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file layer. The file must exist when Load
// runs.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithDefaults sets the lowest-priority layer. Keys may be dotted.
func WithDefaults(defaults map[string]any) Option {
	return func(l *Loader) { l.defaults = defaults }
}

// WithOverrides sets the highest-priority layer. Keys may be dotted.
func WithOverrides(overrides map[string]any) Option {
	return func(l *Loader) { l.overrides = overrides }
}

// NewLoader creates a configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configured file path, if any.
func (l *Loader) FilePath() string {
	return l.filePath
}

// Load reads defaults, file, environment and overrides, in that order,
// and unmarshals the merged tree into target using koanf tags.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")

	if len(l.defaults) > 0 {
		if err := k.Load(mapProvider(l.defaults), nil); err != nil {
			return fmt.Errorf("load defaults: %w", err)
		}
	}
	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}
	if err := k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if len(l.overrides) > 0 {
		if err := k.Load(mapProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.mu.Lock()
	l.last = k
	l.mu.Unlock()
	return nil
}

// String returns key from the tree built by the last successful Load.
func (l *Loader) String(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return ""
	}
	return l.last.String(key)
}

// envKey maps LEXDESK_BACKEND_BASE_URL to backend.base_url: the first
// underscore after the prefix separates the section from the key.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	section, key, found := strings.Cut(s, "_")
	if !found {
		return section
	}
	return section + "." + key
}
