package confloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Backend struct {
		BaseURL string `koanf:"base_url"`
		Timeout string `koanf:"timeout"`
	} `koanf:"backend"`
	Auth struct {
		RegisterMode string `koanf:"register_mode"`
	} `koanf:"auth"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/lexdesk.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/etc/lexdesk.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "from-file"
  timeout: "10s"
log:
  level: warn
`)
	t.Setenv("LEXDESK_BACKEND_BASE_URL", "from-env")

	l := NewLoader(
		WithConfigFile(path),
		WithDefaults(map[string]any{
			"backend.base_url":   "from-default",
			"auth.register_mode": "pending",
			"log.level":          "info",
		}),
		WithOverrides(map[string]any{"log.level": "error"}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "from-env" {
		t.Errorf("BaseURL = %q, env should override file", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != "10s" {
		t.Errorf("Timeout = %q, file should override default", cfg.Backend.Timeout)
	}
	if cfg.Auth.RegisterMode != "pending" {
		t.Errorf("RegisterMode = %q, default should apply", cfg.Auth.RegisterMode)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, override should win", cfg.Log.Level)
	}
	if got := l.String("backend.timeout"); got != "10s" {
		t.Errorf("String(backend.timeout) = %q", got)
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	l := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))

	var cfg testConfig
	err := l.Load(&cfg)
	if err == nil || !strings.Contains(err.Error(), "load config file") {
		t.Fatalf("Load() error = %v", err)
	}
	if l.String("log.level") != "" {
		t.Error("failed Load should not replace the last tree")
	}
}

func TestLoader_Load_BadYAML(t *testing.T) {
	path := writeConfig(t, "log: [unterminated\n")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
		t.Fatal("Load() should fail on malformed YAML")
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()
	tests := map[string]string{
		"LEXDESK_BACKEND_BASE_URL":   "backend.base_url",
		"LEXDESK_AUTH_REGISTER_MODE": "auth.register_mode",
		"LEXDESK_WEB_ADDR":           "web.addr",
		"LEXDESK_DEBUG":              "debug",
		"LEXDESK_BACKEND_RATE_LIMIT": "backend.rate_limit",
	}
	for in, want := range tests {
		if got := l.envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("backend:\n  timeout: 5s\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var reloaded testConfig
	if err := l.Load(&reloaded); err != nil {
		t.Fatal(err)
	}
	if reloaded.Backend.Timeout != "5s" {
		t.Errorf("Timeout after reload = %q, want 5s", reloaded.Backend.Timeout)
	}
	if reloaded.Log.Level != "" {
		t.Errorf("Level after reload = %q, removed keys must not survive", reloaded.Log.Level)
	}
}
