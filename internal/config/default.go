package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/lexdesk-go/internal/storage"
)

// Default configuration values.
const (
	DefaultBaseURL       = "http://127.0.0.1:8000"
	DefaultLoginPath     = "/api/auth/login"
	DefaultRegisterPath  = "/api/auth/register"
	DefaultProfilePath   = "/api/auth/me"
	DefaultResetPath     = "/api/auth/reset-password"
	DefaultLoginEncoding = LoginEncodingJSON
	DefaultTimeout       = 30 * time.Second
	DefaultRateBurst     = 5

	DefaultRegisterMode = RegisterModePending

	DefaultWebAddr            = "127.0.0.1:5173"
	DefaultAnonymousEntry     = "/login"
	DefaultAuthenticatedEntry = "/dashboard"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultHome returns the per-user lexdesk directory.
func DefaultHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".lexdesk")
	}
	return ".lexdesk"
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultHome(), "config.yaml")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendSection{
			BaseURL:       DefaultBaseURL,
			LoginPath:     DefaultLoginPath,
			RegisterPath:  DefaultRegisterPath,
			ProfilePath:   DefaultProfilePath,
			ResetPath:     DefaultResetPath,
			LoginEncoding: DefaultLoginEncoding,
			Timeout:       DefaultTimeout,
			RateBurst:     DefaultRateBurst,
		},
		Auth: AuthSection{
			RegisterMode: DefaultRegisterMode,
			StorageDir:   filepath.Join(DefaultHome(), "session"),
			StorageKey:   storage.DefaultKey,
		},
		Web: WebSection{
			Addr:               DefaultWebAddr,
			AnonymousEntry:     DefaultAnonymousEntry,
			AuthenticatedEntry: DefaultAuthenticatedEntry,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// defaultsMap flattens Default() into the lowest confloader layer.
func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"backend.base_url":        d.Backend.BaseURL,
		"backend.login_path":      d.Backend.LoginPath,
		"backend.register_path":   d.Backend.RegisterPath,
		"backend.profile_path":    d.Backend.ProfilePath,
		"backend.reset_path":      d.Backend.ResetPath,
		"backend.login_encoding":  d.Backend.LoginEncoding,
		"backend.timeout":         d.Backend.Timeout.String(),
		"backend.rate_limit":      d.Backend.RateLimit,
		"backend.rate_burst":      d.Backend.RateBurst,
		"backend.ca_file":         d.Backend.CAFile,
		"auth.register_mode":      d.Auth.RegisterMode,
		"auth.storage_dir":        d.Auth.StorageDir,
		"auth.storage_key":        d.Auth.StorageKey,
		"auth.seal_key":           d.Auth.SealKey,
		"web.addr":                d.Web.Addr,
		"web.anonymous_entry":     d.Web.AnonymousEntry,
		"web.authenticated_entry": d.Web.AuthenticatedEntry,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
	}
}
