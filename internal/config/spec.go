package config

import "time"

// Config is the root configuration for lexdesk and lexdesk-web.
type Config struct {
	Backend BackendSection `koanf:"backend" yaml:"backend" json:"backend"`
	Auth    AuthSection    `koanf:"auth" yaml:"auth" json:"auth"`
	Web     WebSection     `koanf:"web" yaml:"web" json:"web"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
}

// BackendSection describes the remote API.
type BackendSection struct {
	BaseURL      string `koanf:"base_url" yaml:"base_url" json:"base_url"`
	LoginPath    string `koanf:"login_path" yaml:"login_path" json:"login_path"`
	RegisterPath string `koanf:"register_path" yaml:"register_path" json:"register_path"`
	ProfilePath  string `koanf:"profile_path" yaml:"profile_path" json:"profile_path"`
	ResetPath    string `koanf:"reset_path" yaml:"reset_path" json:"reset_path"`

	// LoginEncoding is "json" ({"email","password"}) or "form"
	// (username/password, OAuth2 password flow).
	LoginEncoding string `koanf:"login_encoding" yaml:"login_encoding" json:"login_encoding"`

	Timeout time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout"`

	// RateLimit is requests per second; 0 disables throttling.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst" json:"rate_burst"`

	// CAFile is an optional PEM bundle trusted in addition to system roots.
	CAFile string `koanf:"ca_file" yaml:"ca_file" json:"ca_file"`
}

// Register modes.
const (
	RegisterModePending = "pending"
	RegisterModeLogin   = "login"
)

// Login encodings.
const (
	LoginEncodingJSON = "json"
	LoginEncodingForm = "form"
)

// AuthSection configures session handling and the token slot.
type AuthSection struct {
	// RegisterMode decides what follows a successful register:
	// "pending" leaves the session anonymous, "login" logs in right away.
	RegisterMode string `koanf:"register_mode" yaml:"register_mode" json:"register_mode"`

	StorageDir string `koanf:"storage_dir" yaml:"storage_dir" json:"storage_dir"`
	StorageKey string `koanf:"storage_key" yaml:"storage_key" json:"storage_key"`

	// SealKey enables at-rest sealing of the token when set.
	SealKey string `koanf:"seal_key" yaml:"seal_key,omitempty" json:"seal_key,omitempty"`
}

// WebSection configures the local web client.
type WebSection struct {
	Addr               string `koanf:"addr" yaml:"addr" json:"addr"`
	AnonymousEntry     string `koanf:"anonymous_entry" yaml:"anonymous_entry" json:"anonymous_entry"`
	AuthenticatedEntry string `koanf:"authenticated_entry" yaml:"authenticated_entry" json:"authenticated_entry"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}
