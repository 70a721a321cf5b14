package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging
// and `lexdesk config show`.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	if sanitized.Auth.SealKey != "" {
		sanitized.Auth.SealKey = maskSecret(sanitized.Auth.SealKey)
	}
	return &sanitized
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
