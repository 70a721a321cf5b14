package logger

import (
	"log/slog"
	"regexp"
	"strings"
)

// Key fragments whose values are always redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
	"seal",
}

// Keys ending in these suffixes carry derived, non-reversible values.
var safeKeySuffixes = []string{
	"_fingerprint",
	"_fp",
}

// jwtPattern matches three base64url segments, the first starting with the
// encoding of `{"` which every JWT header has.
var jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)

const bearerPrefix = "Bearer "

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive is the ReplaceAttr hook installed on every handler.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if IsSensitiveValue(v) {
			return slog.String(a.Key, RedactString(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindAny:
		// Errors often embed response bodies or header dumps.
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if IsSensitiveValue(msg) {
				return slog.String(a.Key, RedactString(msg))
			}
		}
	}
	return a
}

// maskToken keeps a short head and tail of a token for correlation.
func maskToken(tok string) string {
	if len(tok) <= 12 {
		return "***"
	}
	return tok[:3] + "..." + tok[len(tok)-3:]
}

// RedactString masks every bearer credential and JWT inside value.
func RedactString(value string) string {
	if i := strings.Index(value, bearerPrefix); i >= 0 {
		rest := value[i+len(bearerPrefix):]
		end := strings.IndexAny(rest, " \t\r\n\",")
		if end < 0 {
			end = len(rest)
		}
		value = value[:i] + bearerPrefix + maskToken(rest[:end]) + rest[end:]
	}
	return jwtPattern.ReplaceAllStringFunc(value, maskToken)
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, suffix := range safeKeySuffixes {
		if strings.HasSuffix(keyLower, suffix) {
			return false
		}
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value contains a bearer credential or a JWT.
func IsSensitiveValue(value string) bool {
	return strings.Contains(value, bearerPrefix) || jwtPattern.MatchString(value)
}
