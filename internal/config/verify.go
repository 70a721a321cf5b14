package config

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var absolutePath = regexp.MustCompile(`^/[^\s]*$`)

// Verify validates the configuration. Errors are keyed by section and field.
func Verify(cfg *Config) error {
	return validation.Errors{
		"backend": verifyBackend(&cfg.Backend),
		"auth":    verifyAuth(&cfg.Auth),
		"web":     verifyWeb(&cfg.Web),
		"log":     verifyLog(&cfg.Log),
	}.Filter()
}

func verifyBackend(b *BackendSection) error {
	return validation.ValidateStruct(b,
		validation.Field(&b.BaseURL, validation.Required, is.URL),
		validation.Field(&b.LoginPath, validation.Required, validation.Match(absolutePath)),
		validation.Field(&b.RegisterPath, validation.Required, validation.Match(absolutePath)),
		validation.Field(&b.ProfilePath, validation.Required, validation.Match(absolutePath)),
		validation.Field(&b.ResetPath, validation.Required, validation.Match(absolutePath)),
		validation.Field(&b.LoginEncoding, validation.Required, validation.In(LoginEncodingJSON, LoginEncodingForm)),
		validation.Field(&b.Timeout, validation.Required, validation.Min(100*time.Millisecond), validation.Max(5*time.Minute)),
		validation.Field(&b.RateLimit, validation.Min(0.0)),
		validation.Field(&b.RateBurst, validation.Min(0)),
	)
}

func verifyAuth(a *AuthSection) error {
	return validation.ValidateStruct(a,
		validation.Field(&a.RegisterMode, validation.Required, validation.In(RegisterModePending, RegisterModeLogin)),
		validation.Field(&a.StorageDir, validation.Required),
		validation.Field(&a.StorageKey, validation.Required, validation.Length(1, 128)),
		validation.Field(&a.SealKey, validation.Length(16, 0)),
	)
}

func verifyWeb(w *WebSection) error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Addr, validation.Required),
		validation.Field(&w.AnonymousEntry, validation.Required, validation.Match(absolutePath)),
		validation.Field(&w.AuthenticatedEntry, validation.Required, validation.Match(absolutePath)),
	)
}

func verifyLog(l *LogSection) error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("json", "text", "console")),
	)
}
