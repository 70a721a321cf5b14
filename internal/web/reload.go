package web

import (
	"github.com/yndnr/lexdesk-go/internal/config"
	"github.com/yndnr/lexdesk-go/internal/infra/confloader"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
)

// WatchLogLevel re-reads the configuration at path whenever the file
// changes and applies log.level. Other settings take effect on restart.
// The caller stops the returned watcher.
func WatchLogLevel(path string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := config.Reload(config.NewLoader(path, overrides))
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if level := cfg.Log.Level; level != logger.GetLevel() {
			logger.SetLevel(level)
			log.Info("log level changed", "level", logger.GetLevel())
		}
	})

	w.StartAsync()
	return w, nil
}
