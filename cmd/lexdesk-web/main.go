package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/lexdesk-go/internal/app"
	"github.com/yndnr/lexdesk-go/internal/config"
	"github.com/yndnr/lexdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/lexdesk-go/internal/infra/shutdown"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
	"github.com/yndnr/lexdesk-go/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", envOr("LEXDESK_CONFIG", config.DefaultConfigPath()), "Path to configuration file")
		addr        = flag.String("addr", "", "Listen address (overrides web.addr)")
		allowRemote = flag.Bool("allow-remote", false, "Serve clients that are not on this host")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("lexdesk-web " + buildinfo.String())
		return nil
	}

	overrides := map[string]any{}
	if *addr != "" {
		overrides["web.addr"] = *addr
	}

	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting lexdesk-web",
		"version", buildinfo.Get().Version,
		"config", *configFile,
		"backend", cfg.Backend.BaseURL)

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	router, err := web.NewRouter(web.RouterConfig{
		App:         a,
		Logger:      log.With("component", "web"),
		AllowRemote: *allowRemote,
	})
	if err != nil {
		a.Close()
		return fmt.Errorf("init router: %w", err)
	}
	srv := web.New(cfg.Web.Addr, router)

	shutdownHandler := shutdown.NewHandler(30*time.Second, log.Slog())

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("app", func(ctx context.Context) error {
		log.Info("closing token store")
		return a.Close()
	})

	watcher, err := web.WatchLogLevel(*configFile, overrides, log.With("component", "config"))
	if err != nil {
		// The file may not exist yet; defaults and env still apply.
		log.Warn("config file not watched", "path", *configFile, "error", err)
	} else {
		shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
			return watcher.Stop()
		})
	}

	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Guarded pages show a placeholder until the stored session settles.
	go func() {
		if err := a.Session.Bootstrap(ctx); err != nil {
			log.Warn("session bootstrap failed", "error", err)
		}
	}()

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Web.Addr, "allow_remote", *allowRemote)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("lexdesk-web stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
