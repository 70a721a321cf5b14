package web

import (
	"net/http"

	"github.com/yndnr/lexdesk-go/internal/app"
	"github.com/yndnr/lexdesk-go/internal/guard"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	App    *app.App
	Logger logger.Logger

	// AllowRemote disables the loopback-only restriction.
	AllowRemote bool
}

// NewRouter creates the router with all pages and middleware.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h, err := NewHandler(cfg.App, log)
	if err != nil {
		return nil, err
	}

	a := cfg.App
	anonymous := Middleware(a.Guard.Middleware(a.Session, guard.RequireAnonymous))
	authenticated := Middleware(a.Guard.Middleware(a.Session, guard.RequireAuthenticated))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.root)

	mux.Handle("GET /login", Chain(http.HandlerFunc(h.loginPage), anonymous))
	mux.Handle("POST /login", Chain(http.HandlerFunc(h.login), anonymous))
	mux.Handle("GET /register", Chain(http.HandlerFunc(h.registerPage), anonymous))
	mux.Handle("POST /register", Chain(http.HandlerFunc(h.register), anonymous))

	// Password recovery is reachable from either state.
	mux.HandleFunc("GET /reset-password", h.resetPage)
	mux.HandleFunc("POST /reset-password", h.reset)

	mux.Handle("GET /dashboard", Chain(http.HandlerFunc(h.dashboard), authenticated))
	mux.Handle("GET /profile", Chain(http.HandlerFunc(h.profile), authenticated))
	mux.Handle("GET /logout", Chain(http.HandlerFunc(h.logoutPage), authenticated))
	mux.HandleFunc("POST /logout", h.logout)

	mux.HandleFunc("GET /session", h.session)
	mux.HandleFunc("GET /healthz", h.health)
	mux.Handle("GET /metrics", a.Metrics.Handler())

	// Order: RequestID -> Recover -> Audit -> Loopback -> NoStore -> mux
	middlewares := []Middleware{
		RequestID(),
		Recover(log),
		Audit(log),
	}
	if !cfg.AllowRemote {
		middlewares = append(middlewares, Loopback(log))
	}
	middlewares = append(middlewares, NoStore())

	return Chain(mux, middlewares...), nil
}
