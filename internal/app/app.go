package app

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/yndnr/lexdesk-go/internal/config"
	"github.com/yndnr/lexdesk-go/internal/core/session"
	"github.com/yndnr/lexdesk-go/internal/gateway"
	"github.com/yndnr/lexdesk-go/internal/guard"
	"github.com/yndnr/lexdesk-go/internal/infra/tlsroots"
	"github.com/yndnr/lexdesk-go/internal/storage"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
	"github.com/yndnr/lexdesk-go/internal/telemetry/metric"
)

// App is the wired session core.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metric.Registry

	Store   storage.TokenStore
	Gateway *gateway.Gateway
	Backend *gateway.Backend
	Session *session.Manager
	Guard   *guard.Guard

	closeOnce sync.Once
	closers   []func() error
}

// Option adjusts how an App is built.
type Option func(*options)

type options struct {
	store     storage.TokenStore
	transport http.RoundTripper
	metrics   *metric.Registry
}

// WithStore uses store instead of opening the configured Badger database.
func WithStore(store storage.TokenStore) Option {
	return func(o *options) { o.store = store }
}

// WithTransport forwards gateway traffic through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMetrics records into r instead of a fresh registry.
func WithMetrics(r *metric.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// New builds the session core described by cfg. The returned App has not
// bootstrapped yet.
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.Default()
	}
	if o.metrics == nil {
		o.metrics = metric.NewRegistry()
	}

	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: o.metrics,
		Guard:   guard.New(cfg.Web.AnonymousEntry, cfg.Web.AuthenticatedEntry),
	}

	// 1. Token store
	store := o.store
	if store == nil {
		bcfg := storage.DefaultBadgerConfig(cfg.Auth.StorageDir)
		bcfg.Key = cfg.Auth.StorageKey
		bcfg.SealKey = storage.SealKeyFromSecret(cfg.Auth.SealKey)

		bs, err := storage.OpenBadger(bcfg, log.With("component", "storage").Slog())
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		a.closers = append(a.closers, bs.Close)
		a.Metrics.MustRegister(bs.Collectors()...)
		store = bs
	}
	a.Store = store
	a.Metrics.MustRegister(metric.NewTokenCollector(store, nil))

	// 2. Gateway
	gwOpts := []gateway.Option{
		gateway.WithLogger(log.With("component", "gateway")),
		gateway.WithMetrics(a.Metrics),
		gateway.WithTimeout(cfg.Backend.Timeout),
		gateway.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.RateBurst),
	}
	if cfg.Backend.CAFile != "" {
		pool, err := tlsroots.FromFile(cfg.Backend.CAFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load CA bundle: %w", err)
		}
		gwOpts = append(gwOpts, gateway.WithTLSConfig(pool.ClientConfig()))
	}
	if o.transport != nil {
		gwOpts = append(gwOpts, gateway.WithTransport(o.transport))
	}
	a.Gateway = gateway.New(store, gwOpts...)

	// 3. Backend adapter
	a.Backend = gateway.NewBackend(gateway.BackendConfig{
		BaseURL: cfg.Backend.BaseURL,
		Routes: gateway.Routes{
			Login:    cfg.Backend.LoginPath,
			Register: cfg.Backend.RegisterPath,
			Profile:  cfg.Backend.ProfilePath,
			Reset:    cfg.Backend.ResetPath,
		},
		LoginEncoding: cfg.Backend.LoginEncoding,
	}, a.Gateway.Client())

	// 4. Session manager
	a.Session = session.NewManager(store, a.Backend,
		session.WithRegisterMode(cfg.Auth.RegisterMode),
		session.WithMetrics(a.Metrics),
	)
	a.Session.Subscribe(session.LogTransitions(log.With("component", "session")))
	a.Session.Subscribe(session.RecordTransitions(a.Metrics))
	a.Gateway.Observe(a.Session)

	return a, nil
}

// Close releases the token store. It is safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			err = errors.Join(err, a.closers[i]())
		}
	})
	return err
}
