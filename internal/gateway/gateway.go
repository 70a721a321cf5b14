package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
	"github.com/yndnr/lexdesk-go/internal/telemetry/metric"
	"github.com/yndnr/lexdesk-go/pkg/token"
)

// DefaultTimeout bounds every request made through Client.
const DefaultTimeout = 30 * time.Second

// Header names set by the gateway.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"
)

// TokenReader reads the current token. The gateway never writes it.
type TokenReader interface {
	Get(ctx context.Context) (string, bool, error)
}

// AuthorizationObserver is told about every 401 response to a request that
// carried a token. It returns whether the failure changed session state.
type AuthorizationObserver interface {
	HandleAuthorizationFailure(token string) bool
}

// Gateway injects credentials into outbound requests.
type Gateway struct {
	tokens    TokenReader
	next      http.RoundTripper
	limiter   *rate.Limiter
	metrics   *metric.Registry
	logger    logger.Logger
	timeout   time.Duration
	userAgent string

	mu       sync.RWMutex
	observer AuthorizationObserver
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTransport sets the transport requests are forwarded to.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gateway) {
		g.next = rt
	}
}

// WithTLSConfig forwards through a transport using cfg.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(g *Gateway) {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = cfg
		g.next = t
	}
}

// WithRateLimit throttles outbound requests to perSecond with burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(g *Gateway) {
		if perSecond <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics records request metrics into r.
func WithMetrics(r *metric.Registry) Option {
	return func(g *Gateway) {
		g.metrics = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithTimeout sets the timeout of clients returned by Client.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) {
		g.userAgent = ua
	}
}

// New creates a gateway reading tokens from tokens.
func New(tokens TokenReader, opts ...Option) *Gateway {
	g := &Gateway{
		tokens:    tokens,
		next:      http.DefaultTransport,
		logger:    logger.Default(),
		timeout:   DefaultTimeout,
		userAgent: buildinfo.UserAgent(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Observe sets the observer told about authorization failures. It is set
// after construction because the session manager depends on the gateway.
func (g *Gateway) Observe(o AuthorizationObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observer = o
}

func (g *Gateway) currentObserver() AuthorizationObserver {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.observer
}

// Client returns an http.Client sending through the gateway.
func (g *Gateway) Client() *http.Client {
	return &http.Client{
		Transport: g,
		Timeout:   g.timeout,
	}
}

// Send performs req through the gateway with the configured timeout.
func (g *Gateway) Send(req *http.Request) (*http.Response, error) {
	return g.Client().Do(req)
}

// RoundTrip implements http.RoundTripper.
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := EndpointFromContext(ctx)

	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	tok, hasToken, err := g.tokens.Get(ctx)
	if err != nil {
		return nil, domain.ErrStorageUnavailable.WithCause(err)
	}

	// A RoundTripper must not modify the caller's request.
	out := req.Clone(ctx)
	if hasToken && tok != "" {
		out.Header.Set(HeaderAuthorization, "Bearer "+tok)
	} else {
		hasToken = false
	}
	reqID := out.Header.Get(HeaderRequestID)
	if reqID == "" {
		reqID = logger.RequestIDFromContext(ctx)
	}
	if reqID == "" {
		reqID = ulid.Make().String()
	}
	out.Header.Set(HeaderRequestID, reqID)
	if out.Header.Get(HeaderUserAgent) == "" {
		out.Header.Set(HeaderUserAgent, g.userAgent)
	}

	log := g.logger.WithContext(logger.WithRequestID(ctx, reqID)).With(
		"endpoint", endpoint,
		"method", out.Method,
	)

	start := time.Now()
	resp, err := g.next.RoundTrip(out)
	g.metrics.ObserveRequestDuration(endpoint, out.Method, time.Since(start))
	if err != nil {
		g.metrics.RecordRequest(endpoint, out.Method, "error")
		log.Debug("request failed", "error", err)
		return nil, err
	}
	g.metrics.RecordRequest(endpoint, out.Method, strconv.Itoa(resp.StatusCode))
	log.Debug("request completed", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized && hasToken {
		g.metrics.IncAuthorizationFailure()
		if obs := g.currentObserver(); obs != nil && obs.HandleAuthorizationFailure(tok) {
			log.Info("authorization lost, session cleared", "token_fingerprint", token.Fingerprint(tok))
		}
	}

	return resp, nil
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}

	r := g.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("gateway: rate limiter cannot serve request")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	g.metrics.IncThrottled()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

type endpointKey struct{}

// WithEndpoint labels requests made with ctx for metrics and logs.
func WithEndpoint(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, endpointKey{}, name)
}

// EndpointFromContext returns the endpoint label, or "other".
func EndpointFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(endpointKey{}).(string); ok && name != "" {
		return name
	}
	return "other"
}
