package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexdesk"

// Session state kinds exported by the state gauge.
var stateKinds = []string{"bootstrapping", "anonymous", "authenticating", "authenticated", "error"}

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Gateway metrics
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	AuthorizationFailures prometheus.Counter
	Throttled             prometheus.Counter

	// Session metrics
	Transitions    *prometheus.CounterVec
	SessionState   *prometheus.GaugeVec
	ForcedLogouts  prometheus.Counter
	Rejections     *prometheus.CounterVec
	OperationTimes *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus every lexdesk metric family.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Outbound backend requests by endpoint, method and status",
		}, []string{"endpoint", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Outbound backend request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		AuthorizationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_authorization_failures_total",
			Help:      "Responses with status 401 seen by the gateway",
		}),
		Throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_throttled_total",
			Help:      "Requests delayed by the client-side rate limiter",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session state transitions by cause and target state",
		}, []string{"cause", "to"}),
		SessionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current session state, 0 otherwise",
		}, []string{"state"}),
		ForcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_forced_logouts_total",
			Help:      "Logouts triggered by an authorization failure",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_rejections_total",
			Help:      "Operations rejected or discarded by the session manager",
		}, []string{"reason"}),
		OperationTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_operation_duration_seconds",
			Help:      "Time from operation start to settled state",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.AuthorizationFailures,
		r.Throttled,
		r.Transitions,
		r.SessionState,
		r.ForcedLogouts,
		r.Rejections,
		r.OperationTimes,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns the /metrics handler for r.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// MustRegister adds extra collectors (storage gauges, token lifetime).
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.registry.MustRegister(cs...)
}

// RecordRequest counts one outbound request.
func (r *Registry) RecordRequest(endpoint, method, status string) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// ObserveRequestDuration records outbound request latency.
func (r *Registry) ObserveRequestDuration(endpoint, method string, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// IncAuthorizationFailure counts a 401 response.
func (r *Registry) IncAuthorizationFailure() {
	if r == nil {
		return
	}
	r.AuthorizationFailures.Inc()
}

// IncThrottled counts a request that had to wait for the rate limiter.
func (r *Registry) IncThrottled() {
	if r == nil {
		return
	}
	r.Throttled.Inc()
}

// RecordTransition counts a transition and moves the state gauge.
func (r *Registry) RecordTransition(cause, to string) {
	if r == nil {
		return
	}
	r.Transitions.WithLabelValues(cause, to).Inc()
	r.SetState(to)
	if cause == "forced_logout" {
		r.ForcedLogouts.Inc()
	}
}

// SetState sets the state gauge to 1 for state and 0 for every other kind.
func (r *Registry) SetState(state string) {
	if r == nil {
		return
	}
	for _, k := range stateKinds {
		v := 0.0
		if k == state {
			v = 1
		}
		r.SessionState.WithLabelValues(k).Set(v)
	}
}

// RecordRejection counts an operation the manager refused or discarded.
func (r *Registry) RecordRejection(reason string) {
	if r == nil {
		return
	}
	r.Rejections.WithLabelValues(reason).Inc()
}

// ObserveOperation records how long a session operation took to settle.
func (r *Registry) ObserveOperation(op string, d time.Duration) {
	if r == nil {
		return
	}
	r.OperationTimes.WithLabelValues(op).Observe(d.Seconds())
}
