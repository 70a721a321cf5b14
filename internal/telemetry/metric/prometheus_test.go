package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RequestsTotal == nil || r.RequestDuration == nil {
		t.Error("gateway metrics are nil")
	}
	if r.Transitions == nil || r.SessionState == nil || r.ForcedLogouts == nil {
		t.Error("session metrics are nil")
	}
}

func TestGlobal(t *testing.T) {
	if Global() != Global() {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	body := scrape(t, Handler())

	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestRequestMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordRequest("login", "POST", "200")
	r.RecordRequest("profile", "GET", "401")
	r.ObserveRequestDuration("login", "POST", 5*time.Millisecond)
	r.IncAuthorizationFailure()
	r.IncThrottled()

	body := scrape(t, r.Handler())

	for _, want := range []string{
		`lexdesk_gateway_requests_total{endpoint="login",method="POST",status="200"} 1`,
		`lexdesk_gateway_requests_total{endpoint="profile",method="GET",status="401"} 1`,
		`lexdesk_gateway_request_duration_seconds_count{endpoint="login",method="POST"} 1`,
		"lexdesk_gateway_authorization_failures_total 1",
		"lexdesk_gateway_throttled_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestSessionMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordTransition("login", "authenticating")
	r.RecordTransition("login", "authenticated")
	r.RecordTransition("forced_logout", "anonymous")
	r.RecordRejection("in_progress")
	r.ObserveOperation("login", 200*time.Millisecond)

	body := scrape(t, r.Handler())

	for _, want := range []string{
		`lexdesk_session_transitions_total{cause="login",to="authenticated"} 1`,
		`lexdesk_session_transitions_total{cause="forced_logout",to="anonymous"} 1`,
		`lexdesk_session_state{state="anonymous"} 1`,
		`lexdesk_session_state{state="authenticated"} 0`,
		"lexdesk_session_forced_logouts_total 1",
		`lexdesk_session_rejections_total{reason="in_progress"} 1`,
		`lexdesk_session_operation_duration_seconds_count{operation="login"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry

	// None of these may panic.
	r.RecordRequest("login", "POST", "200")
	r.ObserveRequestDuration("login", "POST", time.Second)
	r.IncAuthorizationFailure()
	r.IncThrottled()
	r.RecordTransition("logout", "anonymous")
	r.RecordRejection("superseded")
	r.ObserveOperation("login", time.Second)
	r.MustRegister()
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordRequest("profile", "GET", "200")
				r.ObserveRequestDuration("profile", "GET", time.Millisecond)
				r.RecordTransition("bootstrap", "anonymous")
			}
		}()
	}
	wg.Wait()

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `lexdesk_gateway_requests_total{endpoint="profile",method="GET",status="200"} 1000`) {
		t.Error("expected 1000 profile requests")
	}
}
