package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/lexdesk-go/internal/config"
	"github.com/yndnr/lexdesk-go/pkg/token/tokentest"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "correct horse"
)

// mockServer creates a test HTTP server with custom handlers.
type mockServer struct {
	*httptest.Server

	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
}

// newMockServer creates a new mock server.
func newMockServer() *mockServer {
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		handler, ok := m.handlers[r.URL.Path]
		m.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	return m
}

// handle registers a handler for a path.
func (m *mockServer) handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response in the backend's detail shape.
func errorResponse(w http.ResponseWriter, status int, detail string) {
	jsonResponse(w, status, map[string]string{"detail": detail})
}

// testEnv is a fake backend plus a config file pointing the CLI at it.
type testEnv struct {
	t          *testing.T
	server     *mockServer
	configPath string
	token      string

	revoked       atomic.Bool
	loginCalls    atomic.Int32
	registerCalls atomic.Int32
	resetCalls    atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		t:      t,
		server: newMockServer(),
		token:  tokentest.Mint(t, testEmail, time.Now().Add(time.Hour)),
	}
	t.Cleanup(e.server.Close)

	e.server.handle(config.DefaultLoginPath, func(w http.ResponseWriter, r *http.Request) {
		e.loginCalls.Add(1)
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email != testEmail || body.Password != testPassword {
			errorResponse(w, http.StatusUnauthorized, "LOGIN_BAD_CREDENTIALS")
			return
		}
		e.revoked.Store(false)
		jsonResponse(w, http.StatusOK, map[string]string{"access_token": e.token, "token_type": "bearer"})
	})
	e.server.handle(config.DefaultProfilePath, func(w http.ResponseWriter, r *http.Request) {
		if e.revoked.Load() || r.Header.Get("Authorization") != "Bearer "+e.token {
			errorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"id": 42, "email": testEmail, "full_name": "Ada Lovelace"})
	})
	e.server.handle(config.DefaultRegisterPath, func(w http.ResponseWriter, r *http.Request) {
		e.registerCalls.Add(1)
		var body struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email == testEmail {
			errorResponse(w, http.StatusBadRequest, "REGISTER_USER_ALREADY_EXISTS")
			return
		}
		jsonResponse(w, http.StatusCreated, map[string]any{"id": 43, "email": body.Email})
	})
	e.server.handle(config.DefaultResetPath, func(w http.ResponseWriter, r *http.Request) {
		e.resetCalls.Add(1)
		w.WriteHeader(http.StatusAccepted)
	})

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Auth.StorageDir = filepath.Join(dir, "session")
	cfg.Log.Level = "error"
	e.configPath = filepath.Join(dir, "config.yaml")
	if err := config.Save(cfg, e.configPath); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return e
}

// run executes one CLI invocation against the fake backend.
func (e *testEnv) run(stdin string, args ...string) (stdout, stderr string, err error) {
	e.t.Helper()

	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{"lexdesk", "--config", e.configPath, "--base-url", e.server.URL}, args...)
	err = app.Run(argv)
	return out.String(), errOut.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run("", args...)
	if err != nil {
		e.t.Fatalf("lexdesk %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func (e *testEnv) login() {
	e.t.Helper()
	e.mustRun("login", "--email", testEmail, "--password", testPassword)
}
