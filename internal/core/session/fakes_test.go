package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/storage"
	"github.com/yndnr/lexdesk-go/pkg/token/tokentest"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

var testUser = domain.UserProfile{ID: "7", Email: "ada@example.com", FullName: "Ada Lovelace"}

// fakeBackend scripts backend answers and counts calls.
type fakeBackend struct {
	mu sync.Mutex

	loginResult    domain.LoginResult
	loginErr       error
	registerResult domain.RegisterResult
	registerErr    error
	profile        domain.UserProfile
	profileErr     error
	resetErr       error

	// loginGate, when set, blocks Login until it is closed.
	loginGate   chan struct{}
	loginEnter  chan struct{}
	profileGate chan struct{}

	logins    atomic.Int32
	registers atomic.Int32
	profiles  atomic.Int32
	resets    atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		loginResult: domain.LoginResult{Token: tokentest.Mint(t, testUser.ID, testNow.Add(time.Hour))},
		profile:     testUser,
	}
}

func (f *fakeBackend) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	f.logins.Add(1)
	if f.loginEnter != nil {
		f.loginEnter <- struct{}{}
	}
	if f.loginGate != nil {
		<-f.loginGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) Register(ctx context.Context, reg domain.Registration) (domain.RegisterResult, error) {
	f.registers.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerResult, f.registerErr
}

func (f *fakeBackend) Profile(ctx context.Context) (domain.UserProfile, error) {
	f.profiles.Add(1)
	if f.profileGate != nil {
		<-f.profileGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, f.profileErr
}

func (f *fakeBackend) ResetPassword(ctx context.Context, email string) error {
	f.resets.Add(1)
	return f.resetErr
}

func (f *fakeBackend) networkCalls() int32 {
	return f.logins.Load() + f.registers.Load() + f.profiles.Load() + f.resets.Load()
}

// recorder collects transitions.
type recorder struct {
	mu sync.Mutex
	ts []domain.Transition
}

func (r *recorder) record(t domain.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ts = append(r.ts, t)
}

func (r *recorder) kinds() []domain.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Kind, len(r.ts))
	for i, t := range r.ts {
		out[i] = t.To.Kind
	}
	return out
}

func (r *recorder) transitions() []domain.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Transition(nil), r.ts...)
}

func newTestManager(t *testing.T, backend Backend, store storage.TokenStore, opts ...Option) (*Manager, *recorder) {
	t.Helper()
	opts = append([]Option{WithClock(testClock)}, opts...)
	m := NewManager(store, backend, opts...)
	rec := &recorder{}
	m.Subscribe(rec.record)
	return m, rec
}

// authenticatedManager returns a manager that bootstrapped into
// Authenticated with a token held in the returned store.
func authenticatedManager(t *testing.T, backend *fakeBackend) (*Manager, *storage.MemoryStore, string) {
	t.Helper()
	store := storage.NewMemoryStore()
	tok := tokentest.Mint(t, testUser.ID, testNow.Add(time.Hour))
	store.Set(context.Background(), tok)

	m := NewManager(store, backend, WithClock(testClock))
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if !m.State().IsAuthenticated() {
		t.Fatalf("state = %v, want authenticated", m.State())
	}
	return m, store, tok
}

func equalKinds(got, want []domain.Kind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// brokenStore fails every operation.
type brokenStore struct{}

var errDisk = errors.New("disk unavailable")

func (brokenStore) Get(ctx context.Context) (string, bool, error) { return "", false, errDisk }
func (brokenStore) Set(ctx context.Context, token string) error   { return errDisk }
func (brokenStore) Clear(ctx context.Context) error               { return errDisk }

// unreadableStore holds a value it cannot read back; Get reports it absent.
type unreadableStore struct {
	clears atomic.Int32
}

func (*unreadableStore) Get(ctx context.Context) (string, bool, error) { return "", false, nil }
func (*unreadableStore) Set(ctx context.Context, token string) error   { return nil }
func (s *unreadableStore) Clear(ctx context.Context) error {
	s.clears.Add(1)
	return nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// readOnlyStore holds nothing and refuses writes.
type readOnlyStore struct{ storage.MemoryStore }

func (*readOnlyStore) Set(ctx context.Context, token string) error { return errDisk }
