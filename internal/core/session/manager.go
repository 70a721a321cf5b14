package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/storage"
	"github.com/yndnr/lexdesk-go/internal/telemetry/metric"
	"github.com/yndnr/lexdesk-go/pkg/token"
)

// Register modes.
const (
	// RegisterModePending leaves the session Anonymous after a successful
	// registration; the caller is told to log in.
	RegisterModePending = "pending"
	// RegisterModeLogin chains into Login with the same credentials.
	RegisterModeLogin = "login"
)

// Backend is the slice of the backend the manager drives.
type Backend interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) (domain.RegisterResult, error)
	Profile(ctx context.Context) (domain.UserProfile, error)
	ResetPassword(ctx context.Context, email string) error
}

// Subscriber is called once per committed transition, in commit order.
type Subscriber func(domain.Transition)

type subscription struct {
	id uint64
	fn Subscriber
}

// Manager owns the session state and the durable token slot.
type Manager struct {
	store        storage.TokenStore
	backend      Backend
	now          func() time.Time
	registerMode string
	metrics      *metric.Registry

	mu       sync.Mutex
	state    domain.State
	gen      uint64
	inflight bool
	// expiresAt is the expiry the backend reported with the current token;
	// zero when it reported none.
	expiresAt time.Time
	seq       uint64
	pending   []domain.Transition
	subs      []subscription
	nextSub   uint64

	// dispatchMu serializes subscriber delivery without holding mu.
	dispatchMu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for expiry checks and transition times.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRegisterMode sets what happens after a registration without a token.
func WithRegisterMode(mode string) Option {
	return func(m *Manager) {
		if mode == RegisterModeLogin {
			m.registerMode = RegisterModeLogin
		} else {
			m.registerMode = RegisterModePending
		}
	}
}

// WithMetrics records rejections and operation durations into r.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// NewManager creates a manager in the Bootstrapping state.
func NewManager(store storage.TokenStore, backend Backend, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		backend:      backend,
		now:          time.Now,
		registerMode: RegisterModePending,
		state:        domain.Bootstrapping(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current state.
func (m *Manager) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every future transition. The returned function
// removes it; calling it more than once is harmless.
func (m *Manager) Subscribe(fn Subscriber) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// ============================================================================
// Bootstrap
// ============================================================================

// Bootstrap decides the initial state from the durable token. It is meant
// to run once at start; on any state but Bootstrapping it does nothing.
//
// An absent, expired or malformed token leads to Anonymous without touching
// the network. A usable token is verified with a profile fetch. Bootstrap
// always leaves the Bootstrapping state; the returned error only reports
// why the stored session could not be resumed.
func (m *Manager) Bootstrap(ctx context.Context) error {
	start := m.now()

	m.mu.Lock()
	if m.state.Kind != domain.KindBootstrapping || m.inflight {
		m.mu.Unlock()
		return nil
	}

	tok, ok, err := m.store.Get(ctx)
	switch {
	case err != nil:
		m.commit(domain.Anonymous(), domain.CauseBootstrap)
		m.mu.Unlock()
		m.flush()
		return domain.ErrStorageUnavailable.WithCause(err)

	case !ok:
		// An unreadable value reads as absent; drop it so it does not
		// linger in the slot.
		_ = m.store.Clear(ctx)
		m.commit(domain.Anonymous(), domain.CauseBootstrap)
		m.mu.Unlock()
		m.flush()
		return nil
	}

	if _, usable := token.Usable(tok, m.now()); !usable {
		// Clear failures are ignored: the token is unusable either way and
		// will be rejected again on the next start.
		_ = m.store.Clear(ctx)
		m.commit(domain.Anonymous(), domain.CauseBootstrap)
		m.mu.Unlock()
		m.flush()
		return nil
	}

	gen := m.begin(domain.CauseBootstrap)
	m.mu.Unlock()
	m.flush()

	err = m.fetchProfile(ctx, gen, domain.CauseBootstrap)
	m.metrics.ObserveOperation(string(domain.CauseBootstrap), m.now().Sub(start))
	return err
}

// ============================================================================
// Login
// ============================================================================

// Login authenticates with creds. It fails with ErrOperationInProgress while
// another operation is in flight or when already authenticated.
//
// On failure the state passes through Error back to Anonymous and no token
// is stored.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) error {
	start := m.now()

	m.mu.Lock()
	if err := m.admit(); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := ValidateCredentials(creds); err != nil {
		m.reject(err, domain.CauseLogin)
		m.mu.Unlock()
		m.flush()
		return err
	}
	gen := m.begin(domain.CauseLogin)
	m.mu.Unlock()
	m.flush()

	err := m.login(ctx, gen, creds, domain.CauseLogin)
	m.metrics.ObserveOperation(string(domain.CauseLogin), m.now().Sub(start))
	return err
}

// login runs the network part of a login under generation gen. The state
// must already be Authenticating.
func (m *Manager) login(ctx context.Context, gen uint64, creds domain.Credentials, cause domain.Cause) error {
	res, err := m.backend.Login(ctx, creds)
	if err != nil {
		return m.settleFailure(gen, err, cause)
	}
	return m.authenticate(ctx, gen, res.Token, res.ExpiresAt, cause)
}

// ============================================================================
// Register
// ============================================================================

// Register creates an account. Local validation runs first and fails with
// ErrValidationFailed before any network call.
//
// A backend that answers with a token logs the new account in directly.
// Otherwise the register mode decides: pending leaves the session Anonymous
// with result.Pending set, login chains into Login with the same credentials.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (domain.RegisterResult, error) {
	start := m.now()

	m.mu.Lock()
	if err := m.admit(); err != nil {
		m.mu.Unlock()
		return domain.RegisterResult{}, err
	}
	if err := ValidateRegistration(reg); err != nil {
		m.reject(err, domain.CauseRegister)
		m.mu.Unlock()
		m.flush()
		return domain.RegisterResult{}, err
	}
	gen := m.begin(domain.CauseRegister)
	m.mu.Unlock()
	m.flush()

	defer func() {
		m.metrics.ObserveOperation(string(domain.CauseRegister), m.now().Sub(start))
	}()

	res, err := m.backend.Register(ctx, reg)
	if err != nil {
		return domain.RegisterResult{}, m.settleFailure(gen, err, domain.CauseRegister)
	}

	switch {
	case res.Token != "":
		return domain.RegisterResult{}, m.authenticate(ctx, gen, res.Token, time.Time{}, domain.CauseRegister)

	case m.registerMode == RegisterModeLogin:
		return domain.RegisterResult{}, m.login(ctx, gen, reg.Credentials(), domain.CauseRegister)
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.metrics.RecordRejection("superseded")
		return domain.RegisterResult{}, domain.ErrOperationSuperseded
	}
	m.inflight = false
	m.commit(domain.Anonymous(), domain.CauseRegister)
	m.mu.Unlock()
	m.flush()

	return domain.RegisterResult{Pending: true}, nil
}

// ============================================================================
// Logout
// ============================================================================

// Logout clears the token and returns to Anonymous. It is synchronous,
// idempotent and always succeeds in changing state; any in-flight operation
// is superseded. The returned error only reports a failed store clear.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	m.inflight = false
	m.expiresAt = time.Time{}
	err := m.store.Clear(ctx)
	if m.state.Kind != domain.KindAnonymous {
		m.commit(domain.Anonymous(), domain.CauseLogout)
	}
	m.mu.Unlock()
	m.flush()

	if err != nil {
		return domain.ErrStorageUnavailable.WithCause(err)
	}
	return nil
}

// HandleAuthorizationFailure is called by the request gateway for every 401
// on a request that carried tok. It forces a logout only when the session is
// Authenticated with that same token, so concurrent failures collapse into
// one transition and a failure for an already replaced token is ignored.
// It reports whether a transition happened.
func (m *Manager) HandleAuthorizationFailure(tok string) bool {
	ctx := context.Background()

	m.mu.Lock()
	if m.state.Kind != domain.KindAuthenticated {
		m.mu.Unlock()
		return false
	}
	current, ok, err := m.store.Get(ctx)
	if err != nil || !ok || current != tok {
		m.mu.Unlock()
		return false
	}

	m.endSession(ctx, domain.ErrAuthorizationLost)
	m.mu.Unlock()
	m.flush()
	return true
}

// ============================================================================
// Refresh
// ============================================================================

// Refresh re-checks an Authenticated session; in any other state, or while
// an operation is in flight, it does nothing.
//
// A token past its expiry ends the session without a network call. Otherwise
// the profile is fetched again and replaces the current one. A rejected token
// ends the session with a forced logout; a network failure leaves the session
// as it is and is returned. A logout that lands while the fetch is in flight
// wins, and Refresh reports ErrOperationSuperseded.
func (m *Manager) Refresh(ctx context.Context) error {
	start := m.now()

	m.mu.Lock()
	if m.state.Kind != domain.KindAuthenticated || m.inflight {
		m.mu.Unlock()
		return nil
	}
	tok, ok, err := m.store.Get(ctx)
	if err != nil {
		m.mu.Unlock()
		return domain.ErrStorageUnavailable.WithCause(err)
	}
	if !ok || !m.usable(tok) {
		m.endSession(ctx, domain.ErrTokenExpiredOrMalformed)
		m.mu.Unlock()
		m.flush()
		return domain.ErrTokenExpiredOrMalformed
	}
	gen := m.gen
	m.mu.Unlock()

	profile, err := m.backend.Profile(ctx)
	m.metrics.ObserveOperation(string(domain.CauseRefresh), m.now().Sub(start))

	m.mu.Lock()
	if m.gen != gen || m.state.Kind != domain.KindAuthenticated {
		// A logout, or the gateway reacting to a 401, got there first.
		m.mu.Unlock()
		m.metrics.RecordRejection("superseded")
		if err != nil {
			return domain.ErrOperationSuperseded.WithCause(err)
		}
		return domain.ErrOperationSuperseded
	}

	switch {
	case errors.Is(err, domain.ErrAuthorizationLost):
		m.endSession(ctx, err)
	case err != nil:
		m.mu.Unlock()
		return err
	case m.state.User == nil || *m.state.User != profile:
		m.commit(domain.Authenticated(profile), domain.CauseRefresh)
	}
	m.mu.Unlock()
	m.flush()
	return err
}

// ResetPassword asks the backend to send a reset link. The session state
// is not touched.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return m.backend.ResetPassword(ctx, email)
}

// ============================================================================
// Internals (callers hold mu unless noted)
// ============================================================================

// admit rejects a new login or register.
func (m *Manager) admit() error {
	if m.inflight || m.state.IsSettling() {
		m.metrics.RecordRejection("in_progress")
		return domain.ErrOperationInProgress
	}
	if m.state.IsAuthenticated() {
		m.metrics.RecordRejection("authenticated")
		return domain.ErrOperationInProgress.WithDetails("already authenticated")
	}
	return nil
}

// begin starts an operation and returns its generation.
func (m *Manager) begin(cause domain.Cause) uint64 {
	m.gen++
	m.inflight = true
	m.commit(domain.Authenticating(), cause)
	return m.gen
}

// reject reports a locally detected failure without starting an operation.
func (m *Manager) reject(err error, cause domain.Cause) {
	m.commit(domain.Failed(err), cause)
	m.commit(domain.AnonymousAfter(err), cause)
}

// commit moves to next and queues the transition for subscribers.
func (m *Manager) commit(next domain.State, cause domain.Cause) {
	m.seq++
	m.pending = append(m.pending, domain.Transition{
		From:  m.state,
		To:    next,
		Cause: cause,
		Seq:   m.seq,
		At:    m.now(),
	})
	m.state = next
}

// fail ends an operation. User-facing errors pass through the Error state;
// silent ones (an expired session) go straight to Anonymous. Either way the
// Anonymous state keeps the reason.
func (m *Manager) fail(err error, cause domain.Cause) {
	m.inflight = false
	m.expiresAt = time.Time{}
	if domain.IsUserFacing(err) {
		m.commit(domain.Failed(err), cause)
	}
	m.commit(domain.AnonymousAfter(err), cause)
}

// endSession drops an Authenticated session that is no longer valid and
// supersedes anything in flight.
func (m *Manager) endSession(ctx context.Context, err error) {
	m.gen++
	m.inflight = false
	m.expiresAt = time.Time{}
	_ = m.store.Clear(ctx)
	m.commit(domain.AnonymousAfter(err), domain.CauseForcedLogout)
}

// usable reports whether tok may still be sent: its own exp has not passed
// and neither has the expiry the backend reported with it.
func (m *Manager) usable(tok string) bool {
	now := m.now()
	if _, ok := token.Usable(tok, now); !ok {
		return false
	}
	return m.expiresAt.IsZero() || now.Before(m.expiresAt)
}

// settleFailure applies err to operation gen. Must be called without mu.
func (m *Manager) settleFailure(gen uint64, err error, cause domain.Cause) error {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.metrics.RecordRejection("superseded")
		return domain.ErrOperationSuperseded.WithCause(err)
	}
	m.fail(err, cause)
	m.mu.Unlock()
	m.flush()
	return err
}

// authenticate stores tok and verifies it with a profile fetch. expiresAt is
// the expiry reported next to the token, zero when none was. Must be called
// without mu.
func (m *Manager) authenticate(ctx context.Context, gen uint64, tok string, expiresAt time.Time, cause domain.Cause) error {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.metrics.RecordRejection("superseded")
		return domain.ErrOperationSuperseded
	}
	m.expiresAt = expiresAt
	if !m.usable(tok) {
		err := domain.ErrUnexpectedResponse.WithDetails("backend issued an expired or malformed token")
		m.fail(err, cause)
		m.mu.Unlock()
		m.flush()
		return err
	}
	if err := m.store.Set(ctx, tok); err != nil {
		serr := domain.ErrStorageUnavailable.WithCause(err)
		m.fail(serr, cause)
		m.mu.Unlock()
		m.flush()
		return serr
	}
	m.mu.Unlock()

	return m.fetchProfile(ctx, gen, cause)
}

// fetchProfile completes operation gen with the profile of the stored
// token. Must be called without mu.
func (m *Manager) fetchProfile(ctx context.Context, gen uint64, cause domain.Cause) error {
	profile, err := m.backend.Profile(ctx)

	m.mu.Lock()
	if m.gen != gen {
		// A logout already cleared the slot.
		m.mu.Unlock()
		m.metrics.RecordRejection("superseded")
		if err != nil {
			return domain.ErrOperationSuperseded.WithCause(err)
		}
		return domain.ErrOperationSuperseded
	}

	if err != nil {
		clearErr := m.store.Clear(ctx)
		m.fail(err, cause)
		m.mu.Unlock()
		m.flush()
		if clearErr != nil {
			return errors.Join(err, domain.ErrStorageUnavailable.WithCause(clearErr))
		}
		return err
	}

	m.inflight = false
	m.commit(domain.Authenticated(profile), cause)
	m.mu.Unlock()
	m.flush()
	return nil
}

// flush delivers queued transitions. Only one goroutine delivers at a time;
// a subscriber that calls back into the manager has its transitions
// delivered by the same loop after it returns. Must be called without mu.
func (m *Manager) flush() {
	for {
		if !m.dispatchMu.TryLock() {
			return
		}

		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		subs := make([]subscription, len(m.subs))
		copy(subs, m.subs)
		m.mu.Unlock()

		for _, t := range batch {
			for _, s := range subs {
				s.fn(t)
			}
		}
		m.dispatchMu.Unlock()

		m.mu.Lock()
		more := len(m.pending) > 0
		m.mu.Unlock()
		if !more {
			return
		}
	}
}
