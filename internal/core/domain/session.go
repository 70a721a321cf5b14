// Package domain defines the core domain models for lexdesk.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling.
package domain

import (
	"errors"
	"time"
)

// Kind tags the variant held by a State.
type Kind int

const (
	// KindBootstrapping is the initial state before any decision is made.
	KindBootstrapping Kind = iota
	// KindAnonymous means no valid token is held.
	KindAnonymous
	// KindAuthenticating means a login/register/profile fetch is in flight.
	KindAuthenticating
	// KindAuthenticated means a live token and a fetched profile are held.
	KindAuthenticated
	// KindError is the transient outcome of a failed attempt.
	KindError
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindBootstrapping:
		return "bootstrapping"
	case KindAnonymous:
		return "anonymous"
	case KindAuthenticating:
		return "authenticating"
	case KindAuthenticated:
		return "authenticated"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Reason classifies an Error state for display.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonValidationFailed   Reason = "validation_failed"
	ReasonAlreadyExists      Reason = "already_exists"
	ReasonNetworkUnavailable Reason = "network_unavailable"
	ReasonUnexpected         Reason = "unexpected"
	ReasonSessionEnded       Reason = "session_ended"
)

// ReasonOf maps an error onto the Reason an Error state carries.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials
	case errors.Is(err, ErrValidationFailed):
		return ReasonValidationFailed
	case errors.Is(err, ErrAlreadyExists):
		return ReasonAlreadyExists
	case errors.Is(err, ErrNetworkUnavailable):
		return ReasonNetworkUnavailable
	case errors.Is(err, ErrTokenExpiredOrMalformed), errors.Is(err, ErrAuthorizationLost):
		return ReasonSessionEnded
	default:
		return ReasonUnexpected
	}
}

// UserProfile is the authenticated user's identity as returned by the backend.
// It is replaced wholesale on every fetch and never mutated in place.
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// State is the session state. Exactly one exists per Manager at any time.
type State struct {
	Kind Kind

	// User is set only when Kind is KindAuthenticated.
	User *UserProfile

	// Reason and Err are set when Kind is KindError, and on the Anonymous
	// state that follows a failure so readers can still see why.
	Reason Reason
	Err    error
}

// Bootstrapping returns the initial state.
func Bootstrapping() State { return State{Kind: KindBootstrapping} }

// Anonymous returns the logged-out state.
func Anonymous() State { return State{Kind: KindAnonymous} }

// AnonymousAfter returns the logged-out state reached because of err.
func AnonymousAfter(err error) State {
	return State{Kind: KindAnonymous, Reason: ReasonOf(err), Err: err}
}

// Authenticating returns the in-flight state.
func Authenticating() State { return State{Kind: KindAuthenticating} }

// Authenticated returns the logged-in state for user.
func Authenticated(user UserProfile) State {
	return State{Kind: KindAuthenticated, User: &user}
}

// Failed returns an Error state carrying err.
func Failed(err error) State {
	return State{Kind: KindError, Reason: ReasonOf(err), Err: err}
}

// IsSettling reports whether a final routing decision must wait.
func (s State) IsSettling() bool {
	return s.Kind == KindBootstrapping || s.Kind == KindAuthenticating
}

// IsAuthenticated reports whether the state is KindAuthenticated.
func (s State) IsAuthenticated() bool {
	return s.Kind == KindAuthenticated
}

// CurrentUser returns the profile of an authenticated state, or nil.
func (s State) CurrentUser() *UserProfile {
	if s.Kind != KindAuthenticated || s.User == nil {
		return nil
	}
	u := *s.User
	return &u
}

// String implements fmt.Stringer.
func (s State) String() string {
	switch s.Kind {
	case KindAuthenticated:
		if s.User != nil {
			return "authenticated(" + s.User.Email + ")"
		}
	case KindError:
		return "error(" + string(s.Reason) + ")"
	}
	return s.Kind.String()
}

// Cause names the operation that produced a transition.
type Cause string

const (
	CauseBootstrap    Cause = "bootstrap"
	CauseLogin        Cause = "login"
	CauseRegister     Cause = "register"
	CauseLogout       Cause = "logout"
	CauseRefresh      Cause = "refresh"
	CauseForcedLogout Cause = "forced_logout"
)

// Transition is delivered to subscribers on every state change.
type Transition struct {
	From  State
	To    State
	Cause Cause
	Seq   uint64
	At    time.Time
}

// Credentials are the login inputs.
type Credentials struct {
	Email    string
	Password string
}

// Registration are the register form inputs.
type Registration struct {
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
}

// Credentials returns the login credentials carried by a registration.
func (r Registration) Credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password}
}

// LoginResult is the canonical login response.
type LoginResult struct {
	Token string
	// ExpiresAt is optional; zero when the backend did not report it.
	ExpiresAt time.Time
}

// RegisterResult is the canonical register response.
type RegisterResult struct {
	// Token is set when the backend logs the new account in directly.
	Token string
	// Pending is true when the caller must log in separately.
	Pending bool
}
