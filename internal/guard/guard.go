package guard

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

// Policy selects which sessions a view admits.
type Policy int

const (
	// RequireAuthenticated admits only authenticated sessions.
	RequireAuthenticated Policy = iota
	// RequireAnonymous admits only sessions that are not authenticated,
	// such as the login and register views.
	RequireAnonymous
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case RequireAuthenticated:
		return "require_authenticated"
	case RequireAnonymous:
		return "require_anonymous"
	default:
		return "unknown"
	}
}

// Outcome is what a guarded view does for a given state.
type Outcome int

const (
	// Render shows the guarded view.
	Render Outcome = iota
	// Placeholder shows a loading view until the session settles.
	Placeholder
	// Redirect sends the user to Decision.Location.
	Redirect
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of Decide.
type Decision struct {
	Outcome  Outcome
	Location string
}

// StateSource exposes the current session state.
type StateSource interface {
	State() domain.State
}

// Guard holds the entry points redirects lead to.
type Guard struct {
	// AnonymousEntry is where unauthenticated users are sent (login view).
	AnonymousEntry string
	// AuthenticatedEntry is where authenticated users are sent (dashboard).
	AuthenticatedEntry string
}

// New creates a guard.
func New(anonymousEntry, authenticatedEntry string) *Guard {
	return &Guard{
		AnonymousEntry:     anonymousEntry,
		AuthenticatedEntry: authenticatedEntry,
	}
}

// Decide maps a state to an outcome under policy p. An Error state counts
// as settled and not authenticated.
func (g *Guard) Decide(p Policy, s domain.State) Decision {
	if s.IsSettling() {
		return Decision{Outcome: Placeholder}
	}

	switch p {
	case RequireAuthenticated:
		if s.IsAuthenticated() {
			return Decision{Outcome: Render}
		}
		return Decision{Outcome: Redirect, Location: g.AnonymousEntry}

	case RequireAnonymous:
		if s.IsAuthenticated() {
			return Decision{Outcome: Redirect, Location: g.AuthenticatedEntry}
		}
		return Decision{Outcome: Render}
	}

	return Decision{Outcome: Redirect, Location: g.AnonymousEntry}
}

// ============================================================================
// net/http
// ============================================================================

var placeholderPage = template.Must(template.New("placeholder").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body><p>Checking your session&hellip;</p><noscript><a href="{{.}}">Continue</a></noscript></body></html>
`))

// Middleware wraps next under policy p, reading state from src on every
// request. A placeholder is a 503 loading page with Retry-After: 1; a
// redirect is a 303 See Other.
func (g *Guard) Middleware(src StateSource, p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(p, src.State())
			switch d.Outcome {
			case Render:
				next.ServeHTTP(w, r)
			case Placeholder:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Cache-Control", "no-store")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				placeholderPage.Execute(w, r.URL.RequestURI())
			case Redirect:
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			}
		})
	}
}

// ============================================================================
// CLI
// ============================================================================

// ErrSettling is returned by Check while the session is still settling.
var ErrSettling = errors.New("session is still being established")

// RedirectError tells a CLI user which command to run instead.
type RedirectError struct {
	Policy   Policy
	Location string
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	if e.Policy == RequireAuthenticated {
		return "not logged in; run `lexdesk login` first"
	}
	return "already logged in; run `lexdesk logout` first"
}

// Check adapts Decide to commands. It returns nil when the command may run.
func (g *Guard) Check(p Policy, s domain.State) error {
	d := g.Decide(p, s)
	switch d.Outcome {
	case Render:
		return nil
	case Placeholder:
		return ErrSettling
	default:
		return &RedirectError{Policy: p, Location: d.Location}
	}
}
