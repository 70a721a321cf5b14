package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/yndnr/lexdesk-go/internal/app"
	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/core/session"
	"github.com/yndnr/lexdesk-go/internal/guard"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
)

// Handler serves the pages of the web client.
type Handler struct {
	app   *app.App
	pages pages
	log   logger.Logger
}

// NewHandler creates the page handlers over a.
func NewHandler(a *app.App, log logger.Logger) (*Handler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handler{app: a, pages: p, log: log}, nil
}

// ============================================================================
// Pages
// ============================================================================

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// A settling session goes to the authenticated entry, whose guard shows
	// the placeholder until the outcome is known.
	switch h.app.Session.State().Kind {
	case domain.KindAnonymous, domain.KindError:
		http.Redirect(w, r, h.app.Guard.AnonymousEntry, http.StatusSeeOther)
	default:
		http.Redirect(w, r, h.app.Guard.AuthenticatedEntry, http.StatusSeeOther)
	}
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Log in", Email: r.URL.Query().Get("email")}
	if r.URL.Query().Get("registered") == "1" {
		data.Notice = "Account created. Log in to continue."
	}
	h.render(w, r, http.StatusOK, "login", data)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	creds := domain.Credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}

	ok, err := await(r, func(ctx context.Context) error {
		return h.app.Session.Login(ctx, creds)
	})
	if !ok {
		return
	}
	if err != nil {
		h.render(w, r, statusFor(err), "login", pageData{
			Title: "Log in",
			Email: creds.Email,
			Error: message(err),
		})
		return
	}
	http.Redirect(w, r, h.app.Guard.AuthenticatedEntry, http.StatusSeeOther)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", pageData{Title: "Create account"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	reg := domain.Registration{
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		FullName:        strings.TrimSpace(r.PostFormValue("full_name")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	var res domain.RegisterResult
	ok, err := await(r, func(ctx context.Context) (err error) {
		res, err = h.app.Session.Register(ctx, reg)
		return err
	})
	if !ok {
		return
	}
	if err != nil {
		h.render(w, r, statusFor(err), "register", pageData{
			Title:    "Create account",
			Email:    reg.Email,
			FullName: reg.FullName,
			Error:    message(err),
		})
		return
	}

	if res.Pending {
		q := url.Values{"registered": {"1"}, "email": {reg.Email}}
		http.Redirect(w, r, h.app.Guard.AnonymousEntry+"?"+q.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.app.Guard.AuthenticatedEntry, http.StatusSeeOther)
}

func (h *Handler) resetPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "reset", pageData{Title: "Reset password"})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))

	if err := h.app.Session.ResetPassword(r.Context(), email); err != nil {
		h.render(w, r, statusFor(err), "reset", pageData{
			Title: "Reset password",
			Email: email,
			Error: message(err),
		})
		return
	}
	h.render(w, r, http.StatusOK, "reset", pageData{
		Title:  "Reset password",
		Notice: "If an account exists for " + email + ", a reset link is on its way.",
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.refresh(w, r) {
		return
	}
	h.render(w, r, http.StatusOK, "dashboard", pageData{Title: "Dashboard"})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	if !h.refresh(w, r) {
		return
	}
	h.render(w, r, http.StatusOK, "profile", pageData{Title: "Profile"})
}

func (h *Handler) logoutPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "logout", pageData{Title: "Log out"})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Session.Logout(r.Context()); err != nil {
		// The session is Anonymous regardless; only the store write failed.
		h.log.WithContext(r.Context()).Warn("logout could not clear the token store",
			"error", err,
		)
	}
	http.Redirect(w, r, h.app.Guard.AnonymousEntry, http.StatusSeeOther)
}

// ============================================================================
// API
// ============================================================================

type sessionResponse struct {
	State  string              `json:"state"`
	User   *domain.UserProfile `json:"user,omitempty"`
	Reason string              `json:"reason,omitempty"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	st := h.app.Session.State()
	resp := sessionResponse{
		State:  st.Kind.String(),
		User:   st.CurrentUser(),
		Reason: string(st.Reason),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// ============================================================================
// Helpers
// ============================================================================

// render executes a page into a buffer first so a template error still
// yields a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	data.User = h.app.Session.State().CurrentUser()

	var buf bytes.Buffer
	if err := h.pages.render(&buf, name, data); err != nil {
		h.log.WithContext(r.Context()).Error("render page",
			"page", name,
			"error", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// refresh re-checks the session before a guarded page renders and applies
// the guard again to the result. It reports false when it redirected.
// A refresh that could not reach the backend keeps the session and the page
// renders with the profile already held.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) bool {
	err := h.app.Session.Refresh(r.Context())

	d := h.app.Guard.Decide(guard.RequireAuthenticated, h.app.Session.State())
	switch d.Outcome {
	case guard.Redirect:
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, d.Location, http.StatusSeeOther)
		return false
	case guard.Placeholder:
		// A new sign-in started meanwhile; the guard answers the retry.
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, r.URL.RequestURI(), http.StatusSeeOther)
		return false
	}
	if err != nil {
		h.log.WithContext(r.Context()).Warn("session refresh failed",
			"error", err,
			"error_code", domain.GetErrorCode(err),
		)
	}
	return true
}

// await runs op detached from the request's cancellation, so a login or
// register that reached the backend still lands in the session when the
// browser goes away. ok is false if the client left first; nothing should
// be written then.
func await(r *http.Request, op func(context.Context) error) (ok bool, err error) {
	scope := session.NewScope()
	done := make(chan error, 1)
	scope.Go(func() error {
		return op(context.WithoutCancel(r.Context()))
	}, func(err error) {
		done <- err
	})

	select {
	case err := <-done:
		return true, err
	case <-r.Context().Done():
		scope.Unmount()
		return false, nil
	}
}

// statusFor maps a session error to the status of the re-rendered form.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrOperationInProgress),
		errors.Is(err, domain.ErrOperationSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// message is the text shown inline on a form.
func message(err error) string {
	var de *domain.DomainError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Incorrect e-mail or password."
	case errors.Is(err, domain.ErrAlreadyExists):
		return "An account with this e-mail already exists."
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return "The server could not be reached. Try again shortly."
	case errors.Is(err, domain.ErrOperationInProgress):
		return "Another sign-in is already in progress."
	case errors.Is(err, domain.ErrValidationFailed) && errors.As(err, &de) && de.Details != "":
		return de.Details
	case domain.IsUserFacing(err) && errors.As(err, &de):
		return de.Message
	default:
		return "Something went wrong. Try again."
	}
}
