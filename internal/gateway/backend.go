package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/pkg/token"
)

// Endpoint labels used for metrics.
const (
	EndpointLogin    = "login"
	EndpointRegister = "register"
	EndpointProfile  = "profile"
	EndpointReset    = "reset_password"
)

// Login body encodings.
const (
	EncodingJSON = "json"
	EncodingForm = "form"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Routes are the backend paths, relative to the base URL.
type Routes struct {
	Login    string
	Register string
	Profile  string
	Reset    string
}

// DefaultRoutes returns the default backend routes.
func DefaultRoutes() Routes {
	return Routes{
		Login:    "/api/auth/login",
		Register: "/api/auth/register",
		Profile:  "/api/auth/me",
		Reset:    "/api/auth/reset-password",
	}
}

// BackendConfig configures a Backend.
type BackendConfig struct {
	BaseURL       string
	Routes        Routes
	LoginEncoding string

	// Now is used to resolve relative expiries. Default: time.Now.
	Now func() time.Time
}

// Backend translates session operations into backend HTTP calls.
// Every request goes through the http.Client it was built with, which
// should be the one returned by Gateway.Client.
type Backend struct {
	baseURL  string
	routes   Routes
	encoding string
	client   *http.Client
	now      func() time.Time
}

// NewBackend creates a backend adapter.
func NewBackend(cfg BackendConfig, client *http.Client) *Backend {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	routes := cfg.Routes
	def := DefaultRoutes()
	if routes.Login == "" {
		routes.Login = def.Login
	}
	if routes.Register == "" {
		routes.Register = def.Register
	}
	if routes.Profile == "" {
		routes.Profile = def.Profile
	}
	if routes.Reset == "" {
		routes.Reset = def.Reset
	}

	encoding := cfg.LoginEncoding
	if encoding != EncodingForm {
		encoding = EncodingJSON
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Backend{
		baseURL:  baseURL,
		routes:   routes,
		encoding: encoding,
		client:   client,
		now:      now,
	}
}

// BaseURL returns the normalized base URL.
func (b *Backend) BaseURL() string {
	return b.baseURL
}

// Login exchanges credentials for a token.
func (b *Backend) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	ctx = WithEndpoint(ctx, EndpointLogin)

	var (
		req *http.Request
		err error
	)
	if b.encoding == EncodingForm {
		form := url.Values{}
		form.Set("username", creds.Email)
		form.Set("password", creds.Password)
		req, err = b.newRequest(ctx, http.MethodPost, b.routes.Login, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = b.newJSONRequest(ctx, b.routes.Login, loginRequest{Email: creds.Email, Password: creds.Password})
	}
	if err != nil {
		return domain.LoginResult{}, err
	}

	status, body, err := b.do(req)
	if err != nil {
		return domain.LoginResult{}, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
	case status == http.StatusUnauthorized:
		return domain.LoginResult{}, withBody(domain.ErrInvalidCredentials, body)
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return domain.LoginResult{}, withBody(domain.ErrValidationFailed, body)
	default:
		return domain.LoginResult{}, statusError(status, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.LoginResult{}, domain.ErrUnexpectedResponse.WithCause(err)
	}
	tok := tr.token()
	if tok == "" {
		return domain.LoginResult{}, domain.ErrUnexpectedResponse.WithDetails("login response carries no token")
	}

	exp := tr.expiry(b.now())
	if exp.IsZero() {
		if claims, err := token.Decode(tok); err == nil {
			exp = time.Unix(claims.ExpiresAt, 0)
		}
	}
	return domain.LoginResult{Token: tok, ExpiresAt: exp}, nil
}

// Register creates an account. The result carries a token only when the
// backend logs the new account in directly.
func (b *Backend) Register(ctx context.Context, reg domain.Registration) (domain.RegisterResult, error) {
	ctx = WithEndpoint(ctx, EndpointRegister)

	req, err := b.newJSONRequest(ctx, b.routes.Register, registerRequest{
		Email:    reg.Email,
		FullName: reg.FullName,
		Password: reg.Password,
	})
	if err != nil {
		return domain.RegisterResult{}, err
	}

	status, body, err := b.do(req)
	if err != nil {
		return domain.RegisterResult{}, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
	case status == http.StatusBadRequest || status == http.StatusConflict:
		return domain.RegisterResult{}, withBody(domain.ErrAlreadyExists, body)
	case status == http.StatusUnprocessableEntity:
		return domain.RegisterResult{}, withBody(domain.ErrValidationFailed, body)
	default:
		return domain.RegisterResult{}, statusError(status, body)
	}

	var tr tokenResponse
	if len(bytes.TrimSpace(body)) > 0 {
		// A body that is not a token object is just the created user.
		_ = json.Unmarshal(body, &tr)
	}
	if tok := tr.token(); tok != "" {
		return domain.RegisterResult{Token: tok}, nil
	}
	return domain.RegisterResult{Pending: true}, nil
}

// Profile fetches the current user with the token the gateway attaches.
func (b *Backend) Profile(ctx context.Context) (domain.UserProfile, error) {
	ctx = WithEndpoint(ctx, EndpointProfile)

	req, err := b.newRequest(ctx, http.MethodGet, b.routes.Profile, nil)
	if err != nil {
		return domain.UserProfile{}, err
	}

	status, body, err := b.do(req)
	if err != nil {
		return domain.UserProfile{}, err
	}

	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return domain.UserProfile{}, withBody(domain.ErrAuthorizationLost, body)
	default:
		return domain.UserProfile{}, statusError(status, body)
	}

	var pr profileResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return domain.UserProfile{}, domain.ErrUnexpectedResponse.WithCause(err)
	}
	profile, ok := pr.profile()
	if !ok {
		return domain.UserProfile{}, domain.ErrUnexpectedResponse.WithDetails("profile response carries no email")
	}
	return profile, nil
}

// ResetPassword asks the backend to send a reset link to email.
func (b *Backend) ResetPassword(ctx context.Context, email string) error {
	ctx = WithEndpoint(ctx, EndpointReset)

	req, err := b.newJSONRequest(ctx, b.routes.Reset, resetRequest{Email: email})
	if err != nil {
		return err
	}

	status, body, err := b.do(req)
	if err != nil {
		return err
	}

	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return withBody(domain.ErrValidationFailed, body)
	default:
		return statusError(status, body)
	}
}

func (b *Backend) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (b *Backend) newJSONRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	req, err := b.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and returns the status and body. Transport failures,
// including timeouts, become ErrNetworkUnavailable.
func (b *Backend) do(req *http.Request) (int, []byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return 0, nil, de
		}
		return 0, nil, domain.ErrNetworkUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, domain.ErrNetworkUnavailable.WithCause(err)
	}
	return resp.StatusCode, body, nil
}

func withBody(base *domain.DomainError, body []byte) *domain.DomainError {
	if msg := describeError(body); msg != "" {
		return base.WithDetails(msg)
	}
	return base
}

func statusError(status int, body []byte) *domain.DomainError {
	if status >= 500 {
		return withBody(domain.ErrNetworkUnavailable, body).WithCause(fmt.Errorf("status %d", status))
	}
	msg := describeError(body)
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}
	return domain.ErrUnexpectedResponse.WithDetails(msg)
}
