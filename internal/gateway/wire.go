package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

// loginRequest is the JSON login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest is the register body.
type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// resetRequest is the password reset body.
type resetRequest struct {
	Email string `json:"email"`
}

// tokenResponse accepts the token shapes backends are known to return.
type tokenResponse struct {
	Token          string          `json:"token"`
	AccessToken    string          `json:"access_token"`
	ExpiresAt      json.RawMessage `json:"expires_at"`
	ExpiresAtCamel json.RawMessage `json:"expiresAt"`
	ExpiresIn      *int64          `json:"expires_in"`
}

func (r tokenResponse) token() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// expiry resolves the optional expiry against now. Zero means unknown.
func (r tokenResponse) expiry(now time.Time) time.Time {
	for _, raw := range []json.RawMessage{r.ExpiresAt, r.ExpiresAtCamel} {
		if t, ok := parseInstant(raw); ok {
			return t
		}
	}
	if r.ExpiresIn != nil && *r.ExpiresIn > 0 {
		return now.Add(time.Duration(*r.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// parseInstant accepts epoch seconds, epoch milliseconds or RFC 3339.
func parseInstant(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil && v > 0 {
			if v > 1e12 {
				return time.UnixMilli(v), true
			}
			return time.Unix(v, 0), true
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			return time.Unix(v, 0), true
		}
	}
	return time.Time{}, false
}

// profileResponse accepts snake_case, camelCase and wrapped profiles.
type profileResponse struct {
	ID            json.RawMessage  `json:"id"`
	Email         string           `json:"email"`
	FullName      string           `json:"full_name"`
	FullNameCamel string           `json:"fullName"`
	Name          string           `json:"name"`
	User          *profileResponse `json:"user"`
}

// profile returns the canonical profile, or false when no identity is present.
func (p *profileResponse) profile() (domain.UserProfile, bool) {
	if p.Email == "" && p.User != nil {
		return p.User.profile()
	}
	if p.Email == "" {
		return domain.UserProfile{}, false
	}

	name := p.FullName
	if name == "" {
		name = p.FullNameCamel
	}
	if name == "" {
		name = p.Name
	}

	return domain.UserProfile{
		ID:       rawID(p.ID),
		Email:    p.Email,
		FullName: name,
	}, true
}

// rawID renders a numeric or string id as a string.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// errorResponse accepts {detail}, {message}, {code,message} and {error}.
// detail may be a string or a list of validation items.
type errorResponse struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
}

// describe extracts a human-readable message from an error body.
func describeError(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}

	if msg := detailText(e.Detail); msg != "" {
		return msg
	}
	if e.Message != "" {
		if e.Code != "" {
			return e.Code + ": " + e.Message
		}
		return e.Message
	}
	return e.Error
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if field := lastLoc(it.Loc); field != "" {
				msgs = append(msgs, field+": "+it.Msg)
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}
