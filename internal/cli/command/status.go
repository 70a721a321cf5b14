package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/app"
	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/guard"
	"github.com/yndnr/lexdesk-go/internal/storage"
	"github.com/yndnr/lexdesk-go/pkg/token"
)

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in user",
		Action: whoamiAction,
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show session state, token expiry and backend",
		Action: statusAction,
	}
}

type profileView struct {
	ID       string `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	FullName string `json:"full_name" yaml:"full_name"`
}

type sessionView struct {
	State string       `json:"state" yaml:"state"`
	User  *profileView `json:"user,omitempty" yaml:"user,omitempty" table:"-"`
	Email string       `json:"-" yaml:"-" table:"email"`
}

func newSessionView(st domain.State) sessionView {
	v := sessionView{State: st.Kind.String()}
	if u := st.CurrentUser(); u != nil {
		v.User = &profileView{ID: u.ID, Email: u.Email, FullName: u.FullName}
		v.Email = u.Email
	}
	return v
}

type registerView struct {
	Email   string `json:"email" yaml:"email"`
	Pending bool   `json:"pending" yaml:"pending"`
}

type statusView struct {
	State          string     `json:"state" yaml:"state"`
	UserID         string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Email          string     `json:"email,omitempty" yaml:"email,omitempty"`
	FullName       string     `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	Backend        string     `json:"backend" yaml:"backend"`
	StorageDir     string     `json:"storage_dir" yaml:"storage_dir"`
	Sealed         bool       `json:"sealed" yaml:"sealed"`
}

func whoamiAction(c *cli.Context) error {
	_, resumed := c.App.Metadata[metaApp].(*app.App)
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}
	// A fresh process verified the session while bootstrapping; a shell
	// holding one from earlier checks it again.
	if resumed {
		if err := a.Session.Refresh(commandContext(c)); err != nil {
			GetLogger(c).Warn("session refresh failed", "error", err)
		}
	}
	st := a.Session.State()
	if err := a.Guard.Check(guard.RequireAuthenticated, st); err != nil {
		return err
	}
	u := st.CurrentUser()
	return render(c, profileView{ID: u.ID, Email: u.Email, FullName: u.FullName})
}

func statusAction(c *cli.Context) error {
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}

	st := a.Session.State()
	v := statusView{
		State:      st.Kind.String(),
		Backend:    a.Backend.BaseURL(),
		StorageDir: a.Config.Auth.StorageDir,
	}
	if u := st.CurrentUser(); u != nil {
		v.UserID, v.Email, v.FullName = u.ID, u.Email, u.FullName
	}
	if raw, ok, err := a.Store.Get(commandContext(c)); err == nil && ok {
		if claims, err := token.Decode(raw); err == nil {
			exp := time.Unix(claims.ExpiresAt, 0).UTC()
			v.TokenExpiresAt = &exp
		}
	}
	if bs, ok := a.Store.(*storage.BadgerStore); ok {
		v.Sealed = bs.Sealed()
	}
	return render(c, v)
}
