package command

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/cli/output"
	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/guard"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the access token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account e-mail address",
				EnvVars:  []string{"LEXDESK_EMAIL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prefer --password-stdin)",
				EnvVars: []string{"LEXDESK_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "Read the password from the first line of stdin",
			},
		},
		Action: loginAction,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Discard the stored access token",
		Action: logoutAction,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account e-mail address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "full-name",
				Aliases:  []string{"n"},
				Usage:    "Display name",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (prefer --password-stdin)",
			},
			&cli.StringFlag{
				Name:  "confirm-password",
				Usage: "Password confirmation (defaults to --password)",
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "Read the password and, optionally, its confirmation from stdin, one per line",
			},
		},
		Action: registerAction,
	}
}

// ResetPasswordCommand returns the reset-password command.
func ResetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "Request a password reset e-mail",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account e-mail address",
				Required: true,
			},
		},
		Action: resetPasswordAction,
	}
}

func loginAction(c *cli.Context) error {
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}
	if err := a.Guard.Check(guard.RequireAnonymous, a.Session.State()); err != nil {
		return err
	}

	passwords, err := readPasswords(c, 1)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(c.App.ErrWriter, "Signing in...")
	defer spinner.Stop()
	unsubscribe := a.Session.Subscribe(spinner.FollowSession())
	defer unsubscribe()

	creds := domain.Credentials{Email: c.String("email"), Password: passwords[0]}
	if err := a.Session.Login(commandContext(c), creds); err != nil {
		return err
	}
	return printSession(c, "Logged in as")
}

func logoutAction(c *cli.Context) error {
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}

	was := a.Session.State().CurrentUser()
	if err := a.Session.Logout(commandContext(c)); err != nil {
		return err
	}

	if !tableOutput(c) {
		return render(c, newSessionView(a.Session.State()))
	}
	if was == nil {
		fmt.Fprintln(c.App.Writer, "Not logged in.")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Logged out %s.\n", was.Email)
	return nil
}

func registerAction(c *cli.Context) error {
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}
	if err := a.Guard.Check(guard.RequireAnonymous, a.Session.State()); err != nil {
		return err
	}

	passwords, err := readPasswords(c, 2)
	if err != nil {
		return err
	}

	reg := domain.Registration{
		Email:           c.String("email"),
		FullName:        c.String("full-name"),
		Password:        passwords[0],
		ConfirmPassword: passwords[1],
	}

	spinner := output.NewSpinner(c.App.ErrWriter, "Creating account...")
	defer spinner.Stop()
	unsubscribe := a.Session.Subscribe(spinner.FollowSession())
	defer unsubscribe()

	res, err := a.Session.Register(commandContext(c), reg)
	if err != nil {
		return err
	}
	if !res.Pending {
		return printSession(c, "Registered and logged in as")
	}

	if !tableOutput(c) {
		return render(c, registerView{Email: reg.Email, Pending: true})
	}
	fmt.Fprintf(c.App.Writer, "Account created for %s. Run `lexdesk login` to sign in.\n", reg.Email)
	return nil
}

func resetPasswordAction(c *cli.Context) error {
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}

	email := c.String("email")
	if err := a.Session.ResetPassword(commandContext(c), email); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "If an account exists for %s, a reset link is on its way.\n", email)
	return nil
}

// readPasswords returns want passwords. Flags are used unless
// --password-stdin is set, in which case lines are read from stdin. A
// missing confirmation repeats the password.
func readPasswords(c *cli.Context, want int) ([]string, error) {
	var got []string
	if c.Bool("password-stdin") {
		scanner := bufio.NewScanner(c.App.Reader)
		for len(got) < want && scanner.Scan() {
			got = append(got, strings.TrimRight(scanner.Text(), "\r"))
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
	} else {
		got = append(got, c.String("password"))
		if want > 1 && c.IsSet("confirm-password") {
			got = append(got, c.String("confirm-password"))
		}
	}

	if len(got) == 0 || got[0] == "" {
		return nil, errors.New("password required: pass --password or --password-stdin")
	}
	for len(got) < want {
		got = append(got, got[0])
	}
	return got, nil
}

// printSession reports the authenticated user after login or register.
func printSession(c *cli.Context, prefix string) error {
	a, err := EnsureSession(c)
	if err != nil {
		return err
	}
	st := a.Session.State()
	if !tableOutput(c) {
		return render(c, newSessionView(st))
	}
	if u := st.CurrentUser(); u != nil {
		fmt.Fprintf(c.App.Writer, "%s %s.\n", prefix, u.Email)
	}
	return nil
}
