package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/cli/repl"
	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Run commands interactively against one session",
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	if inShell(c) {
		return errors.New("already in a shell")
	}

	a, err := EnsureSession(c)
	if err != nil {
		return err
	}

	c.App.Metadata[metaShell] = true
	defer func() { c.App.Metadata[metaShell] = false }()

	// A 401 from any command drops the session; say so right away.
	unsubscribe := a.Session.Subscribe(func(t domain.Transition) {
		if t.Cause == domain.CauseForcedLogout {
			fmt.Fprintln(c.App.ErrWriter, "Session expired; log in again.")
		}
	})
	defer unsubscribe()

	history := repl.NewHistory(filepath.Join(filepath.Dir(ParseGlobalFlags(c).Config), "history"))
	if err := history.Load(); err != nil {
		GetLogger(c).Warn("load shell history", "error", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			GetLogger(c).Warn("save shell history", "error", err)
		}
	}()

	var names []string
	for _, cmd := range c.App.Commands {
		if cmd.Name != "shell" && !cmd.Hidden {
			names = append(names, cmd.Name)
		}
	}

	prompt := func() string {
		if u := a.Session.State().CurrentUser(); u != nil {
			return fmt.Sprintf("lexdesk(%s)> ", u.Email)
		}
		return "lexdesk> "
	}

	exec := func(ctx context.Context, args []string) error {
		argv := append([]string{c.App.Name}, args...)
		return c.App.RunContext(ctx, argv)
	}

	r := repl.New(c.App.Reader, c.App.Writer, exec,
		repl.WithPrompt(prompt),
		repl.WithHistory(history),
		repl.WithCommands(names...),
	)
	return r.Run(commandContext(c))
}
