package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/app"
	"github.com/yndnr/lexdesk-go/internal/cli/output"
	"github.com/yndnr/lexdesk-go/internal/config"
	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
)

// Metadata keys.
const (
	metaConfig  = "config"
	metaLogger  = "logger"
	metaApp     = "app"
	metaShell   = "shell"
	metaOptions = "appOptions"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "lexdesk",
		Usage:   "Sign in to a lexdesk backend and manage the local session",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			RegisterCommand(),
			ResetPasswordCommand(),
			WhoamiCommand(),
			StatusCommand(),
			ConfigCommand(),
			VersionCommand(),
			ShellCommand(),
		},
		Before:         setup,
		After:          teardown,
		Metadata:       map[string]any{},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
			EnvVars: []string{"LEXDESK_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Aliases: []string{"b"},
			Usage:   "Backend base URL (overrides backend.base_url)",
			EnvVars: []string{"LEXDESK_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	BaseURL string
	Output  string
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		BaseURL: c.String("base-url"),
		Output:  c.String("output"),
		Verbose: c.Bool("verbose"),
	}
}

// setup loads the configuration and logger. Inside a shell the outer
// invocation's configuration is reused.
func setup(c *cli.Context) error {
	if _, ok := c.App.Metadata[metaConfig].(*config.Config); ok && inShell(c) {
		return nil
	}

	flags := ParseGlobalFlags(c)
	if _, err := output.ParseFormat(flags.Output); err != nil {
		return err
	}

	overrides := map[string]any{}
	if flags.BaseURL != "" {
		overrides["backend.base_url"] = flags.BaseURL
	}
	if flags.Verbose {
		overrides["log.level"] = "debug"
	}

	cfg, err := config.Load(flags.Config, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = log
	return nil
}

// teardown closes the session store opened by the command, unless a shell
// still owns it.
func teardown(c *cli.Context) error {
	if inShell(c) {
		return nil
	}
	a, ok := c.App.Metadata[metaApp].(*app.App)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, metaApp)
	return a.Close()
}

func inShell(c *cli.Context) bool {
	nested, _ := c.App.Metadata[metaShell].(bool)
	return nested
}

// GetConfig returns the configuration loaded by setup.
func GetConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// GetLogger returns the logger created by setup.
func GetLogger(c *cli.Context) logger.Logger {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l
	}
	return logger.Discard()
}

// EnsureSession opens the session core on first use and bootstraps it from
// the token slot. Later calls in the same process return the same App.
func EnsureSession(c *cli.Context) (*app.App, error) {
	if a, ok := c.App.Metadata[metaApp].(*app.App); ok {
		return a, nil
	}

	opts, _ := c.App.Metadata[metaOptions].([]app.Option)
	a, err := app.New(GetConfig(c), GetLogger(c), opts...)
	if err != nil {
		return nil, err
	}

	if err := a.Session.Bootstrap(commandContext(c)); err != nil {
		// The session is already Anonymous; commands that do not need the
		// stored token can still run.
		GetLogger(c).Warn("session bootstrap failed", "error", err)
	}

	c.App.Metadata[metaApp] = a
	return a, nil
}

func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

// render writes data to stdout in the selected output format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

func tableOutput(c *cli.Context) bool {
	format, _ := output.ParseFormat(ParseGlobalFlags(c).Output)
	return format == output.FormatTable
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	var exit cli.ExitCoder
	if errors.As(err, &exit) && exit.Error() == "" {
		return
	}

	// Session errors print their message and code without the wrapping
	// chain, which only repeats the command name.
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg := de.Message
		if de.Details != "" {
			msg += ": " + de.Details
		}
		fmt.Fprintf(w, "error: %s (%s)\n", msg, de.Code)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
