package command

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	if app.Name != "lexdesk" {
		t.Errorf("Name = %q, want %q", app.Name, "lexdesk")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}

	required := []string{"login", "logout", "register", "reset-password", "whoami", "status", "config", "version", "shell"}
	for _, name := range required {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, flag := range App().Flags {
		flagNames[flag.Names()[0]] = true
	}

	for _, name := range []string{"config", "base-url", "output", "verbose"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)

			if flags.Config != "/tmp/lexdesk.yaml" {
				t.Errorf("Config = %q, want %q", flags.Config, "/tmp/lexdesk.yaml")
			}
			if flags.BaseURL != "http://api.test" {
				t.Errorf("BaseURL = %q, want %q", flags.BaseURL, "http://api.test")
			}
			if flags.Output != "json" {
				t.Errorf("Output = %q, want %q", flags.Output, "json")
			}
			if !flags.Verbose {
				t.Error("Verbose should be true")
			}
			return nil
		},
	}

	args := []string{
		"test",
		"--config", "/tmp/lexdesk.yaml",
		"--base-url", "http://api.test",
		"-o", "json",
		"--verbose",
	}
	if err := app.Run(args); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestParseGlobalFlags_Defaults(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)

			if flags.Output != "table" {
				t.Errorf("Output default = %q, want %q", flags.Output, "table")
			}
			if flags.BaseURL != "" {
				t.Errorf("BaseURL default = %q, want empty", flags.BaseURL)
			}
			if flags.Config == "" {
				t.Error("Config should default to the per-user path")
			}
			if flags.Verbose {
				t.Error("Verbose default should be false")
			}
			return nil
		},
	}

	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestApp_InvalidOutputFormat(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run("", "-o", "xml", "status"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestApp_InvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.run("", "--base-url", "not a url", "status"); err == nil {
		t.Fatal("expected error for invalid backend URL")
	}
}

func TestApp_StoreClosedBetweenRuns(t *testing.T) {
	env := newTestEnv(t)

	// Badger holds a directory lock; a leaked store would fail the second run.
	env.mustRun("status")
	env.mustRun("status")
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "domain error",
			err:  fmt.Errorf("login: %w", domain.ErrInvalidCredentials),
			want: "error: invalid credentials (LX-AUTH-4010)\n",
		},
		{
			name: "domain error with details",
			err:  domain.ErrValidationFailed.WithDetails("email: must be a valid email address."),
			want: "error: validation failed: email: must be a valid email address. (LX-AUTH-4220)\n",
		},
		{
			name: "plain error",
			err:  errors.New("load config: boom"),
			want: "error: load config: boom\n",
		},
		{
			name: "silent exit",
			err:  cli.Exit("", 1),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			if buf.String() != tt.want {
				t.Errorf("PrintError() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
