package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/cli/output"
	"github.com/yndnr/lexdesk-go/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg := config.Sanitize(GetConfig(c))
	if tableOutput(c) {
		return (&output.YAMLFormatter{}).Format(c.App.Writer, cfg)
	}
	return render(c, cfg)
}

func configPath(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, ParseGlobalFlags(c).Config)
	return nil
}

func configInit(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	path := flags.Config

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	cfg := config.Default()
	if flags.BaseURL != "" {
		cfg.Backend.BaseURL = flags.BaseURL
	}
	if err := config.Verify(cfg); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = ParseGlobalFlags(c).Config
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := config.Load(path, nil); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "✓ %s is valid\n", path)
	return nil
}
