package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lexdesk-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			if tableOutput(c) {
				fmt.Fprintf(c.App.Writer, "lexdesk %s\n", buildinfo.String())
				return nil
			}
			return render(c, buildinfo.Get())
		},
	}
}
