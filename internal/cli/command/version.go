package command

import (
	"github.com/urfave/cli/v2"

	"github.com/stevenberge/tikv/internal/cli/output"
	"github.com/stevenberge/tikv/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Flags:  []cli.Flag{outputFlag()},
		Action: runVersion,
	}
}

func runVersion(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, buildinfo.Get())
}
