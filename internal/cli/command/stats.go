package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/stevenberge/tikv/internal/cli/output"
)

// valueLogGC is implemented by engines with a value log.
type valueLogGC interface {
	GC(ctx context.Context) (int, error)
}

// StatsCommand returns the stats command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show storage engine statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "gc",
				Usage: "Run value log garbage collection first (badger)",
			},
			outputFlag(),
		},
		Action: runStats,
	}
}

func runStats(c *cli.Context) error {
	rt := runtimeFrom(c)
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	engine, err := rt.Engine()
	if err != nil {
		return err
	}
	ctx := commandContext(c)

	if c.Bool("gc") {
		if gc, ok := engine.(valueLogGC); ok {
			if _, err := gc.GC(ctx); err != nil {
				return err
			}
		} else {
			rt.Logger.Warn("backend has no value log, skipping gc", "backend", rt.Config.Storage.Backend)
		}
	}

	stats, err := engine.Stats(ctx)
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, stats)
}
