package command

import (
	"github.com/urfave/cli/v2"

	"github.com/stevenberge/tikv/internal/cli/output"
	"github.com/stevenberge/tikv/internal/infra/fixture"
)

// LoadCommand returns the load command.
func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Write rows from a JSON lines file (optionally zstd compressed) at a commit timestamp",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Fixture file, - for stdin",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "commit-ts",
				Usage:    "Commit timestamp for every row",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "Keys and values are hex encoded",
			},
			&cli.IntFlag{
				Name:  "batch",
				Usage: "Rows per commit (default from config)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not report progress",
			},
			outputFlag(),
		},
		Action: runLoad,
	}
}

func runLoad(c *cli.Context) error {
	rt := runtimeFrom(c)
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	r, err := fixture.Open(c.String("input"))
	if err != nil {
		return err
	}
	defer r.Close()

	engine, err := rt.Engine()
	if err != nil {
		return err
	}

	batch := rt.Config.Checksum.LoadBatch
	if c.IsSet("batch") {
		batch = c.Int("batch")
	}
	progress := output.NewProgress(nil, "loaded")
	if !c.Bool("quiet") {
		progress = output.NewProgress(c.App.ErrWriter, "loaded")
	}

	res, err := fixture.Load(commandContext(c), engine, r, fixture.LoadOptions{
		CommitTS:  c.Uint64("commit-ts"),
		Hex:       c.Bool("hex"),
		BatchSize: batch,
		OnBatch: func(rows int, size uint64) {
			rt.Registry.AddLoadedRows(rows)
			progress.Add(int64(rows), int64(size))
		},
	})
	if !c.Bool("quiet") && res.Batches > 0 {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	return output.NewFormatter(format).Format(c.App.Writer, res)
}
