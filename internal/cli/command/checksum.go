package command

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/stevenberge/tikv/api/checksumpb"
	"github.com/stevenberge/tikv/internal/cli/output"
	"github.com/stevenberge/tikv/internal/core/domain"
	"github.com/stevenberge/tikv/internal/core/service"
	"github.com/stevenberge/tikv/internal/storage"
	"github.com/stevenberge/tikv/internal/storage/tablecodec"
)

// ChecksumCommand returns the checksum command.
func ChecksumCommand() *cli.Command {
	return &cli.Command{
		Name:  "checksum",
		Usage: "Checksum the rows visible at a snapshot in one or more key ranges",
		Description: "Without --range or --table-id the whole key space is scanned. " +
			"Results of disjoint ranges can be merged with 'kvsum combine'.",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:     "start-ts",
				Aliases:  []string{"t"},
				Usage:    "Snapshot timestamp",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "algorithm",
				Usage: "Checksum algorithm",
				Value: domain.AlgorithmCRC64XOR.String(),
			},
			&cli.StringFlag{
				Name:  "scan-on",
				Usage: "Key layout scanned: table, index",
			},
			&cli.StringSliceFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "Key range START:END, repeatable; an empty END is unbounded. Use --hex for keys containing ':'",
			},
			&cli.Int64Flag{
				Name:  "table-id",
				Usage: "Checksum the records of this table",
			},
			&cli.Int64Flag{
				Name:  "index-id",
				Usage: "With --table-id, checksum this index instead of the records",
			},
			&cli.StringFlag{
				Name:  "isolation",
				Usage: "Isolation level: si, rc",
			},
			&cli.BoolFlag{
				Name:  "no-fill-cache",
				Usage: "Do not populate storage caches while scanning",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail on keys that do not match the scanned key layout",
			},
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "Range bounds are hex encoded",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the encoded response envelope as hex",
			},
			outputFlag(),
		},
		Action: runChecksum,
	}
}

func runChecksum(c *cli.Context) error {
	rt := runtimeFrom(c)
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	algo, err := domain.ParseChecksumAlgorithm(c.String("algorithm"))
	if err != nil {
		return err
	}
	scanOnName := rt.Config.Checksum.ScanOn
	if c.IsSet("scan-on") {
		scanOnName = c.String("scan-on")
	}
	scanOn, err := domain.ParseScanOn(scanOnName)
	if err != nil {
		return err
	}
	ranges, scanOn, err := checksumRanges(c, scanOn)
	if err != nil {
		return err
	}
	reqCtx, err := checksumReqContext(c, rt)
	if err != nil {
		return err
	}

	engine, err := rt.Engine()
	if err != nil {
		return err
	}
	svc := service.NewChecksumService(storage.NewSnapshot(engine), service.WithRecorder(rt.Registry))
	ctx := commandContext(c)
	req := domain.ChecksumRequest{Algorithm: algo, ScanOn: scanOn, StartTS: c.Uint64("start-ts")}

	if c.Bool("raw") {
		wire := checksumpb.ChecksumRequest{StartTS: req.StartTS, ScanOn: int32(req.ScanOn), Algorithm: int32(req.Algorithm)}
		payload, err := wire.Marshal()
		if err != nil {
			return err
		}
		env, err := svc.HandleWire(ctx, payload, ranges, reqCtx)
		if env != nil {
			fmt.Fprintln(c.App.Writer, hex.EncodeToString(env))
		}
		return err
	}

	out, err := svc.Handle(ctx, req, ranges, reqCtx)
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		return output.NewFormatter(format).Format(c.App.Writer, out)
	}
	table := resultTable(out.Result)
	table.AddRow("ranges", fmt.Sprintf("%d", out.Metrics.ScanCounter.Range))
	table.AddRow("elapsed", out.Elapsed.String())
	table.AddRow("request_id", out.RequestID)
	return table.Render(c.App.Writer)
}

// checksumRanges resolves --range and --table-id/--index-id. An index id
// switches the scan to the index layout.
func checksumRanges(c *cli.Context, scanOn domain.ScanOn) ([]domain.KeyRange, domain.ScanOn, error) {
	specs := c.StringSlice("range")

	if c.IsSet("index-id") && !c.IsSet("table-id") {
		return nil, scanOn, domain.ErrInvalidArgument.WithDetails("--index-id requires --table-id")
	}
	if c.IsSet("table-id") {
		if len(specs) > 0 {
			return nil, scanOn, domain.ErrInvalidArgument.WithDetails("--range and --table-id are mutually exclusive")
		}
		tableID := c.Int64("table-id")
		want, r := domain.ScanOnTable, tablecodec.TableRecordRange(tableID)
		if c.IsSet("index-id") {
			want, r = domain.ScanOnIndex, tablecodec.TableIndexRange(tableID, c.Int64("index-id"))
		}
		if c.IsSet("scan-on") && scanOn != want {
			return nil, scanOn, domain.ErrInvalidArgument.WithDetails(
				fmt.Sprintf("--scan-on %s conflicts with the %s range of --table-id", scanOn, want))
		}
		return []domain.KeyRange{r}, want, nil
	}

	if len(specs) == 0 {
		return []domain.KeyRange{{}}, scanOn, nil
	}
	ranges := make([]domain.KeyRange, 0, len(specs))
	for _, s := range specs {
		r, err := domain.ParseKeyRange(s, c.Bool("hex"))
		if err != nil {
			return nil, scanOn, err
		}
		ranges = append(ranges, r)
	}
	return ranges, scanOn, nil
}

func checksumReqContext(c *cli.Context, rt *Runtime) (service.ReqContext, error) {
	reqCtx, err := rt.Config.ReqContext()
	if err != nil {
		return reqCtx, err
	}
	if c.IsSet("isolation") {
		if reqCtx.Isolation, err = domain.ParseIsolationLevel(c.String("isolation")); err != nil {
			return reqCtx, err
		}
	}
	if c.Bool("no-fill-cache") {
		reqCtx.FillCache = false
	}
	if c.Bool("strict") {
		reqCtx.StrictLayout = true
	}
	return reqCtx, nil
}

// resultTable renders a result with the checksum in hex.
func resultTable(r domain.ChecksumResult) *output.Table {
	table := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	table.AddRow("checksum", fmt.Sprintf("%#016x", r.Checksum))
	table.AddRow("total_kvs", fmt.Sprintf("%d", r.TotalKVs))
	table.AddRow("total_bytes", fmt.Sprintf("%d", r.TotalBytes))
	return table
}
