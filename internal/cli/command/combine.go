package command

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/stevenberge/tikv/internal/cli/output"
	"github.com/stevenberge/tikv/internal/core/domain"
)

// CombineCommand returns the combine command.
func CombineCommand() *cli.Command {
	return &cli.Command{
		Name:      "combine",
		Usage:     "Merge checksum results of disjoint ranges",
		UsageText: "kvsum combine --part 0x69a83c7f55f85d21,1,4 --part ...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "part",
				Aliases:  []string{"p"},
				Usage:    "Partial result CHECKSUM,TOTAL_KVS,TOTAL_BYTES, repeatable",
				Required: true,
			},
			outputFlag(),
		},
		Action: runCombine,
	}
}

func runCombine(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	var total domain.ChecksumResult
	for _, p := range c.StringSlice("part") {
		part, err := ParsePart(p)
		if err != nil {
			return err
		}
		total = total.Merge(part)
	}

	if format != output.FormatTable {
		return output.NewFormatter(format).Format(c.App.Writer, total)
	}
	return resultTable(total).Render(c.App.Writer)
}

// ParsePart parses "CHECKSUM,TOTAL_KVS,TOTAL_BYTES". Numbers may carry a
// 0x prefix.
func ParsePart(s string) (domain.ChecksumResult, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return domain.ChecksumResult{}, domain.ErrInvalidArgument.WithDetails("part must be CHECKSUM,TOTAL_KVS,TOTAL_BYTES, got " + s)
	}

	var nums [3]uint64
	for i, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 0, 64)
		if err != nil {
			return domain.ChecksumResult{}, domain.ErrInvalidArgument.WithDetails("part " + s).WithCause(err)
		}
		nums[i] = n
	}
	return domain.ChecksumResult{Checksum: nums[0], TotalKVs: nums[1], TotalBytes: nums[2]}, nil
}
