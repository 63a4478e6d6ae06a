package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/joshuapare/segalloc/internal/format"
	"github.com/joshuapare/segalloc/mm"
	"github.com/joshuapare/segalloc/trace"
)

var sizesTop int

func init() {
	cmd := newSizesCmd()
	cmd.Flags().IntVar(&sizesTop, "top", 0, "Show only the N most requested sizes (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newSizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes <trace>...",
		Short: "Show the request size histogram of traces",
		Long: `The sizes command lists every distinct size requested by the alloc and
realloc ops of each trace, with the bucket a block of that size lands in.

Example:
  segctl sizes short1.rep
  segctl sizes --top 10 --json realloc.rep binary.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSizes(args)
		},
	}
}

type sizeRow struct {
	Size   int `json:"size"`
	Count  int `json:"count"`
	Block  int `json:"block"`
	Bucket int `json:"bucket"`
}

type sizesReport struct {
	Trace    string    `json:"trace"`
	Requests int       `json:"requests"`
	Min      int       `json:"min"`
	Max      int       `json:"max"`
	Distinct int       `json:"distinct"`
	Sizes    []sizeRow `json:"sizes"`
}

func runSizes(args []string) error {
	reports := make([]sizesReport, 0, len(args))
	for _, path := range args {
		t, err := trace.Load(path)
		if err != nil {
			return err
		}
		reports = append(reports, buildSizes(t))
	}

	if jsonOut {
		return printJSON(reports)
	}
	for i, rep := range reports {
		if i > 0 {
			printInfo("\n")
		}
		printSizes(rep)
	}
	return nil
}

func buildSizes(t *trace.Trace) sizesReport {
	h := trace.SizeHistogram(t)
	rep := sizesReport{
		Trace:    t.Name,
		Requests: h.Requests,
		Min:      h.Min,
		Max:      h.Max,
		Distinct: len(h.Sizes),
	}
	rows := make([]sizeRow, 0, len(h.Sizes))
	for _, sc := range h.Sizes {
		block := format.AdjustedSize(sc.Size)
		rows = append(rows, sizeRow{
			Size:   sc.Size,
			Count:  sc.Count,
			Block:  block,
			Bucket: mm.BucketOf(block),
		})
	}
	if sizesTop > 0 && sizesTop < len(rows) {
		// Most requested first; ties by size.
		slices.SortStableFunc(rows, func(a, b sizeRow) int { return b.Count - a.Count })
		rows = rows[:sizesTop]
	}
	rep.Sizes = rows
	return rep
}

func printSizes(rep sizesReport) {
	printInfo("%s\n", paint(headerStyle, rep.Trace))
	printInfo("Requests: %s  Distinct: %s  Min: %s  Max: %s\n\n",
		num(rep.Requests), num(rep.Distinct), num(rep.Min), num(rep.Max))
	printInfo("%s\n", paint(headerStyle, fmt.Sprintf("%10s %8s %10s %6s", "SIZE", "COUNT", "BLOCK", "BUCKET")))
	for _, r := range rep.Sizes {
		printInfo("%10s %8s %10s %6d\n", num(r.Size), num(r.Count), num(r.Block), r.Bucket)
	}
}
