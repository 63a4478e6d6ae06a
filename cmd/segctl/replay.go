package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/segalloc/metrics"
	"github.com/joshuapare/segalloc/mm"
	"github.com/joshuapare/segalloc/trace"
)

var replayMetricsOut string

func init() {
	cmd := newReplayCmd()
	addAllocFlags(cmd)
	cmd.Flags().StringVar(&replayMetricsOut, "metrics-out", "", "Write Prometheus text metrics for every trace to this file")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay trace files and report utilization and throughput",
		Long: `The replay command runs each trace against a fresh allocator, checks
every returned pointer for alignment, bounds and overlap, verifies payload
contents survive realloc and neighbouring writes, and reports the peak
utilization and throughput per trace.

Example:
  segctl replay traces/*.rep
  segctl replay --store file --check short1.rep
  segctl replay --insert lifo --metrics-out metrics.prom traces/*.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
}

// replayRow is one trace in the JSON report.
type replayRow struct {
	Trace       string  `json:"trace"`
	Ops         int     `json:"ops"`
	PeakLive    int     `json:"peak_live"`
	HeapSize    int     `json:"heap_size"`
	Utilization float64 `json:"utilization"`
	ElapsedNS   int64   `json:"elapsed_ns"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	Extends     int     `json:"extends"`
	Coalesces   int     `json:"coalesces"`
	Error       string  `json:"error,omitempty"`
}

type replayReport struct {
	Traces         []replayRow `json:"traces"`
	Ops            int         `json:"ops"`
	AvgUtilization float64     `json:"avg_utilization"`
	OpsPerSec      float64     `json:"ops_per_sec"`
	Failed         int         `json:"failed"`
}

func runReplay(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := alloc.options()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	report := replayReport{}
	var utilSum float64
	var elapsed time.Duration

	for _, path := range args {
		printVerbose("Replaying %s\n", path)
		row, res := replayOne(ctx, path, opts, reg)
		report.Traces = append(report.Traces, row)
		if res == nil {
			report.Failed++
			continue
		}
		report.Ops += res.Ops
		utilSum += res.Utilization
		elapsed += res.Elapsed
	}

	if ok := len(args) - report.Failed; ok > 0 {
		report.AvgUtilization = utilSum / float64(ok)
	}
	if elapsed > 0 {
		report.OpsPerSec = float64(report.Ops) / elapsed.Seconds()
	}

	if replayMetricsOut != "" {
		if err := writeMetrics(replayMetricsOut, reg); err != nil {
			return err
		}
		printVerbose("Metrics written to %s\n", replayMetricsOut)
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else if !quiet {
		printReplayTable(report)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d traces failed", report.Failed, len(args))
	}
	return nil
}

// replayOne loads and replays one trace. res is nil when it failed.
func replayOne(ctx context.Context, path string, opts *mm.Options, reg *prometheus.Registry) (replayRow, *trace.Result) {
	row := replayRow{Trace: path}

	t, err := trace.Load(path)
	if err != nil {
		row.Error = err.Error()
		return row, nil
	}
	row.Trace = t.Name

	st, err := alloc.openStore(t.Name)
	if err != nil {
		row.Error = err.Error()
		return row, nil
	}
	defer func() {
		if err := st.close(); err != nil {
			printVerbose("close %s: %v\n", t.Name, err)
		}
	}()

	res, err := trace.Replay(ctx, t, trace.Config{
		Options:   opts,
		Store:     st.store,
		Tracker:   st.tracker,
		CheckHeap: alloc.check,
		Logger:    logger(),
	})
	if err != nil {
		row.Error = err.Error()
		var re *trace.ReplayError
		if errors.As(err, &re) {
			row.Ops = re.Index
		}
		return row, nil
	}

	c, err := metrics.NewCollector(res.Allocator.Stats, map[string]string{"trace": t.Name})
	if err == nil {
		err = reg.Register(c)
	}
	if err != nil {
		printVerbose("metrics for %s: %v\n", t.Name, err)
	}

	row.Ops = res.Ops
	row.PeakLive = res.PeakLive
	row.HeapSize = res.HeapSize
	row.Utilization = res.Utilization
	row.ElapsedNS = res.Elapsed.Nanoseconds()
	row.OpsPerSec = res.Throughput()
	row.Extends = res.Stats.Extends
	row.Coalesces = res.Stats.Coalesces
	return row, res
}

func writeMetrics(path string, reg *prometheus.Registry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	if err := metrics.WriteText(f, reg); err != nil {
		f.Close()
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return f.Close()
}

func printReplayTable(r replayReport) {
	printInfo("%s\n", paint(headerStyle,
		fmt.Sprintf("%-24s %10s %12s %12s %8s %14s", "TRACE", "OPS", "PEAK LIVE", "HEAP", "UTIL", "OPS/SEC")))
	for _, row := range r.Traces {
		if row.Error != "" {
			printInfo("%-24s %s\n", row.Trace, paint(failStyle, "FAIL: "+row.Error))
			continue
		}
		printInfo("%-24s %10s %12s %12s %8s %14s\n",
			row.Trace, num(row.Ops), num(row.PeakLive), num(row.HeapSize),
			pct(row.Utilization), rate(row.OpsPerSec))
	}
	printInfo("%s\n", paint(mutedStyle,
		fmt.Sprintf("%-24s %10s %12s %12s %8s %14s",
			"total", num(r.Ops), "", "", pct(r.AvgUtilization), rate(r.OpsPerSec))))
	if r.Failed == 0 {
		printInfo("%s\n", paint(okStyle, fmt.Sprintf("%d traces passed", len(r.Traces))))
	}
}
