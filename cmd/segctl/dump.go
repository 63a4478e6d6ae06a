package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/segalloc/mm"
	"github.com/joshuapare/segalloc/trace"
)

var (
	dumpOps   int
	dumpLimit int
)

func init() {
	cmd := newDumpCmd()
	addAllocFlags(cmd)
	cmd.Flags().IntVar(&dumpOps, "ops", 0, "Stop after N ops (0 = run the whole trace)")
	cmd.Flags().IntVar(&dumpLimit, "limit", 200, "Maximum number of blocks to print (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <trace>",
		Short: "Print the heap block map after replaying a trace",
		Long: `The dump command replays a trace, optionally stopping early, and prints
every block in address order followed by the length of each free-list
bucket. The heap checker runs before anything is printed.

Example:
  segctl dump --ops 40 short1.rep
  segctl dump --json binary.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), args)
		},
	}
}

type dumpBlock struct {
	Offset    int  `json:"offset"`
	Size      int  `json:"size"`
	Alloc     bool `json:"alloc"`
	PrevAlloc bool `json:"prev_alloc"`
	Bucket    int  `json:"bucket"`
}

type dumpBucket struct {
	Index  int `json:"index"`
	Lo     int `json:"lo"`
	Hi     int `json:"hi"`
	Length int `json:"length"`
}

type dumpReport struct {
	Trace     string       `json:"trace"`
	Ops       int          `json:"ops"`
	HeapSize  int          `json:"heap_size"`
	Blocks    []dumpBlock  `json:"blocks"`
	Truncated bool         `json:"truncated,omitempty"`
	Buckets   []dumpBucket `json:"buckets"`
	Check     string       `json:"check"`
}

func runDump(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := alloc.options()
	if err != nil {
		return err
	}
	t, err := trace.Load(args[0])
	if err != nil {
		return err
	}
	st, err := alloc.openStore(t.Name)
	if err != nil {
		return err
	}
	defer st.close()

	res, err := trace.Replay(ctx, t, trace.Config{
		Options:   opts,
		Store:     st.store,
		Tracker:   st.tracker,
		CheckHeap: alloc.check,
		StopAfter: dumpOps,
		Logger:    logger(),
	})
	if err != nil {
		return err
	}
	a := res.Allocator

	rep := dumpReport{Trace: t.Name, Ops: res.Ops, HeapSize: res.HeapSize, Check: "ok"}
	if err := a.Check(); err != nil {
		rep.Check = err.Error()
	}
	a.Blocks(func(b mm.BlockInfo) bool {
		if dumpLimit > 0 && len(rep.Blocks) == dumpLimit {
			rep.Truncated = true
			return false
		}
		rep.Blocks = append(rep.Blocks, dumpBlock{
			Offset:    int(b.Ptr),
			Size:      b.Size,
			Alloc:     b.Alloc,
			PrevAlloc: b.PrevAlloc,
			Bucket:    b.Bucket,
		})
		return true
	})
	stats := a.Stats()
	for i, n := range stats.BucketLengths {
		lo, hi := mm.BucketRange(i)
		rep.Buckets = append(rep.Buckets, dumpBucket{Index: i, Lo: lo, Hi: hi, Length: n})
	}

	if jsonOut {
		return printJSON(rep)
	}
	printDump(rep, stats)
	return nil
}

func printDump(rep dumpReport, stats mm.Stats) {
	printInfo("%s after %s ops, heap %s bytes\n\n",
		paint(headerStyle, rep.Trace), num(rep.Ops), num(rep.HeapSize))

	printInfo("%s\n", paint(headerStyle, fmt.Sprintf("%-10s %10s  %-5s %-4s %s", "OFFSET", "SIZE", "STATE", "PREV", "BUCKET")))
	for _, b := range rep.Blocks {
		state, style := "alloc", allocStyle
		bucket := ""
		if !b.Alloc {
			state, style = "free", freeStyle
			bucket = fmt.Sprintf("%d", b.Bucket)
		}
		prev := "f"
		if b.PrevAlloc {
			prev = "a"
		}
		printInfo("%-10s %10s  %s %-4s %s\n",
			mm.Ptr(b.Offset), num(b.Size), paint(style, fmt.Sprintf("%-5s", state)), prev, bucket)
	}
	if rep.Truncated {
		printInfo("%s\n", paint(mutedStyle, fmt.Sprintf("... %d blocks total, use --limit 0 to show all",
			stats.AllocatedBlocks+stats.FreeBlocks)))
	}

	printInfo("\n%s\n", paint(headerStyle, "Free lists"))
	for _, b := range rep.Buckets {
		if b.Length == 0 && !verbose {
			continue
		}
		hi := "inf"
		if b.Hi >= 0 {
			hi = num(b.Hi)
		}
		printInfo("  [%2d] %6s - %-6s %s\n", b.Index, num(b.Lo), hi, num(b.Length))
	}

	printInfo("\nAllocated: %s blocks, %s bytes  Free: %s blocks, %s bytes  Largest free: %s\n",
		num(stats.AllocatedBlocks), num(stats.AllocatedBytes),
		num(stats.FreeBlocks), num(stats.FreeBytes), num(stats.LargestFree))
	if rep.Check == "ok" {
		printInfo("Check: %s\n", paint(okStyle, "ok"))
	} else {
		printInfo("Check: %s\n", paint(failStyle, rep.Check))
	}
}
