package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/segalloc/heap"
	"github.com/joshuapare/segalloc/mm"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and allocator defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	})
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go,omitempty"`

	SplitThreshold int    `json:"split_threshold"`
	ChunkSize      int    `json:"chunk_size"`
	InitChunkSize  int    `json:"init_chunk_size"`
	InsertionOrder string `json:"insertion_order"`
	Shrink         bool   `json:"shrink_on_realloc"`
	Buckets        int    `json:"buckets"`
	MaxHeap        int    `json:"max_heap"`
}

// buildVersion fills in what ldflags left unset from the embedded build info.
func buildVersion() versionInfo {
	opts := mm.DefaultOptions()
	v := versionInfo{
		Version:        version,
		Commit:         commit,
		Built:          date,
		SplitThreshold: opts.SplitThreshold,
		ChunkSize:      opts.ChunkSize,
		InitChunkSize:  opts.InitChunkSize,
		InsertionOrder: opts.InsertionOrder.String(),
		Shrink:         opts.ShrinkOnRealloc,
		Buckets:        mm.NumLists,
		MaxHeap:        heap.DefaultMaxHeap,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	v.Go = bi.GoVersion
	if v.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "none" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if v.Built == "unknown" {
				v.Built = s.Value
			}
		}
	}
	return v
}

func runVersion() error {
	v := buildVersion()
	if jsonOut {
		return printJSON(v)
	}
	shrink := "on"
	if !v.Shrink {
		shrink = "off"
	}
	printInfo("segctl %s\n", v.Version)
	printInfo("  commit: %s\n", v.Commit)
	printInfo("  built: %s\n", v.Built)
	if v.Go != "" {
		printInfo("  go: %s\n", v.Go)
	}
	printInfo("allocator defaults:\n")
	printInfo("  buckets: %d, split threshold: %s, insert: %s, shrink on realloc: %s\n",
		v.Buckets, num(v.SplitThreshold), v.InsertionOrder, shrink)
	printInfo("  chunk: %s, initial chunk: %s, heap limit: %s\n",
		num(v.ChunkSize), num(v.InitChunkSize), num(v.MaxHeap))
	return nil
}
