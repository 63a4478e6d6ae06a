package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshuapare/segalloc/heap"
	"github.com/joshuapare/segalloc/heap/dirty"
	"github.com/joshuapare/segalloc/mm"
)

// allocFlags are shared by every command that builds an allocator.
type allocFlags struct {
	store     string
	heapFile  string
	heapLimit int
	split     int
	insert    string
	noShrink  bool
	check     bool
}

var alloc = allocFlags{}

func addAllocFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&alloc.store, "store", "mem", "Backing store: mem or file")
	f.StringVar(&alloc.heapFile, "heap-file", "", "Heap file for --store file (default: a temp file per trace)")
	f.IntVar(&alloc.heapLimit, "heap-limit", heap.DefaultMaxHeap, "Maximum heap size in bytes")
	f.IntVar(&alloc.split, "split", mm.DefaultSplitThreshold, "Block size at which splits place the allocation high")
	f.StringVar(&alloc.insert, "insert", "ascending", "Bucket insertion order: ascending or lifo")
	f.BoolVar(&alloc.noShrink, "no-shrink", false, "Do not split the tail off blocks on realloc")
	f.BoolVar(&alloc.check, "check", false, "Run the heap checker after every op")
}

// options maps the flags onto mm.Options.
func (f *allocFlags) options() (*mm.Options, error) {
	order, err := mm.ParseInsertOrder(f.insert)
	if err != nil {
		return nil, err
	}
	if f.split <= 0 {
		return nil, fmt.Errorf("--split must be positive, got %d", f.split)
	}
	opts := mm.DefaultOptions()
	opts.SplitThreshold = f.split
	opts.InsertionOrder = order
	opts.ShrinkOnRealloc = !f.noShrink
	opts.Logger = logger()
	return opts, nil
}

// openedStore is a store plus its tracker and cleanup.
type openedStore struct {
	store   heap.Store
	tracker *dirty.Tracker
	close   func() error
}

// openStore creates the backing store for one trace.
func (f *allocFlags) openStore(name string) (*openedStore, error) {
	switch f.store {
	case "mem":
		return &openedStore{
			store: heap.NewMemStore(f.heapLimit),
			close: func() error { return nil },
		}, nil

	case "file":
		path := f.heapFile
		temp := path == ""
		if temp {
			dir, err := os.MkdirTemp("", "segctl-")
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, name+".heap")
		}
		fs, err := heap.OpenFileStore(path, f.heapLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to open heap file: %w", err)
		}
		printVerbose("Heap file: %s\n", path)
		return &openedStore{
			store:   fs,
			tracker: dirty.NewTracker(fs),
			close: func() error {
				err := fs.Close()
				if temp {
					_ = os.RemoveAll(filepath.Dir(path))
				}
				return err
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store %q (want mem or file)", f.store)
	}
}
