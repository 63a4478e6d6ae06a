package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

func init() {
	cmd := newWatchCmd()
	addAllocFlags(cmd)
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "Wait this long after the last write before replaying")
	rootCmd.AddCommand(cmd)
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Replay trace files whenever they change",
		Long: `The watch command monitors a directory and replays every .rep file that
is created or written, printing the same report as replay. It runs until
interrupted.

Example:
  segctl watch traces/
  segctl watch --check --insert lifo traces/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, args)
		},
	}
}

func runWatch(ctx context.Context, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	printInfo("Watching %s for *.rep changes\n", dir)

	return watchLoop(ctx, w, watchDebounce, func(path string) {
		// Failures are part of the report; keep watching.
		if err := runReplay(ctx, []string{path}); err != nil {
			printVerbose("%v\n", err)
		}
	})
}

// watchLoop calls handle once per changed trace file, after events for that
// file have been quiet for debounce. It returns nil when ctx is done.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, handle func(path string)) error {
	pending := make(map[string]time.Time)
	tick := time.NewTicker(max(debounce/4, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isTraceFile(ev.Name) || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < debounce {
					continue
				}
				delete(pending, path)
				handle(path)
			}
		}
	}
}

func isTraceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".rep")
}
