package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idsOverflow references id 2 in a trace that declares two ids.
const idsOverflow = `20000
2
2
1
a 0 16
a 2 16
`

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	short := writeTrace(t, dir, "short.rep", shortTrace)
	bad := writeTrace(t, dir, "bad.rep", idsOverflow)

	tests := []struct {
		name           string
		args           []string
		setup          func()
		wantErr        bool
		wantJSON       bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:           "memory store",
			args:           []string{short},
			wantContain:    []string{"TRACE", "short.rep", "1 traces passed", "total"},
			wantNotContain: []string{"FAIL"},
		},
		{
			name:        "file store with checks",
			args:        []string{short},
			setup:       func() { alloc.store = "file"; alloc.check = true },
			wantContain: []string{"short.rep", "1 traces passed"},
		},
		{
			name:        "lifo without shrink",
			args:        []string{short},
			setup:       func() { alloc.insert = "lifo"; alloc.noShrink = true },
			wantContain: []string{"short.rep"},
		},
		{
			name:        "json report",
			args:        []string{short},
			setup:       func() { jsonOut = true },
			wantJSON:    true,
			wantContain: []string{`"trace": "short.rep"`, `"ops": 6`, `"failed": 0`},
		},
		{
			name:        "failing trace is reported",
			args:        []string{short, bad},
			wantErr:     true,
			wantContain: []string{"short.rep", "FAIL"},
		},
		{
			name:    "missing file",
			args:    []string{filepath.Join(dir, "nope.rep")},
			wantErr: true,
		},
		{
			name:    "unknown store",
			args:    []string{short},
			setup:   func() { alloc.store = "tape" },
			wantErr: true,
		},
		{
			name:    "unknown insertion order",
			args:    []string{short},
			setup:   func() { alloc.insert = "random" },
			wantErr: true,
		},
		{
			name:           "quiet",
			args:           []string{short},
			setup:          func() { quiet = true },
			wantNotContain: []string{"short.rep"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			if tt.setup != nil {
				tt.setup()
			}

			output, err := captureOutput(t, func() error {
				return runReplay(context.Background(), tt.args)
			})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestReplayCommand_JSONTotals(t *testing.T) {
	resetFlags()
	jsonOut = true
	short := writeTrace(t, t.TempDir(), "short.rep", shortTrace)

	output, err := captureOutput(t, func() error {
		return runReplay(context.Background(), []string{short, short})
	})
	require.NoError(t, err)

	var rep replayReport
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	require.Len(t, rep.Traces, 2)
	assert.Equal(t, 12, rep.Ops)
	assert.Equal(t, 640+128, rep.Traces[0].PeakLive)
	assert.InDelta(t, rep.Traces[0].Utilization, rep.AvgUtilization, 1e-9)
	assert.Positive(t, rep.Traces[0].HeapSize)
}

func TestReplayCommand_MetricsOut(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	short := writeTrace(t, dir, "short.rep", shortTrace)
	replayMetricsOut = filepath.Join(dir, "metrics.prom")

	_, err := captureOutput(t, func() error {
		return runReplay(context.Background(), []string{short})
	})
	require.NoError(t, err)

	data, err := os.ReadFile(replayMetricsOut)
	require.NoError(t, err)
	assertContains(t, string(data), []string{
		`segalloc_calls_total{op="alloc",trace="short.rep"} 2`,
		`segalloc_calls_total{op="free",trace="short.rep"} 2`,
		`segalloc_calls_total{op="realloc",trace="short.rep"} 2`,
		"# TYPE segalloc_heap_bytes gauge",
	})
}

func TestRootCommand_ParsesAllocFlags(t *testing.T) {
	resetFlags()
	short := writeTrace(t, t.TempDir(), "short.rep", shortTrace)

	rootCmd.SetArgs([]string{"replay", "--no-color", "--insert", "lifo", "--split", "64", "--check", short})
	t.Cleanup(func() { rootCmd.SetArgs(nil); resetFlags() })

	output, err := captureOutput(t, rootCmd.Execute)
	require.NoError(t, err)
	assert.Equal(t, "lifo", alloc.insert)
	assert.Equal(t, 64, alloc.split)
	assert.True(t, alloc.check)
	assertContains(t, output, []string{"short.rep", "1 traces passed"})
}
