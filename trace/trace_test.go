package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortTrace = `# two blocks, one realloc
20000
2
6
1
a 0 512
a 1 128
r 0 640
f 1

r 0 10
f 0
`

func TestParse(t *testing.T) {
	tr, err := Parse(strings.NewReader(shortTrace))
	require.NoError(t, err)

	assert.Equal(t, 20000, tr.SuggestedHeap)
	assert.Equal(t, 2, tr.NumIDs)
	assert.Equal(t, 6, tr.NumOps)
	assert.Equal(t, 1, tr.Weight)
	require.Len(t, tr.Ops, 6)

	assert.Equal(t, Op{Kind: OpAlloc, ID: 0, Size: 512, Line: 6}, tr.Ops[0])
	assert.Equal(t, Op{Kind: OpRealloc, ID: 0, Size: 640, Line: 8}, tr.Ops[2])
	assert.Equal(t, Op{Kind: OpFree, ID: 1, Line: 9}, tr.Ops[3])
	assert.Equal(t, Op{Kind: OpRealloc, ID: 0, Size: 10, Line: 11}, tr.Ops[4])
}

func TestParse_HeaderOnOneLine(t *testing.T) {
	tr, err := Parse(strings.NewReader("0 1 2 1\na 0 8\nf 0\n"))
	require.NoError(t, err)
	assert.Len(t, tr.Ops, 2)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"short header", "100\n2\n", ErrSyntax},
		{"bad header", "100\nx\n1\n1\n", ErrSyntax},
		{"unknown op", "0\n1\n1\n1\nx 0 8\n", ErrSyntax},
		{"missing size", "0\n1\n1\n1\na 0\n", ErrSyntax},
		{"extra field on free", "0\n1\n1\n1\nf 0 8\n", ErrSyntax},
		{"negative size", "0\n1\n1\n1\na 0 -8\n", ErrSyntax},
		{"id out of range", "0\n1\n1\n1\na 1 8\n", ErrBadID},
		{"too few ops", "0\n1\n2\n1\na 0 8\n", ErrOpCount},
		{"oversized op count", "0 1 4611686018427387903 1\n", ErrSyntax},
		{"oversized id count", "0 4611686018427387903 1 1\na 0 8\n", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.rep")
	require.NoError(t, os.WriteFile(path, []byte(shortTrace), 0o644))

	tr, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "short.rep", tr.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.rep"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "a 3 16", Op{Kind: OpAlloc, ID: 3, Size: 16}.String())
	assert.Equal(t, "f 3", Op{Kind: OpFree, ID: 3}.String())
}

func TestSizeHistogram(t *testing.T) {
	tr, err := Parse(strings.NewReader("0 3 6 1\na 0 64\na 1 8\na 2 64\nr 1 4096\nf 0\nf 2\n"))
	require.NoError(t, err)

	h := SizeHistogram(tr)
	assert.Equal(t, 4, h.Requests)
	assert.Equal(t, 8, h.Min)
	assert.Equal(t, 4096, h.Max)
	assert.Equal(t, []SizeCount{{8, 1}, {64, 2}, {4096, 1}}, h.Sizes)

	empty := SizeHistogram(&Trace{})
	assert.Zero(t, empty.Requests)
	assert.Empty(t, empty.Sizes)
}
