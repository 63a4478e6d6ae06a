package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OpKind is the op letter.
type OpKind byte

const (
	OpAlloc   OpKind = 'a'
	OpRealloc OpKind = 'r'
	OpFree    OpKind = 'f'
)

// Op is one trace operation.
type Op struct {
	Kind OpKind
	ID   int
	Size int // zero for OpFree
	Line int
}

func (o Op) String() string {
	if o.Kind == OpFree {
		return fmt.Sprintf("f %d", o.ID)
	}
	return fmt.Sprintf("%c %d %d", o.Kind, o.ID, o.Size)
}

// Trace is a parsed trace file.
type Trace struct {
	Name          string
	SuggestedHeap int
	NumIDs        int
	NumOps        int
	Weight        int
	Ops           []Op
}

// Load parses the trace at path. The trace is named after the file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Header limits. Parse rejects larger counts rather than sizing tables from
// them.
const (
	MaxIDs = 1 << 24
	MaxOps = 1 << 26
)

// Parse reads a trace. Ids are checked against the header's id count and the
// number of ops against its op count.
func Parse(r io.Reader) (*Trace, error) {
	t := &Trace{}
	header := make([]int, 0, 4)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)

		if len(header) < 4 {
			for _, f := range fields {
				n, err := strconv.Atoi(f)
				if err != nil || n < 0 || len(header) == 4 {
					return nil, fmt.Errorf("line %d: bad header %q: %w", line, text, ErrSyntax)
				}
				header = append(header, n)
			}
			if len(header) == 4 {
				t.SuggestedHeap, t.NumIDs, t.NumOps, t.Weight = header[0], header[1], header[2], header[3]
				if t.NumIDs > MaxIDs || t.NumOps > MaxOps {
					return nil, fmt.Errorf("line %d: %d ids, %d ops exceeds %d/%d: %w",
						line, t.NumIDs, t.NumOps, MaxIDs, MaxOps, ErrSyntax)
				}
				t.Ops = make([]Op, 0, min(t.NumOps, 1<<16))
			}
			continue
		}

		op, err := parseOp(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", line, text, err)
		}
		if op.ID >= t.NumIDs {
			return nil, fmt.Errorf("line %d: id %d with %d ids: %w", line, op.ID, t.NumIDs, ErrBadID)
		}
		op.Line = line
		t.Ops = append(t.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("incomplete header (%d of 4 values): %w", len(header), ErrSyntax)
	}
	if len(t.Ops) != t.NumOps {
		return nil, fmt.Errorf("header says %d ops, found %d: %w", t.NumOps, len(t.Ops), ErrOpCount)
	}
	return t, nil
}

func parseOp(fields []string) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, ErrSyntax
	}
	op := Op{Kind: OpKind(fields[0][0])}

	want := 3
	switch op.Kind {
	case OpAlloc, OpRealloc:
	case OpFree:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown op %q: %w", fields[0], ErrSyntax)
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("want %d fields, got %d: %w", want, len(fields), ErrSyntax)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q: %w", fields[1], ErrSyntax)
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("bad size %q: %w", fields[2], ErrSyntax)
		}
		op.Size = size
	}
	return op, nil
}
