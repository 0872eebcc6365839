package pyast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	// ErrStaleNodeRef is returned when a NodeRef addresses a statement that
	// has since been rewritten.
	ErrStaleNodeRef = errors.New("stale node reference")
	// ErrForeignNodeRef is returned when a NodeRef was produced by a
	// different module.
	ErrForeignNodeRef = errors.New("node reference belongs to another module")
	// ErrInvalidNodeRef is returned for the zero NodeRef.
	ErrInvalidNodeRef = errors.New("invalid node reference")
)

// seq hands out module ids and slot generations. Values are never reused.
var seq atomic.Uint64

func nextSeq() uint64 {
	return seq.Add(1)
}

// NodeRef is an opaque handle to one statement of a Module. It records the
// index path from the module body and the generation of the top-level slot
// it was taken from; rewriting that slot makes the handle stale.
type NodeRef struct {
	module uint64
	path   []int
	gen    uint64
	kind   Kind
	line   int
}

// Kind returns the kind of the referenced statement.
func (r NodeRef) Kind() Kind { return r.kind }

// Line returns the 1-based start line of the referenced statement at the
// time the handle was taken.
func (r NodeRef) Line() int { return r.line }

// Depth returns 0 for a top-level statement, 1 for its children, and so on.
func (r NodeRef) Depth() int { return len(r.path) - 1 }

// IsZero reports whether r is the zero NodeRef.
func (r NodeRef) IsZero() bool { return r.module == 0 }

// Path returns a copy of the index path from the module body.
func (r NodeRef) Path() []int {
	out := make([]int, len(r.path))
	copy(out, r.path)
	return out
}

func (r NodeRef) String() string {
	parts := make([]string, len(r.path))
	for i, p := range r.path {
		parts[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("%s@%d[%s]", r.kind, r.line, strings.Join(parts, "."))
}

func (m *Module) ref(path []int, s Stmt) NodeRef {
	p := make([]int, len(path))
	copy(p, path)
	return NodeRef{
		module: m.id,
		path:   p,
		gen:    m.gens[path[0]],
		kind:   s.Kind(),
		line:   s.Span().StartLine,
	}
}

// Resolve returns the statement addressed by ref.
func (m *Module) Resolve(ref NodeRef) (Stmt, error) {
	if ref.IsZero() || len(ref.path) == 0 {
		return nil, ErrInvalidNodeRef
	}
	if ref.module != m.id {
		return nil, ErrForeignNodeRef
	}
	top := ref.path[0]
	if top < 0 || top >= len(m.body) || m.gens[top] != ref.gen {
		return nil, fmt.Errorf("%w: %s", ErrStaleNodeRef, ref)
	}
	s := m.body[top]
	for _, i := range ref.path[1:] {
		children := s.Children()
		if i < 0 || i >= len(children) {
			return nil, fmt.Errorf("%w: %s", ErrStaleNodeRef, ref)
		}
		s = children[i]
	}
	if s.Kind() != ref.kind {
		return nil, fmt.Errorf("%w: %s", ErrStaleNodeRef, ref)
	}
	return s, nil
}

// Text returns the source text of the statement addressed by ref.
func (m *Module) Text(ref NodeRef) (string, error) {
	s, err := m.Resolve(ref)
	if err != nil {
		return "", err
	}
	sp := s.Span()
	return m.source[sp.Start:sp.End], nil
}

// Rebase makes next the successor of m after a source rewrite: next takes
// over m's identity so that handles into untouched statements stay valid.
//
// The touched region is the span between the common prefix and the common
// suffix of the two sources. Top-level statements that end before it keep
// their generation. When the statement count is unchanged, statements
// outside the region keep theirs too, and with preserve set every statement
// does (used for in-place renames that cannot move anything).
func (m *Module) Rebase(next *Module, preserve bool) {
	old, cur := m.source, next.source
	p := commonPrefix(old, cur)
	s := commonSuffix(old[p:], cur[p:])
	oldEnd := len(old) - s
	sameCount := len(m.body) == len(next.body)

	next.id = m.id
	next.gens = make([]uint64, len(next.body))
	for i := range next.body {
		switch {
		case sameCount && (preserve || !touches(m.body[i].Span(), p, oldEnd)):
			next.gens[i] = m.gens[i]
		case !sameCount && i < len(m.body) && m.body[i].Span().End < p:
			next.gens[i] = m.gens[i]
		default:
			next.gens[i] = nextSeq()
		}
	}
	next.index()
}

func touches(sp Span, start, end int) bool {
	return sp.Start <= end && sp.End >= start
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}
