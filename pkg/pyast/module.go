// Package pyast is the in-memory model of a parsed Python module: an ordered
// sequence of statements plus secondary indices over imports, calls,
// try/except handlers and assignments.
package pyast

import (
	"fmt"
	"strings"
)

// CallSite is a call expression found by the parser. Calls are expressions,
// so the module attaches each one to the innermost statement containing it.
type CallSite struct {
	Name      string // trailing identifier of the callee
	Callee    string // full callee text
	Arguments []string
	Scope     string // enclosing function, "Class.method" or "func"
	Line      int
	Column    int
	Start     int // byte offset of the call
}

// Module is a parsed Python module. A Module is immutable; rewrites produce
// a new Module that is rebased onto the old one.
type Module struct {
	id       uint64
	source   string
	body     []Stmt
	gens     []uint64
	comments int
	sites    []CallSite

	nodes   []NodeRef
	imports []ImportRecord
	calls   []CallRecord
	tries   []TryExceptRecord
	assigns []AssignmentRecord
}

// NewModule builds a Module from converted statements. comments is the
// number of comments in source.
func NewModule(source string, body []Stmt, calls []CallSite, comments int) *Module {
	m := &Module{
		id:       nextSeq(),
		source:   source,
		body:     body,
		comments: comments,
		sites:    calls,
	}
	m.gens = make([]uint64, len(body))
	for i := range m.gens {
		m.gens[i] = nextSeq()
	}
	m.index()
	return m
}

// Source returns the text the module was parsed from.
func (m *Module) Source() string { return m.source }

// Body returns the top-level statements in document order.
func (m *Module) Body() []Stmt {
	out := make([]Stmt, len(m.body))
	copy(out, m.body)
	return out
}

// StatementCount returns the number of top-level statements.
func (m *Module) StatementCount() int { return len(m.body) }

// CommentCount returns the number of comments anywhere in the module.
func (m *Module) CommentCount() int { return m.comments }

// IsEmpty reports whether the module has no statements. Comments and
// whitespace do not count; a lone docstring does.
func (m *Module) IsEmpty() bool { return len(m.body) == 0 }

// IsCommentsOnly reports whether the module consists of comments and
// whitespace only, with at least one comment.
func (m *Module) IsCommentsOnly() bool { return len(m.body) == 0 && m.comments > 0 }

// FunctionNames returns the names of top-level function definitions in
// document order. Re-declared names appear once per declaration.
func (m *Module) FunctionNames() []string {
	var names []string
	for _, s := range m.body {
		if fn, ok := s.(*FunctionDef); ok {
			names = append(names, fn.Name)
		}
	}
	return names
}

// ClassNames returns the names of top-level class definitions in document order.
func (m *Module) ClassNames() []string {
	var names []string
	for _, s := range m.body {
		if cls, ok := s.(*ClassDef); ok {
			names = append(names, cls.Name)
		}
	}
	return names
}

// TopLevel returns a handle to each top-level statement.
func (m *Module) TopLevel() []NodeRef {
	refs := make([]NodeRef, len(m.body))
	for i, s := range m.body {
		refs[i] = m.ref([]int{i}, s)
	}
	return refs
}

// Walk calls fn for every statement in document order, depth first.
// Returning false from fn skips the statement's children.
func (m *Module) Walk(fn func(ref NodeRef, s Stmt) bool) {
	var visit func(path []int, s Stmt)
	visit = func(path []int, s Stmt) {
		if !fn(m.ref(path, s), s) {
			return
		}
		for i, c := range s.Children() {
			visit(append(path, i), c)
		}
	}
	for i, s := range m.body {
		visit([]int{i}, s)
	}
}

// index rebuilds the secondary indices. It must run after gens are set.
func (m *Module) index() {
	m.nodes = nil
	m.imports = nil
	m.calls = nil
	m.tries = nil
	m.assigns = nil

	m.Walk(func(ref NodeRef, s Stmt) bool {
		m.nodes = append(m.nodes, ref)
		switch s := s.(type) {
		case *Import:
			for _, a := range s.Names {
				m.imports = append(m.imports, ImportRecord{
					Module: a.Name,
					Alias:  a.AsName,
					Line:   s.Loc.StartLine,
					Ref:    ref,
				})
			}
		case *ImportFrom:
			rec := ImportRecord{
				Module:   s.Module,
				IsFrom:   true,
				Wildcard: s.Wildcard,
				Line:     s.Loc.StartLine,
				Ref:      ref,
			}
			for _, a := range s.Items {
				rec.Items = append(rec.Items, a.Name)
				rec.Aliases = append(rec.Aliases, a.AsName)
			}
			m.imports = append(m.imports, rec)
		case *Assign:
			m.assigns = append(m.assigns, AssignmentRecord{
				Target:     s.Target(),
				Targets:    s.Targets,
				Value:      s.Value,
				Annotation: s.Annotation,
				Line:       s.Loc.StartLine,
				Ref:        ref,
			})
		case *Try:
			tryBody := m.bodyText(s.Body)
			for i, h := range s.Handlers {
				hpath := append(ref.Path(), len(s.Body)+i)
				m.tries = append(m.tries, TryExceptRecord{
					ExceptionTypes: h.Types,
					Name:           h.Name,
					TryBody:        tryBody,
					HandlerBody:    m.bodyText(h.Body),
					Line:           s.Loc.StartLine,
					HandlerLine:    h.Loc.StartLine,
					Ref:            m.ref(hpath, h),
					TryRef:         ref,
				})
			}
		}
		return true
	})

	for _, c := range m.sites {
		path := m.innermost(c.Start)
		if path == nil {
			continue
		}
		m.calls = append(m.calls, CallRecord{
			Name:      c.Name,
			Callee:    c.Callee,
			Arguments: c.Arguments,
			Scope:     c.Scope,
			Line:      c.Line,
			Column:    c.Column,
			Ref:       m.ref(path, m.at(path)),
		})
	}
}

// innermost returns the path of the deepest statement containing pos.
func (m *Module) innermost(pos int) []int {
	var path []int
	stmts := m.body
	for {
		found := false
		for i, s := range stmts {
			if s.Span().Contains(pos) {
				path = append(path, i)
				stmts = s.Children()
				found = true
				break
			}
		}
		if !found {
			return path
		}
	}
}

func (m *Module) at(path []int) Stmt {
	s := m.body[path[0]]
	for _, i := range path[1:] {
		s = s.Children()[i]
	}
	return s
}

func (m *Module) bodyText(body []Stmt) string {
	if len(body) == 0 {
		return ""
	}
	return m.source[body[0].Span().Start:body[len(body)-1].Span().End]
}

// String renders the statement tree for debugging. The output is not
// Python source.
func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module(%d statements)", len(m.body))
	m.Walk(func(ref NodeRef, s Stmt) bool {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", ref.Depth()+1))
		b.WriteString(Describe(s))
		fmt.Fprintf(&b, " @%d", s.Span().StartLine)
		return true
	})
	return b.String()
}

const maxDescribe = 40

// Describe returns a one-line summary of a statement such as
// "FunctionDef hello" or "ImportFrom typing: List, Dict".
func Describe(s Stmt) string {
	var detail string
	switch s := s.(type) {
	case *FunctionDef:
		detail = s.Name
		if s.Async {
			detail = "async " + detail
		}
	case *ClassDef:
		detail = s.Name
	case *Import:
		names := make([]string, len(s.Names))
		for i, a := range s.Names {
			names[i] = a.Name
		}
		detail = strings.Join(names, ", ")
	case *ImportFrom:
		items := make([]string, len(s.Items))
		for i, a := range s.Items {
			items[i] = a.Name
		}
		if s.Wildcard {
			items = []string{"*"}
		}
		detail = s.Module + ": " + strings.Join(items, ", ")
	case *Assign:
		detail = strings.Join(s.Targets, " = ")
	case *AugAssign:
		detail = s.Target + " " + s.Operator
	case *ExceptHandler:
		detail = strings.Join(s.Types, ", ")
	case *Expr:
		detail = truncate(s.Value)
	}
	if detail == "" {
		return s.Kind().String()
	}
	return s.Kind().String() + " " + detail
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxDescribe {
		return s[:maxDescribe] + "..."
	}
	return s
}
