package pyast

import (
	"slices"
	"strings"
)

// ImportRecord describes one imported module. A plain import statement with
// several names yields one record per name; a from-import yields one record.
type ImportRecord struct {
	Module string
	// Items and Aliases are parallel; Aliases[i] is "" when Items[i] is
	// not renamed. Both are empty for plain imports.
	Items    []string
	Aliases  []string
	Alias    string // "import module as Alias"
	IsFrom   bool
	Wildcard bool
	Line     int
	Ref      NodeRef
}

// CallRecord describes one call expression.
type CallRecord struct {
	Name      string
	Callee    string
	Arguments []string
	Scope     string
	Line      int
	Column    int
	// Ref addresses the innermost statement containing the call.
	Ref NodeRef
}

// TryExceptRecord describes one except clause of a try statement. A try with
// N clauses yields N records sharing the same TryBody.
type TryExceptRecord struct {
	ExceptionTypes []string // empty for a bare except
	Name           string   // "except E as Name"
	TryBody        string
	HandlerBody    string
	Line           int
	HandlerLine    int
	Ref            NodeRef // the handler
	TryRef         NodeRef // the enclosing try
}

// AssignmentRecord describes one assignment statement.
type AssignmentRecord struct {
	Target     string
	Targets    []string
	Value      string
	Annotation string
	Line       int
	Ref        NodeRef
}

// Imports returns every import record in document order, at all depths.
func (m *Module) Imports() []ImportRecord {
	return slices.Clone(m.imports)
}

// FindNodes returns handles to every statement of the given kinds in
// document order, at all depths. With no kinds, every statement matches.
func (m *Module) FindNodes(kinds ...Kind) []NodeRef {
	if len(kinds) == 0 {
		return slices.Clone(m.nodes)
	}
	var out []NodeRef
	for _, r := range m.nodes {
		if slices.Contains(kinds, r.kind) {
			out = append(out, r)
		}
	}
	return out
}

// FindImports returns the import records whose module exactly equals
// module. An empty module matches every record.
func (m *Module) FindImports(module string) []ImportRecord {
	if module == "" {
		return m.Imports()
	}
	var out []ImportRecord
	for _, r := range m.imports {
		if r.Module == module {
			out = append(out, r)
		}
	}
	return out
}

// FindFunctionCalls returns calls whose callee is name, either exactly
// ("os.getcwd") or by its trailing identifier ("getcwd"). An empty name
// matches every call.
func (m *Module) FindFunctionCalls(name string) []CallRecord {
	var out []CallRecord
	for _, c := range m.calls {
		if name == "" || c.Name == name || c.Callee == name {
			out = append(out, c)
		}
	}
	return out
}

// FindTryExceptBlocks returns one record per except clause. A non-empty
// exceptionType keeps only clauses that list that type.
func (m *Module) FindTryExceptBlocks(exceptionType string) []TryExceptRecord {
	var out []TryExceptRecord
	for _, t := range m.tries {
		if exceptionType == "" || slices.Contains(t.ExceptionTypes, exceptionType) {
			out = append(out, t)
		}
	}
	return out
}

// FindAssignments returns assignments with a target containing target as
// a substring. An empty target matches every assignment.
func (m *Module) FindAssignments(target string) []AssignmentRecord {
	var out []AssignmentRecord
	for _, a := range m.assigns {
		if target == "" || slices.ContainsFunc(a.Targets, func(t string) bool {
			return strings.Contains(t, target)
		}) {
			out = append(out, a)
		}
	}
	return out
}
