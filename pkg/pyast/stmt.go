package pyast

// Span locates a syntax element in its module's source.
type Span struct {
	Start     int // byte offset, inclusive
	End       int // byte offset, exclusive
	StartLine int // 1-based
	EndLine   int // 1-based
	Column    int // 0-based byte column of Start
}

// Contains reports whether the byte offset lies within the span.
func (s Span) Contains(pos int) bool {
	return pos >= s.Start && pos < s.End
}

// Stmt is a statement of a parsed module. The set of implementations is
// closed: FunctionDef, ClassDef, Import, ImportFrom, Assign, AugAssign, Try,
// ExceptHandler, Expr and Other.
type Stmt interface {
	Kind() Kind
	Span() Span
	// Children returns the nested statements in document order.
	Children() []Stmt
	stmt()
}

// FunctionDef is a def or async def, including its decorators.
type FunctionDef struct {
	Name       string
	NameSpan   Span
	Parameters []string
	Decorators []string
	Async      bool
	Returns    string
	Body       []Stmt
	Loc        Span
}

// ClassDef is a class statement, including its decorators.
type ClassDef struct {
	Name       string
	NameSpan   Span
	Bases      []string
	Decorators []string
	Body       []Stmt
	Loc        Span
}

// Alias is one imported name, optionally renamed with "as".
type Alias struct {
	Name   string
	AsName string
	Span   Span // span of the dotted name
}

// Bound returns the name the alias binds in the importing scope.
// For "import a.b" that is "a".
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	for i := 0; i < len(a.Name); i++ {
		if a.Name[i] == '.' {
			return a.Name[:i]
		}
	}
	return a.Name
}

// Import is "import a, b.c as d".
type Import struct {
	Names []Alias
	Loc   Span
}

// ImportFrom is "from module import a, b as c" or "from module import *".
// Module keeps leading dots of relative imports.
type ImportFrom struct {
	Module     string
	ModuleSpan Span
	Items      []Alias
	Wildcard   bool
	Loc        Span
}

// Assign is a plain, chained or annotated assignment.
type Assign struct {
	// Targets holds every target of a chained assignment, left to right.
	Targets    []string
	Value      string
	ValueSpan  Span
	Annotation string
	Loc        Span
}

// Target returns the first assignment target.
func (a *Assign) Target() string {
	if len(a.Targets) == 0 {
		return ""
	}
	return a.Targets[0]
}

// AugAssign is "target op= value".
type AugAssign struct {
	Target   string
	Operator string
	Value    string
	Loc      Span
}

// Try is a try statement with its handlers and optional else/finally bodies.
type Try struct {
	Body      []Stmt
	Handlers  []*ExceptHandler
	OrElse    []Stmt
	FinalBody []Stmt
	Loc       Span
}

// ExceptHandler is one except (or except*) clause.
type ExceptHandler struct {
	Types []string
	Name  string
	Group bool
	Body  []Stmt
	Loc   Span
}

// Expr is an expression statement.
type Expr struct {
	Value string
	Loc   Span
}

// Other is any remaining statement. Compound statements (if, for, while,
// with, match) carry their nested statements in Body, flattened in document
// order across all branches.
type Other struct {
	NodeKind Kind
	NodeType string // tree-sitter node type
	Body     []Stmt
	Loc      Span
}

func (*FunctionDef) Kind() Kind   { return KindFunctionDef }
func (*ClassDef) Kind() Kind      { return KindClassDef }
func (*Import) Kind() Kind        { return KindImport }
func (*ImportFrom) Kind() Kind    { return KindImportFrom }
func (*Assign) Kind() Kind        { return KindAssign }
func (*AugAssign) Kind() Kind     { return KindAugAssign }
func (*Try) Kind() Kind           { return KindTry }
func (*ExceptHandler) Kind() Kind { return KindExceptHandler }
func (*Expr) Kind() Kind          { return KindExpr }
func (o *Other) Kind() Kind       { return o.NodeKind }

func (s *FunctionDef) Span() Span   { return s.Loc }
func (s *ClassDef) Span() Span      { return s.Loc }
func (s *Import) Span() Span        { return s.Loc }
func (s *ImportFrom) Span() Span    { return s.Loc }
func (s *Assign) Span() Span        { return s.Loc }
func (s *AugAssign) Span() Span     { return s.Loc }
func (s *Try) Span() Span           { return s.Loc }
func (s *ExceptHandler) Span() Span { return s.Loc }
func (s *Expr) Span() Span          { return s.Loc }
func (s *Other) Span() Span         { return s.Loc }

func (s *FunctionDef) Children() []Stmt   { return s.Body }
func (s *ClassDef) Children() []Stmt      { return s.Body }
func (*Import) Children() []Stmt          { return nil }
func (*ImportFrom) Children() []Stmt      { return nil }
func (*Assign) Children() []Stmt          { return nil }
func (*AugAssign) Children() []Stmt       { return nil }
func (s *ExceptHandler) Children() []Stmt { return s.Body }
func (*Expr) Children() []Stmt            { return nil }
func (s *Other) Children() []Stmt         { return s.Body }

// Children of a try are its body, then each handler, then the else and
// finally bodies.
func (s *Try) Children() []Stmt {
	out := make([]Stmt, 0, len(s.Body)+len(s.Handlers)+len(s.OrElse)+len(s.FinalBody))
	out = append(out, s.Body...)
	for _, h := range s.Handlers {
		out = append(out, h)
	}
	out = append(out, s.OrElse...)
	return append(out, s.FinalBody...)
}

func (*FunctionDef) stmt()   {}
func (*ClassDef) stmt()      {}
func (*Import) stmt()        {}
func (*ImportFrom) stmt()    {}
func (*Assign) stmt()        {}
func (*AugAssign) stmt()     {}
func (*Try) stmt()           {}
func (*ExceptHandler) stmt() {}
func (*Expr) stmt()          {}
func (*Other) stmt()         {}
