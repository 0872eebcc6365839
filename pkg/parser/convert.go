package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// simpleKinds maps simple statement node types to their kind.
var simpleKinds = map[string]pyast.Kind{
	"return_statement":   pyast.KindReturn,
	"raise_statement":    pyast.KindRaise,
	"pass_statement":     pyast.KindPass,
	"break_statement":    pyast.KindBreak,
	"continue_statement": pyast.KindContinue,
	"delete_statement":   pyast.KindDelete,
	"global_statement":   pyast.KindGlobal,
	"nonlocal_statement": pyast.KindNonlocal,
	"assert_statement":   pyast.KindAssert,
}

// compoundKinds maps compound statement node types to their kind. Their
// nested blocks are flattened into Other.Body.
var compoundKinds = map[string]pyast.Kind{
	"if_statement":    pyast.KindIf,
	"for_statement":   pyast.KindFor,
	"while_statement": pyast.KindWhile,
	"with_statement":  pyast.KindWith,
	"match_statement": pyast.KindMatch,
}

// converter turns a well-formed tree-sitter tree into pyast statements.
type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	return lang.NodeText(n, c.src)
}

func span(n *sitter.Node) pyast.Span {
	return pyast.Span{
		Start:     int(n.StartByte()),
		End:       int(n.EndByte()),
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		Column:    int(n.StartPoint().Column),
	}
}

// block converts the statements directly inside a module or block node.
func (c *converter) block(n *sitter.Node) []pyast.Stmt {
	if n == nil {
		return nil
	}
	var out []pyast.Stmt
	for _, child := range lang.NamedChildren(n) {
		switch child.Type() {
		case "comment":
			continue
		case "case_clause":
			out = append(out, c.nested(child)...)
			continue
		}
		if s := c.stmt(child); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// nested collects the statements of every block below a compound statement,
// following clauses (elif, else, case, ...) but never entering expressions.
func (c *converter) nested(n *sitter.Node) []pyast.Stmt {
	var out []pyast.Stmt
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch {
		case child.Type() == "block":
			out = append(out, c.block(child)...)
		case strings.HasSuffix(child.Type(), "_clause"):
			out = append(out, c.nested(child)...)
		}
	}
	return out
}

func (c *converter) stmt(n *sitter.Node) pyast.Stmt {
	switch t := n.Type(); t {
	case "function_definition":
		return c.function(n, n, nil)
	case "class_definition":
		return c.class(n, n, nil)
	case "decorated_definition":
		return c.decorated(n)
	case "import_statement":
		return c.importStmt(n)
	case "import_from_statement", "future_import_statement":
		return c.importFrom(n)
	case "expression_statement":
		return c.expression(n)
	case "try_statement":
		return c.try(n)
	default:
		if k, ok := compoundKinds[t]; ok {
			return &pyast.Other{NodeKind: k, NodeType: t, Body: c.nested(n), Loc: span(n)}
		}
		if k, ok := simpleKinds[t]; ok {
			return &pyast.Other{NodeKind: k, NodeType: t, Loc: span(n)}
		}
		return &pyast.Other{NodeKind: pyast.KindOther, NodeType: t, Loc: span(n)}
	}
}

func (c *converter) decorated(n *sitter.Node) pyast.Stmt {
	var decorators []string
	for _, child := range lang.NamedChildren(n) {
		if child.Type() == "decorator" {
			d := strings.TrimSpace(strings.TrimPrefix(c.text(child), "@"))
			decorators = append(decorators, lang.CollapseWhitespace(d))
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return &pyast.Other{NodeKind: pyast.KindOther, NodeType: n.Type(), Loc: span(n)}
	}
	if def.Type() == "class_definition" {
		return c.class(def, n, decorators)
	}
	return c.function(def, n, decorators)
}

// function converts def; outer is the node whose span the statement covers
// (the decorated_definition when decorators are present).
func (c *converter) function(def, outer *sitter.Node, decorators []string) *pyast.FunctionDef {
	fn := &pyast.FunctionDef{
		Decorators: decorators,
		Async:      def.ChildCount() > 0 && def.Child(0).Type() == "async",
		Returns:    lang.CollapseWhitespace(lang.FieldText(def, "return_type", c.src)),
		Body:       c.block(def.ChildByFieldName("body")),
		Loc:        span(outer),
	}
	if name := def.ChildByFieldName("name"); name != nil {
		fn.Name = c.text(name)
		fn.NameSpan = span(name)
	}
	if params := def.ChildByFieldName("parameters"); params != nil {
		for _, p := range lang.NamedChildren(params) {
			if p.Type() != "comment" {
				fn.Parameters = append(fn.Parameters, lang.CollapseWhitespace(c.text(p)))
			}
		}
	}
	return fn
}

func (c *converter) class(def, outer *sitter.Node, decorators []string) *pyast.ClassDef {
	cls := &pyast.ClassDef{
		Decorators: decorators,
		Body:       c.block(def.ChildByFieldName("body")),
		Loc:        span(outer),
	}
	if name := def.ChildByFieldName("name"); name != nil {
		cls.Name = c.text(name)
		cls.NameSpan = span(name)
	}
	if bases := def.ChildByFieldName("superclasses"); bases != nil {
		for _, b := range lang.NamedChildren(bases) {
			if b.Type() != "comment" {
				cls.Bases = append(cls.Bases, lang.CollapseWhitespace(c.text(b)))
			}
		}
	}
	return cls
}

func (c *converter) alias(n *sitter.Node) (pyast.Alias, bool) {
	switch n.Type() {
	case "dotted_name":
		return pyast.Alias{Name: c.text(n), Span: span(n)}, true
	case "aliased_import":
		name := n.ChildByFieldName("name")
		if name == nil {
			return pyast.Alias{}, false
		}
		return pyast.Alias{
			Name:   c.text(name),
			AsName: lang.FieldText(n, "alias", c.src),
			Span:   span(name),
		}, true
	}
	return pyast.Alias{}, false
}

func (c *converter) importStmt(n *sitter.Node) *pyast.Import {
	imp := &pyast.Import{Loc: span(n)}
	for _, child := range lang.NamedChildren(n) {
		if a, ok := c.alias(child); ok {
			imp.Names = append(imp.Names, a)
		}
	}
	return imp
}

func (c *converter) importFrom(n *sitter.Node) *pyast.ImportFrom {
	imp := &pyast.ImportFrom{Loc: span(n)}
	module := n.ChildByFieldName("module_name")
	if module != nil {
		imp.Module = lang.CollapseWhitespace(c.text(module))
		imp.ModuleSpan = span(module)
	} else if n.Type() == "future_import_statement" {
		imp.Module = "__future__"
		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child.Type() == "__future__" {
				imp.ModuleSpan = span(child)
			}
		}
	}
	for _, child := range lang.NamedChildren(n) {
		if module != nil && child.StartByte() == module.StartByte() {
			continue
		}
		if child.Type() == "wildcard_import" {
			imp.Wildcard = true
			continue
		}
		if a, ok := c.alias(child); ok {
			imp.Items = append(imp.Items, a)
		}
	}
	return imp
}

func (c *converter) expression(n *sitter.Node) pyast.Stmt {
	if n.NamedChildCount() == 1 {
		switch inner := n.NamedChild(0); inner.Type() {
		case "assignment":
			return c.assign(inner, n)
		case "augmented_assignment":
			return &pyast.AugAssign{
				Target:   lang.CollapseWhitespace(lang.FieldText(inner, "left", c.src)),
				Operator: lang.FieldText(inner, "operator", c.src),
				Value:    lang.FieldText(inner, "right", c.src),
				Loc:      span(n),
			}
		}
	}
	return &pyast.Expr{Value: c.text(n), Loc: span(n)}
}

// assign flattens chained assignments (a = b = 1) into one statement.
func (c *converter) assign(n, stmt *sitter.Node) *pyast.Assign {
	a := &pyast.Assign{Loc: span(stmt)}
	for cur := n; cur != nil; {
		a.Targets = append(a.Targets, lang.CollapseWhitespace(lang.FieldText(cur, "left", c.src)))
		if a.Annotation == "" {
			a.Annotation = lang.CollapseWhitespace(lang.FieldText(cur, "type", c.src))
		}
		right := cur.ChildByFieldName("right")
		switch {
		case right == nil:
			cur = nil
		case right.Type() == "assignment":
			cur = right
		default:
			a.Value = c.text(right)
			a.ValueSpan = span(right)
			cur = nil
		}
	}
	return a
}

func (c *converter) try(n *sitter.Node) *pyast.Try {
	t := &pyast.Try{
		Body: c.block(n.ChildByFieldName("body")),
		Loc:  span(n),
	}
	for _, child := range lang.NamedChildren(n) {
		switch child.Type() {
		case "except_clause", "except_group_clause":
			t.Handlers = append(t.Handlers, c.handler(child))
		case "else_clause":
			t.OrElse = c.nested(child)
		case "finally_clause":
			t.FinalBody = c.nested(child)
		}
	}
	return t
}

func (c *converter) handler(n *sitter.Node) *pyast.ExceptHandler {
	h := &pyast.ExceptHandler{
		Group: n.Type() == "except_group_clause",
		Loc:   span(n),
	}
	sawAs := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "block":
			h.Body = c.block(child)
		case "as", ",":
			sawAs = true
		case "comment":
		case "as_pattern":
			if v := child.NamedChild(0); v != nil {
				h.Types = c.exceptionTypes(v)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				h.Name = c.text(alias)
			}
		default:
			if !child.IsNamed() {
				continue
			}
			if sawAs {
				h.Name = c.text(child)
			} else {
				h.Types = c.exceptionTypes(child)
			}
		}
	}
	return h
}

// exceptionTypes lists the types named by an except clause expression:
// "E", "(E1, E2)" or "mod.E".
func (c *converter) exceptionTypes(n *sitter.Node) []string {
	switch n.Type() {
	case "tuple", "parenthesized_expression", "expression_list":
		var out []string
		for _, child := range lang.NamedChildren(n) {
			if child.Type() != "comment" {
				out = append(out, c.exceptionTypes(child)...)
			}
		}
		return out
	}
	return []string{lang.CollapseWhitespace(c.text(n))}
}
