package refactor

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/textedit"
)

// Syntax rewrite rules, in the order their counts are reported.
const (
	rulePercentFormat = "percent-format"
	ruleStrFormat     = "str.format"
	ruleObjectBase    = "object-base"
	ruleSuperCall     = "super-call"
	ruleUnicodePrefix = "unicode-prefix"
)

var ruleOrder = []string{rulePercentFormat, ruleStrFormat, ruleObjectBase, ruleSuperCall, ruleUnicodePrefix}

// ModernizeSyntax rewrites legacy idioms it positively recognizes:
//
//	"%s is %d" % (name, age)    ->  f"{name} is {age:d}"
//	"{} and {}".format(a, b)    ->  f"{a} and {b}"
//	class A(object):            ->  class A:
//	super(A, self).__init__()   ->  super().__init__()
//	u"text"                     ->  "text"
//
// Anything else is left alone. Finding nothing to rewrite is a logged
// no-op, never an error.
func (e *Engine) ModernizeSyntax() error {
	return e.mutate("modernize_syntax", e.modernizePlan)
}

// ModernizeSyntaxWithFormat modernizes and optionally formats as one change.
func (e *Engine) ModernizeSyntaxWithFormat(applyFormatting bool) error {
	return e.mutate("modernize_syntax", e.withFormat(e.modernizePlan, applyFormatting))
}

type rewrite struct {
	rule       string
	start, end int
	text       string
}

func (e *Engine) modernizePlan() (plan, error) {
	tree, src, err := e.syntaxTree()
	if err != nil {
		return plan{}, err
	}
	defer tree.Close()

	var rewrites []rewrite
	lang.Walk(tree.RootNode(), func(n *sitter.Node) bool {
		r, ok, covers := modernizeNode(n, src)
		if ok {
			rewrites = append(rewrites, r)
		}
		return !covers
	})

	noop := plan{source: e.mod.Source(), desc: "No syntax modernization needed"}
	if len(rewrites) == 0 {
		return noop, nil
	}

	out, err := e.applyRewrites(rewrites)
	if err != nil || !e.valid(out) {
		// Keep only rewrites that are valid on their own.
		var ok []rewrite
		for _, r := range rewrites {
			if single, err := e.applyRewrites([]rewrite{r}); err == nil && e.valid(single) {
				ok = append(ok, r)
			}
		}
		rewrites = ok
		if len(rewrites) == 0 {
			return noop, nil
		}
		if out, err = e.applyRewrites(rewrites); err != nil || !e.valid(out) {
			return noop, nil
		}
	}
	return plan{source: out, desc: describeRewrites(rewrites)}, nil
}

func (e *Engine) applyRewrites(rewrites []rewrite) (string, error) {
	buf := textedit.NewBuffer(e.mod.Source())
	for _, r := range rewrites {
		buf.Replace(r.start, r.end, r.text)
	}
	return buf.Apply()
}

func describeRewrites(rewrites []rewrite) string {
	counts := make(map[string]int)
	for _, r := range rewrites {
		counts[r.rule]++
	}
	var parts []string
	for _, rule := range ruleOrder {
		if n := counts[rule]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s x%d", rule, n))
		}
	}
	return "Modernized syntax: " + strings.Join(parts, ", ")
}

// modernizeNode returns the rewrite for n, if any rule applies. covers
// reports that the rewrite spans all of n, so its children must not be
// rewritten as well.
func modernizeNode(n *sitter.Node, src []byte) (r rewrite, ok, covers bool) {
	switch n.Type() {
	case "binary_operator":
		if text, ok := percentToFString(n, src); ok {
			return rewrite{rulePercentFormat, int(n.StartByte()), int(n.EndByte()), text}, true, true
		}
	case "call":
		if text, ok := formatCallToFString(n, src); ok {
			return rewrite{ruleStrFormat, int(n.StartByte()), int(n.EndByte()), text}, true, true
		}
		if args, ok := bareSuperArgs(n, src); ok {
			return rewrite{ruleSuperCall, int(args.StartByte()), int(args.EndByte()), "()"}, true, false
		}
	case "class_definition":
		if sc := n.ChildByFieldName("superclasses"); sc != nil && lang.CollapseWhitespace(lang.NodeText(sc, src)) == "(object)" {
			return rewrite{ruleObjectBase, int(sc.StartByte()), int(sc.EndByte()), ""}, true, false
		}
	case "string":
		if lit, ok := stringLiteral(n, src); ok && lit.prefix == "u" {
			return rewrite{ruleUnicodePrefix, int(n.StartByte()), int(n.StartByte()) + 1, ""}, true, true
		}
	}
	return rewrite{}, false, false
}

// plainString reports whether lit can become an f-string with the same
// quotes: no prefix but u, single line, no escapes.
func plainString(lit strLit) bool {
	return (lit.prefix == "" || lit.prefix == "u") &&
		!lit.triple() &&
		!strings.ContainsAny(lit.content, "\\\n")
}

// simpleOperand reports whether an expression can be embedded in an
// f-string field unchanged.
func simpleOperand(n *sitter.Node, src []byte) (string, bool) {
	switch n.Type() {
	case "identifier", "attribute", "integer", "float", "call", "subscript", "true", "false", "none":
	default:
		return "", false
	}
	text := lang.NodeText(n, src)
	if strings.ContainsAny(text, "'\"\\\n{}#") {
		return "", false
	}
	return text, true
}

// percentToFString converts "fmt" % (a, b) with %s, %d, %i, %r, %f and
// %.Nf conversions.
func percentToFString(n *sitter.Node, src []byte) (string, bool) {
	op := n.ChildByFieldName("operator")
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if op == nil || left == nil || right == nil || op.Type() != "%" {
		return "", false
	}
	lit, ok := stringLiteral(left, src)
	if !ok || !plainString(lit) {
		return "", false
	}

	var operands []*sitter.Node
	switch right.Type() {
	case "tuple":
		operands = lang.NamedChildren(right)
	case "parenthesized_expression":
		operands = lang.NamedChildren(right)
		if len(operands) != 1 {
			return "", false
		}
	default:
		operands = []*sitter.Node{right}
	}
	values := make([]string, len(operands))
	for i, o := range operands {
		v, ok := simpleOperand(o, src)
		if !ok {
			return "", false
		}
		values[i] = v
	}

	var b strings.Builder
	s := lit.content
	next := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{', '}':
			b.WriteByte(c)
			b.WriteByte(c)
			continue
		case '%':
		default:
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", false
		}
		if s[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		spec, width, ok := percentSpec(s[i+1:])
		if !ok || next >= len(values) {
			return "", false
		}
		b.WriteString("{" + values[next] + spec + "}")
		next++
		i += width
	}
	if next != len(values) {
		return "", false
	}
	return "f" + lit.quote + b.String() + lit.quote, true
}

// percentSpec parses the conversion following a '%'. It returns the
// f-string suffix and the number of bytes consumed.
func percentSpec(s string) (string, int, bool) {
	switch {
	case s == "":
		return "", 0, false
	case s[0] == 's':
		return "", 1, true
	case s[0] == 'd' || s[0] == 'i':
		// A float operand raises instead of being truncated.
		return ":d", 1, true
	case s[0] == 'r':
		return "!r", 1, true
	case s[0] == 'f':
		return ":f", 1, true
	case s[0] == '.':
		j := 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == 1 || j >= len(s) || s[j] != 'f' {
			return "", 0, false
		}
		return ":" + s[:j+1], j + 1, true
	}
	return "", 0, false
}

// formatCallToFString converts "...".format(a, b) with positional fields
// such as {}, {0}, {!r} or {:>10}.
func formatCallToFString(n *sitter.Node, src []byte) (string, bool) {
	fn, args := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
	if fn == nil || args == nil || fn.Type() != "attribute" || args.Type() != "argument_list" {
		return "", false
	}
	if lang.FieldText(fn, "attribute", src) != "format" {
		return "", false
	}
	lit, ok := stringLiteral(fn.ChildByFieldName("object"), src)
	if !ok || !plainString(lit) {
		return "", false
	}

	var values []string
	for _, a := range lang.NamedChildren(args) {
		v, ok := simpleOperand(a, src)
		if !ok {
			return "", false
		}
		values = append(values, v)
	}

	var b strings.Builder
	s := lit.content
	auto, used := 0, 0
	numbered := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '}' {
			if i+1 < len(s) && s[i+1] == '}' {
				b.WriteString("}}")
				i++
				continue
			}
			return "", false
		}
		if c != '{' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) && s[i+1] == '{' {
			b.WriteString("{{")
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return "", false
		}
		field := s[i+1 : i+end]
		if strings.ContainsAny(field, "{") {
			return "", false
		}
		name, rest := field, ""
		if k := strings.IndexAny(field, "!:"); k >= 0 {
			name, rest = field[:k], field[k:]
		}
		idx := auto
		if name == "" {
			if numbered {
				return "", false
			}
			auto++
		} else {
			v, err := strconv.Atoi(name)
			if err != nil || auto > 0 {
				return "", false
			}
			numbered = true
			idx = v
		}
		if idx < 0 || idx >= len(values) {
			return "", false
		}
		used = max(used, idx+1)
		b.WriteString("{" + values[idx] + rest + "}")
		i += end
	}
	if used != len(values) {
		return "", false
	}
	return "f" + lit.quote + b.String() + lit.quote, true
}

// bareSuperArgs matches super(Cls, self) inside a method of Cls whose
// first parameter is self, returning the argument list.
func bareSuperArgs(n *sitter.Node, src []byte) (*sitter.Node, bool) {
	if lang.FieldText(n, "function", src) != "super" {
		return nil, false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.Type() != "argument_list" {
		return nil, false
	}
	list := lang.NamedChildren(args)
	if len(list) != 2 || list[0].Type() != "identifier" || list[1].Type() != "identifier" {
		return nil, false
	}

	fn := n.Parent()
	for fn != nil && fn.Type() != "function_definition" {
		fn = fn.Parent()
	}
	if fn == nil {
		return nil, false
	}
	cls := lang.FindEnclosingClass(fn)
	if cls == nil || lang.DefinitionName(cls, src) != lang.NodeText(list[0], src) {
		return nil, false
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return nil, false
	}
	first := params.NamedChild(0)
	if first.Type() != "identifier" || lang.NodeText(first, src) != lang.NodeText(list[1], src) {
		return nil, false
	}
	return args, true
}
