package refactor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/textedit"
)

// MockRules are the heuristics behind ReplaceComplexDataWithMocks and
// ReplaceRealDataWithMocks.
type MockRules struct {
	// MaxDepth is the deepest container nesting kept as is.
	MaxDepth int
	// MaxEntries is the largest total element count kept as is.
	MaxEntries int
	// SecretKeys are matched case-insensitively as substrings of
	// assignment targets and dictionary keys.
	SecretKeys []string
	// SecretPatterns are regular expressions matched against string values.
	SecretPatterns []string
	// Placeholder replaces secret strings.
	Placeholder string
}

// DefaultMockRules returns the built-in heuristics.
func DefaultMockRules() MockRules {
	return MockRules{
		MaxDepth:   2,
		MaxEntries: 20,
		SecretKeys: []string{
			"password", "passwd", "secret", "token", "api_key", "apikey",
			"access_key", "private_key", "credential", "auth_token", "auth_key",
			"authorization",
		},
		SecretPatterns: []string{
			`^sk-[A-Za-z0-9_-]{16,}$`,
			`^gh[pousr]_[A-Za-z0-9]{20,}$`,
			`^AKIA[0-9A-Z]{16}$`,
			`^xox[abprs]-[A-Za-z0-9-]{10,}$`,
			`^Bearer\s+\S{8,}$`,
			`^eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`,
			`^[0-9a-fA-F]{32,}$`,
			`^[a-z][a-z0-9+.-]*://[^/\s:@]+:[^/\s@]+@`,
			`^(/home/|/Users/|/etc/|/var/|[A-Za-z]:\\)`,
		},
		Placeholder: "mock",
	}
}

// Validate checks the limits and compiles the patterns.
func (r MockRules) Validate() error {
	_, err := r.compile()
	return err
}

func (r MockRules) compile() ([]*regexp.Regexp, error) {
	if r.MaxDepth < 1 {
		return nil, fmt.Errorf("mock rules: max depth must be at least 1, got %d", r.MaxDepth)
	}
	if r.MaxEntries < 1 {
		return nil, fmt.Errorf("mock rules: max entries must be at least 1, got %d", r.MaxEntries)
	}
	out := make([]*regexp.Regexp, 0, len(r.SecretPatterns))
	for _, p := range r.SecretPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("mock rules: pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (r MockRules) secretKey(name string) bool {
	name = strings.ToLower(name)
	for _, k := range r.SecretKeys {
		if k != "" && strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

var emptyContainer = map[string]string{
	"dictionary": "{}",
	"list":       "[]",
	"tuple":      "()",
	"set":        "set()",
}

// ReplaceComplexDataWithMocks empties top-level container literals that
// nest deeper than MaxDepth or hold more than MaxEntries elements. The
// assigned names and their uses are kept.
func (e *Engine) ReplaceComplexDataWithMocks() error {
	return e.mutate("mock_complex_data", e.complexDataPlan)
}

// ReplaceRealDataWithMocks replaces string literals that look like
// credentials, tokens or machine-specific paths in top-level assignments.
func (e *Engine) ReplaceRealDataWithMocks() error {
	return e.mutate("mock_real_data", e.realDataPlan)
}

// ConvertToTestCode removes unused imports and then replaces complex and
// real data with mocks. Each step is logged separately; a failing step
// keeps the steps before it.
func (e *Engine) ConvertToTestCode() error {
	if err := e.RemoveUnusedImports(); err != nil {
		return err
	}
	if err := e.ReplaceComplexDataWithMocks(); err != nil {
		return err
	}
	return e.ReplaceRealDataWithMocks()
}

// assignment pairs a top-level assignment target with its value node.
type assignment struct {
	target string
	value  *sitter.Node
}

func topLevelAssignments(root *sitter.Node, src []byte) []assignment {
	var out []assignment
	for _, stmt := range lang.NamedChildren(root) {
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		expr := stmt.NamedChild(0)
		// Chained assignments nest on the right.
		for expr != nil && expr.Type() == "assignment" {
			right := expr.ChildByFieldName("right")
			if right == nil || right.Type() != "assignment" {
				if right != nil {
					out = append(out, assignment{target: lang.FieldText(expr, "left", src), value: right})
				}
				break
			}
			expr = right
		}
	}
	return out
}

func (e *Engine) complexDataPlan() (plan, error) {
	rules := e.mocks
	if _, err := rules.compile(); err != nil {
		return plan{}, err
	}
	tree, src, err := e.syntaxTree()
	if err != nil {
		return plan{}, err
	}
	defer tree.Close()

	buf := textedit.NewBuffer(e.mod.Source())
	var names []string
	for _, a := range topLevelAssignments(tree.RootNode(), src) {
		empty, ok := emptyContainer[a.value.Type()]
		if !ok {
			continue
		}
		depth, entries := containerSize(a.value)
		if depth <= rules.MaxDepth && entries <= rules.MaxEntries {
			continue
		}
		buf.Replace(int(a.value.StartByte()), int(a.value.EndByte()), empty)
		names = append(names, a.target)
	}
	if len(names) == 0 {
		return plan{source: e.mod.Source(), desc: "No complex data structures found"}, nil
	}
	out, err := buf.Apply()
	if err != nil {
		return plan{}, err
	}
	return plan{
		source: out,
		desc:   fmt.Sprintf("Replaced %d complex data structures with mocks: %s", len(names), strings.Join(names, ", ")),
	}, nil
}

// containerSize returns the nesting depth of a container literal and the
// total number of elements at all levels. A dictionary pair counts once.
func containerSize(n *sitter.Node) (depth, entries int) {
	if _, ok := emptyContainer[n.Type()]; !ok {
		return 0, 0
	}
	for _, c := range lang.NamedChildren(n) {
		if c.Type() == "comment" {
			continue
		}
		entries++
		children := []*sitter.Node{c}
		if c.Type() == "pair" {
			children = lang.NamedChildren(c)
		}
		for _, cc := range children {
			d, k := containerSize(cc)
			depth = max(depth, d)
			entries += k
		}
	}
	return depth + 1, entries
}

func (e *Engine) realDataPlan() (plan, error) {
	rules := e.mocks
	patterns, err := rules.compile()
	if err != nil {
		return plan{}, err
	}
	tree, src, err := e.syntaxTree()
	if err != nil {
		return plan{}, err
	}
	defer tree.Close()

	placeholder := rules.Placeholder
	if placeholder == "" {
		placeholder = DefaultMockRules().Placeholder
	}
	matches := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	buf := textedit.NewBuffer(e.mod.Source())
	var names []string
	for _, a := range topLevelAssignments(tree.RootNode(), src) {
		literal := a.value.Type() == "string" || emptyContainer[a.value.Type()] != ""
		secret := literal && rules.secretKey(a.target)
		n := 0
		var visit func(node *sitter.Node, secret bool)
		visit = func(node *sitter.Node, secret bool) {
			if lit, ok := stringLiteral(node, src); ok {
				if lit.has('f') || lit.content == placeholder {
					return
				}
				if secret || matches(lit.content) {
					q := strconv.Quote(placeholder)
					if lit.has('b') {
						q = "b" + q
					}
					buf.Replace(int(node.StartByte()), int(node.EndByte()), q)
					n++
				}
				return
			}
			switch node.Type() {
			case "pair":
				key, value := node.ChildByFieldName("key"), node.ChildByFieldName("value")
				if key == nil || value == nil {
					return
				}
				k, ok := stringLiteral(key, src)
				visit(value, secret || ok && rules.secretKey(k.content))
				return
			case "keyword_argument":
				if value := node.ChildByFieldName("value"); value != nil {
					visit(value, secret || rules.secretKey(lang.FieldText(node, "name", src)))
				}
				return
			}
			for _, c := range lang.NamedChildren(node) {
				visit(c, secret)
			}
		}
		visit(a.value, secret)
		if n > 0 {
			names = append(names, a.target)
		}
	}
	if len(names) == 0 {
		return plan{source: e.mod.Source(), desc: "No real data found"}, nil
	}
	out, err := buf.Apply()
	if err != nil {
		return plan{}, err
	}
	return plan{
		source: out,
		desc:   fmt.Sprintf("Replaced real data with mocks in %d assignments: %s", len(names), strings.Join(names, ", ")),
	}, nil
}
