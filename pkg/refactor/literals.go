package refactor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
)

// strLit is a single string literal split into its parts.
type strLit struct {
	prefix  string // lowercased, such as "", "u", "rb", "f"
	quote   string // ', ", ''' or """
	content string // raw text between the quotes
}

func (s strLit) has(flag byte) bool {
	return strings.IndexByte(s.prefix, flag) >= 0
}

func (s strLit) triple() bool {
	return len(s.quote) == 3
}

// stringLiteral splits a tree-sitter string node. It reports false for
// anything else, including implicitly concatenated strings.
func stringLiteral(n *sitter.Node, src []byte) (strLit, bool) {
	if n == nil || n.Type() != "string" {
		return strLit{}, false
	}
	text := lang.NodeText(n, src)
	i := strings.IndexAny(text, `'"`)
	if i < 0 {
		return strLit{}, false
	}
	q := text[i : i+1]
	if strings.HasPrefix(text[i:], q+q+q) && len(text)-i >= 6 {
		q = q + q + q
	}
	if len(text)-i < 2*len(q) || !strings.HasSuffix(text, q) {
		return strLit{}, false
	}
	return strLit{
		prefix:  strings.ToLower(text[:i]),
		quote:   q,
		content: text[i+len(q) : len(text)-len(q)],
	}, true
}

// stringValues returns the contents of every string literal under n.
func stringValues(n *sitter.Node, src []byte) []string {
	var out []string
	lang.Walk(n, func(c *sitter.Node) bool {
		if lit, ok := stringLiteral(c, src); ok {
			out = append(out, lit.content)
			return false
		}
		return true
	})
	return out
}

// identifierWords splits text into identifier-like words. It is used for
// names referenced from string annotations such as "Optional[Path]".
func identifierWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9')
	})
}
