package lang

import (
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError locates the first malformed region of a parse tree.
type SyntaxError struct {
	Line    int // 1-based
	Column  int // 1-based
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

const maxSnippet = 20

// legacyStatements are Python 2 statements the grammar still accepts.
var legacyStatements = map[string]string{
	"print_statement": "print",
	"exec_statement":  "exec",
}

// FirstSyntaxError returns the first malformed node of the tree in document
// order, or nil if the tree is well formed Python 3. Besides ERROR and
// MISSING nodes this rejects Python 2 print/exec statements and reserved
// keywords the grammar recovered as identifiers ("return return").
func FirstSyntaxError(root *sitter.Node, source []byte) *SyntaxError {
	if root == nil {
		return nil
	}
	var found *SyntaxError
	Walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		switch {
		case n.IsMissing():
			found = newSyntaxError(n, fmt.Sprintf("missing %q", n.Type()))
		case n.IsError():
			found = newSyntaxError(n, describeError(n, source))
		case legacyStatements[n.Type()] != "":
			found = newSyntaxError(n, fmt.Sprintf("missing parentheses in call to %q", legacyStatements[n.Type()]))
		case n.Type() == "identifier":
			if _, kw := Keywords[NodeText(n, source)]; kw {
				found = newSyntaxError(n, fmt.Sprintf("unexpected keyword %q", NodeText(n, source)))
			}
		}
		return found == nil
	})
	if found == nil && root.HasError() {
		// HasError without a visible ERROR node; report the root.
		found = &SyntaxError{Line: 1, Column: 1, Message: "invalid syntax"}
	}
	return found
}

func newSyntaxError(n *sitter.Node, msg string) *SyntaxError {
	p := n.StartPoint()
	return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Message: msg}
}

func describeError(n *sitter.Node, source []byte) string {
	text := NodeText(n, source)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "invalid syntax"
	}
	return fmt.Sprintf("invalid syntax near %q", snippet(text))
}

// snippet shortens text to maxSnippet runes.
func snippet(text string) string {
	if utf8.RuneCountInString(text) <= maxSnippet {
		return text
	}
	return string([]rune(text)[:maxSnippet]) + "..."
}
