package format

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
)

// MaxBlankLines is the longest run of blank lines the Normalizer keeps.
const MaxBlankLines = 2

// Normalizer is the built-in whitespace formatter. It converts CRLF line
// endings, strips trailing whitespace, drops leading blank lines, caps
// blank runs at MaxBlankLines, separates top-level definitions by exactly
// two blank lines and ends the text with a single newline. Lines inside
// multi-line strings are never touched.
type Normalizer struct{}

// layout describes line roles derived from the syntax tree.
type layout struct {
	// keepTrailing marks lines whose trailing whitespace is string content.
	keepTrailing map[int]bool
	// inString marks lines that lie inside a multi-line string.
	inString map[int]bool
	// defGap marks statement start lines that need exactly two blank lines
	// before them.
	defGap map[int]bool
}

// Format normalizes src.
func (Normalizer) Format(src string) (string, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	lay, err := analyze(src)
	if err != nil {
		return "", err
	}

	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for i, line := range lines {
		if !lay.keepTrailing[i] {
			line = strings.TrimRight(line, " \t")
		}
		if line == "" && !lay.inString[i] {
			blanks++
			continue
		}
		if len(out) > 0 {
			n := min(blanks, MaxBlankLines)
			if lay.defGap[i] {
				n = MaxBlankLines
			}
			for range n {
				out = append(out, "")
			}
		}
		blanks = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n", nil
}

func analyze(src string) (*layout, error) {
	source := []byte(src)
	tree, err := lang.Python().Parse(context.Background(), source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	lay := &layout{
		keepTrailing: make(map[int]bool),
		inString:     make(map[int]bool),
		defGap:       make(map[int]bool),
	}

	lang.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "string" {
			return true
		}
		start, end := int(n.StartPoint().Row), int(n.EndPoint().Row)
		for row := start; row < end; row++ {
			lay.keepTrailing[row] = true
			lay.inString[row+1] = true
		}
		return false
	})

	var prev *sitter.Node
	for _, cur := range lang.NamedChildren(root) {
		if prev != nil && cur.Type() != "comment" && prev.Type() != "comment" &&
			(isDefinition(prev) || isDefinition(cur)) &&
			cur.StartPoint().Row > prev.EndPoint().Row {
			lay.defGap[int(cur.StartPoint().Row)] = true
		}
		prev = cur
	}
	return lay, nil
}

func isDefinition(n *sitter.Node) bool {
	switch n.Type() {
	case "function_definition", "class_definition", "decorated_definition":
		return true
	}
	return false
}
