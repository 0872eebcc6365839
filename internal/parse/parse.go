// Package parse extracts definition, call and name tags from Python syntax
// trees using the embedded tree-sitter query.
package parse

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/model"
)

var captureMap = map[string]struct {
	Kind       model.TagKind
	SymbolKind model.SymbolKind
}{
	"definition.class":    {model.Definition, model.Class},
	"definition.function": {model.Definition, model.Function},
	"reference.call":      {model.Reference, model.Call},
	"reference.name":      {model.Reference, model.Name},
}

// importTypes are statements whose identifiers bind names rather than use them.
var importTypes = []string{"import_statement", "import_from_statement", "future_import_statement"}

// ExtractFile parses source and returns its tags. It returns nil when the
// source is empty or cannot be parsed at all.
func ExtractFile(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte) []model.Tag {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	return ExtractTags(l, query, tree.RootNode(), source)
}

// ExtractTags runs the tag query over an already parsed tree. Tags are
// returned in the order the query cursor yields them.
//
// Name references skip identifiers that cannot refer to a binding in the
// current module: attribute names (the "path" in os.path), keyword argument
// names, definition names, and the names inside import statements.
func ExtractTags(l *lang.Language, query *sitter.Query, root *sitter.Node, source []byte) []model.Tag {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var tags []model.Tag

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		// Find the @name capture and the pattern capture
		var nameNode *sitter.Node
		var captureName string
		var defNode *sitter.Node

		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if _, ok := captureMap[cname]; ok {
				captureName = cname
				defNode = c.Node
			}
		}

		if nameNode == nil || captureName == "" || defNode == nil {
			continue
		}

		cm := captureMap[captureName]
		if cm.SymbolKind == model.Name && !isNameUse(nameNode) {
			continue
		}

		nameText := lang.NodeText(nameNode, source)
		tag := model.Tag{
			Name:       nameText,
			Kind:       cm.Kind,
			SymbolKind: cm.SymbolKind,
			Line:       int(nameNode.StartPoint().Row) + 1,
			Column:     int(nameNode.StartPoint().Column),
			StartByte:  int(defNode.StartByte()),
			EndByte:    int(defNode.EndByte()),
		}

		switch cm.SymbolKind {
		case model.Function:
			if className := l.FindMethodClass(defNode, source); className != "" {
				tag.SymbolKind = model.Method
				tag.Name = className + "." + nameText
			}
			tag.Signature = l.ExtractSignature(defNode, tag.SymbolKind, source)
			tag.Scope = l.FindEnclosingDef(defNode, source)
			tag.Line = int(defNode.StartPoint().Row) + 1
		case model.Class:
			tag.Signature = l.ExtractSignature(defNode, tag.SymbolKind, source)
			tag.Scope = l.FindEnclosingDef(defNode, source)
			tag.Line = int(defNode.StartPoint().Row) + 1
		case model.Call:
			tag.Callee = lang.CollapseWhitespace(lang.FieldText(defNode, "function", source))
			tag.Arguments = callArguments(defNode, source)
			tag.Scope = l.FindEnclosingDef(defNode, source)
			tag.Line = int(defNode.StartPoint().Row) + 1
			tag.Column = int(defNode.StartPoint().Column)
		case model.Name:
			tag.Scope = l.FindEnclosingDef(defNode, source)
		}

		tags = append(tags, tag)
	}

	return tags
}

// isNameUse reports whether an identifier reads or rebinds a module-level name.
func isNameUse(ident *sitter.Node) bool {
	parent := ident.Parent()
	if parent == nil {
		return true
	}
	switch parent.Type() {
	case "attribute":
		if attr := parent.ChildByFieldName("attribute"); sameNode(attr, ident) {
			return false
		}
	case "keyword_argument":
		if name := parent.ChildByFieldName("name"); sameNode(name, ident) {
			return false
		}
	case "function_definition", "class_definition":
		if name := parent.ChildByFieldName("name"); sameNode(name, ident) {
			return false
		}
	}
	return !lang.HasAncestor(ident, importTypes...)
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func callArguments(call *sitter.Node, source []byte) []string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	// A bare generator argument: f(x for x in y)
	if args.Type() == "generator_expression" {
		return []string{lang.CollapseWhitespace(lang.NodeText(args, source))}
	}
	var out []string
	for _, c := range lang.NamedChildren(args) {
		if c.Type() == "comment" {
			continue
		}
		out = append(out, lang.CollapseWhitespace(lang.NodeText(c, source)))
	}
	return out
}
