package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/pyrewrite/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:             "python",
		Extensions:       []string{".py"},
		lang:             python.GetLanguage(),
		FindMethodClass:  pythonFindMethodClass,
		FindEnclosingDef: pythonFindEnclosingDef,
		ExtractSignature: pythonExtractSignature,
	}
}

// Keywords are the reserved words of Python 3. Soft keywords (match, case,
// type, _) are valid identifiers and are not listed.
var Keywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {}, "finally": {},
	"for": {}, "from": {}, "global": {}, "if": {}, "import": {}, "in": {},
	"is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {}, "pass": {},
	"raise": {}, "return": {}, "try": {}, "while": {}, "with": {}, "yield": {},
}

// IsIdentifier reports whether s is a valid, non-keyword Python identifier.
// Only ASCII identifiers are accepted.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if _, kw := Keywords[s]; kw {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DefinitionName returns the name identifier of a function or class definition.
func DefinitionName(node *sitter.Node, source []byte) string {
	return FieldText(node, "name", source)
}

// pythonFindEnclosingDef returns the qualified name of the function or method
// containing the given node (e.g., "MyClass.method" or "funcName").
// Returns "" if the node is at module top-level.
func pythonFindEnclosingDef(node *sitter.Node, source []byte) string {
	for current := node.Parent(); current != nil; current = current.Parent() {
		if current.Type() != "function_definition" {
			continue
		}
		funcName := DefinitionName(current, source)
		if funcName == "" {
			return ""
		}
		if cls := FindEnclosingClass(current); cls != nil {
			return DefinitionName(cls, source) + "." + funcName
		}
		return funcName
	}
	return ""
}

func pythonFindMethodClass(funcNode *sitter.Node, source []byte) string {
	classNode := FindEnclosingClass(funcNode)
	if classNode == nil {
		return ""
	}
	return DefinitionName(classNode, source)
}

// FindEnclosingClass returns the class_definition whose body directly holds
// the given function definition, or nil.
func FindEnclosingClass(funcNode *sitter.Node) *sitter.Node {
	parent := funcNode.Parent()
	if parent == nil {
		return nil
	}

	// Direct: func -> block -> class_definition
	if parent.Type() == "block" && parent.Parent() != nil && parent.Parent().Type() == "class_definition" {
		return parent.Parent()
	}

	// Decorated: func -> decorated_definition -> block -> class_definition
	if parent.Type() == "decorated_definition" {
		gp := parent.Parent()
		if gp != nil && gp.Type() == "block" && gp.Parent() != nil && gp.Parent().Type() == "class_definition" {
			return gp.Parent()
		}
	}

	return nil
}

func pythonExtractSignature(defNode *sitter.Node, kind model.SymbolKind, source []byte) string {
	if kind == model.Class {
		return pythonExtractClassSignature(defNode, source)
	}
	return pythonExtractFunctionSignature(defNode, source)
}

func pythonExtractClassSignature(node *sitter.Node, source []byte) string {
	name := DefinitionName(node, source)
	if args := FieldText(node, "superclasses", source); args != "" {
		return name + CollapseWhitespace(args)
	}
	return name
}

func pythonExtractFunctionSignature(node *sitter.Node, source []byte) string {
	sig := DefinitionName(node, source) + CollapseWhitespace(FieldText(node, "parameters", source))
	if returnType := FieldText(node, "return_type", source); returnType != "" {
		sig += " -> " + returnType
	}
	if node.ChildCount() > 0 && node.Child(0).Type() == "async" {
		sig = "async " + sig
	}
	return sig
}
