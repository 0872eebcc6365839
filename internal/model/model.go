// Package model defines the tag records extracted from Python source.
package model

// TagKind indicates whether a tag is a definition or a reference.
type TagKind string

const (
	Definition TagKind = "def"
	Reference  TagKind = "ref"
)

// SymbolKind indicates the syntactic kind of a symbol.
type SymbolKind string

const (
	Class    SymbolKind = "class"
	Function SymbolKind = "function"
	Method   SymbolKind = "method"
	Call     SymbolKind = "call"
	Name     SymbolKind = "name"
)

// Tag represents a single symbol occurrence extracted from source code.
type Tag struct {
	Name       string
	Kind       TagKind
	SymbolKind SymbolKind
	Line       int // 1-based
	Column     int // 0-based byte column
	StartByte  int
	EndByte    int

	// Signature is set for definitions.
	Signature string

	// Callee is the full callee expression of a call ("os.path.join").
	Callee string
	// Arguments holds the source text of each call argument.
	Arguments []string
	// Scope is the qualified name of the enclosing function, if any
	// ("Class.method" or "func").
	Scope string
}

// Dependency is an import edge between two inspected files. Symbols lists
// the imported names, or the module name for plain imports.
type Dependency struct {
	Source  string
	Target  string
	Symbols []string
}
