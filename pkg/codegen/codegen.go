// Package codegen synthesizes canonical Python source snippets from
// structured descriptions. Generated text is not validated; callers are
// responsible for passing well-formed expressions and bodies.
package codegen

import (
	"errors"
	"strings"
)

// ErrAliasWithItems is returned when an alias is combined with imported items.
var ErrAliasWithItems = errors.New("alias is only valid without items")

// ErrEmptyName is returned when a required name is empty.
var ErrEmptyName = errors.New("empty name")

// DefaultIndent is the indentation unit of generated blocks.
const DefaultIndent = "    "

// Generator produces source snippets. The zero value is ready to use and
// indents with DefaultIndent.
type Generator struct {
	// IndentUnit overrides DefaultIndent when set.
	IndentUnit string
}

// New returns a Generator using DefaultIndent.
func New() *Generator {
	return &Generator{IndentUnit: DefaultIndent}
}

func (g *Generator) unit() string {
	if g == nil || g.IndentUnit == "" {
		return DefaultIndent
	}
	return g.IndentUnit
}

// ImportItem is one name of a from-import.
type ImportItem struct {
	Name  string
	Alias string
}

// CreateImport returns "import module", "import module as alias" or
// "from module import a, b". alias may only be set when items is empty.
func (g *Generator) CreateImport(module string, items []string, alias string) (string, error) {
	if len(items) > 0 && alias != "" {
		return "", ErrAliasWithItems
	}
	list := make([]ImportItem, len(items))
	for i, it := range items {
		list[i] = ImportItem{Name: it}
	}
	return g.CreateImportItems(module, list, alias)
}

// CreateImportItems is CreateImport with per-item aliases
// ("from module import a as b").
func (g *Generator) CreateImportItems(module string, items []ImportItem, alias string) (string, error) {
	if module == "" {
		return "", ErrEmptyName
	}
	if len(items) == 0 {
		if alias != "" {
			return "import " + module + " as " + alias, nil
		}
		return "import " + module, nil
	}
	if alias != "" {
		return "", ErrAliasWithItems
	}
	return "from " + module + " import " + aliasList(items), nil
}

// CreateImportNames returns a plain import of several modules, such as
// "import os, numpy as np".
func (g *Generator) CreateImportNames(items []ImportItem) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyName
	}
	for _, it := range items {
		if it.Name == "" {
			return "", ErrEmptyName
		}
	}
	return "import " + aliasList(items), nil
}

func aliasList(items []ImportItem) string {
	names := make([]string, len(items))
	for i, it := range items {
		if it.Alias != "" && it.Alias != it.Name {
			names[i] = it.Name + " as " + it.Alias
		} else {
			names[i] = it.Name
		}
	}
	return strings.Join(names, ", ")
}

// CreateAssignment returns "target = value".
func (g *Generator) CreateAssignment(target, value string) string {
	return target + " = " + value
}

// CreateFunctionCall returns "name(arg0, arg1, ...)".
func (g *Generator) CreateFunctionCall(name string, args ...string) string {
	return name + "(" + strings.Join(args, ", ") + ")"
}

// CreateTryExcept returns a try block with a single except clause. Bodies
// may span several lines; each line is indented one level. An empty
// exceptionType produces a bare except.
func (g *Generator) CreateTryExcept(tryBody, exceptionType, exceptBody string) string {
	var b strings.Builder
	b.WriteString("try:\n")
	b.WriteString(g.Indent(orPass(tryBody), 1))
	b.WriteString("\nexcept")
	if exceptionType != "" {
		b.WriteString(" ")
		b.WriteString(exceptionType)
	}
	b.WriteString(":\n")
	b.WriteString(g.Indent(orPass(exceptBody), 1))
	return b.String()
}

// Indent indents every non-blank line of text by level units.
func (g *Generator) Indent(text string, level int) string {
	prefix := strings.Repeat(g.unit(), level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func orPass(body string) string {
	if strings.TrimSpace(body) == "" {
		return "pass"
	}
	return strings.TrimRight(body, "\n")
}
