package refactor

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/internal/parse"
	"github.com/phobologic/pyrewrite/internal/textedit"
	"github.com/phobologic/pyrewrite/pkg/codegen"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// DefaultImportTable returns the Python 2 module names ModernizeImports
// replaces, mapped to their Python 3 successors.
func DefaultImportTable() map[string]string {
	return map[string]string{
		"imp":              "importlib",
		"optparse":         "argparse",
		"ConfigParser":     "configparser",
		"StringIO":         "io",
		"cStringIO":        "io",
		"cPickle":          "pickle",
		"urllib2":          "urllib.request",
		"urlparse":         "urllib.parse",
		"Queue":            "queue",
		"SocketServer":     "socketserver",
		"cookielib":        "http.cookiejar",
		"httplib":          "http.client",
		"HTMLParser":       "html.parser",
		"BaseHTTPServer":   "http.server",
		"SimpleHTTPServer": "http.server",
		"CGIHTTPServer":    "http.server",
		"Tkinter":          "tkinter",
		"tkMessageBox":     "tkinter.messagebox",
		"__builtin__":      "builtins",
		"copy_reg":         "copyreg",
		"anydbm":           "dbm",
		"xmlrpclib":        "xmlrpc.client",
		"commands":         "subprocess",
		"thread":           "_thread",
	}
}

// ReplaceImport rewrites the module name of every import of old, at any
// depth, to new. Imported items and aliases are kept. Replacing a module
// that is not imported succeeds and logs that nothing was found.
func (e *Engine) ReplaceImport(old, new string) error {
	return e.mutate("replace_import", func() (plan, error) {
		if !validModulePath(new) {
			return plan{}, fmt.Errorf("%w: %q is not a module path", ErrInvalidName, new)
		}
		buf := textedit.NewBuffer(e.mod.Source())
		if e.replaceImportEdits(buf, old, new) == 0 {
			return plan{source: e.mod.Source(), desc: fmt.Sprintf("No imports of '%s' found", old)}, nil
		}
		src, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		return plan{
			source:   src,
			desc:     fmt.Sprintf("Replaced import '%s' with '%s'", old, new),
			preserve: true,
		}, nil
	})
}

// ModernizeImports replaces every legacy module of the import table.
func (e *Engine) ModernizeImports() error {
	return e.mutate("modernize_imports", func() (plan, error) {
		buf := textedit.NewBuffer(e.mod.Source())
		var done []string
		for _, old := range slices.Sorted(maps.Keys(e.imports)) {
			if e.replaceImportEdits(buf, old, e.imports[old]) > 0 {
				done = append(done, old+" -> "+e.imports[old])
			}
		}
		if len(done) == 0 {
			return plan{source: e.mod.Source(), desc: "No legacy imports found"}, nil
		}
		src, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		return plan{
			source:   src,
			desc:     "Modernized imports: " + strings.Join(done, ", "),
			preserve: true,
		}, nil
	})
}

func (e *Engine) replaceImportEdits(buf *textedit.Buffer, old, new string) int {
	n := 0
	e.mod.Walk(func(_ pyast.NodeRef, s pyast.Stmt) bool {
		switch s := s.(type) {
		case *pyast.Import:
			for _, a := range s.Names {
				if a.Name == old {
					buf.Replace(a.Span.Start, a.Span.End, new)
					n++
				}
			}
		case *pyast.ImportFrom:
			if s.Module == old {
				buf.Replace(s.ModuleSpan.Start, s.ModuleSpan.End, new)
				n++
			}
		}
		return true
	})
	return n
}

// validModulePath accepts dotted identifiers with optional leading dots
// for relative imports.
func validModulePath(name string) bool {
	rest := strings.TrimLeft(name, ".")
	if rest == "" {
		return name != ""
	}
	for _, part := range strings.Split(rest, ".") {
		if !lang.IsIdentifier(part) {
			return false
		}
	}
	return true
}

// RemoveUnusedImports drops top-level imported names that nothing in the
// module refers to. A name is used when an identifier anywhere outside
// import statements spells it, when a string annotation mentions it, or
// when it is listed in __all__. Future imports and star imports are kept.
func (e *Engine) RemoveUnusedImports() error {
	return e.mutate("remove_unused_imports", e.unusedImportsPlan)
}

func (e *Engine) unusedImportsPlan() (plan, error) {
	used, err := e.usedNames()
	if err != nil {
		return plan{}, err
	}

	src := e.mod.Source()
	lines := textedit.NewLines(src)
	buf := textedit.NewBuffer(src)
	var removed []string

	for _, s := range e.mod.Body() {
		var keep, drop []codegen.ImportItem
		var stmt string
		switch s := s.(type) {
		case *pyast.Import:
			for _, a := range s.Names {
				item := codegen.ImportItem{Name: a.Name, Alias: a.AsName}
				if used[a.Bound()] {
					keep = append(keep, item)
				} else {
					drop = append(drop, item)
				}
			}
			if len(drop) > 0 && len(keep) > 0 {
				if stmt, err = e.gen.CreateImportNames(keep); err != nil {
					return plan{}, err
				}
			}
		case *pyast.ImportFrom:
			if s.Module == "__future__" || s.Wildcard {
				continue
			}
			for _, a := range s.Items {
				item := codegen.ImportItem{Name: a.Name, Alias: a.AsName}
				if used[a.Bound()] {
					keep = append(keep, item)
				} else {
					drop = append(drop, item)
				}
			}
			if len(drop) > 0 && len(keep) > 0 {
				if stmt, err = e.gen.CreateImportItems(s.Module, keep, ""); err != nil {
					return plan{}, err
				}
			}
		default:
			continue
		}
		if len(drop) == 0 {
			continue
		}
		sp := s.Span()
		if len(keep) == 0 {
			start, end := removalRange(src, lines, sp)
			buf.Delete(start, end)
		} else {
			buf.Replace(sp.Start, sp.End, stmt)
		}
		for _, d := range drop {
			removed = append(removed, d.Name)
		}
	}

	if len(removed) == 0 {
		return plan{source: src, desc: "No unused imports found"}, nil
	}
	out, err := buf.Apply()
	if err != nil {
		return plan{}, err
	}
	return plan{
		source: out,
		desc:   fmt.Sprintf("Removed %d unused imports: %s", len(removed), strings.Join(removed, ", ")),
	}, nil
}

// usedNames collects every name the module refers to outside imports.
func (e *Engine) usedNames() (map[string]bool, error) {
	tree, src, err := e.syntaxTree()
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	l := lang.Python()
	query, err := l.GetTagQuery()
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	for _, tag := range parse.ExtractTags(l, query, root, src) {
		if tag.SymbolKind == model.Name {
			used[tag.Name] = true
		}
	}

	lang.Walk(root, func(n *sitter.Node) bool {
		if n.Type() == "type" {
			for _, v := range stringValues(n, src) {
				for _, w := range identifierWords(v) {
					used[w] = true
				}
			}
			return false
		}
		return true
	})

	for _, stmt := range lang.NamedChildren(root) {
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		expr := stmt.NamedChild(0)
		if expr.Type() != "assignment" && expr.Type() != "augmented_assignment" {
			continue
		}
		if lang.FieldText(expr, "left", src) != "__all__" {
			continue
		}
		if right := expr.ChildByFieldName("right"); right != nil {
			for _, v := range stringValues(right, src) {
				used[v] = true
			}
		}
	}
	return used, nil
}
