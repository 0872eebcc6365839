// Package toon implements TOON (Token-Oriented Object Notation) encoding
// for inspection reports and change logs.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/internal/parse"
	"github.com/phobologic/pyrewrite/pkg/parser"
	"github.com/phobologic/pyrewrite/pkg/pyast"
	"github.com/phobologic/pyrewrite/pkg/refactor"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Report is the input of Encode: the parse results of one inspect run.
type Report struct {
	Root  string
	Files []parser.FileResult
	// Dependencies is the import graph between Files, if built.
	Dependencies []model.Dependency
}

// Encode converts a Report into TOON format.
func Encode(r *Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))

	var fileRows, errorRows [][]string
	for _, f := range r.Files {
		if f.Err != nil {
			fileRows = append(fileRows, []string{f.Path, "", "", "", "error"})
			errorRows = append(errorRows, []string{f.Path, f.Err.Error()})
			continue
		}
		m := f.Module
		status := "ok"
		switch {
		case m.IsCommentsOnly():
			status = "comments-only"
		case m.IsEmpty():
			status = "empty"
		}
		fileRows = append(fileRows, []string{
			f.Path,
			strconv.Itoa(m.StatementCount()),
			strconv.Itoa(len(m.FunctionNames())),
			strconv.Itoa(len(m.ClassNames())),
			status,
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "statements", "functions", "classes", "status"}, fileRows))

	var symbolRows [][]string
	for _, f := range r.Files {
		if f.Module == nil {
			continue
		}
		for _, s := range Symbols(f.Module) {
			symbolRows = append(symbolRows, []string{
				f.Path,
				s.Name,
				string(s.SymbolKind),
				strconv.Itoa(s.Line),
				s.Signature,
			})
		}
	}
	parts = append(parts, formatTabular("symbols", []string{"file", "name", "kind", "line", "signature"}, symbolRows))

	var importRows [][]string
	for _, f := range r.Files {
		if f.Module == nil {
			continue
		}
		for _, imp := range f.Module.Imports() {
			importRows = append(importRows, []string{
				f.Path,
				imp.Module,
				importItems(imp),
				strconv.Itoa(imp.Line),
			})
		}
	}
	parts = append(parts, formatTabular("imports", []string{"file", "module", "items", "line"}, importRows))

	if len(r.Dependencies) > 0 {
		depRows := make([][]string, len(r.Dependencies))
		for i, d := range r.Dependencies {
			depRows[i] = []string{d.Source, d.Target, strings.Join(d.Symbols, " ")}
		}
		parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))
	}

	var callRows [][]string
	for _, f := range r.Files {
		if f.Module == nil {
			continue
		}
		for _, c := range f.Module.FindFunctionCalls("") {
			callRows = append(callRows, []string{f.Path, c.Scope, c.Callee, strconv.Itoa(c.Line)})
		}
	}
	if len(callRows) > 0 {
		parts = append(parts, formatTabular("callsites", []string{"file", "caller", "callee", "line"}, callRows))
	}

	if len(errorRows) > 0 {
		parts = append(parts, formatTabular("errors", []string{"file", "message"}, errorRows))
	}

	return strings.Join(parts, "\n")
}

// EncodeChanges converts a change log into a TOON table.
func EncodeChanges(log refactor.ChangeLog) string {
	rows := make([][]string, 0, len(log))
	for _, c := range log {
		rows = append(rows, []string{strconv.Itoa(c.Ordinal), c.Kind, c.Description})
	}
	return formatTabular("changes", []string{"ordinal", "kind", "description"}, rows)
}

// Symbols returns the definition tags of m's classes, methods and
// functions in document order, leaving out definitions nested inside a
// function. Signatures are rendered as declarations ("def f(x) -> int",
// "class A(Base)").
func Symbols(m *pyast.Module) []model.Tag {
	l := lang.Python()
	query, err := l.GetTagQuery()
	if err != nil {
		return nil
	}
	p := l.NewParser()
	defer p.Close()

	var defs []model.Tag
	for _, tag := range parse.ExtractFile(l, p, query, []byte(m.Source())) {
		if tag.Kind != model.Definition || tag.Scope != "" {
			continue
		}
		tag.Signature = declaration(tag)
		defs = append(defs, tag)
	}
	return defs
}

func declaration(tag model.Tag) string {
	if tag.SymbolKind == model.Class {
		return "class " + tag.Signature
	}
	if rest, ok := strings.CutPrefix(tag.Signature, "async "); ok {
		return "async def " + rest
	}
	return "def " + tag.Signature
}

func importItems(imp pyast.ImportRecord) string {
	if imp.Wildcard {
		return "*"
	}
	items := make([]string, len(imp.Items))
	for i, it := range imp.Items {
		if imp.Aliases[i] != "" {
			it += " as " + imp.Aliases[i]
		}
		items[i] = it
	}
	if len(items) == 0 && imp.Alias != "" {
		return "as " + imp.Alias
	}
	return strings.Join(items, " ")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
