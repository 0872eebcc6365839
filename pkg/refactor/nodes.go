package refactor

import (
	"fmt"
	"strings"

	"github.com/phobologic/pyrewrite/internal/textedit"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// The splice operations below are the building blocks for user-written
// transformations. Each one logs a change and gives the statements it
// touches new generations, so NodeRefs into the edited region go stale.

// ReplaceNode replaces the statement addressed by ref with text. Lines of
// a multi-line text after the first are indented to the statement's block.
func (e *Engine) ReplaceNode(ref pyast.NodeRef, text string) error {
	return e.mutate("replace_node", func() (plan, error) {
		s, err := e.mod.Resolve(ref)
		if err != nil {
			return plan{}, err
		}
		src := e.mod.Source()
		sp := s.Span()
		indent := textedit.NewLines(src).Indent(sp.Start)

		buf := textedit.NewBuffer(src)
		buf.Replace(sp.Start, sp.End, block(text, indent))
		out, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		return plan{source: out, desc: fmt.Sprintf("Replaced %s at line %d", s.Kind(), sp.StartLine)}, nil
	})
}

// InsertBefore inserts text as new statements in front of the statement
// addressed by ref, at the same indentation.
func (e *Engine) InsertBefore(ref pyast.NodeRef, text string) error {
	return e.mutate("insert_before", func() (plan, error) {
		s, err := e.mod.Resolve(ref)
		if err != nil {
			return plan{}, err
		}
		src := e.mod.Source()
		sp := s.Span()
		lines := textedit.NewLines(src)
		indent := lines.Indent(sp.Start)
		code := block(text, indent)

		buf := textedit.NewBuffer(src)
		if ls := lines.Start(sp.StartLine); strings.TrimSpace(src[ls:sp.Start]) == "" {
			buf.Insert(ls, indent+code+"\n")
		} else {
			// The statement follows another one on the same line.
			buf.Insert(sp.Start, code+"\n"+indent)
		}
		out, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		return plan{source: out, desc: fmt.Sprintf("Inserted code before %s at line %d", s.Kind(), sp.StartLine)}, nil
	})
}

// InsertAfter inserts text as new statements following the statement
// addressed by ref, at the same indentation. A trailing comment stays on
// the statement's line.
func (e *Engine) InsertAfter(ref pyast.NodeRef, text string) error {
	return e.mutate("insert_after", func() (plan, error) {
		s, err := e.mod.Resolve(ref)
		if err != nil {
			return plan{}, err
		}
		src := e.mod.Source()
		sp := s.Span()
		lines := textedit.NewLines(src)
		indent := lines.Indent(sp.Start)
		code := block(text, indent)

		buf := textedit.NewBuffer(src)
		le := lines.End(sp.EndLine)
		switch rest := strings.TrimSpace(src[sp.End:le]); {
		case rest != "" && !strings.HasPrefix(rest, "#"):
			buf.Insert(sp.End, "\n"+indent+code)
		case le > 0 && src[le-1] == '\n':
			buf.Insert(le, indent+code+"\n")
		default:
			buf.Insert(le, "\n"+indent+code)
		}
		out, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		return plan{source: out, desc: fmt.Sprintf("Inserted code after %s at line %d", s.Kind(), sp.StartLine)}, nil
	})
}

// RemoveNode deletes the statement addressed by ref together with its
// line. A statement that is the only one in its block is replaced by pass.
func (e *Engine) RemoveNode(ref pyast.NodeRef) error {
	return e.mutate("remove_node", func() (plan, error) {
		s, err := e.mod.Resolve(ref)
		if err != nil {
			return plan{}, err
		}
		src := e.mod.Source()
		sp := s.Span()
		lines := textedit.NewLines(src)

		buf := textedit.NewBuffer(src)
		start, end := removalRange(src, lines, sp)
		buf.Delete(start, end)
		out, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		if soleInBlock(src, lines, sp) || !e.valid(out) {
			buf = textedit.NewBuffer(src)
			buf.Replace(sp.Start, sp.End, "pass")
			if out, err = buf.Apply(); err != nil {
				return plan{}, err
			}
		}
		return plan{source: out, desc: fmt.Sprintf("Removed %s at line %d", s.Kind(), sp.StartLine)}, nil
	})
}

// ReplaceCodeRange replaces lines start through end (1-based, inclusive)
// with text, verbatim.
func (e *Engine) ReplaceCodeRange(start, end int, text string) error {
	return e.mutate("replace_code_range", func() (plan, error) {
		src := e.mod.Source()
		lines := textedit.NewLines(src)
		if start < 1 || end < start || end > lines.Count() {
			return plan{}, fmt.Errorf("%w: lines %d-%d of %d", ErrInvalidRange, start, end, lines.Count())
		}
		from, to := lines.Start(start), lines.End(end)
		if text != "" && !strings.HasSuffix(text, "\n") && src[to-1] == '\n' {
			text += "\n"
		}

		buf := textedit.NewBuffer(src)
		buf.Replace(from, to, text)
		out, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		desc := fmt.Sprintf("Replaced lines %d-%d", start, end)
		if start == end {
			desc = fmt.Sprintf("Replaced line %d", start)
		}
		return plan{source: out, desc: desc}, nil
	})
}

// ApplyTransform runs fn over the current module and adopts the source it
// returns as one logged change described by description.
func (e *Engine) ApplyTransform(description string, fn func(mod *pyast.Module) (string, error)) error {
	if description == "" {
		description = "Applied custom transformation"
	}
	return e.mutate("transform", func() (plan, error) {
		out, err := fn(e.mod)
		if err != nil {
			return plan{}, err
		}
		return plan{source: out, desc: description}, nil
	})
}

// block prepares caller text for splicing at indent.
func block(text, indent string) string {
	return textedit.Reindent(textedit.Dedent(strings.Trim(text, "\n")), indent)
}

// removalRange returns the bytes to delete to remove the statement at sp:
// its whole lines when it stands alone, otherwise the statement and one
// adjoining semicolon.
func removalRange(src string, lines *textedit.Lines, sp pyast.Span) (int, int) {
	ls, le := lines.Start(sp.StartLine), lines.End(sp.EndLine)
	before, after := src[ls:sp.Start], src[sp.End:le]
	rest := strings.TrimSpace(after)

	if strings.TrimSpace(before) == "" && (rest == "" || strings.HasPrefix(rest, "#")) {
		return ls, le
	}
	if strings.HasPrefix(rest, ";") {
		j := sp.End + strings.Index(after, ";") + 1
		for j < le && (src[j] == ' ' || src[j] == '\t') {
			j++
		}
		return sp.Start, j
	}
	if tb := strings.TrimRight(before, " \t"); strings.HasSuffix(tb, ";") {
		return ls + len(tb) - 1, sp.End
	}
	return sp.Start, sp.End
}

// soleInBlock reports whether the statement at sp is the only statement
// of the block that holds it.
func soleInBlock(src string, lines *textedit.Lines, sp pyast.Span) bool {
	ls := lines.Start(sp.StartLine)
	before := strings.TrimSpace(src[ls:sp.Start])
	after := strings.TrimSpace(src[sp.End:lines.End(sp.EndLine)])
	if before != "" {
		// Inline body: "if x: y"
		return strings.HasSuffix(before, ":") && !strings.HasPrefix(after, ";")
	}
	if strings.HasPrefix(after, ";") {
		return false
	}

	header := -1
	for n := sp.StartLine - 1; n >= 1; n-- {
		line := codePart(src[lines.Start(n):lines.End(n)])
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, ":") {
			return false
		}
		header = n
		break
	}
	if header < 0 {
		return false
	}
	headerIndent := len(lines.Indent(lines.Start(header)))
	for n := sp.EndLine + 1; n <= lines.Count(); n++ {
		if codePart(src[lines.Start(n):lines.End(n)]) == "" {
			continue
		}
		return len(lines.Indent(lines.Start(n))) <= headerIndent
	}
	return true
}

// codePart trims a line and drops a trailing comment. A '#' inside a
// string literal is taken for a comment; callers only use the result to
// look for block headers.
func codePart(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
