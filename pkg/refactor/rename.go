package refactor

import (
	"fmt"
	"strings"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/textedit"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// RenameFunction renames every top-level function named old. Only the
// declaration is rewritten; call sites are left alone. It returns a
// *NotFoundError when no top-level function is named old.
func (e *Engine) RenameFunction(old, new string) error {
	return e.mutate("rename_function", e.renamePlan(pyast.KindFunctionDef, old, new, true))
}

// RenameFunctionOptional is RenameFunction for batch runs: when
// errorIfMissing is false an absent function is a silent no-op that is
// not logged.
func (e *Engine) RenameFunctionOptional(old, new string, errorIfMissing bool) error {
	return e.mutate("rename_function", e.renamePlan(pyast.KindFunctionDef, old, new, errorIfMissing))
}

// RenameFunctionWithFormat renames and, if applyFormatting is set, formats
// the result. Both steps are logged as one change.
func (e *Engine) RenameFunctionWithFormat(old, new string, applyFormatting bool) error {
	return e.mutate("rename_function", e.withFormat(e.renamePlan(pyast.KindFunctionDef, old, new, true), applyFormatting))
}

// RenameClass renames every top-level class named old. Only the
// declaration is rewritten. It returns a *NotFoundError when no top-level
// class is named old.
func (e *Engine) RenameClass(old, new string) error {
	return e.mutate("rename_class", e.renamePlan(pyast.KindClassDef, old, new, true))
}

// RenameClassOptional is RenameClass with an optional target.
func (e *Engine) RenameClassOptional(old, new string, errorIfMissing bool) error {
	return e.mutate("rename_class", e.renamePlan(pyast.KindClassDef, old, new, errorIfMissing))
}

// RenameClassWithFormat renames and optionally formats as one change.
func (e *Engine) RenameClassWithFormat(old, new string, applyFormatting bool) error {
	return e.mutate("rename_class", e.withFormat(e.renamePlan(pyast.KindClassDef, old, new, true), applyFormatting))
}

func (e *Engine) renamePlan(kind pyast.Kind, old, new string, required bool) planFunc {
	return func() (plan, error) {
		label := "Function"
		if kind == pyast.KindClassDef {
			label = "Class"
		}
		if !lang.IsIdentifier(new) {
			return plan{}, fmt.Errorf("%w: %q is not a Python identifier", ErrInvalidName, new)
		}

		buf := textedit.NewBuffer(e.mod.Source())
		for _, s := range e.mod.Body() {
			switch s := s.(type) {
			case *pyast.FunctionDef:
				if kind == pyast.KindFunctionDef && s.Name == old {
					buf.Replace(s.NameSpan.Start, s.NameSpan.End, new)
				}
			case *pyast.ClassDef:
				if kind == pyast.KindClassDef && s.Name == old {
					buf.Replace(s.NameSpan.Start, s.NameSpan.End, new)
				}
			}
		}
		if buf.Len() == 0 {
			if !required {
				return plan{skip: true}, nil
			}
			return plan{}, &NotFoundError{Kind: label, Name: old}
		}

		src, err := buf.Apply()
		if err != nil {
			return plan{}, err
		}
		return plan{
			source:   src,
			desc:     fmt.Sprintf("Renamed %s '%s' to '%s'", strings.ToLower(label), old, new),
			preserve: true,
		}, nil
	}
}
