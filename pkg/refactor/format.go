package refactor

import (
	"log/slog"
)

// FormatCode runs the formatter over the current source and logs the
// change. Formatter failures are returned and leave the engine unchanged.
func (e *Engine) FormatCode() error {
	return e.mutate("format", func() (plan, error) {
		out, err := e.format(e.mod.Source())
		if err != nil {
			return plan{}, err
		}
		return plan{source: out, desc: "Formatted code"}, nil
	})
}

// GetCodeWithFormat returns the current source, formatted when
// applyFormatting is set. It does not change the engine or its log.
func (e *Engine) GetCodeWithFormat(applyFormatting bool) (string, error) {
	if !applyFormatting {
		return e.GetCode(), nil
	}
	return e.format(e.mod.Source())
}

// RefactorAndFormat formats the current source, logs the change and
// returns the result.
func (e *Engine) RefactorAndFormat() (string, error) {
	if err := e.FormatCode(); err != nil {
		return "", err
	}
	return e.GetCode(), nil
}

// withFormat extends a plan with a formatting pass when apply is set. The
// combined change is described with a "(formatted)" suffix.
func (e *Engine) withFormat(fn planFunc, apply bool) planFunc {
	if !apply {
		return fn
	}
	return func() (plan, error) {
		p, err := fn()
		if err != nil || p.skip {
			return p, err
		}
		out, err := e.format(p.source)
		if err != nil {
			return plan{}, err
		}
		p.source = out
		p.desc += " (formatted)"
		p.preserve = false
		return p, nil
	}
}

func (e *Engine) format(src string) (string, error) {
	out, err := e.formatter.Format(src)
	if err != nil {
		e.logger.Warn("formatter failed",
			slog.String("engine", e.id),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	return out, nil
}
