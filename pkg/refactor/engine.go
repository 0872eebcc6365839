// Package refactor rewrites parsed Python modules.
//
// An Engine owns one module. Every mutation computes the would-be source,
// re-parses it and only then adopts it, so a failed mutation leaves the
// module, its node references and the change log untouched. Source text is
// edited in place: code the engine did not touch keeps its comments and
// layout byte for byte.
//
// An Engine is not safe for concurrent use.
package refactor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/codes"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/pkg/codegen"
	"github.com/phobologic/pyrewrite/pkg/format"
	"github.com/phobologic/pyrewrite/pkg/parser"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// Engine applies refactorings to a module and records them in a change log.
type Engine struct {
	id        string
	mod       *pyast.Module
	original  string
	parser    *parser.Parser
	gen       *codegen.Generator
	formatter format.Formatter
	logger    *slog.Logger
	imports   map[string]string
	mocks     MockRules
	changes   ChangeLog
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger that receives one debug record per change.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFormatter sets the formatter used by FormatCode and the *WithFormat
// variants. The default is format.Normalizer.
func WithFormatter(f format.Formatter) Option {
	return func(e *Engine) {
		if f != nil {
			e.formatter = f
		}
	}
}

// WithImportTable replaces the legacy module table used by ModernizeImports.
func WithImportTable(table map[string]string) Option {
	return func(e *Engine) {
		e.imports = make(map[string]string, len(table))
		for k, v := range table {
			e.imports[k] = v
		}
	}
}

// WithMockRules replaces the heuristics of the mock replacements.
func WithMockRules(rules MockRules) Option {
	return func(e *Engine) {
		e.mocks = rules
	}
}

// WithParser sets the parser used to validate rewritten source.
func WithParser(p *parser.Parser) Option {
	return func(e *Engine) {
		if p != nil {
			e.parser = p
		}
	}
}

// WithGenerator sets the code generator used for synthesized statements.
func WithGenerator(g *codegen.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.gen = g
		}
	}
}

// New returns an Engine that owns mod. The engine never modifies mod
// itself; rewrites produce successor modules that inherit its identity, so
// NodeRefs taken from mod stay usable with the engine until the statements
// they address are rewritten.
func New(mod *pyast.Module, opts ...Option) *Engine {
	e := configure(opts)
	e.adopt(mod)
	return e
}

// NewFromSource parses src and returns an Engine owning the result.
func NewFromSource(src string, opts ...Option) (*Engine, error) {
	e := configure(opts)
	mod, err := e.parser.ParseString(src)
	if err != nil {
		return nil, err
	}
	e.adopt(mod)
	return e, nil
}

// NewFromFile parses the file at path and returns an Engine owning the result.
func NewFromFile(path string, opts ...Option) (*Engine, error) {
	e := configure(opts)
	mod, err := e.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	e.adopt(mod)
	return e, nil
}

func configure(opts []Option) *Engine {
	e := &Engine{
		id:        uuid.NewString(),
		gen:       codegen.New(),
		formatter: format.Normalizer{},
		logger:    slog.Default(),
		imports:   DefaultImportTable(),
		mocks:     DefaultMockRules(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		e.parser = parser.New(parser.WithLogger(e.logger))
	}
	return e
}

func (e *Engine) adopt(mod *pyast.Module) {
	e.mod = mod
	e.original = mod.Source()
}

// ID returns the engine's session id. It appears in log records and spans.
func (e *Engine) ID() string { return e.id }

// Module returns the current module. It is a snapshot: later mutations
// produce a new module.
func (e *Engine) Module() *pyast.Module { return e.mod }

// CodeGenerator returns the generator the engine synthesizes code with.
func (e *Engine) CodeGenerator() *codegen.Generator { return e.gen }

// ChangeSummary returns a copy of the change log.
func (e *Engine) ChangeSummary() ChangeLog {
	out := make(ChangeLog, len(e.changes))
	copy(out, e.changes)
	return out
}

// GetCode returns the current source text.
func (e *Engine) GetCode() string { return e.mod.Source() }

// String returns the current source text.
func (e *Engine) String() string { return e.GetCode() }

// Diff returns a unified diff from the source the engine started with to
// the current source, or "" when they are equal.
func (e *Engine) Diff() string {
	cur := e.mod.Source()
	if cur == e.original {
		return ""
	}
	return udiff.Unified("original", "refactored", e.original, cur)
}

// SaveToFile writes the current source to path. The text goes to a
// temporary file in the same directory which is then renamed over path,
// so a failed write never truncates an existing file. The mode of an
// existing file is kept.
func (e *Engine) SaveToFile(path string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	cleanup := func() { _ = os.Remove(tmp) }

	if _, err := f.WriteString(e.mod.Source()); err != nil {
		f.Close()
		cleanup()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		f.Close()
		cleanup()
		return err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return err
	}
	e.logger.Debug("saved module",
		slog.String("engine", e.id),
		slog.String("file", path),
		slog.Int("size_bytes", len(e.mod.Source())),
	)
	return nil
}

// FindNodes mirrors pyast.Module.FindNodes on the current module.
func (e *Engine) FindNodes(kinds ...pyast.Kind) []pyast.NodeRef {
	return e.mod.FindNodes(kinds...)
}

// FindImports mirrors pyast.Module.FindImports on the current module.
func (e *Engine) FindImports(module string) []pyast.ImportRecord {
	return e.mod.FindImports(module)
}

// FindFunctionCalls mirrors pyast.Module.FindFunctionCalls on the current module.
func (e *Engine) FindFunctionCalls(name string) []pyast.CallRecord {
	return e.mod.FindFunctionCalls(name)
}

// FindTryExceptBlocks mirrors pyast.Module.FindTryExceptBlocks on the current module.
func (e *Engine) FindTryExceptBlocks(exceptionType string) []pyast.TryExceptRecord {
	return e.mod.FindTryExceptBlocks(exceptionType)
}

// FindAssignments mirrors pyast.Module.FindAssignments on the current module.
func (e *Engine) FindAssignments(target string) []pyast.AssignmentRecord {
	return e.mod.FindAssignments(target)
}

// plan is the outcome of a mutation before it is adopted.
type plan struct {
	source string
	desc   string
	// preserve keeps every top-level generation; only valid for edits
	// that cannot move statements, such as renaming an identifier.
	preserve bool
	// skip adopts nothing and records nothing.
	skip bool
}

type planFunc func() (plan, error)

// mutate runs one public mutation: it plans, validates and adopts the new
// source, then records exactly one change.
func (e *Engine) mutate(kind string, fn planFunc) error {
	start := time.Now()
	ctx, span := startMutationSpan(context.Background(), e.id, kind)
	defer span.End()

	err := e.apply(kind, fn)
	recordMutationMetrics(ctx, kind, time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *Engine) apply(kind string, fn planFunc) error {
	p, err := fn()
	if err != nil {
		return err
	}
	if p.skip {
		return nil
	}
	if err := e.swap(p.source, p.preserve); err != nil {
		return err
	}
	e.record(kind, p.desc)
	return nil
}

// swap parses src and adopts it as the current module.
func (e *Engine) swap(src string, preserve bool) error {
	if src == e.mod.Source() {
		return nil
	}
	next, err := e.parser.ParseString(src)
	if err != nil {
		return err
	}
	e.mod.Rebase(next, preserve)
	e.mod = next
	return nil
}

func (e *Engine) record(kind, desc string) {
	c := Change{Ordinal: len(e.changes) + 1, Kind: kind, Description: desc}
	e.changes = append(e.changes, c)
	e.logger.Debug("applied change",
		slog.String("engine", e.id),
		slog.Int("ordinal", c.Ordinal),
		slog.String("kind", kind),
		slog.String("change", desc),
	)
}

// valid reports whether src parses.
func (e *Engine) valid(src string) bool {
	_, err := e.parser.ParseString(src)
	return err == nil
}

// syntaxTree parses the current source with tree-sitter for rules that
// need expression-level detail. The caller must Close the tree.
func (e *Engine) syntaxTree() (*sitter.Tree, []byte, error) {
	src := []byte(e.mod.Source())
	tree, err := lang.Python().Parse(context.Background(), src)
	if err != nil {
		return nil, nil, err
	}
	return tree, src, nil
}
