// Package parser converts Python source text into pyast modules.
//
// A Parser holds no per-call state and may be shared between goroutines;
// every call creates its own tree-sitter parser.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/internal/parse"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// DefaultMaxFileSize is the largest file ParseFile accepts by default.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Parser parses Python source.
type Parser struct {
	logger      *slog.Logger
	maxFileSize int64
	workers     int
	lang        *lang.Language
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for warnings during file and directory
// parsing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxFileSize sets the size limit for ParseFile and ParseDirectory.
// A value <= 0 disables the limit.
func WithMaxFileSize(bytes int64) Option {
	return func(p *Parser) {
		p.maxFileSize = bytes
	}
}

// WithWorkers sets how many files ParseDirectory parses at once.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New returns a Parser configured by opts.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger:      slog.Default(),
		maxFileSize: DefaultMaxFileSize,
		workers:     runtime.GOMAXPROCS(0),
		lang:        lang.Python(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseString parses src with a default Parser.
func ParseString(src string) (*pyast.Module, error) {
	return New().ParseString(src)
}

// ParseFile parses the file at path with a default Parser.
func ParseFile(path string) (*pyast.Module, error) {
	return New().ParseFile(path)
}

// ParseString parses Python source text. Empty, whitespace-only and
// comment-only text yield a module with no statements. Malformed text
// yields a *ParseError.
func (p *Parser) ParseString(src string) (*pyast.Module, error) {
	return p.parse(context.Background(), "", []byte(src))
}

// ParseFile reads and parses the file at path. Read failures are returned
// as the underlying *fs.PathError, so errors.Is(err, fs.ErrNotExist) works.
func (p *Parser) ParseFile(path string) (*pyast.Module, error) {
	return p.parseFile(context.Background(), path)
}

func (p *Parser) parseFile(ctx context.Context, path string) (*pyast.Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		p.logger.Warn("file exceeds size limit",
			slog.String("file", path),
			slog.Int64("size_bytes", info.Size()),
			slog.Int64("limit_bytes", p.maxFileSize),
		)
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrFileTooLarge, info.Size())
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.parse(ctx, path, src)
}

func (p *Parser) parse(ctx context.Context, path string, src []byte) (mod *pyast.Module, err error) {
	start := time.Now()
	ctx, span := startParseSpan(ctx, path, len(src))
	defer func() {
		statements := 0
		if mod != nil {
			statements = mod.StatementCount()
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("pyrewrite.statements", statements))
		}
		span.End()
		recordParseMetrics(ctx, time.Since(start), statements, err == nil)
	}()

	if !utf8.Valid(src) {
		return nil, &ParseError{Path: path, Message: ErrInvalidUTF8.Error(), Cause: ErrInvalidUTF8}
	}

	tree, err := p.lang.Parse(ctx, src)
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Cause: err}
	}
	defer tree.Close()
	root := tree.RootNode()

	if se := lang.FirstSyntaxError(root, src); se != nil {
		return nil, &ParseError{Path: path, Line: se.Line, Column: se.Column, Message: se.Message, Cause: se}
	}

	calls, err := p.callSites(root, src)
	if err != nil {
		return nil, err
	}

	c := &converter{src: src}
	body := c.block(root)
	return pyast.NewModule(string(src), body, calls, countComments(root)), nil
}

func (p *Parser) callSites(root *sitter.Node, src []byte) ([]pyast.CallSite, error) {
	query, err := p.lang.GetTagQuery()
	if err != nil {
		return nil, err
	}
	var calls []pyast.CallSite
	for _, tag := range parse.ExtractTags(p.lang, query, root, src) {
		if tag.SymbolKind != model.Call {
			continue
		}
		calls = append(calls, pyast.CallSite{
			Name:      tag.Name,
			Callee:    tag.Callee,
			Arguments: tag.Arguments,
			Scope:     tag.Scope,
			Line:      tag.Line,
			Column:    tag.Column,
			Start:     tag.StartByte,
		})
	}
	return calls, nil
}

func countComments(root *sitter.Node) int {
	n := 0
	lang.Walk(root, func(node *sitter.Node) bool {
		if node.Type() == "comment" {
			n++
		}
		return true
	})
	return n
}
