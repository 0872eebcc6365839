package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/pyrewrite/internal/discover"
	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// FileResult is the outcome of parsing one file of a directory. Exactly one
// of Module and Err is set.
type FileResult struct {
	Path   string
	Module *pyast.Module
	Err    error
}

// DirectoryOptions controls ParseDirectoryContext.
type DirectoryOptions struct {
	// Recursive descends into subdirectories.
	Recursive bool
	// RespectGitignore skips files matched by the root .gitignore.
	RespectGitignore bool
	// SkipVendored skips hidden directories, virtualenvs and caches.
	SkipVendored bool
}

// ParseDirectory parses every .py file in dir, or below it when recursive
// is set. A file that fails to parse does not stop the others: its result
// carries the error instead of a module. Results are sorted by path.
func (p *Parser) ParseDirectory(dir string, recursive bool) ([]FileResult, error) {
	return p.ParseDirectoryContext(context.Background(), dir, DirectoryOptions{Recursive: recursive})
}

// ParseDirectoryContext is ParseDirectory with discovery options and a
// context that stops scheduling further files once canceled.
func (p *Parser) ParseDirectoryContext(ctx context.Context, dir string, opts DirectoryOptions) ([]FileResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", dir)
	}

	files, err := discover.Files(dir, discover.Options{
		Recursive:        opts.Recursive,
		RespectGitignore: opts.RespectGitignore,
		SkipVendored:     opts.SkipVendored,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, f := range files {
		path := filepath.Join(dir, f.Path)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mod, err := p.parseFile(ctx, path)
			if err != nil {
				p.logger.Warn("failed to parse file",
					slog.String("file", path),
					slog.String("error", err.Error()),
				)
				results[i] = FileResult{Path: path, Err: err}
				return nil
			}
			results[i] = FileResult{Path: path, Module: mod}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Failed returns the results that carry an error.
func Failed(results []FileResult) []FileResult {
	var out []FileResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
