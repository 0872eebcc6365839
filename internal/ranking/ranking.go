// Package ranking narrows an inspection report to the files of interest.
package ranking

import (
	"strings"

	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/internal/toon"
	"github.com/phobologic/pyrewrite/pkg/parser"
)

// SelectFiles returns a new Report with only the first maxFiles files, which
// are the top-ranked ones once graph.Rank has sorted them. If maxFiles is
// <= 0 or >= len(files), r is returned unchanged.
func SelectFiles(r *toon.Report, maxFiles int) *toon.Report {
	if maxFiles <= 0 || maxFiles >= len(r.Files) {
		return r
	}

	selected := r.Files[:maxFiles]
	paths := make(map[string]struct{}, maxFiles)
	for _, f := range selected {
		paths[f.Path] = struct{}{}
	}

	return &toon.Report{
		Root:         r.Root,
		Files:        selected,
		Dependencies: filterDeps(r.Dependencies, paths, true),
	}
}

// FilterByFile returns a new Report containing only files whose path
// contains substr (case-insensitive), with the dependency edges touching
// those files.
func FilterByFile(r *toon.Report, substr string) *toon.Report {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	var files []parser.FileResult
	for _, f := range r.Files {
		if strings.Contains(strings.ToLower(f.Path), lower) {
			matched[f.Path] = struct{}{}
			files = append(files, f)
		}
	}

	return &toon.Report{
		Root:         r.Root,
		Files:        files,
		Dependencies: filterDeps(r.Dependencies, matched, false),
	}
}

// FilterBySymbol returns a new Report containing the files that define a
// function, class or method whose name contains substr (case-insensitive),
// plus the files importing such a symbol from them.
func FilterBySymbol(r *toon.Report, substr string) *toon.Report {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	symbols := make(map[string]struct{})
	for _, f := range r.Files {
		if f.Module == nil {
			continue
		}
		for _, tag := range toon.Symbols(f.Module) {
			if strings.Contains(strings.ToLower(tag.Name), lower) {
				matched[f.Path] = struct{}{}
				symbols[tag.Name] = struct{}{}
			}
		}
	}

	var deps []model.Dependency
	for _, d := range r.Dependencies {
		if _, ok := matched[d.Target]; !ok {
			continue
		}
		for _, s := range d.Symbols {
			if _, ok := symbols[s]; ok {
				deps = append(deps, d)
				break
			}
		}
	}
	for _, d := range deps {
		matched[d.Source] = struct{}{}
	}

	var files []parser.FileResult
	for _, f := range r.Files {
		if _, ok := matched[f.Path]; ok {
			files = append(files, f)
		}
	}

	return &toon.Report{
		Root:         r.Root,
		Files:        files,
		Dependencies: deps,
	}
}

// filterDeps keeps the edges with both ends in paths, or either end when
// both is false.
func filterDeps(deps []model.Dependency, paths map[string]struct{}, both bool) []model.Dependency {
	var out []model.Dependency
	for _, d := range deps {
		_, srcOK := paths[d.Source]
		_, tgtOK := paths[d.Target]
		if (both && srcOK && tgtOK) || (!both && (srcOK || tgtOK)) {
			out = append(out, d)
		}
	}
	return out
}
