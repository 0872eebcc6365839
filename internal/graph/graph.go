// Package graph builds the import graph between inspected files and ranks
// them with PageRank.
package graph

import (
	"math"
	"path"
	"sort"
	"strings"

	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/pkg/parser"
)

// ModuleName returns the dotted module name of a slash-separated path
// relative to the inspected root. A package's __init__.py names the package.
func ModuleName(p string) string {
	p = strings.TrimSuffix(p, ".py")
	if p == "__init__" {
		return ""
	}
	p = strings.TrimSuffix(p, "/__init__")
	return strings.ReplaceAll(p, "/", ".")
}

// resolve turns an import's module text into an absolute dotted name as
// seen from importer. Relative imports that climb above the root fail.
func resolve(importer, module string) (string, bool) {
	rest := strings.TrimLeft(module, ".")
	level := len(module) - len(rest)
	if level == 0 {
		return module, true
	}
	dir := path.Dir(importer)
	for i := 1; i < level; i++ {
		if dir == "." {
			return "", false
		}
		dir = path.Dir(dir)
	}
	base := ""
	if dir != "." {
		base = strings.ReplaceAll(dir, "/", ".")
	}
	return join(base, rest), true
}

func join(pkg, name string) string {
	switch {
	case pkg == "":
		return name
	case name == "":
		return pkg
	}
	return pkg + "." + name
}

// BuildImportGraph creates dependency edges from the imports of each parsed
// file to the files that provide the imported modules. Imports of modules
// outside the inspected tree produce no edge.
func BuildImportGraph(files []parser.FileResult) []model.Dependency {
	provides := make(map[string]string, len(files))
	for _, f := range files {
		if name := ModuleName(f.Path); name != "" {
			provides[name] = f.Path
		}
	}

	// longest finds the file providing name or its nearest parent package.
	longest := func(name string) string {
		for name != "" {
			if target, ok := provides[name]; ok {
				return target
			}
			dot := strings.LastIndex(name, ".")
			if dot < 0 {
				break
			}
			name = name[:dot]
		}
		return ""
	}

	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey][]string)
	add := func(src, tgt, symbol string) {
		if tgt == "" || tgt == src {
			return
		}
		key := edgeKey{src, tgt}
		for _, s := range edgeSymbols[key] {
			if s == symbol {
				return
			}
		}
		edgeSymbols[key] = append(edgeSymbols[key], symbol)
	}

	for _, f := range files {
		if f.Module == nil {
			continue
		}
		for _, imp := range f.Module.Imports() {
			name, ok := resolve(f.Path, imp.Module)
			if !ok {
				continue
			}
			if !imp.IsFrom {
				add(f.Path, longest(name), name)
				continue
			}
			if imp.Wildcard {
				add(f.Path, longest(name), "*")
				continue
			}
			for _, item := range imp.Items {
				// "from pkg import sub" may name a submodule.
				if target, ok := provides[join(name, item)]; ok {
					add(f.Path, target, item)
					continue
				}
				if name != "" {
					add(f.Path, longest(name), item)
				}
			}
		}
	}

	deps := make([]model.Dependency, 0, len(edgeSymbols))
	for key, syms := range edgeSymbols {
		deps = append(deps, model.Dependency{Source: key.src, Target: key.tgt, Symbols: syms})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})
	return deps
}

// Rank applies PageRank to files and sorts them by rank descending. Files
// with equal rank keep their order. The ranks are returned by path.
func Rank(files []parser.FileResult, deps []model.Dependency) map[string]float64 {
	if len(files) == 0 {
		return nil
	}

	nodes := make([]string, len(files))
	index := make(map[string]int, len(files))
	for i, f := range files {
		nodes[i] = f.Path
		index[f.Path] = i
	}

	// Each imported symbol is one edge.
	outEdges := make([][]int, len(nodes))
	for _, d := range deps {
		src, okSrc := index[d.Source]
		tgt, okTgt := index[d.Target]
		if !okSrc || !okTgt {
			continue
		}
		for range d.Symbols {
			outEdges[src] = append(outEdges[src], tgt)
		}
	}

	rank := pageRank(outEdges, 0.85, 100, 1e-6)
	ranks := make(map[string]float64, len(nodes))
	for i, p := range nodes {
		ranks[p] = rank[i]
	}

	sort.SliceStable(files, func(i, j int) bool {
		return ranks[files[i].Path] > ranks[files[j].Path]
	})
	return ranks
}

func pageRank(outEdges [][]int, alpha float64, maxIter int, tol float64) []float64 {
	n := len(outEdges)
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		// Nodes without outgoing edges spread their rank evenly.
		var danglingSum float64
		for i, targets := range outEdges {
			if len(targets) == 0 {
				danglingSum += rank[i]
			}
		}
		base := teleport + alpha*danglingSum/float64(n)

		next := make([]float64, n)
		for i := range next {
			next[i] = base
		}
		for src, targets := range outEdges {
			if len(targets) == 0 {
				continue
			}
			contrib := alpha * rank[src] / float64(len(targets))
			for _, tgt := range targets {
				next[tgt] += contrib
			}
		}

		var diff float64
		for i := range next {
			diff += math.Abs(next[i] - rank[i])
		}
		rank = next
		if diff < tol {
			break
		}
	}
	return rank
}
