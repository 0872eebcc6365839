package graph

import (
	"math"
	"testing"

	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/pkg/parser"
)

func parseFiles(t *testing.T, sources map[string]string, order ...string) []parser.FileResult {
	t.Helper()
	files := make([]parser.FileResult, 0, len(order))
	for _, p := range order {
		mod, err := parser.ParseString(sources[p])
		if err != nil {
			t.Fatalf("parse %s: %v", p, err)
		}
		files = append(files, parser.FileResult{Path: p, Module: mod})
	}
	return files
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"main.py":              "main",
		"pkg/sub.py":           "pkg.sub",
		"pkg/__init__.py":      "pkg",
		"pkg/deep/__init__.py": "pkg.deep",
		"__init__.py":          "",
	}
	for in, want := range tests {
		if got := ModuleName(in); got != want {
			t.Errorf("ModuleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildImportGraph(t *testing.T) {
	t.Parallel()

	files := parseFiles(t, map[string]string{
		"main.py":         "import os\nimport pkg.sub\nfrom models import User, Admin\nfrom models import User\n",
		"models.py":       "import main\n",
		"pkg/__init__.py": "",
		"pkg/sub.py":      "from . import helpers\nfrom .helpers import tool\nfrom .. import models\n",
		"pkg/helpers.py":  "from pkg import *\n",
	}, "main.py", "models.py", "pkg/__init__.py", "pkg/sub.py", "pkg/helpers.py")

	deps := BuildImportGraph(files)
	want := []model.Dependency{
		{Source: "main.py", Target: "models.py", Symbols: []string{"User", "Admin"}},
		{Source: "main.py", Target: "pkg/sub.py", Symbols: []string{"pkg.sub"}},
		{Source: "models.py", Target: "main.py", Symbols: []string{"main"}},
		{Source: "pkg/helpers.py", Target: "pkg/__init__.py", Symbols: []string{"*"}},
		{Source: "pkg/sub.py", Target: "models.py", Symbols: []string{"models"}},
		{Source: "pkg/sub.py", Target: "pkg/helpers.py", Symbols: []string{"helpers", "tool"}},
	}
	if len(deps) != len(want) {
		t.Fatalf("got %d deps, want %d: %+v", len(deps), len(want), deps)
	}
	for i, w := range want {
		d := deps[i]
		if d.Source != w.Source || d.Target != w.Target {
			t.Errorf("dep %d: got %s -> %s, want %s -> %s", i, d.Source, d.Target, w.Source, w.Target)
			continue
		}
		if len(d.Symbols) != len(w.Symbols) {
			t.Errorf("dep %d symbols: got %v, want %v", i, d.Symbols, w.Symbols)
			continue
		}
		for j := range w.Symbols {
			if d.Symbols[j] != w.Symbols[j] {
				t.Errorf("dep %d symbols: got %v, want %v", i, d.Symbols, w.Symbols)
				break
			}
		}
	}
}

func TestBuildImportGraphSkips(t *testing.T) {
	t.Parallel()

	files := parseFiles(t, map[string]string{
		"a.py": "import a\nfrom ... import far\nimport json\n",
	}, "a.py")
	files = append(files, parser.FileResult{Path: "broken.py"})

	if deps := BuildImportGraph(files); len(deps) != 0 {
		t.Errorf("expected no deps, got %+v", deps)
	}
}

func TestRank(t *testing.T) {
	t.Parallel()

	files := parseFiles(t, map[string]string{
		"a.py": "from c import x\n",
		"b.py": "import c\n",
		"c.py": "x = 1\n",
	}, "a.py", "b.py", "c.py")

	ranks := Rank(files, BuildImportGraph(files))
	if files[0].Path != "c.py" || files[1].Path != "a.py" || files[2].Path != "b.py" {
		t.Errorf("order: %s, %s, %s", files[0].Path, files[1].Path, files[2].Path)
	}
	if ranks["c.py"] <= ranks["a.py"] {
		t.Errorf("c.py should outrank a.py: %v", ranks)
	}

	var total float64
	for _, r := range ranks {
		total += r
	}
	if math.Abs(total-1.0) > 1e-3 {
		t.Errorf("ranks should sum to 1, got %f", total)
	}
}

func TestRankUniform(t *testing.T) {
	t.Parallel()

	files := []parser.FileResult{{Path: "b.py"}, {Path: "a.py"}}
	ranks := Rank(files, nil)
	if math.Abs(ranks["a.py"]-0.5) > 1e-9 || math.Abs(ranks["b.py"]-0.5) > 1e-9 {
		t.Errorf("ranks = %v", ranks)
	}
	if files[0].Path != "b.py" {
		t.Error("equal ranks should keep the input order")
	}

	if Rank(nil, nil) != nil {
		t.Error("no files should give nil ranks")
	}
}
