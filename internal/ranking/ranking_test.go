package ranking

import (
	"testing"

	"github.com/phobologic/pyrewrite/internal/model"
	"github.com/phobologic/pyrewrite/internal/toon"
	"github.com/phobologic/pyrewrite/pkg/parser"
)

func makeReport(t *testing.T) *toon.Report {
	t.Helper()
	sources := []struct{ path, src string }{
		{"models.py", "class User:\n    def save(self):\n        pass\n"},
		{"main.py", "from models import User\n\n\ndef run():\n    pass\n"},
		{"util.py", "def helper():\n    pass\n"},
	}
	r := &toon.Report{Root: "test"}
	for _, s := range sources {
		mod, err := parser.ParseString(s.src)
		if err != nil {
			t.Fatalf("parse %s: %v", s.path, err)
		}
		r.Files = append(r.Files, parser.FileResult{Path: s.path, Module: mod})
	}
	r.Files = append(r.Files, parser.FileResult{Path: "broken.py"})
	r.Dependencies = []model.Dependency{
		{Source: "main.py", Target: "models.py", Symbols: []string{"User"}},
		{Source: "util.py", Target: "main.py", Symbols: []string{"run"}},
	}
	return r
}

func paths(r *toon.Report) []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectFilesAll(t *testing.T) {
	t.Parallel()

	r := makeReport(t)
	if SelectFiles(r, 0) != r {
		t.Error("maxFiles=0 should return original")
	}
	if SelectFiles(r, 10) != r {
		t.Error("maxFiles > len should return original")
	}
}

func TestSelectFilesTop(t *testing.T) {
	t.Parallel()

	got := SelectFiles(makeReport(t), 2)
	if want := []string{"models.py", "main.py"}; !equal(paths(got), want) {
		t.Errorf("files = %v, want %v", paths(got), want)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Source != "main.py" {
		t.Errorf("only edges between selected files should remain: %+v", got.Dependencies)
	}
	if got.Root != "test" {
		t.Errorf("root = %q", got.Root)
	}
}

func TestFilterByFile(t *testing.T) {
	t.Parallel()

	got := FilterByFile(makeReport(t), "MAIN")
	if want := []string{"main.py"}; !equal(paths(got), want) {
		t.Errorf("files = %v, want %v", paths(got), want)
	}
	if len(got.Dependencies) != 2 {
		t.Errorf("edges touching main.py should remain: %+v", got.Dependencies)
	}

	if got := FilterByFile(makeReport(t), "nothing"); len(got.Files) != 0 || len(got.Dependencies) != 0 {
		t.Errorf("expected an empty report, got %v", paths(got))
	}
}

func TestFilterBySymbol(t *testing.T) {
	t.Parallel()

	got := FilterBySymbol(makeReport(t), "user")
	if want := []string{"models.py", "main.py"}; !equal(paths(got), want) {
		t.Errorf("files = %v, want %v", paths(got), want)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Target != "models.py" {
		t.Errorf("deps = %+v", got.Dependencies)
	}

	got = FilterBySymbol(makeReport(t), "save")
	if want := []string{"models.py"}; !equal(paths(got), want) {
		t.Errorf("method match: files = %v, want %v", paths(got), want)
	}

	got = FilterBySymbol(makeReport(t), "helper")
	if want := []string{"util.py"}; !equal(paths(got), want) {
		t.Errorf("files = %v, want %v", paths(got), want)
	}
}
