package parse

import (
	"testing"

	"github.com/phobologic/pyrewrite/internal/lang"
	"github.com/phobologic/pyrewrite/internal/model"
)

func setup(t *testing.T) func(source string) []model.Tag {
	t.Helper()
	l := lang.Python()
	if l == nil {
		t.Fatal("python language not registered")
	}
	q, err := l.GetTagQuery()
	if err != nil {
		t.Fatalf("GetTagQuery: %v", err)
	}
	return func(source string) []model.Tag {
		p := l.NewParser()
		defer p.Close()
		return ExtractFile(l, p, q, []byte(source))
	}
}

func filterDefs(tags []model.Tag) []model.Tag {
	var out []model.Tag
	for _, t := range tags {
		if t.Kind == model.Definition {
			out = append(out, t)
		}
	}
	return out
}

func filterKind(tags []model.Tag, kind model.SymbolKind) []model.Tag {
	var out []model.Tag
	for _, t := range tags {
		if t.SymbolKind == kind {
			out = append(out, t)
		}
	}
	return out
}

func nameSet(tags []model.Tag) map[string]bool {
	names := make(map[string]bool)
	for _, t := range tags {
		names[t.Name] = true
	}
	return names
}

func TestExtractFunction(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	tags := extract("def hello(name: str) -> None:\n    pass\n")
	defs := filterDefs(tags)
	if len(defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(defs))
	}
	d := defs[0]
	if d.Name != "hello" {
		t.Errorf("name = %q, want hello", d.Name)
	}
	if d.SymbolKind != model.Function {
		t.Errorf("kind = %q, want function", d.SymbolKind)
	}
	if d.Line != 1 {
		t.Errorf("line = %d, want 1", d.Line)
	}
	if d.Signature != "hello(name: str) -> None" {
		t.Errorf("sig = %q", d.Signature)
	}
}

func TestExtractClass(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	defs := filterDefs(extract("class Foo(Base):\n    pass\n"))
	if len(defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(defs))
	}
	d := defs[0]
	if d.Name != "Foo" || d.SymbolKind != model.Class {
		t.Errorf("def = %+v", d)
	}
	if d.Signature != "Foo(Base)" {
		t.Errorf("sig = %q", d.Signature)
	}
}

func TestExtractMethod(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	source := `class MyClass:
    def my_method(self, x: int) -> str:
        return str(x)
`
	methods := filterKind(extract(source), model.Method)
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods))
	}
	if methods[0].Name != "MyClass.my_method" {
		t.Errorf("name = %q, want MyClass.my_method", methods[0].Name)
	}
	if methods[0].Signature != "my_method(self, x: int) -> str" {
		t.Errorf("sig = %q", methods[0].Signature)
	}
}

func TestExtractDefinitionScope(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	source := `class Outer:
    def method(self):
        def inner():
            pass

async def top():
    class Local:
        pass
`
	scopes := make(map[string]string)
	sigs := make(map[string]string)
	for _, d := range filterDefs(extract(source)) {
		scopes[d.Name] = d.Scope
		sigs[d.Name] = d.Signature
	}
	want := map[string]string{
		"Outer":        "",
		"Outer.method": "",
		"inner":        "Outer.method",
		"top":          "",
		"Local":        "top",
	}
	for name, scope := range want {
		got, ok := scopes[name]
		if !ok {
			t.Errorf("missing definition %s in %v", name, scopes)
			continue
		}
		if got != scope {
			t.Errorf("%s scope = %q, want %q", name, got, scope)
		}
	}
	if sigs["top"] != "async top()" {
		t.Errorf("top sig = %q", sigs["top"])
	}
}

func TestExtractCall(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	calls := filterKind(extract("x = foo(1, key=2)\ny = bar.baz()\n"), model.Call)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %+v", len(calls), calls)
	}
	if calls[0].Name != "foo" || calls[0].Callee != "foo" {
		t.Errorf("call[0] = %+v", calls[0])
	}
	if len(calls[0].Arguments) != 2 || calls[0].Arguments[1] != "key=2" {
		t.Errorf("args = %v", calls[0].Arguments)
	}
	if calls[1].Name != "baz" || calls[1].Callee != "bar.baz" {
		t.Errorf("call[1] = %+v", calls[1])
	}
	if calls[1].Line != 2 {
		t.Errorf("line = %d, want 2", calls[1].Line)
	}
}

func TestExtractCallScope(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	source := `class Service:
    def run(self):
        helper()

def main():
    Service().run()
`
	calls := filterKind(extract(source), model.Call)
	scopes := make(map[string]string)
	for _, c := range calls {
		scopes[c.Name] = c.Scope
	}
	if scopes["helper"] != "Service.run" {
		t.Errorf("helper scope = %q", scopes["helper"])
	}
	if scopes["run"] != "main" {
		t.Errorf("run scope = %q", scopes["run"])
	}
}

func TestExtractNamesSkipBindings(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	source := `import os
from typing import List

def f(path):
    return os.path.join(path, sep="/")
`
	names := nameSet(filterKind(extract(source), model.Name))
	if !names["os"] {
		t.Error("os should be a name use")
	}
	if !names["path"] {
		t.Error("parameter path should be a name use")
	}
	if names["List"] {
		t.Error("imported-only List should not be a name use")
	}
	if names["join"] {
		t.Error("attribute join should not be a name use")
	}
	if names["sep"] {
		t.Error("keyword name sep should not be a name use")
	}
	if names["f"] {
		t.Error("definition name f should not be a name use")
	}
}

func TestExtractEmpty(t *testing.T) {
	t.Parallel()
	extract := setup(t)

	if tags := extract(""); len(tags) != 0 {
		t.Errorf("expected 0 tags for empty source, got %d", len(tags))
	}
}
