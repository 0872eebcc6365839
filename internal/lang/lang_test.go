package lang

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".py", "python"},
		{".pyi", ""},
		{".go", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	py := Python()
	if py == nil {
		t.Fatal("python language not registered")
	}
	if py.GetLanguage() == nil {
		t.Error("python language is nil")
	}
}

func TestGetTagQuery(t *testing.T) {
	t.Parallel()

	q, err := Python().GetTagQuery()
	if err != nil {
		t.Fatalf("GetTagQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
}

func parseRoot(t *testing.T, src string) (*sitter.Tree, []byte) {
	t.Helper()
	source := []byte(src)
	tree, err := Python().Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree, source
}

func TestFirstSyntaxError(t *testing.T) {
	t.Parallel()

	valid := []string{
		"",
		"# only a comment\n",
		"def hello():\n    pass\n",
		"x = {'a': [1, 2, (3, 4)]}\n",
		"print('hello', file=out)\n",
		"exec(code)\n",
	}
	for _, src := range valid {
		tree, source := parseRoot(t, src)
		if se := FirstSyntaxError(tree.RootNode(), source); se != nil {
			t.Errorf("FirstSyntaxError(%q) = %v, want nil", src, se)
		}
	}

	invalid := []string{
		"def func(",
		"print('hello'",
		"def 123invalid(): pass",
		"class 456Invalid: pass",
		"print 'x'",
		"exec 'x'",
		"return return",
	}
	for _, src := range invalid {
		tree, source := parseRoot(t, src)
		se := FirstSyntaxError(tree.RootNode(), source)
		if se == nil {
			t.Errorf("FirstSyntaxError(%q) = nil, want error", src)
			continue
		}
		if se.Line != 1 {
			t.Errorf("FirstSyntaxError(%q).Line = %d, want 1", src, se.Line)
		}
		if se.Message == "" {
			t.Errorf("FirstSyntaxError(%q) has empty message", src)
		}
	}
}

func TestFirstSyntaxErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"print 'x'\n", `missing parentheses in call to "print"`},
		{"exec 'x'\n", `missing parentheses in call to "exec"`},
		{"return return\n", `unexpected keyword "return"`},
	}
	for _, tt := range tests {
		tree, source := parseRoot(t, tt.src)
		se := FirstSyntaxError(tree.RootNode(), source)
		if se == nil {
			t.Errorf("FirstSyntaxError(%q) = nil, want error", tt.src)
			continue
		}
		if se.Message != tt.want {
			t.Errorf("FirstSyntaxError(%q).Message = %q, want %q", tt.src, se.Message, tt.want)
		}
	}
}

func TestSnippet(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 25)
	got := snippet(long)
	if want := strings.Repeat("é", 20) + "..."; got != want {
		t.Errorf("snippet() = %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Errorf("snippet() split a rune: %q", got)
	}
	if got := snippet("short"); got != "short" {
		t.Errorf("snippet(short) = %q", got)
	}
}

func TestFindEnclosingDef(t *testing.T) {
	t.Parallel()

	tree, source := parseRoot(t, "class A:\n    def run(self):\n        go()\n\ndef top():\n    stop()\n")
	var scopes []string
	Walk(tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() == "call" {
			scopes = append(scopes, Python().FindEnclosingDef(n, source))
		}
		return true
	})
	if len(scopes) != 2 || scopes[0] != "A.run" || scopes[1] != "top" {
		t.Errorf("scopes = %v, want [A.run top]", scopes)
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"hello", true},
		{"_private", true},
		{"Class2", true},
		{"match", true},
		{"", false},
		{"2fast", false},
		{"has-dash", false},
		{"class", false},
		{"None", false},
	}
	for _, tt := range tests {
		if got := IsIdentifier(tt.in); got != tt.want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("(a,\n     b)  "); got != "(a, b)" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
