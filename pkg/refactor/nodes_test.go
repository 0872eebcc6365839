package refactor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/pyrewrite/pkg/parser"
	"github.com/phobologic/pyrewrite/pkg/pyast"
	"github.com/phobologic/pyrewrite/pkg/refactor"
)

func TestReplaceNode(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1\nb = 2\nc = 3\n")
	refs := e.FindNodes()
	require.Len(t, refs, 3)

	require.NoError(t, e.ReplaceNode(refs[1], "b = 20"))
	assert.Equal(t, "a = 1\nb = 20\nc = 3\n", e.GetCode())
	assert.Equal(t, []string{"Replaced Assign at line 2"}, e.ChangeSummary().Descriptions())

	assert.ErrorIs(t, e.ReplaceNode(refs[1], "b = 30"), pyast.ErrStaleNodeRef)
	require.NoError(t, e.ReplaceNode(refs[0], "a = 10"), "statements outside the edit keep their handles")
	require.NoError(t, e.ReplaceNode(refs[2], "c = 30"))
	assert.Equal(t, "a = 10\nb = 20\nc = 30\n", e.GetCode())
}

func TestReplaceNodeIndentsBlock(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "def f():\n    x = 1\n    return x\n")
	assigns := e.FindNodes(pyast.KindAssign)
	require.Len(t, assigns, 1)

	require.NoError(t, e.ReplaceNode(assigns[0], "\nif True:\n    x = 2\nelse:\n    x = 3\n"))
	assert.Equal(t, "def f():\n    if True:\n        x = 2\n    else:\n        x = 3\n    return x\n", e.GetCode())
}

func TestInsertBefore(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "def f():\n    x = 1\n    return x\n")
	ret := e.FindNodes(pyast.KindReturn)
	require.Len(t, ret, 1)

	require.NoError(t, e.InsertBefore(ret[0], "y = x + 1\nprint(y)"))
	assert.Equal(t, "def f():\n    x = 1\n    y = x + 1\n    print(y)\n    return x\n", e.GetCode())
	assert.Equal(t, []string{"Inserted code before Return at line 3"}, e.ChangeSummary().Descriptions())
}

func TestInsertBeforeSharedLine(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1; b = 2\n")
	recs := e.FindAssignments("b")
	require.Len(t, recs, 1)

	require.NoError(t, e.InsertBefore(recs[0].Ref, "z = 0"))
	assert.Equal(t, "a = 1; z = 0\nb = 2\n", e.GetCode())
}

func TestInsertAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		target string
		want   string
	}{
		{
			name:   "keeps trailing comment on its line",
			src:    "x = 1  # note\ny = 2\n",
			target: "x",
			want:   "x = 1  # note\nz = 3\ny = 2\n",
		},
		{
			name:   "end of file without newline",
			src:    "x = 1",
			target: "x",
			want:   "x = 1\nz = 3",
		},
		{
			name:   "statement followed by another on the same line",
			src:    "x = 1; y = 2\n",
			target: "x",
			want:   "x = 1\nz = 3; y = 2\n",
		},
		{
			name:   "nested block",
			src:    "def f():\n    x = 1\n\ny = f()\n",
			target: "x",
			want:   "def f():\n    x = 1\n    z = 3\n\ny = f()\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t, tt.src)
			recs := e.FindAssignments(tt.target)
			require.Len(t, recs, 1)
			require.NoError(t, e.InsertAfter(recs[0].Ref, "z = 3"))
			assert.Equal(t, tt.want, e.GetCode())
		})
	}
}

func TestRemoveNode(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1\nb = 2\nc = 3\n")
	refs := e.FindNodes()
	require.NoError(t, e.RemoveNode(refs[1]))
	assert.Equal(t, "a = 1\nc = 3\n", e.GetCode())
	assert.Equal(t, []string{"Removed Assign at line 2"}, e.ChangeSummary().Descriptions())

	_, err := e.Module().Resolve(refs[0])
	assert.NoError(t, err)
	assert.ErrorIs(t, e.RemoveNode(refs[1]), pyast.ErrStaleNodeRef)
	assert.ErrorIs(t, e.RemoveNode(refs[2]), pyast.ErrStaleNodeRef, "statements after a removal shift")
}

func TestRemoveNodeLeavesPass(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "def f():\n    return 1\n\nx = 2\n")
	ret := e.FindNodes(pyast.KindReturn)
	require.Len(t, ret, 1)

	require.NoError(t, e.RemoveNode(ret[0]))
	assert.Equal(t, "def f():\n    pass\n\nx = 2\n", e.GetCode())
}

func TestRemoveNodeSharedLine(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1; b = 2\nc = 3\n")
	recs := e.FindAssignments("a")
	require.Len(t, recs, 1)
	require.NoError(t, e.RemoveNode(recs[0].Ref))
	assert.Equal(t, "b = 2\nc = 3\n", e.GetCode())
}

func TestForeignNodeRef(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1\n")
	other := newEngine(t, "a = 1\n")
	ref := other.FindNodes()[0]

	assert.ErrorIs(t, e.ReplaceNode(ref, "a = 2"), pyast.ErrForeignNodeRef)
	assert.ErrorIs(t, e.InsertBefore(pyast.NodeRef{}, "a = 2"), pyast.ErrInvalidNodeRef)
	assert.Equal(t, 0, e.ChangeSummary().Len())
}

func TestReplaceCodeRange(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1\nb = 2\nc = 3\n")
	require.NoError(t, e.ReplaceCodeRange(2, 3, "d = 4"))
	assert.Equal(t, "a = 1\nd = 4\n", e.GetCode())

	require.NoError(t, e.ReplaceCodeRange(1, 1, "z = 0\n"))
	assert.Equal(t, "z = 0\nd = 4\n", e.GetCode())

	require.NoError(t, e.ReplaceCodeRange(2, 2, ""))
	assert.Equal(t, "z = 0\n", e.GetCode())

	assert.Equal(t, []string{"Replaced lines 2-3", "Replaced line 1", "Replaced line 2"}, e.ChangeSummary().Descriptions())
}

func TestReplaceCodeRangeInvalid(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "a = 1\nb = 2\nc = 3\n")
	for _, r := range [][2]int{{0, 1}, {2, 1}, {1, 4}, {-1, -1}} {
		err := e.ReplaceCodeRange(r[0], r[1], "x = 1")
		assert.ErrorIs(t, err, refactor.ErrInvalidRange, "%d-%d", r[0], r[1])
	}
	assert.EqualError(t, e.ReplaceCodeRange(1, 4, "x"), "invalid line range: lines 1-4 of 3")
	assert.Equal(t, 0, e.ChangeSummary().Len())
}

func TestApplyTransform(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "x = 1\n")
	require.NoError(t, e.ApplyTransform("Appended y", func(mod *pyast.Module) (string, error) {
		return mod.Source() + "y = 2\n", nil
	}))
	require.NoError(t, e.ApplyTransform("", func(mod *pyast.Module) (string, error) {
		return mod.Source() + "z = 3\n", nil
	}))
	assert.Equal(t, "x = 1\ny = 2\nz = 3\n", e.GetCode())
	assert.Equal(t, []string{"Appended y", "Applied custom transformation"}, e.ChangeSummary().Descriptions())

	boom := errors.New("boom")
	assert.ErrorIs(t, e.ApplyTransform("fails", func(*pyast.Module) (string, error) { return "", boom }), boom)
	assert.ErrorIs(t, e.ApplyTransform("bad output", func(*pyast.Module) (string, error) { return "def (:", nil }), parser.ErrParse)
	assert.Equal(t, 2, e.ChangeSummary().Len())
}
