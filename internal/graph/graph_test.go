package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_AddKeepsNamesUnique(t *testing.T) {
	t.Parallel()

	n := NewNode("#a", "Person")
	n.Add("name", Literal("Ann"))
	n.Add("email", Literal("ann@example.org"))
	n.Add("name", Literal("Annie"))

	require.Len(t, n.Properties, 2)
	assert.Equal(t, "name", n.Properties[0].Name)
	assert.Len(t, n.Properties[0].Values, 2)
	assert.Equal(t, "email", n.Properties[1].Name)
	assert.True(t, n.HasType("Person"))
	assert.False(t, n.HasType("Dataset"))
}

func TestValue_Union(t *testing.T) {
	t.Parallel()

	lit := Literal("x")
	assert.Equal(t, ScalarKind, lit.Kind())
	s, ok := lit.Scalar()
	require.True(t, ok)
	assert.Equal(t, "x", s.Value)
	_, ok = lit.Reference()
	assert.False(t, ok)

	ref := Ref("#b")
	assert.Equal(t, ReferenceKind, ref.Kind())
	r, ok := ref.Reference()
	require.True(t, ok)
	assert.Equal(t, "#b", r.ID)
	_, ok = ref.Scalar()
	assert.False(t, ok)

	typed := ScalarOf(Scalar{Value: "2020-01-01", Datatype: "http://schema.org/Date"})
	s, _ = typed.Scalar()
	assert.Equal(t, "http://schema.org/Date", s.Datatype)
}

func TestGraph_Lookup(t *testing.T) {
	t.Parallel()

	a := NewNode("#a")
	b := NewNode("#b")
	g := New([]*Node{a, b})

	got, ok := g.Lookup("#b")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = g.Lookup("#missing")
	assert.False(t, ok)
	assert.Equal(t, 2, g.Len())
	assert.Empty(t, g.Duplicates())
}

func TestGraph_DuplicateIDs(t *testing.T) {
	t.Parallel()

	first := NewNode("#dup").Add("name", Literal("first"))
	second := NewNode("#dup").Add("name", Literal("second"))
	other := NewNode("#other")

	t.Run("first match wins by default", func(t *testing.T) {
		t.Parallel()
		g := New([]*Node{first, other, second})
		got, ok := g.Lookup("#dup")
		require.True(t, ok)
		assert.Same(t, first, got)
		assert.Equal(t, []string{"#dup"}, g.Duplicates())
		assert.Equal(t, 3, g.Len(), "duplicates stay in graph order")
	})

	t.Run("tie-break is injectable", func(t *testing.T) {
		t.Parallel()
		last := func(_, candidate *Node) *Node { return candidate }
		g := New([]*Node{first, second}, WithTieBreak(last))
		got, _ := g.Lookup("#dup")
		assert.Same(t, second, got)
	})
}

func TestGraph_Filter(t *testing.T) {
	t.Parallel()

	root := NewNode("./", "Dataset")
	child := NewNode("#c", "Person")
	g := New([]*Node{root, child})

	content := g.Filter(func(n *Node) bool { return !n.HasType("Dataset") })

	assert.Equal(t, 1, content.Len())
	_, ok := content.Lookup("./")
	assert.False(t, ok)
	_, ok = content.Lookup("#c")
	assert.True(t, ok)
}

func TestGraph_NodesWithoutIDAreNotIndexed(t *testing.T) {
	t.Parallel()

	g := New([]*Node{NewNode(""), nil, NewNode("#x")})

	assert.Equal(t, 2, g.Len())
	_, ok := g.Lookup("")
	assert.False(t, ok)
}
