package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/graph"
	"github.com/vk/ocfltools/internal/resolve"
)

const schema = "http://schema.org/"

func TestGraph_ConvertsExpandedForm(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	expanded := []any{
		map[string]any{
			"@id":   "./",
			"@type": []any{resolve.DatasetType},
			schema + "name": []any{
				map[string]any{"@value": "Titre", "@language": "fr"},
			},
			schema + "dateCreated": []any{
				map[string]any{"@value": "2020-01-01", "@type": schema + "Date"},
			},
			schema + "author": []any{map[string]any{"@id": "#ann"}},
			schema + "keywords": []any{
				map[string]any{"@list": []any{
					map[string]any{"@value": "a"},
					map[string]any{"@value": "b"},
				}},
			},
			schema + "contentLocation": []any{
				map[string]any{
					"@type":         []any{schema + "GeoShape"},
					schema + "box": []any{map[string]any{"@value": "1,2 3,4"}},
				},
			},
		},
		"not a node",
		map[string]any{"@id": "#ann", schema + "name": []any{map[string]any{"@value": "Ann"}}},
	}

	// --- Act ---
	g := Graph(expanded)

	// --- Assert ---
	require.Equal(t, 2, g.Len())
	root, ok := g.Lookup("./")
	require.True(t, ok)
	assert.True(t, root.HasType(resolve.DatasetType))

	name, ok := root.Property(schema + "name")
	require.True(t, ok)
	s, _ := name.Values[0].Scalar()
	assert.Equal(t, graph.Scalar{Value: "Titre", Language: "fr"}, s)

	created, _ := root.Property(schema + "dateCreated")
	s, _ = created.Values[0].Scalar()
	assert.Equal(t, schema+"Date", s.Datatype)

	author, _ := root.Property(schema + "author")
	ref, ok := author.Values[0].Reference()
	require.True(t, ok)
	assert.Equal(t, "#ann", ref.ID)

	keywords, _ := root.Property(schema + "keywords")
	assert.Len(t, keywords.Values, 2, "list items become ordered values")

	loc, _ := root.Property(schema + "contentLocation")
	embedded, ok := loc.Values[0].Reference()
	require.True(t, ok)
	assert.Empty(t, embedded.ID)
	assert.Equal(t, []string{schema + "GeoShape"}, embedded.Types)
	require.Len(t, embedded.Properties, 1)
	assert.Equal(t, schema+"box", embedded.Properties[0].Name)
}

func TestOfflineLoader(t *testing.T) {
	t.Parallel()

	l, err := newOfflineLoader(rocrateContext, CrateContextURLs...)
	require.NoError(t, err)

	doc, err := l.LoadDocument("https://w3id.org/ro/crate/1.1/context")
	require.NoError(t, err)
	assert.Equal(t, "https://w3id.org/ro/crate/1.1/context", doc.DocumentURL)
	assert.NotNil(t, doc.Document)

	_, err = l.LoadDocument("https://example.org/unknown/context")
	assert.Error(t, err)
}

func TestNew_RejectsBadCompactContext(t *testing.T) {
	t.Parallel()

	_, err := New(WithCompactContext([]byte("{not json")))
	assert.Error(t, err)
}

func TestExpand_CrateWithRemoteContextIsServedOffline(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)

	crate := map[string]any{
		"@context": "https://w3id.org/ro/crate/1.1/context",
		"@graph": []any{
			map[string]any{"@id": "./", "@type": "Dataset", "identifier": map[string]any{"@id": "#domain"}},
			map[string]any{"@id": "#domain", "@type": "PropertyValue", "name": "domain", "value": "example.org"},
		},
	}

	g, err := n.Expand(context.Background(), crate)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	var roots int
	for _, node := range g.Nodes() {
		if node.HasType(resolve.DatasetType) {
			roots++
			_, ok := node.Property(schema + "identifier")
			assert.True(t, ok)
		}
	}
	assert.Equal(t, 1, roots)
}

func TestResolveAndCompact_InlinedIdentifier(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	n, err := New()
	require.NoError(t, err)
	g := graph.New([]*graph.Node{
		graph.NewNode("./", resolve.DatasetType).Add(schema+"identifier", graph.Ref("#domain")),
		graph.NewNode("#domain").
			Add(schema+"name", graph.Literal("domain")).
			Add(schema+"value", graph.Literal("example.org")),
	})

	// --- Act ---
	doc, err := resolve.New(resolve.WithCompactor(n)).Resolve(context.Background(), g)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"name": "domain", "value": "example.org"},
	}, doc["identifier"])
}
