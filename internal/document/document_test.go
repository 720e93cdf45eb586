package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/failure"
)

var digest = strings.Repeat("0f", HashIDLength/2)

func sample() Document {
	return Document{
		"identifier": []any{
			map[string]any{"name": "domain", "value": "Example.org"},
			map[string]any{"name": []any{"id"}, "value": []any{"/example.org/item1"}},
			map[string]any{"name": "hashId", "value": map[string]any{"@value": digest}},
		},
		"additionalType": []any{"item"},
	}
}

func TestIdentifier_AcceptsScalarsListsAndValueObjects(t *testing.T) {
	t.Parallel()

	got := sample().Identifier()

	assert.Equal(t, []PropertyValue{
		{Name: "domain", Value: "Example.org"},
		{Name: "id", Value: "/example.org/item1"},
		{Name: "hashId", Value: digest},
	}, got)
}

func TestDomain(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		doc  Document
		want string
	}{
		{"declared", sample(), "Example.org"},
		{"no identifier", Document{}, DefaultDomain},
		{"single identifier object", Document{"identifier": map[string]any{"name": "domain", "value": "x.org"}}, "x.org"},
		{"identifier without domain", Document{"identifier": []any{map[string]any{"name": "id", "value": "1"}}}, DefaultDomain},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.doc.Domain())
		})
	}
}

func TestAdditionalType(t *testing.T) {
	t.Parallel()

	v, ok := sample().AdditionalType()
	require.True(t, ok)
	assert.Equal(t, "item", v)

	v, ok = Document{"additionalType": "collection"}.AdditionalType()
	require.True(t, ok)
	assert.Equal(t, "collection", v)

	_, ok = Document{}.AdditionalType()
	assert.False(t, ok)
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	t.Run("all present", func(t *testing.T) {
		t.Parallel()
		di, err := Identify(sample())
		require.NoError(t, err)
		assert.Equal(t, "Example.org", di.Domain)
		assert.Equal(t, digest, di.HashID)
		assert.Equal(t, "example.org", di.Index())
	})

	t.Run("missing hashId is structural", func(t *testing.T) {
		t.Parallel()
		doc := Document{"identifier": []any{
			map[string]any{"name": "domain", "value": "x.org"},
			map[string]any{"name": "id", "value": "1"},
		}}
		_, err := Identify(doc)
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.Structural))
		assert.Contains(t, err.Error(), `"hashId"`)
	})

	t.Run("hashId must be a digest", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"abc", digest[1:], strings.ToUpper(digest), digest[1:] + "g"} {
			doc := Document{"identifier": []any{
				map[string]any{"name": "domain", "value": "x.org"},
				map[string]any{"name": "id", "value": "/x.org/1"},
				map[string]any{"name": "hashId", "value": bad},
			}}
			_, err := Identify(doc)
			require.Error(t, err, bad)
			assert.True(t, failure.Is(err, failure.Structural))
			assert.Contains(t, err.Error(), "hex digest")
		}
	})

	t.Run("no identifier property", func(t *testing.T) {
		t.Parallel()
		_, err := Identify(Document{})
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.Structural))
	})
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	orig := sample()

	// --- Act ---
	cp := orig.Clone()
	cp["identifier"].([]any)[0].(map[string]any)["value"] = "changed"

	// --- Assert ---
	assert.Equal(t, "Example.org", orig.Domain())
	assert.Equal(t, "changed", cp.Domain())
}
