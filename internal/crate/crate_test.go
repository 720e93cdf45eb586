package crate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/failure"
	"github.com/vk/ocfltools/internal/ocfl"
	"github.com/vk/ocfltools/internal/testutil"
)

func TestLocate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		state    map[string][]ocfl.Entry
		wantFile string
		wantPath string
	}{
		{
			name: "json preferred over jsonld",
			state: map[string][]ocfl.Entry{
				MetadataFile:       {{Version: "v1", Path: "v1/content/" + MetadataFile}},
				LegacyMetadataFile: {{Version: "v1", Path: "v1/content/" + LegacyMetadataFile}},
			},
			wantFile: MetadataFile,
			wantPath: "v1/content/" + MetadataFile,
		},
		{
			name: "legacy name",
			state: map[string][]ocfl.Entry{
				LegacyMetadataFile: {{Version: "v1", Path: "v1/content/" + LegacyMetadataFile}},
			},
			wantFile: LegacyMetadataFile,
			wantPath: "v1/content/" + LegacyMetadataFile,
		},
		{
			name: "last entry wins",
			state: map[string][]ocfl.Entry{
				MetadataFile: {
					{Version: "v1", Path: "v1/content/" + MetadataFile},
					{Version: "v3", Path: "v3/content/" + MetadataFile},
				},
			},
			wantFile: MetadataFile,
			wantPath: "v3/content/" + MetadataFile,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			file, entry, err := Locate(ocfl.VersionState{Version: "v3", State: tc.state})
			require.NoError(t, err)
			assert.Equal(t, tc.wantFile, file)
			assert.Equal(t, tc.wantPath, entry.Path)
		})
	}

	t.Run("missing crate is structural", func(t *testing.T) {
		t.Parallel()
		_, _, err := Locate(ocfl.VersionState{Version: "v1", State: map[string][]ocfl.Entry{"a.txt": {{}}}})
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.Structural))
	})
}

func TestUpgradeDescriptor(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"@graph": []any{
		map[string]any{"@id": "/ro-crate-metadata.jsonld", "@type": "CreativeWork"},
		map[string]any{"@id": "./", "@type": "Dataset"},
	}}

	require.True(t, UpgradeDescriptor(doc))

	entries := doc["@graph"].([]any)
	assert.Equal(t, map[string]any{
		"@type":      "CreativeWork",
		"@id":        "ro-crate-metadata.json",
		"conformsTo": map[string]any{"@id": "https://w3id.org/ro/crate/1.1-DRAFT"},
		"about":      map[string]any{"@id": "./"},
	}, entries[0])
	assert.Equal(t, "./", entries[1].(map[string]any)["@id"])
	assert.False(t, UpgradeDescriptor(doc), "already upgraded")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	repo := testutil.NewRepository(t)
	legacy := testutil.Crate(
		map[string]any{"@id": "/ro-crate-metadata.jsonld", "@type": "CreativeWork"},
		map[string]any{"@id": "./", "@type": "Dataset"},
	)
	dir := testutil.WriteObject(t, repo, "obj", "obj",
		testutil.Version{LegacyMetadataFile: testutil.MustJSON(t, legacy)},
	)
	obj := ocfl.NewObject(dir)
	require.NoError(t, obj.Load())

	// --- Act ---
	c, err := Load(obj)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "v1", c.Version)
	assert.Equal(t, LegacyMetadataFile, c.File)
	first := c.Doc["@graph"].([]any)[0].(map[string]any)
	assert.Equal(t, MetadataFile, first["@id"])
}

func TestRead_InvalidJSONIsStructural(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir+"/bad.json", "[1,2")

	_, err := Read(dir + "/bad.json")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Structural))
}
