package hcl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocfltools/internal/testutil"
)

func TestLoader_DecodesDomainBlocks(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "archive", "domain.hcl"), `
domain "example.org" {
  description = "Example archive"
  schema      = "${path.module}/schemas/schema.json"

  type_schema "item" {
    path = "schemas/item.schema.json"
  }
  type_schema "collection" {
    path = "/etc/ocfl/collection.schema.json"
  }

  transforms = ["remove_context", "geometry"]
  mapping    = "mapping.json"
}
`)
	testutil.WriteFile(t, filepath.Join(dir, "README.md"), "not hcl")

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, model.Domains, 1)
	d := model.Domains["example.org"]
	require.NotNil(t, d)

	base, err := filepath.Abs(filepath.Join(dir, "archive"))
	require.NoError(t, err)
	assert.Equal(t, "Example archive", d.Description)
	assert.Equal(t, filepath.Join(base, "schemas", "schema.json"), d.Schema)
	assert.Equal(t, map[string]string{
		"item":       filepath.Join(base, "schemas", "item.schema.json"),
		"collection": "/etc/ocfl/collection.schema.json",
	}, d.TypeSchemas)
	assert.Equal(t, []string{"remove_context", "geometry"}, d.Transforms)
	assert.Equal(t, filepath.Join(base, "mapping.json"), d.Mapping)
	assert.Equal(t, filepath.Join(base, "domain.hcl"), d.Source)
}

func TestLoader_OptionalAttributes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "min.hcl"), `domain "bare.org" {}`)

	model, err := NewLoader().Load(context.Background(), filepath.Join(dir, "min.hcl"))

	require.NoError(t, err)
	d := model.Domains["bare.org"]
	require.NotNil(t, d)
	assert.Empty(t, d.Schema)
	assert.Empty(t, d.Mapping)
	assert.Nil(t, d.TypeSchemas)
	assert.Nil(t, d.Transforms, "an undeclared pipeline stays nil")
}

func TestLoader_MissingPathIsSkipped(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, model.Domains)
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"a.hcl": `domain "x" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"a.hcl": `domain "x" { colour = "red" }`},
			wantErr: "failed to decode HCL file",
		},
		{
			name: "duplicate domain",
			files: map[string]string{
				"a.hcl": `domain "x" {}`,
				"b.hcl": `domain "x" {}`,
			},
			wantErr: "domain 'x' is defined in both",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			for name, body := range tc.files {
				testutil.WriteFile(t, filepath.Join(dir, name), body)
			}

			_, err := NewLoader().Load(context.Background(), dir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
