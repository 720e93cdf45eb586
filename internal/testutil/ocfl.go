package testutil

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// Version is the full logical content of one object version, keyed by
// logical path.
type Version map[string]string

// NewRepository creates an empty OCFL storage root in a temp dir.
func NewRepository(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, filepath.Join(root, "0=ocfl_1.0"), "ocfl_1.0\n")
	return root
}

// WriteObject writes an OCFL object with the given versions below the
// storage root and returns its directory. Unchanged content is stored once.
func WriteObject(t *testing.T, repoRoot, relPath, id string, versions ...Version) string {
	t.Helper()
	require.NotEmpty(t, versions, "an object needs at least one version")

	dir := filepath.Join(repoRoot, relPath)
	manifest := map[string][]string{}
	inventoryVersions := map[string]any{}
	head := ""
	for i, v := range versions {
		head = fmt.Sprintf("v%d", i+1)
		state := map[string][]string{}
		for logical, content := range v {
			sum := sha512.Sum512([]byte(content))
			digest := hex.EncodeToString(sum[:])
			if _, stored := manifest[digest]; !stored {
				contentPath := head + "/content/" + logical
				WriteFile(t, filepath.Join(dir, filepath.FromSlash(contentPath)), content)
				manifest[digest] = []string{contentPath}
			}
			state[digest] = append(state[digest], logical)
		}
		inventoryVersions[head] = map[string]any{
			"created": "2020-01-01T00:00:00Z",
			"state":   state,
		}
	}

	inventory := map[string]any{
		"id":              id,
		"type":            "https://ocfl.io/1.0/spec/#inventory",
		"digestAlgorithm": "sha512",
		"head":            head,
		"manifest":        manifest,
		"versions":        inventoryVersions,
	}
	WriteFile(t, filepath.Join(dir, "0=ocfl_object_1.0"), "ocfl_object_1.0\n")
	WriteFile(t, filepath.Join(dir, "inventory.json"), MustJSON(t, inventory))
	return dir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// MustJSON marshals v or fails the test.
func MustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
