package testutil

import (
	"crypto/sha512"
	"encoding/hex"
	"net/url"
)

// CrateContext is the context URL used by fixture crates.
const CrateContext = "https://w3id.org/ro/crate/1.1/context"

// Crate wraps graph entries in a crate document.
func Crate(entries ...map[string]any) map[string]any {
	graph := make([]any, len(entries))
	for i, e := range entries {
		graph[i] = e
	}
	return map[string]any{"@context": CrateContext, "@graph": graph}
}

// HashID derives the content identifier the way the import tooling does.
func HashID(domain, id string) string {
	sum := sha512.Sum512([]byte("/" + domain + "/" + url.PathEscape(id)))
	return hex.EncodeToString(sum[:])
}

// IdentifiedCrate returns a crate whose root carries the domain, id and
// hashId identifiers, followed by extra entries. root is merged into the
// root dataset.
func IdentifiedCrate(domain, id string, root map[string]any, extra ...map[string]any) map[string]any {
	dataset := map[string]any{
		"@id":   "./",
		"@type": "Dataset",
		"identifier": []any{
			map[string]any{"@id": "#domain"},
			map[string]any{"@id": "#id"},
			map[string]any{"@id": "#hashId"},
		},
	}
	for k, v := range root {
		dataset[k] = v
	}
	entries := []map[string]any{
		{"@id": "ro-crate-metadata.json", "@type": "CreativeWork", "about": map[string]any{"@id": "./"}},
		dataset,
		{"@id": "#domain", "@type": "PropertyValue", "name": "domain", "value": domain},
		{"@id": "#id", "@type": "PropertyValue", "name": "id", "value": "/" + domain + "/" + url.PathEscape(id)},
		{"@id": "#hashId", "@type": "PropertyValue", "name": "hashId", "value": HashID(domain, id)},
	}
	return Crate(append(entries, extra...)...)
}
