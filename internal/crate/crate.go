// Package crate locates and decodes the RO-Crate metadata file of an OCFL
// object version.
package crate

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/vk/ocfltools/internal/failure"
	"github.com/vk/ocfltools/internal/ocfl"
)

const (
	MetadataFile       = "ro-crate-metadata.json"
	LegacyMetadataFile = "ro-crate-metadata.jsonld"

	legacyDescriptorID = "/ro-crate-metadata.jsonld"
	conformsTo         = "https://w3id.org/ro/crate/1.1-DRAFT"
)

// Crate is a decoded crate of one object version.
type Crate struct {
	Version string
	// File is the logical path the crate was read from.
	File  string
	Doc   map[string]any
	State ocfl.VersionState
}

// Locate picks the crate file in state. ro-crate-metadata.json wins over the
// legacy .jsonld name and the last recorded entry of the file is used.
func Locate(state ocfl.VersionState) (string, ocfl.Entry, error) {
	for _, name := range []string{MetadataFile, LegacyMetadataFile} {
		if e, ok := state.Latest(name); ok {
			return name, e, nil
		}
	}
	return "", ocfl.Entry{}, failure.Structuralf("locate crate", "version %s has no crate file called '%s' or '%s'", state.Version, MetadataFile, LegacyMetadataFile)
}

// Read decodes the crate file at path.
func Read(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(failure.Structural, "read crate", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, failure.Wrap(failure.Structural, "read crate", fmt.Errorf("%s: %w", path, err))
	}
	return doc, nil
}

// UpgradeDescriptor replaces a legacy "/ro-crate-metadata.jsonld" metadata
// descriptor with its current form. It reports whether anything changed.
func UpgradeDescriptor(doc map[string]any) bool {
	entries, ok := doc["@graph"].([]any)
	if !ok {
		return false
	}
	changed := false
	for i, e := range entries {
		m, ok := e.(map[string]any)
		if !ok || m["@id"] != legacyDescriptorID {
			continue
		}
		entries[i] = map[string]any{
			"@type":      "CreativeWork",
			"@id":        MetadataFile,
			"conformsTo": map[string]any{"@id": conformsTo},
			"about":      map[string]any{"@id": "./"},
		}
		changed = true
	}
	return changed
}

// Load reads the crate at the object's head version.
func Load(obj *ocfl.Object) (*Crate, error) {
	state, err := obj.LatestVersion()
	if err != nil {
		return nil, failure.Wrap(failure.Structural, "load crate", err)
	}
	name, entry, err := Locate(state)
	if err != nil {
		return nil, err
	}
	file, err := obj.ResolveFilePath(entry.Path)
	if err != nil {
		return nil, err
	}
	doc, err := Read(file)
	if err != nil {
		return nil, err
	}
	UpgradeDescriptor(doc)
	return &Crate{Version: state.Version, File: name, Doc: doc, State: state}, nil
}
