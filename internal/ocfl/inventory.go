package ocfl

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Inventory is the subset of an OCFL inventory.json the indexer reads.
type Inventory struct {
	ID              string              `json:"id"`
	Type            string              `json:"type"`
	DigestAlgorithm string              `json:"digestAlgorithm"`
	Head            string              `json:"head"`
	Manifest        map[string][]string `json:"manifest"`
	Versions        map[string]Version  `json:"versions"`
}

// Version is one entry of the inventory's versions block. State maps a
// digest to the logical paths that carry that content.
type Version struct {
	Created string              `json:"created"`
	Message string              `json:"message,omitempty"`
	State   map[string][]string `json:"state"`
}

// ReadInventory decodes the inventory file at path.
func ReadInventory(path string) (*Inventory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inv Inventory
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("failed to decode inventory %s: %w", path, err)
	}
	if inv.Head == "" {
		return nil, fmt.Errorf("inventory %s has no head version", path)
	}
	if _, ok := inv.Versions[inv.Head]; !ok {
		return nil, fmt.Errorf("inventory %s: head version %q is not listed", path, inv.Head)
	}
	return &inv, nil
}

// VersionNames returns the inventory versions in numeric order (v1, v2, ... v10).
func (inv *Inventory) VersionNames() []string {
	names := make([]string, 0, len(inv.Versions))
	for v := range inv.Versions {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool {
		return versionNumber(names[i]) < versionNumber(names[j])
	})
	return names
}

func versionNumber(v string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(v, "v"))
	if err != nil {
		return -1
	}
	return n
}

// contentPath returns the first manifest path recorded for digest.
func (inv *Inventory) contentPath(digest string) (string, bool) {
	paths := inv.Manifest[digest]
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}
