package ocfl

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/ocfltools/internal/failure"
)

// Entry is one recorded revision of a logical file.
type Entry struct {
	Version string
	Path    string
	Digest  string
}

// VersionState is the logical state of an object at one version. Each
// logical path maps to the revisions of that file up to the version, oldest
// first; the last entry is the content at that version.
type VersionState struct {
	Version string
	State   map[string][]Entry
}

// Latest returns the last entry recorded for logicalPath.
func (s VersionState) Latest(logicalPath string) (Entry, bool) {
	entries := s.State[logicalPath]
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

// Find locates a logical path by exact name first, then by base name.
func (s VersionState) Find(name string) (string, Entry, bool) {
	if e, ok := s.Latest(name); ok {
		return name, e, true
	}
	base := path.Base(name)
	for _, p := range s.Paths() {
		if path.Base(p) == base {
			e, _ := s.Latest(p)
			return p, e, true
		}
	}
	return "", Entry{}, false
}

// Paths returns the logical paths in lexical order.
func (s VersionState) Paths() []string {
	out := make([]string, 0, len(s.State))
	for p := range s.State {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Object is a single OCFL object on disk. Call Load before reading versions.
type Object struct {
	root string
	inv  *Inventory
}

// NewObject returns an unloaded object rooted at dir.
func NewObject(dir string) *Object {
	return &Object{root: dir}
}

// Root returns the object's directory.
func (o *Object) Root() string {
	return o.root
}

// IsObject reports whether the object's directory carries the object marker.
func (o *Object) IsObject() bool {
	info, err := os.Stat(filepath.Join(o.root, ObjectMarker))
	return err == nil && !info.IsDir()
}

// Load reads the root inventory. Failures are Structural.
func (o *Object) Load() error {
	if !o.IsObject() {
		return failure.Structuralf("load object", "%s does not look like an OCFL object", o.root)
	}
	inv, err := ReadInventory(filepath.Join(o.root, InventoryFile))
	if err != nil {
		return failure.Wrap(failure.Structural, "load object", err)
	}
	o.inv = inv
	return nil
}

// ID returns the inventory id, empty before Load.
func (o *Object) ID() string {
	if o.inv == nil {
		return ""
	}
	return o.inv.ID
}

// Inventory returns the loaded inventory.
func (o *Object) Inventory() *Inventory {
	return o.inv
}

// Versions lists the object's versions in order.
func (o *Object) Versions() ([]string, error) {
	if o.inv == nil {
		return nil, errNotLoaded
	}
	return o.inv.VersionNames(), nil
}

// LatestVersion returns the state at the head version.
func (o *Object) LatestVersion() (VersionState, error) {
	if o.inv == nil {
		return VersionState{}, errNotLoaded
	}
	return o.Version(o.inv.Head)
}

// Version returns the state at version. A logical path collects one entry for
// every version up to and including this one in which its content changed.
func (o *Object) Version(version string) (VersionState, error) {
	if o.inv == nil {
		return VersionState{}, errNotLoaded
	}
	target, ok := o.inv.Versions[version]
	if !ok {
		return VersionState{}, fmt.Errorf("object %s has no version %q", o.inv.ID, version)
	}

	current := make(map[string]struct{})
	for _, paths := range target.State {
		for _, p := range paths {
			current[p] = struct{}{}
		}
	}

	state := make(map[string][]Entry, len(current))
	for _, name := range o.inv.VersionNames() {
		v := o.inv.Versions[name]
		for digest, paths := range v.State {
			for _, p := range paths {
				if _, live := current[p]; !live {
					continue
				}
				entries := state[p]
				if n := len(entries); n > 0 && entries[n-1].Digest == digest {
					continue
				}
				contentPath, _ := o.inv.contentPath(digest)
				state[p] = append(entries, Entry{Version: name, Path: contentPath, Digest: digest})
			}
		}
		if name == version {
			break
		}
	}
	return VersionState{Version: version, State: state}, nil
}

// ErrPathEscapesObject is returned for content paths that leave the object.
var ErrPathEscapesObject = errors.New("content path escapes the object root")

// ResolveFilePath returns the path of a content path below the object root.
// Absolute content paths and paths leaving the root are Structural errors.
func (o *Object) ResolveFilePath(contentPath string) (string, error) {
	p := filepath.FromSlash(contentPath)
	if filepath.IsAbs(p) || path.IsAbs(contentPath) {
		return "", failure.Wrap(failure.Structural, "resolve file path", fmt.Errorf("%w: %s", ErrPathEscapesObject, contentPath))
	}
	full := filepath.Join(o.root, p)
	rel, err := filepath.Rel(o.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", failure.Wrap(failure.Structural, "resolve file path", fmt.Errorf("%w: %s", ErrPathEscapesObject, contentPath))
	}
	return full, nil
}
