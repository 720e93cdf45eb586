// Package sidecar stamps an unpacked crate with the repository metadata of
// an import: the domain, the external id and the derived hashId are recorded
// in repository-metadata/<repository>.metadata.json and the crate gains a
// reference to that file.
package sidecar

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/vk/ocfltools/internal/crate"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/document"
)

const (
	// MetadataDir holds the sidecar files of a crate.
	MetadataDir = "repository-metadata"
	// PropertyName is the root property referencing sidecar files.
	PropertyName = "ocflRepositoryMetadata"
	// PropertyID is the blank node defining PropertyName in the crate.
	PropertyID = "_:ocflRepositoryMetadata"

	repositoryObjectType = "RepositoryObject"
	sidecarContext       = "https://researchobject.github.io/ro-crate/1.0/context.jsonld"
	timeLayout           = "2006-01-02T15:04:05.000Z07:00"
)

// ErrNotCrate is returned for a directory without a crate file.
var ErrNotCrate = errors.New("not an RO-Crate")

// Metadata is what an import records about a package.
type Metadata struct {
	RepositoryIdentifier string
	Domain               string
	// Identifier is /<domain>/<escaped id>.
	Identifier string
	HashID     string
}

// NewMetadata derives the identifier and hashId of id within domain.
func NewMetadata(repositoryIdentifier, domain, id string) Metadata {
	identifier := Identifier(domain, id)
	return Metadata{
		RepositoryIdentifier: repositoryIdentifier,
		Domain:               domain,
		Identifier:           identifier,
		HashID:               HashID(identifier),
	}
}

// File returns the crate-relative path of the sidecar file.
func (m Metadata) File() string {
	return path.Join("/", MetadataDir, m.RepositoryIdentifier+".metadata.json")
}

// Identifier returns /<domain>/<id>, with id escaped as a URI component.
func Identifier(domain, id string) string {
	return "/" + domain + "/" + EncodeURIComponent(id)
}

// HashID returns the hex SHA-512 digest of identifier.
func HashID(identifier string) string {
	sum := sha512.Sum512([]byte(identifier))
	return hex.EncodeToString(sum[:])
}

// EncodeURIComponent percent-encodes every byte except the unreserved
// characters A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func EncodeURIComponent(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// Stamper writes sidecar files.
type Stamper struct {
	now func() time.Time
}

// Option configures a Stamper.
type Option func(*Stamper)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Stamper) {
		s.now = now
	}
}

// NewStamper returns a Stamper.
func NewStamper(opts ...Option) *Stamper {
	s := &Stamper{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stamp updates the crate in dir and writes or refreshes its sidecar file.
func (s *Stamper) Stamp(ctx context.Context, dir string, m Metadata) error {
	logger := ctxlog.FromContext(ctx).With("dir", dir, "repository", m.RepositoryIdentifier)

	cratePath := filepath.Join(dir, crate.MetadataFile)
	if _, err := os.Stat(cratePath); err != nil {
		return fmt.Errorf("%w: %s has no %s in its root", ErrNotCrate, dir, crate.MetadataFile)
	}
	doc, err := crate.Read(cratePath)
	if err != nil {
		return err
	}

	doc["@context"] = DefineProperty(doc["@context"])
	graph, ok := doc["@graph"].([]any)
	if !ok {
		return fmt.Errorf("%w: %s has no @graph", ErrNotCrate, cratePath)
	}
	graph = InjectPropertyEntry(graph)
	graph, err = AddReference(graph, m.File())
	if err != nil {
		return fmt.Errorf("%s: %w", cratePath, err)
	}
	doc["@graph"] = graph
	if err := writeJSON(cratePath, doc, false); err != nil {
		return err
	}

	created, err := s.writeMetadata(dir, m)
	if err != nil {
		return err
	}
	logger.Info("Crate stamped.", "file", m.File(), "hash_id", m.HashID, "created", created)
	return nil
}

// DefineProperty maps PropertyName to PropertyID in every object of a
// crate context. Context strings are kept as they are.
func DefineProperty(crateContext any) []any {
	out := document.AsList(crateContext)
	for _, e := range out {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if _, defined := m[PropertyName]; !defined {
			m[PropertyName] = PropertyID
		}
	}
	return out
}

// InjectPropertyEntry replaces any PropertyID entry of graph with the
// property definition.
func InjectPropertyEntry(graph []any) []any {
	graph = withoutID(graph, PropertyID)
	return append(graph, map[string]any{
		"@id":         PropertyID,
		"@type":       "Property",
		"name":        PropertyName,
		"description": "A reference to @type = File objects that define the repository metadata configurations. These files must be named as /repository-metadata/${FQDN of the repository}.metadata.json",
	})
}

// AddReference makes the root dataset reference file, adds the File entry
// and moves the root dataset to the front of graph.
func AddReference(graph []any, file string) ([]any, error) {
	var root map[string]any
	for _, e := range graph {
		if m, ok := e.(map[string]any); ok && m["@id"] == "./" {
			root = m
			break
		}
	}
	if root == nil {
		return nil, errors.New("crate has no root dataset './'")
	}

	refs := document.AsList(root[PropertyName])
	referenced := false
	for _, r := range refs {
		if m, ok := r.(map[string]any); ok && m["@id"] == file {
			referenced = true
			break
		}
	}
	if !referenced {
		refs = append(refs, map[string]any{"@id": file})
	}
	root[PropertyName] = refs

	graph = withoutID(graph, file)
	graph = append(graph, map[string]any{"@type": "File", "@id": file})
	graph = withoutID(graph, "./")
	return append([]any{root}, graph...), nil
}

func withoutID(graph []any, id string) []any {
	out := make([]any, 0, len(graph))
	for _, e := range graph {
		if m, ok := e.(map[string]any); ok && m["@id"] == id {
			continue
		}
		out = append(out, e)
	}
	return out
}

// writeMetadata creates the sidecar file, or refreshes dateModified of an
// existing one. It reports whether the file was created.
func (s *Stamper) writeMetadata(dir string, m Metadata) (bool, error) {
	file := filepath.Join(dir, filepath.FromSlash(m.File()))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return false, err
	}
	now := s.now().UTC().Format(timeLayout)

	raw, err := os.ReadFile(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return true, writeJSON(file, newSidecar(m, now), true)
	case err != nil:
		return false, err
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	graph := document.AsList(data["@graph"])
	var repoObject map[string]any
	rest := make([]any, 0, len(graph))
	for _, e := range graph {
		if entry, ok := e.(map[string]any); ok && repoObject == nil && entry["@type"] == repositoryObjectType {
			repoObject = entry
			continue
		}
		rest = append(rest, e)
	}
	if repoObject == nil {
		return false, fmt.Errorf("%s has no %s entry", file, repositoryObjectType)
	}
	repoObject["dateModified"] = now
	data["@graph"] = append([]any{repoObject}, rest...)
	return false, writeJSON(file, data, true)
}

func newSidecar(m Metadata, now string) map[string]any {
	return map[string]any{
		"@context": []any{
			sidecarContext,
			map[string]any{"@vocab": "http://schema.org/"},
		},
		"@graph": []any{
			map[string]any{
				"@type":       repositoryObjectType,
				"@id":         m.File(),
				"dateCreated": now,
				"identifier": []any{
					propertyValue("domain", m.Domain),
					propertyValue("id", m.Identifier),
					propertyValue("hashId", m.HashID),
				},
			},
		},
	}
}

func propertyValue(name, value string) map[string]any {
	return map[string]any{"@type": "PropertyValue", "name": name, "value": value}
}

func writeJSON(file string, v any, indent bool) error {
	var (
		raw []byte
		err error
	)
	if indent {
		raw, err = json.MarshalIndent(v, "", "  ")
	} else {
		raw, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", file, err)
	}
	return os.WriteFile(file, raw, 0o644)
}
