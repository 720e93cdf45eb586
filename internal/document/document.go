// Package document defines the resolved, nested document tree and the small
// set of accessors every later stage needs: the declared identifiers, the
// declared type and a deep copy.
package document

import (
	"strings"

	"github.com/vk/ocfltools/internal/failure"
)

const (
	// DefaultDomain is the effective domain of a document that declares none.
	DefaultDomain = "default"
	// MetaTypeKey marks an indexed document as a package or a segment.
	MetaTypeKey = "ocfl-indexer:meta:type"

	KeyIdentifier     = "identifier"
	KeyAdditionalType = "additionalType"
	KeyContext        = "@context"
)

// Document is a resolved tree in JSON form. Values are strings, numbers,
// bools, nil, []any or map[string]any.
type Document map[string]any

// PropertyValue is one {name, value} entry of the identifier property.
type PropertyValue struct {
	Name  string
	Value string
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneMap(d)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Document:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Entries returns the value under key as a list. A single value becomes a
// one-element list; an absent key yields nil.
func (d Document) Entries(key string) []any {
	return AsList(d[key])
}

// AsList returns v as a list without copying an existing one.
func AsList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// AsMap returns v as an object.
func AsMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Document:
		return t, true
	default:
		return nil, false
	}
}

// FirstString returns the first string found in v. Lists yield their first
// element and value objects yield their "@value".
func FirstString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		if len(t) == 0 {
			return "", false
		}
		return FirstString(t[0])
	case map[string]any:
		if inner, ok := t["@value"]; ok {
			return FirstString(inner)
		}
	}
	return "", false
}

// Identifier returns the {name, value} entries of the identifier property in
// document order. Entries without a name are skipped.
func (d Document) Identifier() []PropertyValue {
	var out []PropertyValue
	for _, e := range d.Entries(KeyIdentifier) {
		m, ok := AsMap(e)
		if !ok {
			continue
		}
		name, ok := FirstString(m["name"])
		if !ok {
			continue
		}
		value, _ := FirstString(m["value"])
		out = append(out, PropertyValue{Name: name, Value: value})
	}
	return out
}

// IdentifierValue returns the value of the first identifier entry called name.
func (d Document) IdentifierValue(name string) (string, bool) {
	for _, pv := range d.Identifier() {
		if pv.Name == name {
			return pv.Value, true
		}
	}
	return "", false
}

// Domain returns the declared domain, or DefaultDomain when there is none.
func (d Document) Domain() string {
	if v, ok := d.IdentifierValue("domain"); ok {
		return v
	}
	return DefaultDomain
}

// AdditionalType returns the declared type discriminator.
func (d Document) AdditionalType() (string, bool) {
	return FirstString(d[KeyAdditionalType])
}

// DomainIdentifier names a package in the search engine.
type DomainIdentifier struct {
	Domain string
	ID     string
	HashID string
}

// Index returns the search index name for the domain.
func (di DomainIdentifier) Index() string {
	return strings.ToLower(di.Domain)
}

// HashIDLength is the length of a hashId: a hex SHA-512 digest.
const HashIDLength = 128

// Identify extracts the domain, id and hashId identifiers. All three are
// required; a missing one is a Structural error naming it. The hashId must
// be a lower-case hex SHA-512 digest.
func Identify(d Document) (DomainIdentifier, error) {
	if _, ok := d[KeyIdentifier]; !ok {
		return DomainIdentifier{}, failure.Structuralf("identify", "root dataset has no %q property", KeyIdentifier)
	}
	var di DomainIdentifier
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"domain", &di.Domain},
		{"id", &di.ID},
		{"hashId", &di.HashID},
	} {
		v, ok := d.IdentifierValue(f.name)
		if !ok || v == "" {
			return DomainIdentifier{}, failure.Structuralf("identify", "unable to identify the %q of this package", f.name)
		}
		*f.dst = v
	}
	if !isDigest(di.HashID) {
		return DomainIdentifier{}, failure.Structuralf("identify", "hashId %q is not a %d-character lower-case hex digest", di.HashID, HashIDLength)
	}
	return di, nil
}

func isDigest(s string) bool {
	if len(s) != HashIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
