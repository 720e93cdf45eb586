package transform

import (
	"strings"

	"github.com/vk/ocfltools/internal/document"
)

// Names of the built-in passes.
const (
	RemoveContextName = "remove_context"
	GeometryName      = "geometry"
	ContributorsName  = "contributors"
	HasContentName    = "has_content"
)

// Builtin returns the passes every build knows about.
func Builtin() []Pass {
	return []Pass{RemoveContext, Geometry, Contributors, HasContent}
}

// RemoveContext drops the JSON-LD context left over from compaction.
var RemoveContext = Pass{Name: RemoveContextName, Apply: func(doc document.Document) (document.Document, error) {
	delete(doc, document.KeyContext)
	return doc, nil
}}

// Geometry turns contentLocation.geo.box, a "lon,lat lon,lat" string, into an
// envelope with two coordinate pairs.
var Geometry = Pass{Name: GeometryName, Apply: geometry}

func geometry(doc document.Document) (document.Document, error) {
	v, ok := doc["contentLocation"]
	if !ok {
		return doc, nil
	}
	loc, ok := firstMap(v)
	if !ok {
		return nil, shapeError(GeometryName, "contentLocation is a %T, not an object", v)
	}
	if t, _ := document.FirstString(loc["type"]); t == "envelope" {
		if _, ok := loc["coordinates"]; ok {
			return doc, nil
		}
	}
	geo, ok := firstMap(loc["geo"])
	if !ok {
		return doc, nil
	}
	box, ok := document.FirstString(geo["box"])
	if !ok {
		return doc, nil
	}
	corners := strings.Fields(box)
	if len(corners) != 2 {
		return nil, shapeError(GeometryName, "box %q does not hold two corners", box)
	}
	coordinates := make([]any, 0, 2)
	for _, c := range corners {
		lonLat := strings.Split(c, ",")
		if len(lonLat) != 2 {
			return nil, shapeError(GeometryName, "corner %q is not a lon,lat pair", c)
		}
		coordinates = append(coordinates, []any{lonLat[0], lonLat[1]})
	}
	doc["contentLocation"] = map[string]any{
		"type":        "envelope",
		"coordinates": coordinates,
	}
	return doc, nil
}

// Contributors flattens contributor role associations into {role, name}
// pairs. A single association is treated as a list of one.
var Contributors = Pass{Name: ContributorsName, Apply: contributors}

func contributors(doc document.Document) (document.Document, error) {
	entries := doc.Entries("contributor")
	if entries == nil {
		return doc, nil
	}
	out := make([]any, 0, len(entries))
	for i, e := range entries {
		m, ok := document.AsMap(e)
		if !ok {
			return nil, shapeError(ContributorsName, "contributor %d is a %T, not an object", i, e)
		}
		inner, nested := m["contributor"]
		if !nested {
			if _, flat := m["role"]; flat {
				out = append(out, m)
				continue
			}
			return nil, shapeError(ContributorsName, "contributor %d has neither a role nor a nested contributor", i)
		}
		person, ok := firstMap(inner)
		if !ok {
			return nil, shapeError(ContributorsName, "contributor %d holds a %T, not a person", i, inner)
		}
		out = append(out, map[string]any{
			"role": firstOrNil(m["name"]),
			"name": firstOrNil(person["name"]),
		})
	}
	doc["contributor"] = out
	return doc, nil
}

// HasContent records whether the document has any parts.
var HasContent = Pass{Name: HasContentName, Apply: func(doc document.Document) (document.Document, error) {
	doc["hasContent"] = len(doc.Entries("hasPart")) > 0
	return doc, nil
}}

// firstMap returns v, or the first element of v, as an object.
func firstMap(v any) (map[string]any, bool) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, false
		}
		v = list[0]
	}
	return document.AsMap(v)
}

func firstOrNil(v any) any {
	if s, ok := document.FirstString(v); ok {
		return s
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}
