package validate

import (
	"fmt"

	"github.com/vk/ocfltools/internal/document"
	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile compiles raw as a JSON schema called name.
func Compile(name string, raw []byte) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %q: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks doc against the schema. The error is non-nil only when the
// document could not be validated at all.
func (s *Schema) Validate(doc document.Document) ([]SchemaError, error) {
	res, err := s.schema.Validate(gojsonschema.NewGoLoader(map[string]any(doc)))
	if err != nil {
		return nil, fmt.Errorf("failed to validate against %q: %w", s.name, err)
	}
	if res.Valid() {
		return nil, nil
	}
	out := make([]SchemaError, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, SchemaError{
			Schema:      s.name,
			Field:       e.Field(),
			Kind:        e.Type(),
			Description: e.Description(),
		})
	}
	return out, nil
}
