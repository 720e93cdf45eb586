// Package validate selects and runs the structural schemas of a resolved
// document: the generic crate schema, then the schema of the declared domain,
// then the schema of the domain and declared type. Missing optional schemas
// are skipped; every error found is collected.
package validate

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/document"
)

//go:embed schemas/schema.json
var genericSchema []byte

// GenericSchemaName names the embedded crate schema in reported errors.
const GenericSchemaName = "schema.json"

// KindForbiddenCharacter is the Kind of a forbidden-character error.
const KindForbiddenCharacter = "forbidden_character"

// ForbiddenDomainChars may not appear in a domain, which becomes an index name.
const ForbiddenDomainChars = " \"*\\<|,>/?"

// SchemaError is one reason a document failed validation.
type SchemaError struct {
	Schema      string
	Field       string
	Kind        string
	Description string
	// Char is set for forbidden-character errors.
	Char string
}

func (e SchemaError) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Schema, e.Field, e.Description)
}

// Result is the outcome of one Validate call.
type Result struct {
	Valid  bool
	Domain string
	Type   string
	Errors []SchemaError
}

// Source looks up the optional domain schemas.
type Source interface {
	DomainSchema(domain string) (*Schema, bool)
	TypeSchema(domain, additionalType string) (*Schema, bool)
}

// Dispatcher runs the schemas of a document. It is ready once New returns.
type Dispatcher struct {
	generic *Schema
	source  Source
}

// New compiles the embedded generic schema. source may be nil when no
// domain schemas exist.
func New(source Source) (*Dispatcher, error) {
	generic, err := Compile(GenericSchemaName, genericSchema)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{generic: generic, source: source}, nil
}

// Validate runs every applicable schema against doc.
func (d *Dispatcher) Validate(ctx context.Context, doc document.Document) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	res := Result{Valid: true, Domain: doc.Domain()}
	res.Type, _ = doc.AdditionalType()

	run := func(s *Schema) error {
		errs, err := s.Validate(doc)
		if err != nil {
			return err
		}
		logger.Debug("Schema applied.", "schema", s.Name(), "errors", len(errs))
		if len(errs) > 0 {
			res.Valid = false
			res.Errors = append(res.Errors, errs...)
		}
		return nil
	}

	if err := run(d.generic); err != nil {
		return Result{}, err
	}

	if chars := forbiddenChars(res.Domain); len(chars) > 0 {
		res.Valid = false
		for _, c := range chars {
			res.Errors = append(res.Errors, SchemaError{
				Schema:      "domain",
				Field:       "identifier.domain",
				Kind:        KindForbiddenCharacter,
				Description: fmt.Sprintf("domain %q must not contain %q", res.Domain, c),
				Char:        c,
			})
		}
	}

	if res.Domain == document.DefaultDomain || d.source == nil {
		return res, nil
	}
	if s, ok := d.source.DomainSchema(res.Domain); ok {
		if err := run(s); err != nil {
			return Result{}, err
		}
	}
	if res.Type != "" {
		if s, ok := d.source.TypeSchema(res.Domain, res.Type); ok {
			if err := run(s); err != nil {
				return Result{}, err
			}
		}
	}
	return res, nil
}

// forbiddenChars returns every forbidden character of domain, one entry per
// occurrence, in string order.
func forbiddenChars(domain string) []string {
	var out []string
	for _, r := range domain {
		if strings.ContainsRune(ForbiddenDomainChars, r) {
			out = append(out, string(r))
		}
	}
	return out
}
