package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/search"
	"github.com/vk/ocfltools/internal/transcription"
	"github.com/vk/ocfltools/internal/transform"
	"github.com/vk/ocfltools/internal/validate"
)

// Catalog is the checked, immutable form of a registry. It is safe for
// concurrent use.
type Catalog struct {
	domains         map[string]*entry
	defaultPipeline *transform.Pipeline
	defaultMapping  map[string]any
	table           *transcription.Table
}

type entry struct {
	schema   *validate.Schema
	types    map[string]*validate.Schema
	pipeline *transform.Pipeline
	mapping  map[string]any
}

var _ validate.Source = (*Catalog)(nil)

// Ready performs a strict parity check between the domain definitions and
// the registered passes, compiles every schema and decodes every mapping.
func (r *Registry) Ready(ctx context.Context) (*Catalog, error) {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	c := &Catalog{
		domains:         make(map[string]*entry, len(r.domains)),
		defaultPipeline: transform.NewPipeline(r.passes[transform.RemoveContextName]),
		defaultMapping:  search.DefaultMapping(),
		table:           r.Transcriptions(),
	}

	for _, name := range sortedKeys(r.domains) {
		d := r.domains[name]
		e := &entry{types: make(map[string]*validate.Schema)}

		if i := strings.IndexAny(name, validate.ForbiddenDomainChars); i >= 0 {
			errs = append(errs, fmt.Sprintf("domain '%s': name contains forbidden character %q", name, name[i]))
		}

		if len(d.Schema) > 0 {
			s, err := validate.Compile(name+"/schema.json", d.Schema)
			if err != nil {
				errs = append(errs, fmt.Sprintf("domain '%s': %v", name, err))
			}
			e.schema = s
		}
		for _, t := range sortedKeys(d.TypeSchemas) {
			s, err := validate.Compile(name+"/"+t+".schema.json", d.TypeSchemas[t])
			if err != nil {
				errs = append(errs, fmt.Sprintf("domain '%s': %v", name, err))
				continue
			}
			e.types[t] = s
		}

		if d.Transforms == nil {
			e.pipeline = c.defaultPipeline
		} else {
			order := d.Transforms
			if len(order) == 0 || order[0] != transform.RemoveContextName {
				order = append([]string{transform.RemoveContextName}, order...)
			}
			passes := make([]transform.Pass, 0, len(order))
			for _, pn := range order {
				p, ok := r.passes[pn]
				if !ok {
					errs = append(errs, fmt.Sprintf("domain '%s': transform pass '%s' is not registered", name, pn))
					continue
				}
				passes = append(passes, p)
			}
			e.pipeline = transform.NewPipeline(passes...)
		}

		if len(d.Mapping) > 0 {
			var m map[string]any
			if err := json.Unmarshal(d.Mapping, &m); err != nil {
				errs = append(errs, fmt.Sprintf("domain '%s': invalid index mapping: %v", name, err))
			}
			e.mapping = m
		}

		c.domains[name] = e
		logger.Debug("Domain ready.", "domain", name, "type_schemas", len(e.types), "transforms", e.pipeline.Names())
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Info("Registry ready.", "domains", len(c.domains), "transcription_formats", c.table.Extensions())
	return c, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// DomainSchema implements validate.Source.
func (c *Catalog) DomainSchema(domain string) (*validate.Schema, bool) {
	e, ok := c.domains[domain]
	if !ok || e.schema == nil {
		return nil, false
	}
	return e.schema, true
}

// TypeSchema implements validate.Source.
func (c *Catalog) TypeSchema(domain, additionalType string) (*validate.Schema, bool) {
	e, ok := c.domains[domain]
	if !ok {
		return nil, false
	}
	s, ok := e.types[additionalType]
	return s, ok
}

// Pipeline returns the transform pipeline of domain. Unknown domains get the
// default pipeline.
func (c *Catalog) Pipeline(domain string) *transform.Pipeline {
	if e, ok := c.domains[domain]; ok {
		return e.pipeline
	}
	return c.defaultPipeline
}

// Mapping returns the index mapping of domain, or the default mapping. The
// result is shared and must not be modified.
func (c *Catalog) Mapping(domain string) map[string]any {
	if e, ok := c.domains[domain]; ok && e.mapping != nil {
		return e.mapping
	}
	return c.defaultMapping
}

// Transcriptions returns the table of transcription formats.
func (c *Catalog) Transcriptions() *transcription.Table {
	return c.table
}

// Domains returns the known domain names in sorted order.
func (c *Catalog) Domains() []string {
	return sortedKeys(c.domains)
}
