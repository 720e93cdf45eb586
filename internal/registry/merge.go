package registry

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/ocfltools/internal/config"
	"github.com/vk/ocfltools/internal/ctxlog"
)

// MergeDefinitions applies the domains of model on top of the built-in ones.
// Every attribute a definition sets replaces the built-in one; type schemas
// are merged per type. Referenced files are read here.
func (r *Registry) MergeDefinitions(ctx context.Context, model *config.Model) error {
	if model == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	for name, def := range model.Domains {
		d, builtin := r.domains[name]
		if builtin {
			d = d.clone()
		} else {
			d = &Domain{Name: name}
		}
		if def.Description != "" {
			d.Description = def.Description
		}
		if def.Schema != "" {
			raw, err := readDefinitionFile(name, def.Schema)
			if err != nil {
				return err
			}
			d.Schema = raw
		}
		for t, path := range def.TypeSchemas {
			raw, err := readDefinitionFile(name, path)
			if err != nil {
				return err
			}
			if d.TypeSchemas == nil {
				d.TypeSchemas = make(map[string][]byte)
			}
			d.TypeSchemas[t] = raw
		}
		if def.Transforms != nil {
			d.Transforms = append([]string{}, def.Transforms...)
		}
		if def.Mapping != "" {
			raw, err := readDefinitionFile(name, def.Mapping)
			if err != nil {
				return err
			}
			d.Mapping = raw
		}
		r.domains[name] = d
		logger.Debug("Domain definition merged.", "domain", name, "source", def.Source, "overrides_builtin", builtin)
	}
	return nil
}

func readDefinitionFile(domain, path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain '%s': %w", domain, err)
	}
	return raw, nil
}
