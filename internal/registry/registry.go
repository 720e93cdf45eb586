package registry

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/vk/ocfltools/internal/transcription"
	"github.com/vk/ocfltools/internal/transform"
)

// Module is the interface that all modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Domain is a domain definition. Schemas and the mapping are raw JSON.
type Domain struct {
	Name        string
	Description string
	Schema      []byte
	// TypeSchemas maps an additionalType value to its schema.
	TypeSchemas map[string][]byte
	// Transforms names the passes of the domain pipeline. Nil selects the
	// default pipeline.
	Transforms []string
	Mapping    []byte
}

func (d *Domain) clone() *Domain {
	c := *d
	c.TypeSchemas = maps.Clone(d.TypeSchemas)
	if d.Transforms != nil {
		c.Transforms = append([]string{}, d.Transforms...)
	}
	return &c
}

// Registry collects what the modules contribute.
type Registry struct {
	passes  map[string]transform.Pass
	domains map[string]*Domain
	formats map[string]transcription.Format
}

// New creates a registry holding the remove_context pass, which every
// pipeline starts with.
func New() *Registry {
	r := &Registry{
		passes:  make(map[string]transform.Pass),
		domains: make(map[string]*Domain),
		formats: make(map[string]transcription.Format),
	}
	r.RegisterPass(transform.RemoveContext)
	return r
}

// RegisterModules calls Register on every module in order.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// RegisterPass registers a transform pass under its name.
func (r *Registry) RegisterPass(p transform.Pass) {
	if _, exists := r.passes[p.Name]; exists {
		panic(fmt.Sprintf("transform pass with name '%s' already registered", p.Name))
	}
	slog.Debug("Registering transform pass.", "name", p.Name)
	r.passes[p.Name] = p
}

// RegisterDomain registers a built-in domain definition.
func (r *Registry) RegisterDomain(d Domain) {
	if _, exists := r.domains[d.Name]; exists {
		panic(fmt.Sprintf("domain '%s' already registered", d.Name))
	}
	slog.Debug("Registering domain.", "name", d.Name)
	r.domains[d.Name] = d.clone()
}

// RegisterTranscription registers a transcription format under its extension.
func (r *Registry) RegisterTranscription(f transcription.Format) {
	if _, exists := r.formats[f.Extension()]; exists {
		panic(fmt.Sprintf("transcription format for extension '%s' already registered", f.Extension()))
	}
	slog.Debug("Registering transcription format.", "extension", f.Extension())
	r.formats[f.Extension()] = f
}

// Transcriptions returns the table of registered formats.
func (r *Registry) Transcriptions() *transcription.Table {
	formats := make([]transcription.Format, 0, len(r.formats))
	for _, f := range r.formats {
		formats = append(formats, f)
	}
	return transcription.NewTable(formats...)
}
