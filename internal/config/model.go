package config

import "context"

// Loader is the interface for a format-specific definition loader.
type Loader interface {
	// Load reads every definition file found under paths and translates the
	// definitions into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model holds every domain defined across the loaded files, keyed by name.
type Model struct {
	Domains map[string]*Domain
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Domains: make(map[string]*Domain)}
}

// Domain is the format-agnostic form of a `domain` block.
type Domain struct {
	Name        string
	Description string
	// Schema is the path of the domain-generic schema, or empty.
	Schema string
	// TypeSchemas maps an additionalType value to a schema path.
	TypeSchemas map[string]string
	// Transforms names the passes of the domain pipeline in order. Nil means
	// the definition does not declare a pipeline.
	Transforms []string
	// Mapping is the path of the index mapping, or empty.
	Mapping string
	// Source is the file the domain was defined in.
	Source string
}
