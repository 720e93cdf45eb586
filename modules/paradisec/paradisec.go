// Package paradisec defines the paradisec.org.au domain: its schemas, its
// index mapping and the transform passes its documents go through.
package paradisec

import (
	"embed"
	"fmt"

	"github.com/vk/ocfltools/internal/registry"
	"github.com/vk/ocfltools/internal/transform"
)

// Domain is the domain name of PARADISEC crates.
const Domain = "paradisec.org.au"

//go:embed schemas/*.json mapping.json
var files embed.FS

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the passes and the domain definition.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(transform.Geometry)
	r.RegisterPass(transform.Contributors)
	r.RegisterPass(transform.HasContent)
	r.RegisterDomain(Definition())
}

// Definition returns the built-in definition of the domain.
func Definition() registry.Domain {
	return registry.Domain{
		Name:        Domain,
		Description: "Pacific and Regional Archive for Digital Sources in Endangered Cultures",
		Schema:      mustRead("schemas/schema.json"),
		TypeSchemas: map[string][]byte{
			"item":       mustRead("schemas/item.schema.json"),
			"collection": mustRead("schemas/collection.schema.json"),
		},
		Transforms: []string{
			transform.RemoveContextName,
			transform.GeometryName,
			transform.ContributorsName,
			transform.HasContentName,
		},
		Mapping: mustRead("mapping.json"),
	}
}

func mustRead(name string) []byte {
	raw, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("paradisec: embedded file %s: %v", name, err))
	}
	return raw
}
