package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a definition file.
type fileRoot struct {
	Domains []*domainBlock `hcl:"domain,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

type domainBlock struct {
	Name        string             `hcl:"name,label"`
	Description string             `hcl:"description,optional"`
	Schema      string             `hcl:"schema,optional"`
	TypeSchemas []*typeSchemaBlock `hcl:"type_schema,block"`
	Transforms  []string           `hcl:"transforms,optional"`
	Mapping     string             `hcl:"mapping,optional"`
}

type typeSchemaBlock struct {
	Type string `hcl:"type,label"`
	Path string `hcl:"path"`
}
