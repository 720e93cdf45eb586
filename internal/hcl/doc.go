// Package hcl provides the HCL implementation of config.Loader. It parses
// `domain` blocks from .hcl files and translates them into the
// format-agnostic config.Model.
package hcl
