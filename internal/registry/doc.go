// Package registry provides the central "glue" for the module system.
//
// Modules register what they contribute: transform passes, built-in domain
// definitions (schemas, pipelines, index mappings) and transcription formats.
// Definition files loaded at startup are merged on top of the built-ins.
//
// A Registry is only a staging area. Ready checks that every definition is
// consistent with the registered Go code, compiles every schema and returns
// an immutable Catalog, which is the only form the pipeline accepts. There
// is no way to use a registry that has not been checked.
package registry
