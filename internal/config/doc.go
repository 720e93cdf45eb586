// Package config defines the format-agnostic model of the domain definition
// files, along with the Loader interface implemented by format-specific
// loaders such as the HCL one.
//
// The config.Model is merged into the registry at startup. Paths in the
// model are absolute: loaders resolve them against the file that declared
// them.
package config
