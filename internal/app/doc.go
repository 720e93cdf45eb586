// Package app contains the core application logic. It wires the registry,
// the pipeline, the search sink and the executor together and exposes the
// index, validate and stamp operations, decoupled from any specific
// entrypoint like a CLI or server.
package app
