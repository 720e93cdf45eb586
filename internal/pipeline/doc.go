// Package pipeline indexes one OCFL object at a time: it loads the crate of
// the head version, resolves and validates it, runs the transform passes of
// its domain and delivers the document and its transcription segments to the
// search sink.
//
// A Pipeline holds no per-package state and is shared by every worker of a
// run. Failures never escape Process; they are reported in the Outcome.
package pipeline
