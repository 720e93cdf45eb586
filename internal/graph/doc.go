// Package graph holds the flat linked-data graph produced by the normalizer
// and consumed by the resolution engine.
//
// # Model
//
// A Graph is an ordered collection of Nodes. Every Node has an id, a set of
// types and an ordered list of Properties; each Property holds an ordered
// sequence of Values. A Value is one of:
//
//   - **Scalar:** a primitive (string, number, bool) with an optional
//     datatype and language, mirroring a JSON-LD value object.
//   - **Reference:** the id of another node. A reference may carry inline
//     types and properties when the source document embedded data next to
//     the reference; a reference with an empty id is an embedded anonymous
//     object that can never be matched against the graph.
//
// Nodes are immutable once built. The resolution engine never writes to a
// node; it copies what it inlines.
//
// # Lookup and duplicate ids
//
// The graph keeps an id index for O(1) lookup. When several nodes share an id
// the TieBreak decides which one the index keeps. The default, FirstMatch,
// keeps the first node in graph order. A different policy can be injected
// with WithTieBreak; it is the single decision point for duplicate handling.
package graph
