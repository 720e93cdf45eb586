// Package resolve turns a flat linked-data graph into a single nested
// document rooted at the dataset node.
//
// The engine partitions the graph into the unique root and the content
// nodes, then walks every property of the root. A reference whose id matches
// a content node is replaced by a merge of the reference's inline data and the
// content node's data, content winning on key collision. The merge recurses
// into the merged node's properties so that nodes several hops away are
// inlined too.
//
// # Reference retention
//
// A merged element loses its "@id" unless the property that led to it is in
// the preserve set (PreserveIDs). Consumers can then still identify members
// and parts even though their data was inlined.
//
// # Cycles
//
// The engine tracks the ids on the current inline path. When a reference
// points back at a node already on the path it is emitted as {"@id": id}
// instead of being inlined again, which keeps Resolve total on cyclic graphs.
//
// # Aliasing
//
// Every occurrence of a node is built as a fresh tree. Two siblings that
// inline the same node never share maps or slices, so mutating one in a later
// transform pass never affects the other.
package resolve
