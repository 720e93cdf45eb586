package graph

import "slices"

// Kind discriminates the two shapes a Value can take.
type Kind int

const (
	// ScalarKind is a primitive value.
	ScalarKind Kind = iota
	// ReferenceKind is a reference to another node by id.
	ReferenceKind
)

// Scalar is a primitive value with its optional datatype and language.
type Scalar struct {
	Value    any
	Datatype string
	Language string
}

// Reference points at another node by id. Types and Properties hold data
// the source document placed inline next to the reference.
type Reference struct {
	ID         string
	Types      []string
	Properties []Property
}

// Value is a tagged union of Scalar and Reference.
type Value struct {
	kind   Kind
	scalar Scalar
	ref    *Reference
}

// Literal returns a plain scalar value.
func Literal(v any) Value {
	return Value{kind: ScalarKind, scalar: Scalar{Value: v}}
}

// ScalarOf returns a scalar value carrying datatype and language.
func ScalarOf(s Scalar) Value {
	return Value{kind: ScalarKind, scalar: s}
}

// Ref returns a bare reference to id.
func Ref(id string) Value {
	return Value{kind: ReferenceKind, ref: &Reference{ID: id}}
}

// RefOf returns a reference carrying inline data.
func RefOf(r Reference) Value {
	return Value{kind: ReferenceKind, ref: &r}
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Scalar returns the scalar payload and true if v is a scalar.
func (v Value) Scalar() (Scalar, bool) {
	if v.kind != ScalarKind {
		return Scalar{}, false
	}
	return v.scalar, true
}

// Reference returns the reference payload and true if v is a reference.
func (v Value) Reference() (*Reference, bool) {
	if v.kind != ReferenceKind || v.ref == nil {
		return nil, false
	}
	return v.ref, true
}

// Property is a named, ordered sequence of values.
type Property struct {
	Name   string
	Values []Value
}

// Node is a single entity of the graph.
type Node struct {
	ID         string
	Types      []string
	Properties []Property
}

// NewNode creates a node with the given id and types.
func NewNode(id string, types ...string) *Node {
	return &Node{ID: id, Types: types}
}

// Add appends values to the named property, creating it on first use so that
// property names stay unique and keep their first-insertion order.
func (n *Node) Add(name string, values ...Value) *Node {
	for i := range n.Properties {
		if n.Properties[i].Name == name {
			n.Properties[i].Values = append(n.Properties[i].Values, values...)
			return n
		}
	}
	n.Properties = append(n.Properties, Property{Name: name, Values: values})
	return n
}

// Property returns the named property.
func (n *Node) Property(name string) (Property, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// HasType reports whether t is one of the node's types.
func (n *Node) HasType(t string) bool {
	return slices.Contains(n.Types, t)
}
