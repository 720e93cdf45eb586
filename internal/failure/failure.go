// Package failure classifies the errors raised while processing a single
// metadata package. The class decides how a failure is reported; no class is
// retried automatically.
package failure

import (
	"errors"
	"fmt"
)

// Class is the handling category of an error.
type Class int

const (
	// Unclassified is returned for errors that carry no class.
	Unclassified Class = iota
	// Structural marks a malformed input graph or package: no root,
	// ambiguous root, missing crate file. Fatal to that package only.
	Structural
	// Validation marks a schema mismatch. The package is not indexed.
	Validation
	// Transform marks a transform pass that met an unexpected shape. It
	// signals drift between a schema and its transform pipeline.
	Transform
	// Sink marks a rejected create or upsert in the search engine.
	Sink
)

// String returns the lower-case name of the class.
func (c Class) String() string {
	switch c {
	case Structural:
		return "structural"
	case Validation:
		return "validation"
	case Transform:
		return "transform"
	case Sink:
		return "sink"
	default:
		return "unclassified"
	}
}

// Classifier is implemented by typed errors that know their own class.
type Classifier interface {
	FailureClass() Class
}

// Error attaches a class and the failing operation to a foreign error.
type Error struct {
	Class Class
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// FailureClass implements Classifier.
func (e *Error) FailureClass() Class {
	return e.Class
}

// Wrap classifies err. A nil err stays nil.
func Wrap(class Class, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: class, Op: op, Err: err}
}

// Structuralf builds a new Structural error from a format string.
func Structuralf(op, format string, args ...any) error {
	return &Error{Class: Structural, Op: op, Err: fmt.Errorf(format, args...)}
}

// ClassOf returns the class of the first classified error in err's chain.
func ClassOf(err error) Class {
	if err == nil {
		return Unclassified
	}
	var c Classifier
	if errors.As(err, &c) {
		return c.FailureClass()
	}
	return Unclassified
}

// Is reports whether err belongs to class.
func Is(err error, class Class) bool {
	return ClassOf(err) == class
}
