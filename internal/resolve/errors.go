package resolve

import (
	"fmt"
	"strings"

	"github.com/vk/ocfltools/internal/failure"
)

// NoRootFoundError is returned when no node carries the root type.
type NoRootFoundError struct {
	RootType string
}

func (e *NoRootFoundError) Error() string {
	return fmt.Sprintf("no node of type %q found in graph", e.RootType)
}

// FailureClass implements failure.Classifier.
func (e *NoRootFoundError) FailureClass() failure.Class {
	return failure.Structural
}

// AmbiguousRootError is returned when more than one node carries the root
// type. IDs lists the candidates in graph order.
type AmbiguousRootError struct {
	RootType string
	IDs      []string
}

func (e *AmbiguousRootError) Error() string {
	return fmt.Sprintf("%d nodes of type %q found in graph: %s", len(e.IDs), e.RootType, strings.Join(e.IDs, ", "))
}

// FailureClass implements failure.Classifier.
func (e *AmbiguousRootError) FailureClass() failure.Class {
	return failure.Structural
}
