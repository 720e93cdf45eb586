// Package transform holds the domain post-processing passes applied to a
// validated document before it is indexed.
//
// A Pass is a named function over a document. Passes are idempotent: running
// one on its own output changes nothing. A pass that does not find the field
// it works on leaves the document alone; a pass that finds the field in a
// shape it cannot handle returns an *Error.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/document"
	"github.com/vk/ocfltools/internal/failure"
)

// Func rewrites doc in place and returns it.
type Func func(doc document.Document) (document.Document, error)

// Pass is a named transform step.
type Pass struct {
	Name  string
	Apply Func
}

// Error reports a pass that met a field in an unexpected shape.
type Error struct {
	Pass string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform pass '%s' failed: %v", e.Pass, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FailureClass implements failure.Classifier.
func (e *Error) FailureClass() failure.Class { return failure.Transform }

func shapeError(pass, format string, args ...any) error {
	return &Error{Pass: pass, Err: fmt.Errorf(format, args...)}
}

// Pipeline is an ordered list of passes.
type Pipeline struct {
	passes []Pass
}

// NewPipeline returns a pipeline running passes in order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Names returns the pass names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name
	}
	return names
}

// Run applies every pass to a copy of doc. The input is never modified.
func (p *Pipeline) Run(ctx context.Context, doc document.Document) (document.Document, error) {
	logger := ctxlog.FromContext(ctx)
	out := doc.Clone()
	for _, pass := range p.passes {
		var err error
		out, err = pass.Apply(out)
		if err != nil {
			var te *Error
			if errors.As(err, &te) {
				return nil, err
			}
			return nil, &Error{Pass: pass.Name, Err: err}
		}
		logger.Debug("Transform pass applied.", "pass", pass.Name)
	}
	return out, nil
}
