package pipeline

import (
	"context"
	"errors"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/failure"
	"github.com/vk/ocfltools/internal/metrics"
	"github.com/vk/ocfltools/internal/validate"
)

// Status is the result of processing one package.
type Status int

const (
	StatusIndexed Status = iota
	StatusInvalid
	StatusFailed
)

// String returns the metrics outcome label of s.
func (s Status) String() string {
	switch s {
	case StatusIndexed:
		return metrics.OutcomeIndexed
	case StatusInvalid:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}

// Outcome reports what happened to one package.
type Outcome struct {
	// Object is the object root directory.
	Object   string
	Status   Status
	Version  string
	Domain   string
	ID       string
	HashID   string
	Segments int
	// Errors holds the validation errors of an invalid package.
	Errors []validate.SchemaError
	Err    error
}

// Class returns the failure class of the outcome's error.
func (o Outcome) Class() failure.Class {
	return failure.ClassOf(o.Err)
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusIndexed
	case errors.Is(err, ErrInvalid):
		return StatusInvalid
	default:
		return StatusFailed
	}
}

func (p *Pipeline) report(ctx context.Context, out Outcome) {
	logger := ctxlog.FromContext(ctx)

	class := ""
	if out.Err != nil {
		class = out.Class().String()
	}
	p.metrics.Package(out.Status.String(), class)

	switch out.Status {
	case StatusIndexed:
		logger.Info("Package indexed.", "domain", out.Domain, "id", out.ID, "version", out.Version, "segments", out.Segments)
	case StatusInvalid:
		reasons := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			reasons[i] = e.String()
		}
		logger.Warn("Package is invalid and was not indexed.", "domain", out.Domain, "errors", reasons)
	default:
		logger.Error("Package failed.", "class", class, "error", out.Err)
	}
}
