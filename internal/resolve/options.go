package resolve

import (
	"context"

	"github.com/vk/ocfltools/internal/document"
)

const (
	// DatasetType marks the root node of a crate.
	DatasetType = "http://schema.org/Dataset"

	PropHasMember = "http://pcdm.org/models#hasMember"
	PropMemberOf  = "http://schema.org/memberOf"
	PropHasPart   = "http://schema.org/hasPart"
)

// PreserveIDs is the default set of properties whose inlined elements keep
// their "@id".
var PreserveIDs = []string{PropHasMember, PropMemberOf, PropHasPart}

// Compactor renames fully-qualified identifiers of a resolved tree to short
// names. The normalizer provides the production implementation.
type Compactor interface {
	Compact(ctx context.Context, doc document.Document) (document.Document, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRootType replaces DatasetType as the root marker.
func WithRootType(t string) Option {
	return func(e *Engine) {
		e.rootType = t
	}
}

// WithPreserveIDs replaces the default preserve set.
func WithPreserveIDs(props ...string) Option {
	return func(e *Engine) {
		e.preserve = make(map[string]struct{}, len(props))
		for _, p := range props {
			e.preserve[p] = struct{}{}
		}
	}
}

// WithCompactor makes Resolve compact its result.
func WithCompactor(c Compactor) Option {
	return func(e *Engine) {
		e.compactor = c
	}
}
