package resolve

import (
	"context"

	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/document"
	"github.com/vk/ocfltools/internal/failure"
	"github.com/vk/ocfltools/internal/graph"
)

// Engine resolves graphs into rooted documents. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	rootType  string
	preserve  map[string]struct{}
	compactor Compactor
}

// New creates an engine with the dataset root type and the default preserve
// set.
func New(opts ...Option) *Engine {
	e := &Engine{rootType: DatasetType}
	WithPreserveIDs(PreserveIDs...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve inlines every reachable content node into the root and, when a
// Compactor is configured, compacts the result.
func (e *Engine) Resolve(ctx context.Context, g *graph.Graph) (document.Document, error) {
	logger := ctxlog.FromContext(ctx)

	root, err := e.root(g)
	if err != nil {
		return nil, err
	}
	logger.Debug("Root node identified.", "root", root.ID, "nodes", g.Len())
	if dupes := g.Duplicates(); len(dupes) > 0 {
		logger.Debug("Graph contains duplicate ids, first match wins.", "ids", dupes)
	}

	w := &walker{
		engine:  e,
		content: g.Filter(func(n *graph.Node) bool { return !n.HasType(e.rootType) }),
		path:    make(map[string]struct{}),
	}

	doc := document.Document{}
	if root.ID != "" {
		doc["@id"] = root.ID
	}
	if len(root.Types) > 0 {
		doc["@type"] = typeList(root.Types)
	}
	for _, p := range root.Properties {
		doc[p.Name] = w.sequence(p.Name, p.Values)
	}
	logger.Debug("Graph resolved.", "inlined", w.inlined, "cycles", w.cycles)

	if e.compactor == nil {
		return doc, nil
	}
	compacted, err := e.compactor.Compact(ctx, doc)
	if err != nil {
		return nil, failure.Wrap(failure.Structural, "compact", err)
	}
	return compacted, nil
}

func (e *Engine) root(g *graph.Graph) (*graph.Node, error) {
	var roots []*graph.Node
	for _, n := range g.Nodes() {
		if n.HasType(e.rootType) {
			roots = append(roots, n)
		}
	}
	switch len(roots) {
	case 0:
		return nil, &NoRootFoundError{RootType: e.rootType}
	case 1:
		return roots[0], nil
	default:
		ids := make([]string, len(roots))
		for i, r := range roots {
			ids[i] = r.ID
		}
		return nil, &AmbiguousRootError{RootType: e.rootType, IDs: ids}
	}
}

// walker carries the state of one Resolve call.
type walker struct {
	engine  *Engine
	content *graph.Graph
	path    map[string]struct{}
	inlined int
	cycles  int
}

func (w *walker) sequence(prop string, values []graph.Value) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, w.element(prop, v))
	}
	return out
}

func (w *walker) element(prop string, v graph.Value) any {
	ref, ok := v.Reference()
	if !ok {
		s, _ := v.Scalar()
		return scalar(s)
	}
	if ref.ID == "" {
		// Embedded objects have nothing to match but may hold references.
		return w.merge(prop, ref, nil)
	}
	n, found := w.content.Lookup(ref.ID)
	if !found {
		return plain(ref)
	}
	if _, onPath := w.path[ref.ID]; onPath {
		w.cycles++
		return map[string]any{"@id": ref.ID}
	}

	w.path[ref.ID] = struct{}{}
	defer delete(w.path, ref.ID)
	w.inlined++
	return w.merge(prop, ref, n)
}

// merge builds a fresh object from the reference's inline data overlaid with
// the content node's data.
func (w *walker) merge(prop string, ref *graph.Reference, n *graph.Node) map[string]any {
	out := make(map[string]any, len(ref.Properties)+2)
	if len(ref.Types) > 0 {
		out["@type"] = typeList(ref.Types)
	}
	for _, p := range ref.Properties {
		out[p.Name] = w.sequence(p.Name, p.Values)
	}
	if n == nil {
		return out
	}
	if len(n.Types) > 0 {
		out["@type"] = typeList(n.Types)
	}
	for _, p := range n.Properties {
		out[p.Name] = w.sequence(p.Name, p.Values)
	}
	if _, keep := w.engine.preserve[prop]; keep {
		out["@id"] = ref.ID
	}
	return out
}

// plain renders a reference as-is, without resolving anything below it.
func plain(ref *graph.Reference) map[string]any {
	out := map[string]any{"@id": ref.ID}
	if len(ref.Types) > 0 {
		out["@type"] = typeList(ref.Types)
	}
	for _, p := range ref.Properties {
		vals := make([]any, 0, len(p.Values))
		for _, v := range p.Values {
			if r, ok := v.Reference(); ok {
				vals = append(vals, plain(r))
				continue
			}
			s, _ := v.Scalar()
			vals = append(vals, scalar(s))
		}
		out[p.Name] = vals
	}
	return out
}

func scalar(s graph.Scalar) any {
	v := document.CloneValue(s.Value)
	switch {
	case s.Language != "":
		return map[string]any{"@value": v, "@language": s.Language}
	case s.Datatype != "":
		return map[string]any{"@value": v, "@type": s.Datatype}
	default:
		return v
	}
}

func typeList(types []string) []any {
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = t
	}
	return out
}
