// Package normalize adapts github.com/piprate/json-gold to the two
// operations the indexer needs from a JSON-LD processor: expanding a crate
// into a flat graph and compacting a resolved tree with the fixed context.
//
// Remote contexts are never fetched. The RO-Crate context URLs are served
// from an embedded copy; any other URL fails to load.
package normalize

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/piprate/json-gold/ld"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/document"
	"github.com/vk/ocfltools/internal/graph"
)

var (
	//go:embed contexts/rocrate.jsonld
	rocrateContext []byte
	//go:embed contexts/compact.jsonld
	compactContext []byte
)

// CrateContextURLs are the RO-Crate context URLs the offline loader answers.
var CrateContextURLs = []string{
	"https://w3id.org/ro/crate/1.0/context",
	"https://w3id.org/ro/crate/1.1/context",
	"https://w3id.org/ro/crate/1.1-DRAFT/context",
	"https://researchobject.github.io/ro-crate/1.0/context.jsonld",
	"https://researchobject.github.io/ro-crate/1.1/context.jsonld",
}

// Normalizer is ready for use once New returns it. Its contexts are parsed
// once and never modified.
type Normalizer struct {
	proc     *ld.JsonLdProcessor
	loader   ld.DocumentLoader
	compact  map[string]any
	rawCtx   []byte
	graphOpt []graph.Option
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithGraphOptions passes options to every graph built by Expand.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(n *Normalizer) {
		n.graphOpt = append(n.graphOpt, opts...)
	}
}

// WithCompactContext replaces the embedded compaction context. raw is a JSON
// document with a top-level "@context".
func WithCompactContext(raw []byte) Option {
	return func(n *Normalizer) {
		n.rawCtx = raw
	}
}

// New parses the embedded contexts and returns a ready Normalizer.
func New(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{proc: ld.NewJsonLdProcessor(), rawCtx: compactContext}
	for _, opt := range opts {
		opt(n)
	}
	if err := json.Unmarshal(n.rawCtx, &n.compact); err != nil {
		return nil, fmt.Errorf("failed to parse compaction context: %w", err)
	}
	loader, err := newOfflineLoader(rocrateContext, CrateContextURLs...)
	if err != nil {
		return nil, err
	}
	n.loader = loader
	return n, nil
}

func (n *Normalizer) options() *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions("")
	opts.ProcessingMode = ld.JsonLd_1_1
	opts.DocumentLoader = n.loader
	return opts
}

// Expand expands a crate document and converts the result into a graph.
func (n *Normalizer) Expand(ctx context.Context, crate map[string]any) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	expanded, err := n.proc.Expand(crate, n.options())
	if err != nil {
		return nil, fmt.Errorf("failed to expand crate: %w", err)
	}
	g := Graph(expanded, n.graphOpt...)
	logger.Debug("Crate expanded.", "nodes", g.Len())
	return g, nil
}

// Compact implements resolve.Compactor.
func (n *Normalizer) Compact(ctx context.Context, doc document.Document) (document.Document, error) {
	ctxDoc, _ := document.CloneValue(n.compact).(map[string]any)
	out, err := n.proc.Compact(map[string]any(doc.Clone()), ctxDoc, n.options())
	if err != nil {
		return nil, fmt.Errorf("failed to compact document: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Document compacted.", "keys", len(out))
	return document.Document(out), nil
}

// Graph converts expanded JSON-LD into a graph. Top-level entries that are
// not objects are ignored.
func Graph(expanded []any, opts ...graph.Option) *graph.Graph {
	nodes := make([]*graph.Node, 0, len(expanded))
	for _, e := range expanded {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		ref := reference(m)
		nodes = append(nodes, &graph.Node{ID: ref.ID, Types: ref.Types, Properties: ref.Properties})
	}
	return graph.New(nodes, opts...)
}

func reference(m map[string]any) graph.Reference {
	var r graph.Reference
	r.ID, _ = m["@id"].(string)
	for _, t := range document.AsList(m["@type"]) {
		if s, ok := t.(string); ok {
			r.Types = append(r.Types, s)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if strings.HasPrefix(key, "@") {
			continue
		}
		var values []graph.Value
		for _, e := range document.AsList(m[key]) {
			values = append(values, toValues(e)...)
		}
		r.Properties = append(r.Properties, graph.Property{Name: key, Values: values})
	}
	return r
}

func toValues(e any) []graph.Value {
	m, ok := e.(map[string]any)
	if !ok {
		return []graph.Value{graph.Literal(e)}
	}
	if v, ok := m["@value"]; ok {
		s := graph.Scalar{Value: v}
		s.Datatype, _ = m["@type"].(string)
		s.Language, _ = m["@language"].(string)
		return []graph.Value{graph.ScalarOf(s)}
	}
	if list, ok := m["@list"]; ok {
		var out []graph.Value
		for _, item := range document.AsList(list) {
			out = append(out, toValues(item)...)
		}
		return out
	}
	return []graph.Value{graph.RefOf(reference(m))}
}
