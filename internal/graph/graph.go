package graph

// TieBreak picks the node the id index keeps when candidate shares an id
// with the already indexed node.
type TieBreak func(indexed, candidate *Node) *Node

// FirstMatch keeps the node that came first in graph order.
func FirstMatch(indexed, _ *Node) *Node {
	return indexed
}

// Graph is an ordered set of nodes with an id index.
type Graph struct {
	nodes    []*Node
	index    map[string]*Node
	dupes    map[string]int
	tieBreak TieBreak
}

// Option configures a Graph.
type Option func(*Graph)

// WithTieBreak replaces the FirstMatch duplicate-id policy.
func WithTieBreak(tb TieBreak) Option {
	return func(g *Graph) {
		if tb != nil {
			g.tieBreak = tb
		}
	}
}

// New builds a graph over nodes, preserving their order.
func New(nodes []*Node, opts ...Option) *Graph {
	g := &Graph{
		index:    make(map[string]*Node, len(nodes)),
		dupes:    make(map[string]int),
		tieBreak: FirstMatch,
	}
	for _, opt := range opts {
		opt(g)
	}
	for _, n := range nodes {
		g.add(n)
	}
	return g
}

func (g *Graph) add(n *Node) {
	if n == nil {
		return
	}
	g.nodes = append(g.nodes, n)
	if n.ID == "" {
		return
	}
	indexed, ok := g.index[n.ID]
	if !ok {
		g.index[n.ID] = n
		return
	}
	g.dupes[n.ID]++
	g.index[n.ID] = g.tieBreak(indexed, n)
}

// Nodes returns the nodes in graph order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Len returns the number of nodes, duplicates included.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Lookup returns the node indexed under id.
func (g *Graph) Lookup(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Duplicates returns the ids that occur on more than one node, in graph order.
func (g *Graph) Duplicates() []string {
	if len(g.dupes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(g.dupes))
	var ids []string
	for _, n := range g.nodes {
		if _, dup := g.dupes[n.ID]; !dup {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		ids = append(ids, n.ID)
	}
	return ids
}

// Filter returns a new graph with the nodes for which keep returns true. The
// tie-break policy carries over.
func (g *Graph) Filter(keep func(*Node) bool) *Graph {
	kept := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if keep(n) {
			kept = append(kept, n)
		}
	}
	return New(kept, WithTieBreak(g.tieBreak))
}
