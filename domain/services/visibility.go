package services

import (
	"braindump/domain/core/entities"
)

// VisibleGraph is the derived view the canvas draws
type VisibleGraph struct {
	Nodes []entities.Node
	Edges []entities.Edge

	// HiddenIDs lists hidden nodes in node-array order
	HiddenIDs []string

	// DanglingEdges counts edges skipped because an endpoint is missing
	DanglingEdges int
}

// VisibilityResolver derives the visible part of a graph from collapse state.
// It never mutates its input and performs no I/O.
type VisibilityResolver struct{}

// NewVisibilityResolver creates a new visibility resolver
func NewVisibilityResolver() *VisibilityResolver {
	return &VisibilityResolver{}
}

// Resolve filters out every node hidden by a collapsed ancestor (or, for a
// collapsed category, by sharing its category) and every edge touching one.
// The returned nodes carry freshly computed children and parentLayoutMode.
func (r *VisibilityResolver) Resolve(nodes []entities.Node, edges []entities.Edge) VisibleGraph {
	g := newAdjacency(nodes, edges)
	hidden := r.hiddenSet(nodes, g)

	result := VisibleGraph{
		Nodes:         make([]entities.Node, 0, len(nodes)),
		Edges:         make([]entities.Edge, 0, len(edges)),
		DanglingEdges: g.dangling,
	}

	for _, n := range nodes {
		if hidden[n.ID] {
			result.HiddenIDs = append(result.HiddenIDs, n.ID)
			continue
		}
		out := n.Clone()
		out.Data.Children = g.childrenOf(n.ID)
		out.Data.ParentLayoutMode = g.parentLayoutMode(n.ID)
		result.Nodes = append(result.Nodes, out)
	}

	for _, e := range edges {
		if !g.present[e.Source] || !g.present[e.Target] {
			continue
		}
		if hidden[e.Source] || hidden[e.Target] {
			continue
		}
		result.Edges = append(result.Edges, e)
	}

	return result
}

// HiddenSet returns the union of the hidden sets of all collapsed nodes
func (r *VisibilityResolver) HiddenSet(nodes []entities.Node, edges []entities.Edge) map[string]bool {
	return r.hiddenSet(nodes, newAdjacency(nodes, edges))
}

func (r *VisibilityResolver) hiddenSet(nodes []entities.Node, g *adjacency) map[string]bool {
	hidden := make(map[string]bool)

	for _, n := range nodes {
		if !n.Data.IsCollapsed {
			continue
		}
		for id := range r.hiddenBy(n, nodes, g) {
			hidden[id] = true
		}
	}
	return hidden
}

// hiddenBy computes what a single collapsed node hides. The collapsed node
// itself stays visible even when a cycle leads back to it.
func (r *VisibilityResolver) hiddenBy(collapsed entities.Node, nodes []entities.Node, g *adjacency) map[string]bool {
	set := g.descendants(collapsed.ID)

	if collapsed.Type.CollapsesCategoryPeers() && collapsed.Data.Category != "" {
		for _, n := range nodes {
			if n.ID == collapsed.ID || !n.Type.IsCategoryMember() || n.Data.Category != collapsed.Data.Category {
				continue
			}
			set[n.ID] = true
			for id := range g.descendants(n.ID) {
				set[id] = true
			}
		}
	}

	delete(set, collapsed.ID)
	return set
}

// adjacency indexes the outgoing and incoming edges of a node list.
// Edges with a missing endpoint are counted and otherwise ignored.
type adjacency struct {
	nodes    map[string]entities.Node
	present  map[string]bool
	out      map[string][]string
	in       map[string][]string
	dangling int
}

func newAdjacency(nodes []entities.Node, edges []entities.Edge) *adjacency {
	g := &adjacency{
		nodes:   make(map[string]entities.Node, len(nodes)),
		present: make(map[string]bool, len(nodes)),
		out:     make(map[string][]string),
		in:      make(map[string][]string),
	}
	for _, n := range nodes {
		g.nodes[n.ID] = n
		g.present[n.ID] = true
	}
	for _, e := range edges {
		if !g.present[e.Source] || !g.present[e.Target] {
			g.dangling++
			continue
		}
		g.out[e.Source] = append(g.out[e.Source], e.Target)
		g.in[e.Target] = append(g.in[e.Target], e.Source)
	}
	return g
}

// childrenOf returns direct children in edge-array order
func (g *adjacency) childrenOf(id string) []string {
	targets := g.out[id]
	if len(targets) == 0 {
		return []string{}
	}
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// parentLayoutMode reads the layout mode of the first inbound edge's source
func (g *adjacency) parentLayoutMode(id string) entities.LayoutMode {
	sources := g.in[id]
	if len(sources) == 0 {
		return entities.LayoutFreeform
	}
	return g.nodes[sources[0]].Data.LayoutMode.OrDefault()
}

// descendants returns every node reachable from id along outgoing edges,
// excluding id unless a cycle leads back to it
func (g *adjacency) descendants(id string) map[string]bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), g.out[id]...)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true
		stack = append(stack, g.out[current]...)
	}
	return seen
}

// orderedDescendants walks outgoing edges breadth first from id and returns
// the reachable ids in discovery order, id excluded
func (g *adjacency) orderedDescendants(id string) []string {
	seen := map[string]bool{id: true}
	queue := []string{id}
	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.out[current] {
			if seen[next] {
				continue
			}
			seen[next] = true
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}
