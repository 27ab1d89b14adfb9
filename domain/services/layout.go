package services

import (
	"braindump/domain/config"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
)

// Spacing holds the distance between layout columns and rows
type Spacing struct {
	Horizontal float64
	Vertical   float64
}

// LayoutResult is the output of a layout pass
type LayoutResult struct {
	// Nodes has the same order and data as the input; only positions differ
	Nodes []entities.Node

	// RootID is the node the full-tree layout started from
	RootID string

	// Unplaced lists nodes a full-tree layout could not reach
	Unplaced []string
}

// Positions returns the position of every node in the result, keyed by id
func (r LayoutResult) Positions() map[string]valueobjects.Position {
	out := make(map[string]valueobjects.Position, len(r.Nodes))
	for _, n := range r.Nodes {
		out[n.ID] = n.Position
	}
	return out
}

// LayoutEngine computes tree layouts. It returns modified copies and never
// touches its input.
type LayoutEngine struct {
	spacing Spacing
}

// NewLayoutEngine creates a layout engine using the configured spacing
func NewLayoutEngine(cfg *config.DomainConfig) *LayoutEngine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &LayoutEngine{
		spacing: Spacing{Horizontal: cfg.HorizontalSpacing, Vertical: cfg.VerticalSpacing},
	}
}

// DefaultSpacing returns the spacing the engine was configured with
func (e *LayoutEngine) DefaultSpacing() Spacing {
	return e.spacing
}

// HorizontalLayout lays the whole graph out as a left-to-right tree.
// Leaves take the next free row at their depth; a parent sits at the
// midpoint of its first and last child. Nodes unreachable from the root
// keep their position and are reported in Unplaced. Without a root the
// input is returned unchanged.
func (e *LayoutEngine) HorizontalLayout(nodes []entities.Node, edges []entities.Edge) LayoutResult {
	result := LayoutResult{Nodes: cloneNodes(nodes)}

	rootID, ok := findLayoutRoot(nodes, edges)
	if !ok {
		for _, n := range nodes {
			result.Unplaced = append(result.Unplaced, n.ID)
		}
		return result
	}
	result.RootID = rootID

	g := newAdjacency(nodes, edges)
	placed := make(map[string]valueobjects.Position, len(nodes))
	nextRow := make(map[int]float64)

	var place func(id string, depth int)
	place = func(id string, depth int) {
		// mark before descending so cycles terminate
		placed[id] = valueobjects.Position{}

		var childYs []float64
		for _, child := range g.out[id] {
			if _, done := placed[child]; done {
				continue
			}
			place(child, depth+1)
			childYs = append(childYs, placed[child].Y)
		}

		x := float64(depth) * e.spacing.Horizontal
		if len(childYs) == 0 {
			row := nextRow[depth]
			nextRow[depth] = row + 1
			placed[id] = valueobjects.Position{X: x, Y: row * e.spacing.Vertical}
			return
		}

		minY, maxY := childYs[0], childYs[0]
		for _, y := range childYs[1:] {
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
		placed[id] = valueobjects.Position{X: x, Y: (minY + maxY) / 2}
	}
	place(rootID, 0)

	for i := range result.Nodes {
		p, ok := placed[result.Nodes[i].ID]
		if !ok {
			result.Unplaced = append(result.Unplaced, result.Nodes[i].ID)
			continue
		}
		result.Nodes[i].Position = p
	}
	return result
}

// ParentChildLayout re-arranges the two levels below parentID. Direct
// children are stacked one column right of the parent and centered on it;
// grandchildren go one further column right, centered on their own parent's
// new row. The parent and every node outside its subtree keep their
// position. A zero spacing falls back to the engine default.
func (e *LayoutEngine) ParentChildLayout(parentID string, nodes []entities.Node, edges []entities.Edge, spacing Spacing) LayoutResult {
	if spacing.Horizontal <= 0 {
		spacing.Horizontal = e.spacing.Horizontal
	}
	if spacing.Vertical <= 0 {
		spacing.Vertical = e.spacing.Vertical
	}

	result := LayoutResult{Nodes: cloneNodes(nodes), RootID: parentID}

	g := newAdjacency(nodes, edges)
	parent, ok := g.nodes[parentID]
	if !ok {
		return result
	}

	children := distinct(g.out[parentID], map[string]bool{parentID: true})
	exclude := map[string]bool{parentID: true}
	for _, c := range children {
		exclude[c] = true
	}

	moved := make(map[string]valueobjects.Position)
	childX := parent.Position.X + spacing.Horizontal
	for i, childID := range children {
		y := parent.Position.Y + centeredOffset(i, len(children), spacing.Vertical)
		moved[childID] = valueobjects.Position{X: childX, Y: y}
	}

	grandX := parent.Position.X + 2*spacing.Horizontal
	for _, childID := range children {
		grandchildren := distinct(g.out[childID], exclude)
		childY := moved[childID].Y
		for j, gcID := range grandchildren {
			exclude[gcID] = true
			moved[gcID] = valueobjects.Position{
				X: grandX,
				Y: childY + centeredOffset(j, len(grandchildren), spacing.Vertical),
			}
		}
	}

	for i := range result.Nodes {
		if p, ok := moved[result.Nodes[i].ID]; ok {
			result.Nodes[i].Position = p
		}
	}
	return result
}

// findLayoutRoot picks the first Root-variant node, or failing that the
// first node without an inbound edge
func findLayoutRoot(nodes []entities.Node, edges []entities.Edge) (string, bool) {
	for _, n := range nodes {
		if n.Type.IsLayoutRoot() {
			return n.ID, true
		}
	}

	targeted := make(map[string]bool, len(edges))
	for _, e := range edges {
		targeted[e.Target] = true
	}
	for _, n := range nodes {
		if !targeted[n.ID] {
			return n.ID, true
		}
	}
	return "", false
}

// centeredOffset spreads count items evenly around zero
func centeredOffset(index, count int, step float64) float64 {
	return (float64(index) - float64(count-1)/2) * step
}

// distinct drops duplicates and excluded ids, keeping order
func distinct(ids []string, exclude map[string]bool) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if exclude[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func cloneNodes(nodes []entities.Node) []entities.Node {
	out := make([]entities.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
