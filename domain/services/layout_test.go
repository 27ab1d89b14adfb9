package services

import (
	"testing"

	"braindump/domain/config"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
)

func testEngine() *LayoutEngine {
	cfg := config.DefaultDomainConfig()
	cfg.HorizontalSpacing = 200
	cfg.VerticalSpacing = 100
	return NewLayoutEngine(cfg)
}

func TestHorizontalLayout_PostorderPlacement(t *testing.T) {
	nodes := []entities.Node{
		node("a", entities.VariantThought, "a", 9, 9),
		node("root", entities.VariantRoot, "root", 9, 9),
		node("b", entities.VariantThought, "b", 9, 9),
		node("a1", entities.VariantThought, "a1", 9, 9),
		node("a2", entities.VariantThought, "a2", 9, 9),
		node("orphan", entities.VariantThought, "orphan", 7, 7),
	}
	edges := []entities.Edge{edge("root", "a"), edge("root", "b"), edge("a", "a1"), edge("a", "a2")}

	got := testEngine().HorizontalLayout(nodes, edges)
	pos := got.Positions()

	assert.Equal(t, "root", got.RootID)
	assert.Equal(t, valueobjects.Position{X: 400, Y: 0}, pos["a1"])
	assert.Equal(t, valueobjects.Position{X: 400, Y: 100}, pos["a2"])
	assert.Equal(t, valueobjects.Position{X: 200, Y: 50}, pos["a"])
	// rows are counted per depth
	assert.Equal(t, valueobjects.Position{X: 200, Y: 0}, pos["b"])
	assert.Equal(t, valueobjects.Position{X: 0, Y: 25}, pos["root"])
	assert.Equal(t, valueobjects.Position{X: 7, Y: 7}, pos["orphan"])
	assert.Equal(t, []string{"orphan"}, got.Unplaced)

	// order and data preserved
	assert.Equal(t, ids(nodes), ids(got.Nodes))
	assert.Equal(t, "a", got.Nodes[0].Data.Label)
}

func TestHorizontalLayout_FallsBackToFirstUntargetedNode(t *testing.T) {
	nodes := []entities.Node{
		node("child", entities.VariantThought, "c", 5, 5),
		node("top", entities.VariantThought, "t", 5, 5),
	}
	edges := []entities.Edge{edge("top", "child")}

	got := testEngine().HorizontalLayout(nodes, edges)

	assert.Equal(t, "top", got.RootID)
	assert.Equal(t, valueobjects.Position{X: 200, Y: 0}, got.Positions()["child"])
}

func TestHorizontalLayout_NoRootLeavesInputUnchanged(t *testing.T) {
	nodes := []entities.Node{
		node("a", entities.VariantThought, "a", 1, 2),
		node("b", entities.VariantThought, "b", 3, 4),
	}
	edges := []entities.Edge{edge("a", "b"), edge("b", "a")}

	got := testEngine().HorizontalLayout(nodes, edges)

	assert.Empty(t, got.RootID)
	assert.Equal(t, nodes[0].Position, got.Nodes[0].Position)
	assert.Equal(t, nodes[1].Position, got.Nodes[1].Position)
	assert.Len(t, got.Unplaced, 2)
}

func TestParentChildLayout_Locality(t *testing.T) {
	nodes := []entities.Node{
		node("root", entities.VariantRoot, "root", 0, 0),
		node("p", entities.VariantThought, "p", 100, 300),
		node("c1", entities.VariantThought, "c1", 0, 0),
		node("c2", entities.VariantThought, "c2", 0, 0),
		node("g1", entities.VariantThought, "g1", 0, 0),
		node("elsewhere", entities.VariantThought, "x", 55, 66),
	}
	edges := []entities.Edge{
		edge("root", "p"),
		edge("root", "elsewhere"),
		edge("p", "c1"),
		edge("p", "c2"),
		edge("c1", "g1"),
		// a child that is also a grandchild stays a child
		edge("c1", "c2"),
	}

	got := testEngine().ParentChildLayout("p", nodes, edges, Spacing{})
	pos := got.Positions()

	assert.Equal(t, valueobjects.Position{X: 100, Y: 300}, pos["p"])
	assert.Equal(t, valueobjects.Position{X: 300, Y: 250}, pos["c1"])
	assert.Equal(t, valueobjects.Position{X: 300, Y: 350}, pos["c2"])
	assert.Equal(t, valueobjects.Position{X: 500, Y: 250}, pos["g1"])

	for _, id := range []string{"root", "elsewhere"} {
		for i, n := range nodes {
			if n.ID == id {
				assert.Equal(t, n.Position, got.Nodes[i].Position, id)
			}
		}
	}
}

func TestParentChildLayout_UnknownParent(t *testing.T) {
	nodes := []entities.Node{node("a", entities.VariantThought, "a", 1, 1)}

	got := testEngine().ParentChildLayout("missing", nodes, nil, Spacing{Horizontal: 10, Vertical: 10})

	assert.Equal(t, nodes[0].Position, got.Nodes[0].Position)
}
