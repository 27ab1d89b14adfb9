package services

import (
	"testing"

	"braindump/domain/core/entities"

	"github.com/stretchr/testify/assert"
)

func TestVisibilityResolver_CollapsedCategoryHidesThoughts(t *testing.T) {
	nodes := []entities.Node{
		node("root", entities.VariantRoot, "Root", 0, 0),
		collapsed(withCategory(node("tasks", entities.VariantCategory, "tasks", 250, 0), "tasks")),
		withCategory(node("a", entities.VariantThought, "A", 500, -50), "tasks"),
		withCategory(node("b", entities.VariantThought, "B", 500, 50), "tasks"),
	}
	edges := []entities.Edge{edge("root", "tasks"), edge("tasks", "a"), edge("tasks", "b")}

	got := NewVisibilityResolver().Resolve(nodes, edges)

	assert.Equal(t, []string{"root", "tasks"}, ids(got.Nodes))
	assert.Equal(t, []string{"e-root-tasks"}, edgeIDs(got.Edges))
	assert.Equal(t, []string{"a", "b"}, got.HiddenIDs)
}

func TestVisibilityResolver_CategoryRuleReachesUnconnectedThoughts(t *testing.T) {
	nodes := []entities.Node{
		node("root", entities.VariantRoot, "Root", 0, 0),
		collapsed(withCategory(node("cat", entities.VariantCategory, "ideas", 0, 0), "ideas")),
		withCategory(node("loose", entities.VariantThought, "loose", 0, 0), "ideas"),
		node("loose-child", entities.VariantThought, "child", 0, 0),
		withCategory(node("other", entities.VariantThought, "other", 0, 0), "work"),
		// categories only hide thoughts
		withCategory(node("peer", entities.VariantCategory, "ideas", 0, 0), "ideas"),
	}
	edges := []entities.Edge{edge("root", "cat"), edge("loose", "loose-child"), edge("root", "other")}

	hidden := NewVisibilityResolver().HiddenSet(nodes, edges)

	assert.Equal(t, map[string]bool{"loose": true, "loose-child": true}, hidden)
}

func TestVisibilityResolver_CollapsedThoughtHidesOnlyDescendants(t *testing.T) {
	nodes := []entities.Node{
		collapsed(withCategory(node("t", entities.VariantThought, "t", 0, 0), "x")),
		withCategory(node("sibling", entities.VariantThought, "s", 0, 0), "x"),
		node("child", entities.VariantThought, "c", 0, 0),
	}
	edges := []entities.Edge{edge("t", "child")}

	got := NewVisibilityResolver().Resolve(nodes, edges)

	assert.Equal(t, []string{"t", "sibling"}, ids(got.Nodes))
	assert.Empty(t, got.Edges)
}

func TestVisibilityResolver_CycleKeepsCollapsedNodeVisible(t *testing.T) {
	nodes := []entities.Node{
		collapsed(node("a", entities.VariantThought, "a", 0, 0)),
		node("b", entities.VariantThought, "b", 0, 0),
	}
	edges := []entities.Edge{edge("a", "b"), edge("b", "a")}

	got := NewVisibilityResolver().Resolve(nodes, edges)

	assert.Equal(t, []string{"a"}, ids(got.Nodes))
	assert.Empty(t, got.Edges)
}

func TestVisibilityResolver_ExpandRestoresEverything(t *testing.T) {
	nodes := []entities.Node{
		node("root", entities.VariantRoot, "Root", 0, 0),
		withCategory(node("tasks", entities.VariantCategory, "tasks", 0, 0), "tasks"),
		withCategory(node("a", entities.VariantThought, "A", 0, 0), "tasks"),
	}
	edges := []entities.Edge{edge("root", "tasks"), edge("tasks", "a")}

	got := NewVisibilityResolver().Resolve(nodes, edges)

	assert.Equal(t, []string{"root", "tasks", "a"}, ids(got.Nodes))
	assert.Len(t, got.Edges, 2)
	assert.Empty(t, got.HiddenIDs)
}

func TestVisibilityResolver_DerivedFields(t *testing.T) {
	parent := node("p", entities.VariantRoot, "p", 0, 0)
	parent.Data.LayoutMode = entities.LayoutHorizontal
	nodes := []entities.Node{
		parent,
		node("c1", entities.VariantThought, "c1", 0, 0),
		node("c2", entities.VariantThought, "c2", 0, 0),
		node("other", entities.VariantThought, "o", 0, 0),
	}
	edges := []entities.Edge{
		edge("p", "c2"),
		edge("p", "c1"),
		edge("other", "c1"),
		{ID: "dangling", Source: "p", Target: "missing"},
	}

	got := NewVisibilityResolver().Resolve(nodes, edges)

	byID := map[string]entities.Node{}
	for _, n := range got.Nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, []string{"c2", "c1"}, byID["p"].Data.Children)
	assert.Equal(t, entities.LayoutFreeform, byID["p"].Data.ParentLayoutMode)
	assert.Equal(t, entities.LayoutHorizontal, byID["c1"].Data.ParentLayoutMode)
	assert.Equal(t, []string{}, byID["c1"].Data.Children)
	assert.Equal(t, 1, got.DanglingEdges)
	assert.Len(t, got.Edges, 3)

	// input untouched
	assert.Nil(t, nodes[0].Data.Children)
}
