package services

import (
	"testing"

	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"

	"github.com/stretchr/testify/require"
)

func node(id string, variant entities.NodeVariant, label string, x, y float64) entities.Node {
	return entities.Node{
		ID:       id,
		Type:     variant,
		Position: valueobjects.Position{X: x, Y: y},
		Data:     entities.NodeData{Label: label, LayoutMode: entities.LayoutFreeform},
	}
}

func withCategory(n entities.Node, category string) entities.Node {
	n.Data.Category = category
	return n
}

func collapsed(n entities.Node) entities.Node {
	n.Data.IsCollapsed = true
	return n
}

func edge(source, target string) entities.Edge {
	return entities.NewEdge(source, target)
}

func ids(nodes []entities.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func edgeIDs(edges []entities.Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ID)
	}
	return out
}

// buildDocument creates a general document holding nodes and edges
func buildDocument(t *testing.T, title string, nodes []entities.Node, edges []entities.Edge) *aggregates.Document {
	t.Helper()
	doc, err := aggregates.NewDocument("user-1", title, "")
	require.NoError(t, err)
	for _, n := range nodes {
		require.NoError(t, doc.AddNode(n))
	}
	for _, e := range edges {
		require.NoError(t, doc.AddEdge(e))
	}
	doc.PullEvents()
	return doc
}
