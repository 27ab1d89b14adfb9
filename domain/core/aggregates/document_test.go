package aggregates

import (
	"encoding/json"
	"testing"

	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(id string, variant entities.NodeVariant) entities.Node {
	return entities.Node{
		ID:       id,
		Type:     variant,
		Position: valueobjects.Position{X: 1, Y: 2},
		Data:     entities.NodeData{Label: id, LayoutMode: entities.LayoutFreeform},
	}
}

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := NewDocument("user-1", "  Weekend  ", "raw")
	require.NoError(t, err)
	require.NoError(t, doc.AddNode(testNode("root", entities.VariantRoot)))
	require.NoError(t, doc.AddNode(testNode("a", entities.VariantThought)))
	require.NoError(t, doc.AddNode(testNode("b", entities.VariantThought)))
	require.NoError(t, doc.AddEdge(entities.NewEdge("root", "a")))
	require.NoError(t, doc.AddEdge(entities.NewEdge("a", "b")))
	return doc
}

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument("user-1", "  Weekend  ", "raw")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID())
	assert.Equal(t, "Weekend", doc.Title())
	assert.Equal(t, DocumentGeneral, doc.Type())
	assert.Equal(t, 1, doc.Version())
	_, isTopic := doc.TopicOrigin()
	assert.False(t, isTopic)

	evts := doc.PullEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, "entry.created", evts[0].GetEventType())
	assert.Zero(t, doc.PendingEvents())

	_, err = NewDocument(" ", "t", "")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDocument_AddEdgeRequiresBothEndpoints(t *testing.T) {
	doc := newTestDocument(t)

	err := doc.AddEdge(entities.NewEdge("a", "ghost"))
	assert.True(t, pkgerrors.IsValidation(err))

	err = doc.AddEdge(entities.NewEdge("root", "a"))
	assert.True(t, pkgerrors.IsConflict(err))

	assert.Equal(t, 2, doc.EdgeCount())
}

func TestDocument_AddNodeRejectsDuplicates(t *testing.T) {
	doc := newTestDocument(t)

	err := doc.AddNode(testNode("a", entities.VariantThought))
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, 3, doc.NodeCount())
}

func TestDocument_DeleteNodeCascadesEdges(t *testing.T) {
	doc := newTestDocument(t)
	version := doc.Version()

	removed, err := doc.DeleteNode("a")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"e-root-a", "e-a-b"}, removed)
	assert.False(t, doc.HasNode("a"))
	assert.Zero(t, doc.EdgeCount())
	assert.Greater(t, doc.Version(), version)
	require.NoError(t, doc.CheckIntegrity())

	_, err = doc.DeleteNode("a")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDocument_RemoveNodesKeepsIntegrity(t *testing.T) {
	doc := newTestDocument(t)

	n := doc.RemoveNodes(map[string]bool{"b": true, "missing": true})

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"e-root-a"}, edgeIDs(doc.Edges()))
	require.NoError(t, doc.CheckIntegrity())
}

func TestDocument_UpdateNodeDataMerges(t *testing.T) {
	doc := newTestDocument(t)
	label := "renamed"
	collapsed := true

	require.NoError(t, doc.UpdateNodeData("a", entities.NodePatch{Label: &label}))
	require.NoError(t, doc.UpdateNodeData("a", entities.NodePatch{IsCollapsed: &collapsed}))

	n, ok := doc.Node("a")
	require.True(t, ok)
	assert.Equal(t, "renamed", n.Data.Label)
	assert.True(t, n.Data.IsCollapsed)
	assert.Equal(t, entities.LayoutFreeform, n.Data.LayoutMode)

	err := doc.UpdateNodeData("missing", entities.NodePatch{Label: &label})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDocument_NodesAreCopies(t *testing.T) {
	doc := newTestDocument(t)

	nodes := doc.Nodes()
	nodes[0].Data.Label = "changed"

	n, _ := doc.Node("root")
	assert.Equal(t, "root", n.Data.Label)
}

func TestDocument_MoveNode(t *testing.T) {
	doc := newTestDocument(t)

	require.NoError(t, doc.MoveNode("a", valueobjects.Position{X: 10, Y: 20}))
	n, _ := doc.Node("a")
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, n.Position)

	assert.True(t, pkgerrors.IsNotFound(doc.MoveNode("missing", valueobjects.Position{})))
}

func TestDocument_ApplyPositionsIgnoresUnknownIDs(t *testing.T) {
	doc := newTestDocument(t)

	moved := doc.ApplyPositions(map[string]valueobjects.Position{
		"a":       {X: 5, Y: 5},
		"b":       {X: 1, Y: 2},
		"missing": {X: 9, Y: 9},
	})

	assert.Equal(t, 1, moved)
}

func TestFromRecord_PrunesDanglingEdges(t *testing.T) {
	doc := newTestDocument(t)
	rec := doc.ToRecord()
	rec.Edges = append(rec.Edges, entities.Edge{ID: "stale", Source: "a", Target: "gone"})

	loaded, pruned, err := FromRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"stale"}, pruned)
	assert.Equal(t, 2, loaded.EdgeCount())
	require.NoError(t, loaded.CheckIntegrity())
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	doc := newTestDocument(t)
	doc.UpdateEntry(EntryPatch{Categories: &[]string{"travel"}})

	raw, err := json.Marshal(doc.ToRecord())
	require.NoError(t, err)

	var rec DocumentRecord
	require.NoError(t, json.Unmarshal(raw, &rec))
	loaded, pruned, err := FromRecord(rec)
	require.NoError(t, err)

	assert.Empty(t, pruned)
	assert.Equal(t, doc.ID(), loaded.ID())
	assert.Equal(t, doc.Title(), loaded.Title())
	assert.Equal(t, doc.Nodes(), loaded.Nodes())
	assert.Equal(t, doc.Edges(), loaded.Edges())
	assert.Equal(t, []string{"travel"}, loaded.Categories())
	assert.Equal(t, doc.Version(), loaded.Version())
}

func TestTopicDocument_RecordKeepsOrigin(t *testing.T) {
	origin := TopicOrigin{
		ParentBrainDumpID:    "parent",
		OriginNodeID:         "a",
		OriginNodeType:       entities.VariantThought,
		OriginalParentNodeID: "root",
		TopicFocus:           "Plan trip",
	}
	topic, err := NewTopicDocument("user-1", origin, "", []entities.Node{testNode("a", entities.VariantRoot)}, nil)
	require.NoError(t, err)

	assert.Equal(t, DocumentTopicFocused, topic.Type())
	assert.Equal(t, "Plan trip", topic.Title())

	loaded, _, err := FromRecord(topic.ToRecord())
	require.NoError(t, err)
	got, ok := loaded.TopicOrigin()
	require.True(t, ok)
	assert.Equal(t, origin, got)

	_, err = NewTopicDocument("user-1", TopicOrigin{}, "", nil, nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func edgeIDs(edges []entities.Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ID)
	}
	return out
}
