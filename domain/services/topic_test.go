package services

import (
	"testing"

	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripDocument(t *testing.T) *aggregates.Document {
	return buildDocument(t, "Weekend",
		[]entities.Node{
			node("root", entities.VariantRoot, "Weekend", 0, 0),
			node("plan", entities.VariantThought, "Plan trip", 100, 50),
			node("flight", entities.VariantThought, "Book flight", 350, 0),
			withCategory(node("hotel", entities.VariantThought, "Book hotel", 350, 100), "travel"),
			node("other", entities.VariantThought, "Groceries", 100, 200),
		},
		[]entities.Edge{
			edge("root", "plan"),
			edge("plan", "flight"),
			edge("plan", "hotel"),
			edge("root", "other"),
		})
}

// extract applies an extraction plan the same way the topic service does
func extract(t *testing.T, planner *TopicPlanner, source *aggregates.Document, originID string) *aggregates.Document {
	t.Helper()
	plan, err := planner.PlanExtraction(source, originID)
	require.NoError(t, err)

	topic, err := aggregates.NewTopicDocument(source.UserID(), plan.TopicOrigin, "x", plan.TopicNodes, plan.TopicEdges)
	require.NoError(t, err)

	source.RemoveNodes(plan.MovedSet())
	require.NoError(t, source.ReplaceNode(plan.ReferenceNode(topic.ID())))
	return topic
}

func dissolve(t *testing.T, plan *DissolutionPlan, source *aggregates.Document) {
	t.Helper()
	require.NoError(t, source.ReplaceNode(plan.RestoredOrigin))
	for _, n := range plan.Nodes {
		require.NoError(t, source.AddNode(n))
	}
	for _, e := range plan.Edges {
		require.NoError(t, source.AddEdge(e))
	}
	if plan.ParentEdge != nil {
		require.NoError(t, source.AddEdge(*plan.ParentEdge))
	}
}

func TestPlanExtraction_PlanTrip(t *testing.T) {
	source := tripDocument(t)
	planner := NewTopicPlanner(nil)

	plan, err := planner.PlanExtraction(source, "plan")
	require.NoError(t, err)

	assert.Equal(t, []string{"plan", "flight", "hotel"}, ids(plan.TopicNodes))
	assert.Equal(t, []string{"flight", "hotel"}, plan.MovedIDs)
	assert.Equal(t, []string{"e-plan-flight", "e-plan-hotel"}, edgeIDs(plan.TopicEdges))

	assert.Equal(t, entities.VariantRoot, plan.TopicNodes[0].Type)
	assert.Equal(t, "Plan trip", plan.TopicNodes[0].Data.Label)
	assert.Equal(t, valueobjects.Position{X: 400, Y: 300}, plan.TopicNodes[0].Position)
	assert.Equal(t, valueobjects.Position{X: 650, Y: 250}, plan.TopicNodes[1].Position)

	assert.Equal(t, aggregates.TopicOrigin{
		ParentBrainDumpID:    source.ID(),
		OriginNodeID:         "plan",
		OriginNodeType:       entities.VariantThought,
		OriginalParentNodeID: "root",
		TopicFocus:           "Plan trip",
	}, plan.TopicOrigin)

	// planning leaves the source alone
	assert.Equal(t, 5, source.NodeCount())
	assert.Equal(t, 4, source.EdgeCount())
}

func TestExtract_LeavesReferenceBehind(t *testing.T) {
	source := tripDocument(t)

	topic := extract(t, NewTopicPlanner(nil), source, "plan")

	assert.Equal(t, 3, topic.NodeCount())
	assert.Equal(t, aggregates.DocumentTopicFocused, topic.Type())
	assert.Equal(t, "Plan trip", topic.Title())

	ref, ok := source.Node("plan")
	require.True(t, ok)
	assert.True(t, ref.Data.HasTopicBrainDump)
	assert.Equal(t, topic.ID(), ref.Data.TopicBrainDumpID)
	assert.True(t, ref.Data.IsGhost)
	assert.Equal(t, "dashed", ref.Data.Style["borderStyle"])

	graph := NewVisibilityResolver().Resolve(source.Nodes(), source.Edges())
	for _, n := range graph.Nodes {
		if n.ID == "plan" {
			assert.Equal(t, []string{}, n.Data.Children)
		}
	}
	assert.Equal(t, []string{"root", "plan", "other"}, ids(source.Nodes()))
	require.NoError(t, source.CheckIntegrity())
}

func TestPlanExtraction_Errors(t *testing.T) {
	source := tripDocument(t)
	planner := NewTopicPlanner(nil)

	_, err := planner.PlanExtraction(source, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	extract(t, planner, source, "plan")
	_, err = planner.PlanExtraction(source, "plan")
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestExtractDissolve_RoundTrip(t *testing.T) {
	source := tripDocument(t)
	before := source.Nodes()
	planner := NewTopicPlanner(nil)

	topic := extract(t, planner, source, "plan")
	plan, err := planner.PlanDissolution(source, topic)
	require.NoError(t, err)
	assert.Nil(t, plan.ParentEdge)
	assert.Empty(t, plan.MissingParentID)
	assert.Zero(t, plan.DroppedEdges)

	dissolve(t, plan, source)

	after := map[string]entities.Node{}
	for _, n := range source.Nodes() {
		after[n.ID] = n
	}
	require.Len(t, after, len(before))
	for _, want := range before {
		got, ok := after[want.ID]
		require.True(t, ok, want.ID)
		assert.Equal(t, want.Type, got.Type, want.ID)
		assert.Equal(t, want.Data.Label, got.Data.Label, want.ID)
		assert.Equal(t, want.Data.Category, got.Data.Category, want.ID)
		assert.Equal(t, want.Position, got.Position, want.ID)
		assert.False(t, got.Data.HasTopicBrainDump, want.ID)
		assert.False(t, got.Data.IsGhost, want.ID)
	}
	assert.ElementsMatch(t, []string{"e-root-plan", "e-root-other", "e-plan-flight", "e-plan-hotel"}, edgeIDs(source.Edges()))
	require.NoError(t, source.CheckIntegrity())
}

func TestPlanDissolution_RestoresMissingParentEdge(t *testing.T) {
	source := tripDocument(t)
	planner := NewTopicPlanner(nil)
	topic := extract(t, planner, source, "plan")
	require.NoError(t, source.DeleteEdge("e-root-plan"))

	plan, err := planner.PlanDissolution(source, topic)
	require.NoError(t, err)

	require.NotNil(t, plan.ParentEdge)
	assert.Equal(t, "e-root-plan", plan.ParentEdge.ID)
}

func TestPlanDissolution_ParentGone(t *testing.T) {
	source := tripDocument(t)
	planner := NewTopicPlanner(nil)
	topic := extract(t, planner, source, "plan")
	_, err := source.DeleteNode("root")
	require.NoError(t, err)

	plan, err := planner.PlanDissolution(source, topic)
	require.NoError(t, err)

	assert.Nil(t, plan.ParentEdge)
	assert.Equal(t, "root", plan.MissingParentID)
}

func TestPlanDissolution_CollisionFailsClosed(t *testing.T) {
	source := tripDocument(t)
	planner := NewTopicPlanner(nil)
	topic := extract(t, planner, source, "plan")
	require.NoError(t, source.AddNode(node("flight", entities.VariantThought, "duplicate", 0, 0)))

	_, err := planner.PlanDissolution(source, topic)

	require.True(t, pkgerrors.IsStructuralConflict(err))
	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"flight"}, appErr.Details["ids"])
}

func TestPlanDissolution_RejectsForeignTopic(t *testing.T) {
	source := tripDocument(t)
	other := tripDocument(t)
	planner := NewTopicPlanner(nil)
	topic := extract(t, planner, source, "plan")

	_, err := planner.PlanDissolution(other, topic)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = planner.PlanDissolution(source, other)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPlanDissolution_NestedTopicAfterOuterDissolved(t *testing.T) {
	source := tripDocument(t)
	planner := NewTopicPlanner(nil)

	outer := extract(t, planner, source, "plan")
	inner := extract(t, planner, outer, "flight")

	plan, err := planner.PlanDissolution(source, outer)
	require.NoError(t, err)
	dissolve(t, plan, source)

	ref, ok := source.Node("flight")
	require.True(t, ok)
	assert.Equal(t, inner.ID(), ref.Data.TopicBrainDumpID)
	meta, _ := inner.TopicOrigin()
	assert.Equal(t, outer.ID(), meta.ParentBrainDumpID)

	plan, err = planner.PlanDissolution(source, inner)
	require.NoError(t, err)
	dissolve(t, plan, source)

	flight, ok := source.Node("flight")
	require.True(t, ok)
	assert.Equal(t, entities.VariantThought, flight.Type)
	assert.False(t, flight.Data.HasTopicBrainDump)
	assert.False(t, flight.Data.IsGhost)
	assert.Len(t, source.Nodes(), 5)
	require.NoError(t, source.CheckIntegrity())
}
