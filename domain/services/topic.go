package services

import (
	"sort"

	"braindump/domain/config"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"
)

// ExtractionPlan describes how a subtree moves out into a topic brain dump.
// Building a plan never mutates either document.
type ExtractionPlan struct {
	Origin entities.Node

	// SubtreeIDs holds the origin and every node reachable from it
	SubtreeIDs map[string]bool

	// MovedIDs is SubtreeIDs without the origin, in node-array order
	MovedIDs []string

	// TopicNodes are translated copies; the origin copy is retyped to Root
	TopicNodes []entities.Node
	TopicEdges []entities.Edge

	TopicOrigin aggregates.TopicOrigin
}

// DissolutionPlan describes how a topic brain dump merges back into its source
type DissolutionPlan struct {
	Nodes []entities.Node
	Edges []entities.Edge

	// RestoredOrigin is the origin node with its pre-extraction variant
	RestoredOrigin entities.Node

	// ParentEdge re-links the original parent, nil when nothing to restore
	ParentEdge *entities.Edge

	// MissingParentID is set when the original parent no longer exists
	MissingParentID string

	// DroppedEdges counts topic edges left out because an endpoint was missing
	DroppedEdges int
}

// TopicPlanner computes split and merge plans between two documents
type TopicPlanner struct {
	canonicalOrigin valueobjects.Position
}

// NewTopicPlanner creates a new topic planner
func NewTopicPlanner(cfg *config.DomainConfig) *TopicPlanner {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &TopicPlanner{
		canonicalOrigin: valueobjects.Position{X: cfg.CanonicalOriginX, Y: cfg.CanonicalOriginY},
	}
}

// PlanExtraction gathers the subtree under originID and prepares the topic
// document content
func (p *TopicPlanner) PlanExtraction(source *aggregates.Document, originID string) (*ExtractionPlan, error) {
	origin, ok := source.Node(originID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node " + originID)
	}
	if origin.Data.HasTopicBrainDump {
		return nil, pkgerrors.NewConflictError("node " + originID + " already has a topic brain dump").
			WithDetails(map[string]interface{}{"topicBrainDumpId": origin.Data.TopicBrainDumpID})
	}

	nodes := source.Nodes()
	edges := source.Edges()
	g := newAdjacency(nodes, edges)

	subtree := map[string]bool{originID: true}
	for _, id := range g.orderedDescendants(originID) {
		subtree[id] = true
	}

	originalParent := ""
	if incoming := source.IncomingEdges(originID); len(incoming) > 0 {
		originalParent = incoming[0].Source
	}

	delta := p.canonicalOrigin.Sub(origin.Position)

	plan := &ExtractionPlan{
		Origin:     origin,
		SubtreeIDs: subtree,
		TopicOrigin: aggregates.TopicOrigin{
			ParentBrainDumpID:    source.ID(),
			OriginNodeID:         originID,
			OriginNodeType:       origin.Type,
			OriginalParentNodeID: originalParent,
			TopicFocus:           origin.Data.Label,
		},
	}

	for _, n := range nodes {
		if !subtree[n.ID] {
			continue
		}
		moved := n.WithPosition(n.Position.Translate(delta))
		moved.Data = moved.Data.WithoutDerived()
		if n.ID == originID {
			moved.Type = entities.VariantRoot
			moved.Data.IsCollapsed = false
		} else {
			plan.MovedIDs = append(plan.MovedIDs, n.ID)
		}
		plan.TopicNodes = append(plan.TopicNodes, moved)
	}

	for _, e := range edges {
		if subtree[e.Source] && subtree[e.Target] {
			plan.TopicEdges = append(plan.TopicEdges, e)
		}
	}

	return plan, nil
}

// ReferenceNode returns the origin node as it stays behind in the source
// document: a dashed placeholder pointing at the topic brain dump
func (p *ExtractionPlan) ReferenceNode(topicID string) entities.Node {
	ref := p.Origin.Clone()
	ref.Data = ref.Data.WithoutDerived()
	ref.Data.HasTopicBrainDump = true
	ref.Data.TopicBrainDumpID = topicID
	ref.Data.IsGhost = true
	ref.Data.Style = copyStyle(entities.TopicReferenceStyle)
	ref.Data.Children = []string{}
	return ref
}

// MovedSet returns the ids leaving the source document
func (p *ExtractionPlan) MovedSet() map[string]bool {
	out := make(map[string]bool, len(p.MovedIDs))
	for _, id := range p.MovedIDs {
		out[id] = true
	}
	return out
}

// PlanDissolution prepares merging topic back into source. Node or edge ids
// that already exist in source make the plan fail with a structural conflict
// and nothing is applied.
func (p *TopicPlanner) PlanDissolution(source, topic *aggregates.Document) (*DissolutionPlan, error) {
	meta, ok := topic.TopicOrigin()
	if !ok {
		return nil, pkgerrors.NewValidationError("brain dump " + topic.ID() + " is not topic-focused")
	}

	origin, ok := source.Node(meta.OriginNodeID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("origin node " + meta.OriginNodeID)
	}
	ref := origin.Data.TopicBrainDumpID
	if ref != "" && ref != topic.ID() {
		return nil, pkgerrors.NewValidationError("origin node " + origin.ID + " references topic " + ref)
	}
	// A topic extracted from another topic keeps naming that topic as its
	// parent after the outer one is dissolved; the origin's reference is
	// what ties it to source.
	if ref == "" && meta.ParentBrainDumpID != "" && meta.ParentBrainDumpID != source.ID() {
		return nil, pkgerrors.NewValidationError("topic " + topic.ID() + " was not extracted from " + source.ID())
	}

	topicNodes := topic.Nodes()
	rootID := syntheticRootID(topicNodes, meta.OriginNodeID)

	var collisions []string
	for _, n := range topicNodes {
		if n.ID != rootID && source.HasNode(n.ID) {
			collisions = append(collisions, n.ID)
		}
	}

	delta := origin.Position.Sub(p.canonicalOrigin)
	plan := &DissolutionPlan{}

	taken := map[string]bool{meta.OriginNodeID: true}
	for _, n := range topicNodes {
		if n.ID == rootID {
			continue
		}
		moved := n.WithPosition(n.Position.Translate(delta))
		moved.Data = moved.Data.WithoutDerived()
		plan.Nodes = append(plan.Nodes, moved)
		taken[n.ID] = true
	}

	for _, e := range topic.Edges() {
		if e.Source == rootID {
			e.Source = meta.OriginNodeID
		}
		if e.Target == rootID {
			e.Target = meta.OriginNodeID
		}
		if !taken[e.Source] || !taken[e.Target] {
			plan.DroppedEdges++
			continue
		}
		if e.ID == "" || e.ID == valueobjects.EdgeIDFor(rootID, e.Target) {
			e.ID = valueobjects.EdgeIDFor(e.Source, e.Target)
		}
		if _, exists := source.Edge(e.ID); exists {
			collisions = append(collisions, e.ID)
		}
		plan.Edges = append(plan.Edges, e)
	}

	if len(collisions) > 0 {
		sort.Strings(collisions)
		return nil, pkgerrors.NewStructuralConflictError(
			"topic "+topic.ID()+" shares ids with brain dump "+source.ID(), collisions)
	}

	restored := origin.Clone()
	restored.Data = restored.Data.WithoutDerived()
	if meta.OriginNodeType.IsValid() {
		restored.Type = meta.OriginNodeType
	}
	restored.Data.HasTopicBrainDump = false
	restored.Data.TopicBrainDumpID = ""
	restored.Data.IsGhost = false
	restored.Data.Style = nil
	plan.RestoredOrigin = restored

	if parentID := meta.OriginalParentNodeID; parentID != "" {
		switch {
		case !source.HasNode(parentID):
			plan.MissingParentID = parentID
		case !source.HasEdgeBetween(parentID, meta.OriginNodeID):
			edge := entities.NewEdge(parentID, meta.OriginNodeID)
			plan.ParentEdge = &edge
		}
	}

	return plan, nil
}

// syntheticRootID finds the topic's stand-in for the origin node: the node
// that kept the origin's id, else the first Root-variant node
func syntheticRootID(nodes []entities.Node, originID string) string {
	for _, n := range nodes {
		if n.ID == originID {
			return n.ID
		}
	}
	for _, n := range nodes {
		if n.Type == entities.VariantRoot {
			return n.ID
		}
	}
	return originID
}
