package aggregates

import (
	"strings"
	"time"

	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	"braindump/domain/events"
	pkgerrors "braindump/pkg/errors"
)

// DocumentType distinguishes ordinary brain dumps from extracted topics
type DocumentType string

const (
	DocumentGeneral      DocumentType = "general"
	DocumentTopicFocused DocumentType = "topic-focused"
)

// IsValid reports whether t is a known document type
func (t DocumentType) IsValid() bool {
	return t == DocumentGeneral || t == DocumentTopicFocused
}

// TopicOrigin records where a topic-focused document was cut from
type TopicOrigin struct {
	ParentBrainDumpID    string
	OriginNodeID         string
	OriginNodeType       entities.NodeVariant
	OriginalParentNodeID string
	TopicFocus           string
}

// Document is the aggregate root for one brain dump.
// Node and edge order is significant: layout and visibility walk children
// in edge-array order, so both slices keep insertion order.
type Document struct {
	id         string
	userID     string
	title      string
	rawText    string
	nodes      []entities.Node
	edges      []entities.Edge
	categories []string
	docType    DocumentType
	topic      *TopicOrigin
	createdAt  time.Time
	updatedAt  time.Time
	version    int
	events     []events.DomainEvent
}

// EntryPatch is a partial update of document metadata
type EntryPatch struct {
	Title      *string   `json:"title,omitempty"`
	RawText    *string   `json:"rawText,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
}

// Fields lists the metadata keys the patch touches
func (p EntryPatch) Fields() []string {
	var fields []string
	if p.Categories != nil {
		fields = append(fields, "categories")
	}
	if p.RawText != nil {
		fields = append(fields, "rawText")
	}
	if p.Title != nil {
		fields = append(fields, "title")
	}
	return fields
}

// NewDocument creates an empty general brain dump
func NewDocument(userID, title, rawText string) (*Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.NewValidationError("userID required")
	}

	now := time.Now()
	doc := &Document{
		id:        valueobjects.NewDocumentID(),
		userID:    userID,
		title:     strings.TrimSpace(title),
		rawText:   rawText,
		nodes:     []entities.Node{},
		edges:     []entities.Edge{},
		docType:   DocumentGeneral,
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	doc.addEvent(events.NewEntryCreated(doc.id, userID, doc.title, string(doc.docType), now))
	return doc, nil
}

// NewTopicDocument creates a topic-focused brain dump holding an extracted subtree
func NewTopicDocument(userID string, origin TopicOrigin, rawText string, nodes []entities.Node, edges []entities.Edge) (*Document, error) {
	if origin.ParentBrainDumpID == "" || origin.OriginNodeID == "" {
		return nil, pkgerrors.NewValidationError("topic document requires a parent brain dump and an origin node")
	}

	doc, err := NewDocument(userID, origin.TopicFocus, rawText)
	if err != nil {
		return nil, err
	}
	doc.docType = DocumentTopicFocused
	o := origin
	doc.topic = &o
	doc.events = doc.events[:0]
	doc.addEvent(events.NewEntryCreated(doc.id, userID, doc.title, string(doc.docType), doc.createdAt))

	for _, n := range nodes {
		if err := doc.insertNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := doc.insertEdge(e); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ID returns the document's identifier
func (d *Document) ID() string { return d.id }

// UserID returns the owner's ID
func (d *Document) UserID() string { return d.userID }

// Title returns the document's title
func (d *Document) Title() string { return d.title }

// RawText returns the free text the document was built from
func (d *Document) RawText() string { return d.rawText }

// Type returns whether the document is general or topic-focused
func (d *Document) Type() DocumentType { return d.docType }

// CreatedAt returns when the document was created
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns when the document was last mutated
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// Version increments on every mutation
func (d *Document) Version() int { return d.version }

// Categories returns a copy of the document's category list
func (d *Document) Categories() []string {
	out := make([]string, len(d.categories))
	copy(out, d.categories)
	return out
}

// TopicOrigin returns the extraction metadata of a topic-focused document
func (d *Document) TopicOrigin() (TopicOrigin, bool) {
	if d.topic == nil {
		return TopicOrigin{}, false
	}
	return *d.topic, true
}

// Nodes returns deep copies of the nodes in array order
func (d *Document) Nodes() []entities.Node {
	out := make([]entities.Node, len(d.nodes))
	for i, n := range d.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns a copy of the edges in array order
func (d *Document) Edges() []entities.Edge {
	out := make([]entities.Edge, len(d.edges))
	copy(out, d.edges)
	return out
}

// NodeCount returns the number of nodes
func (d *Document) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges
func (d *Document) EdgeCount() int { return len(d.edges) }

// Node returns a copy of the node with the given id
func (d *Document) Node(id string) (entities.Node, bool) {
	i := d.nodeIndex(id)
	if i < 0 {
		return entities.Node{}, false
	}
	return d.nodes[i].Clone(), true
}

// HasNode reports whether a node with the given id exists
func (d *Document) HasNode(id string) bool {
	return d.nodeIndex(id) >= 0
}

// Edge returns the edge with the given id
func (d *Document) Edge(id string) (entities.Edge, bool) {
	i := d.edgeIndex(id)
	if i < 0 {
		return entities.Edge{}, false
	}
	return d.edges[i], true
}

// IncomingEdges returns the edges targeting nodeID, in edge order
func (d *Document) IncomingEdges(nodeID string) []entities.Edge {
	var out []entities.Edge
	for _, e := range d.edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// OutgoingEdges returns the edges leaving nodeID, in edge order
func (d *Document) OutgoingEdges(nodeID string) []entities.Edge {
	var out []entities.Edge
	for _, e := range d.edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// AddNode appends a node to the document
func (d *Document) AddNode(node entities.Node) error {
	if err := d.insertNode(node); err != nil {
		return err
	}
	d.touch()
	d.addEvent(events.NewNodeAdded(d.id, node.ID, string(node.Type), d.version, d.updatedAt))
	return nil
}

// UpdateNodeData shallow-merges patch into the node's data
func (d *Document) UpdateNodeData(id string, patch entities.NodePatch) error {
	i := d.nodeIndex(id)
	if i < 0 {
		return pkgerrors.NewNotFoundError("node " + id)
	}
	if patch.IsEmpty() {
		return nil
	}

	d.nodes[i].Data = patch.Apply(d.nodes[i].Data).WithoutDerived()
	d.touch()
	d.addEvent(events.NewNodeUpdated(d.id, id, patch.Fields(), d.version, d.updatedAt))
	return nil
}

// MoveNode sets a node's position
func (d *Document) MoveNode(id string, position valueobjects.Position) error {
	i := d.nodeIndex(id)
	if i < 0 {
		return pkgerrors.NewNotFoundError("node " + id)
	}
	if !position.IsValid() {
		return pkgerrors.NewValidationError("invalid position")
	}
	if d.nodes[i].Position.Equals(position) {
		return nil
	}

	d.nodes[i].Position = position
	d.touch()
	d.addEvent(events.NewNodeUpdated(d.id, id, []string{"position"}, d.version, d.updatedAt))
	return nil
}

// ReplaceNode overwrites a node's variant, position and data in place,
// keeping its slot in the node array
func (d *Document) ReplaceNode(node entities.Node) error {
	i := d.nodeIndex(node.ID)
	if i < 0 {
		return pkgerrors.NewNotFoundError("node " + node.ID)
	}
	if err := node.Validate(); err != nil {
		return err
	}

	node = node.Clone()
	node.Data = node.Data.WithoutDerived()
	d.nodes[i] = node
	d.touch()
	d.addEvent(events.NewNodeUpdated(d.id, node.ID, []string{"data", "position", "type"}, d.version, d.updatedAt))
	return nil
}

// ApplyPositions moves every node listed in positions and returns how many
// actually changed. Unknown ids are ignored.
func (d *Document) ApplyPositions(positions map[string]valueobjects.Position) int {
	moved := 0
	for i := range d.nodes {
		p, ok := positions[d.nodes[i].ID]
		if !ok || !p.IsValid() || d.nodes[i].Position.Equals(p) {
			continue
		}
		d.nodes[i].Position = p
		moved++
	}
	if moved > 0 {
		d.touch()
		d.addEvent(events.NewEntryUpdated(d.id, []string{"positions"}, d.version, d.updatedAt))
	}
	return moved
}

// DeleteNode removes a node together with every incident edge.
// The returned ids are the edges that went with it.
func (d *Document) DeleteNode(id string) ([]string, error) {
	i := d.nodeIndex(id)
	if i < 0 {
		return nil, pkgerrors.NewNotFoundError("node " + id)
	}

	removed := d.removeEdgesWhere(func(e entities.Edge) bool { return e.Touches(id) })
	d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)

	d.touch()
	d.addEvent(events.NewNodeDeleted(d.id, id, removed, d.version, d.updatedAt))
	return removed, nil
}

// RemoveNodes drops a set of nodes and their incident edges in one step
func (d *Document) RemoveNodes(ids map[string]bool) int {
	if len(ids) == 0 {
		return 0
	}

	d.removeEdgesWhere(func(e entities.Edge) bool { return ids[e.Source] || ids[e.Target] })

	kept := d.nodes[:0]
	removed := 0
	for _, n := range d.nodes {
		if ids[n.ID] {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	d.nodes = kept

	if removed > 0 {
		d.touch()
	}
	return removed
}

// AddEdge connects two nodes already present in the document
func (d *Document) AddEdge(edge entities.Edge) error {
	if err := d.insertEdge(edge); err != nil {
		return err
	}
	d.touch()
	d.addEvent(events.NewEdgeAdded(d.id, edge.ID, edge.Source, edge.Target, d.version, d.updatedAt))
	return nil
}

// DeleteEdge removes an edge
func (d *Document) DeleteEdge(id string) error {
	i := d.edgeIndex(id)
	if i < 0 {
		return pkgerrors.NewNotFoundError("edge " + id)
	}
	d.edges = append(d.edges[:i], d.edges[i+1:]...)

	d.touch()
	d.addEvent(events.NewEdgeDeleted(d.id, id, d.version, d.updatedAt))
	return nil
}

// HasEdgeBetween reports whether an edge source->target exists
func (d *Document) HasEdgeBetween(source, target string) bool {
	for _, e := range d.edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// UpdateEntry applies a metadata patch
func (d *Document) UpdateEntry(patch EntryPatch) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return
	}
	if patch.Title != nil {
		d.title = strings.TrimSpace(*patch.Title)
	}
	if patch.RawText != nil {
		d.rawText = *patch.RawText
	}
	if patch.Categories != nil {
		d.categories = append([]string(nil), (*patch.Categories)...)
	}

	d.touch()
	d.addEvent(events.NewEntryUpdated(d.id, fields, d.version, d.updatedAt))
}

// PruneDanglingEdges drops every edge whose source or target is missing and
// returns the ids of the dropped edges
func (d *Document) PruneDanglingEdges() []string {
	present := make(map[string]bool, len(d.nodes))
	for _, n := range d.nodes {
		present[n.ID] = true
	}
	return d.removeEdgesWhere(func(e entities.Edge) bool {
		return !present[e.Source] || !present[e.Target]
	})
}

// CheckIntegrity returns an error when an edge references a missing node
func (d *Document) CheckIntegrity() error {
	present := make(map[string]bool, len(d.nodes))
	for _, n := range d.nodes {
		present[n.ID] = true
	}
	for _, e := range d.edges {
		if !present[e.Source] || !present[e.Target] {
			return pkgerrors.NewValidationError("edge " + e.ID + " references a missing node")
		}
	}
	return nil
}

// Clone returns an independent deep copy, pending events included
func (d *Document) Clone() *Document {
	c := *d
	c.nodes = d.Nodes()
	c.edges = d.Edges()
	c.categories = d.Categories()
	if d.topic != nil {
		t := *d.topic
		c.topic = &t
	}
	c.events = make([]events.DomainEvent, len(d.events))
	copy(c.events, d.events)
	return &c
}

// RecordEvent appends an event raised by a service acting on the document
func (d *Document) RecordEvent(event events.DomainEvent) {
	d.addEvent(event)
}

// PullEvents returns the uncommitted events and clears them
func (d *Document) PullEvents() []events.DomainEvent {
	out := d.events
	d.events = []events.DomainEvent{}
	return out
}

// PendingEvents returns the number of uncommitted events
func (d *Document) PendingEvents() int { return len(d.events) }

// Private helper methods

func (d *Document) insertNode(node entities.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	if d.nodeIndex(node.ID) >= 0 {
		return pkgerrors.NewConflictError("node " + node.ID + " already exists")
	}
	node = node.Clone()
	node.Data = node.Data.WithoutDerived()
	d.nodes = append(d.nodes, node)
	return nil
}

func (d *Document) insertEdge(edge entities.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	if d.edgeIndex(edge.ID) >= 0 {
		return pkgerrors.NewConflictError("edge " + edge.ID + " already exists")
	}
	if d.nodeIndex(edge.Source) < 0 || d.nodeIndex(edge.Target) < 0 {
		return pkgerrors.NewValidationError("edge " + edge.ID + " references a missing node").
			WithDetails(map[string]interface{}{"source": edge.Source, "target": edge.Target})
	}
	d.edges = append(d.edges, edge)
	return nil
}

func (d *Document) removeEdgesWhere(match func(entities.Edge) bool) []string {
	var removed []string
	kept := d.edges[:0]
	for _, e := range d.edges {
		if match(e) {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	d.edges = kept
	return removed
}

func (d *Document) nodeIndex(id string) int {
	for i := range d.nodes {
		if d.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) edgeIndex(id string) int {
	for i := range d.edges {
		if d.edges[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) touch() {
	d.updatedAt = time.Now()
	d.version++
}

func (d *Document) addEvent(event events.DomainEvent) {
	d.events = append(d.events, event)
}
