package events

import (
	"time"
)

// SourceBrainDump identifies this service as the origin of published events
const SourceBrainDump = "braindump.graph"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(documentID, eventType string, version int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: documentID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// Node Events

// NodeAdded is raised when a node is placed in a brain dump
type NodeAdded struct {
	BaseEvent
	NodeID  string `json:"node_id"`
	Variant string `json:"variant"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(documentID, nodeID, variant string, version int, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(documentID, "node.added", version, timestamp),
		NodeID:    nodeID,
		Variant:   variant,
	}
}

// NodeUpdated is raised when node data or position changes
type NodeUpdated struct {
	BaseEvent
	NodeID string   `json:"node_id"`
	Fields []string `json:"fields"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(documentID, nodeID string, fields []string, version int, timestamp time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: newBase(documentID, "node.updated", version, timestamp),
		NodeID:    nodeID,
		Fields:    fields,
	}
}

// NodeDeleted is raised when a node and its incident edges are removed
type NodeDeleted struct {
	BaseEvent
	NodeID         string   `json:"node_id"`
	RemovedEdgeIDs []string `json:"removed_edge_ids"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(documentID, nodeID string, removedEdgeIDs []string, version int, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent:      newBase(documentID, "node.deleted", version, timestamp),
		NodeID:         nodeID,
		RemovedEdgeIDs: removedEdgeIDs,
	}
}

// Edge Events

// EdgeAdded is raised when two nodes are connected
type EdgeAdded struct {
	BaseEvent
	EdgeID   string `json:"edge_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// NewEdgeAdded creates an EdgeAdded event
func NewEdgeAdded(documentID, edgeID, sourceID, targetID string, version int, timestamp time.Time) EdgeAdded {
	return EdgeAdded{
		BaseEvent: newBase(documentID, "edge.added", version, timestamp),
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// EdgeDeleted is raised when an edge is removed on its own
type EdgeDeleted struct {
	BaseEvent
	EdgeID string `json:"edge_id"`
}

// NewEdgeDeleted creates an EdgeDeleted event
func NewEdgeDeleted(documentID, edgeID string, version int, timestamp time.Time) EdgeDeleted {
	return EdgeDeleted{
		BaseEvent: newBase(documentID, "edge.deleted", version, timestamp),
		EdgeID:    edgeID,
	}
}

// Entry Events

// EntryCreated is raised when a brain dump is created
type EntryCreated struct {
	BaseEvent
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
}

// NewEntryCreated creates an EntryCreated event
func NewEntryCreated(documentID, userID, title, docType string, timestamp time.Time) EntryCreated {
	return EntryCreated{
		BaseEvent: newBase(documentID, "entry.created", 1, timestamp),
		UserID:    userID,
		Title:     title,
		Type:      docType,
	}
}

// EntryUpdated is raised when brain dump metadata changes
type EntryUpdated struct {
	BaseEvent
	Fields []string `json:"fields"`
}

// NewEntryUpdated creates an EntryUpdated event
func NewEntryUpdated(documentID string, fields []string, version int, timestamp time.Time) EntryUpdated {
	return EntryUpdated{
		BaseEvent: newBase(documentID, "entry.updated", version, timestamp),
		Fields:    fields,
	}
}

// EntryDeleted is raised when a brain dump is removed
type EntryDeleted struct {
	BaseEvent
}

// NewEntryDeleted creates an EntryDeleted event
func NewEntryDeleted(documentID string, timestamp time.Time) EntryDeleted {
	return EntryDeleted{
		BaseEvent: newBase(documentID, "entry.deleted", 0, timestamp),
	}
}

// Topic Events

// TopicExtracted is raised on the source brain dump after a subtree moved
// into its own topic brain dump
type TopicExtracted struct {
	BaseEvent
	OriginNodeID string `json:"origin_node_id"`
	TopicID      string `json:"topic_id"`
	MovedNodes   int    `json:"moved_nodes"`
}

// NewTopicExtracted creates a TopicExtracted event
func NewTopicExtracted(documentID, originNodeID, topicID string, movedNodes, version int, timestamp time.Time) TopicExtracted {
	return TopicExtracted{
		BaseEvent:    newBase(documentID, "topic.extracted", version, timestamp),
		OriginNodeID: originNodeID,
		TopicID:      topicID,
		MovedNodes:   movedNodes,
	}
}

// TopicDissolved is raised on the source brain dump after a topic was merged back
type TopicDissolved struct {
	BaseEvent
	OriginNodeID string `json:"origin_node_id"`
	TopicID      string `json:"topic_id"`
	MergedNodes  int    `json:"merged_nodes"`
}

// NewTopicDissolved creates a TopicDissolved event
func NewTopicDissolved(documentID, originNodeID, topicID string, mergedNodes, version int, timestamp time.Time) TopicDissolved {
	return TopicDissolved{
		BaseEvent:    newBase(documentID, "topic.dissolved", version, timestamp),
		OriginNodeID: originNodeID,
		TopicID:      topicID,
		MergedNodes:  mergedNodes,
	}
}
