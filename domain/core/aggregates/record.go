package aggregates

import (
	"time"

	"braindump/domain/core/entities"
	"braindump/domain/events"
	pkgerrors "braindump/pkg/errors"
)

// DocumentRecord is the persisted JSON shape of a brain dump
type DocumentRecord struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"userId"`
	Title                string               `json:"title"`
	RawText              string               `json:"rawText"`
	Nodes                []entities.Node      `json:"nodes"`
	Edges                []entities.Edge      `json:"edges"`
	Categories           []string             `json:"categories"`
	Type                 DocumentType         `json:"type"`
	ParentBrainDumpID    string               `json:"parentBrainDumpId,omitempty"`
	OriginNodeID         string               `json:"originNodeId,omitempty"`
	OriginNodeType       entities.NodeVariant `json:"originNodeType,omitempty"`
	OriginalParentNodeID string               `json:"originalParentNodeId,omitempty"`
	TopicFocus           string               `json:"topicFocus,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	Version              int                  `json:"version"`
}

// ToRecord snapshots the document into its persisted form.
// Derived node fields are stripped.
func (d *Document) ToRecord() DocumentRecord {
	nodes := d.Nodes()
	for i := range nodes {
		nodes[i].Data = nodes[i].Data.WithoutDerived()
	}

	rec := DocumentRecord{
		ID:         d.id,
		UserID:     d.userID,
		Title:      d.title,
		RawText:    d.rawText,
		Nodes:      nodes,
		Edges:      d.Edges(),
		Categories: d.Categories(),
		Type:       d.docType,
		CreatedAt:  d.createdAt,
		UpdatedAt:  d.updatedAt,
		Version:    d.version,
	}
	if d.topic != nil {
		rec.ParentBrainDumpID = d.topic.ParentBrainDumpID
		rec.OriginNodeID = d.topic.OriginNodeID
		rec.OriginNodeType = d.topic.OriginNodeType
		rec.OriginalParentNodeID = d.topic.OriginalParentNodeID
		rec.TopicFocus = d.topic.TopicFocus
	}
	return rec
}

// FromRecord rebuilds a document from storage. Edges pointing at missing
// nodes are pruned and their ids returned so the caller can log them.
func FromRecord(rec DocumentRecord) (*Document, []string, error) {
	if rec.ID == "" {
		return nil, nil, pkgerrors.NewValidationError("document record has no id")
	}

	docType := rec.Type
	if docType == "" {
		docType = DocumentGeneral
	}
	if !docType.IsValid() {
		return nil, nil, pkgerrors.NewValidationError("unknown document type " + string(rec.Type))
	}

	doc := &Document{
		id:         rec.ID,
		userID:     rec.UserID,
		title:      rec.Title,
		rawText:    rec.RawText,
		nodes:      make([]entities.Node, 0, len(rec.Nodes)),
		edges:      make([]entities.Edge, 0, len(rec.Edges)),
		categories: append([]string(nil), rec.Categories...),
		docType:    docType,
		createdAt:  rec.CreatedAt,
		updatedAt:  rec.UpdatedAt,
		version:    rec.Version,
		events:     []events.DomainEvent{},
	}
	if doc.version == 0 {
		doc.version = 1
	}
	if docType == DocumentTopicFocused {
		doc.topic = &TopicOrigin{
			ParentBrainDumpID:    rec.ParentBrainDumpID,
			OriginNodeID:         rec.OriginNodeID,
			OriginNodeType:       rec.OriginNodeType,
			OriginalParentNodeID: rec.OriginalParentNodeID,
			TopicFocus:           rec.TopicFocus,
		}
	}

	for _, n := range rec.Nodes {
		if err := doc.insertNode(n); err != nil {
			return nil, nil, pkgerrors.Wrapf(err, "document %s", rec.ID)
		}
	}

	doc.edges = append(doc.edges, rec.Edges...)
	pruned := doc.PruneDanglingEdges()
	return doc, pruned, nil
}
