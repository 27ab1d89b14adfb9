package ports

import (
	"context"
	"time"

	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
)

// DocumentStorage is the contract every storage backend fulfils.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DocumentStorage interface {
	// LoadDocument returns the stored record or a NotFound error
	LoadDocument(ctx context.Context, id string) (*aggregates.DocumentRecord, error)

	// SaveDocument applies a partial update to an existing document
	SaveDocument(ctx context.Context, id string, patch DocumentPatch) error

	// CreateDocument stores a new document and returns what was stored
	CreateDocument(ctx context.Context, record aggregates.DocumentRecord) (*aggregates.DocumentRecord, error)

	// DeleteDocument removes a document; deleting a missing id is not an error
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns the summaries of a user's documents, newest first
	ListDocuments(ctx context.Context, userID string) ([]DocumentSummary, error)
}

// DocumentPatch is a partial document update. Nil fields are left as stored.
type DocumentPatch struct {
	Title      *string        `json:"title,omitempty"`
	RawText    *string        `json:"rawText,omitempty"`
	Categories *[]string      `json:"categories,omitempty"`
	Graph      *GraphSnapshot `json:"graph,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Version    int            `json:"version"`
}

// GraphSnapshot carries the full node and edge arrays of a document
type GraphSnapshot struct {
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// PatchFromRecord builds a patch that overwrites every mutable field
func PatchFromRecord(rec aggregates.DocumentRecord) DocumentPatch {
	title := rec.Title
	rawText := rec.RawText
	categories := append([]string(nil), rec.Categories...)
	return DocumentPatch{
		Title:      &title,
		RawText:    &rawText,
		Categories: &categories,
		Graph:      &GraphSnapshot{Nodes: rec.Nodes, Edges: rec.Edges},
		UpdatedAt:  rec.UpdatedAt,
		Version:    rec.Version,
	}
}

// Apply merges the patch into a stored record
func (p DocumentPatch) Apply(rec aggregates.DocumentRecord) aggregates.DocumentRecord {
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.RawText != nil {
		rec.RawText = *p.RawText
	}
	if p.Categories != nil {
		rec.Categories = append([]string(nil), (*p.Categories)...)
	}
	if p.Graph != nil {
		rec.Nodes = p.Graph.Nodes
		rec.Edges = p.Graph.Edges
	}
	if !p.UpdatedAt.IsZero() {
		rec.UpdatedAt = p.UpdatedAt
	}
	if p.Version > 0 {
		rec.Version = p.Version
	}
	return rec
}

// DocumentSummary is the listing view of a document
type DocumentSummary struct {
	ID                string                  `json:"id"`
	UserID            string                  `json:"userId"`
	Title             string                  `json:"title"`
	Type              aggregates.DocumentType `json:"type"`
	ParentBrainDumpID string                  `json:"parentBrainDumpId,omitempty"`
	NodeCount         int                     `json:"nodeCount"`
	EdgeCount         int                     `json:"edgeCount"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// SummaryOf builds the listing view of a record
func SummaryOf(rec aggregates.DocumentRecord) DocumentSummary {
	return DocumentSummary{
		ID:                rec.ID,
		UserID:            rec.UserID,
		Title:             rec.Title,
		Type:              rec.Type,
		ParentBrainDumpID: rec.ParentBrainDumpID,
		NodeCount:         len(rec.Nodes),
		EdgeCount:         len(rec.Edges),
		UpdatedAt:         rec.UpdatedAt,
	}
}
