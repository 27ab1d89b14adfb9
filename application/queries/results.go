package queries

import (
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
)

// VisibleGraphResult is what the canvas draws for one brain dump
type VisibleGraphResult struct {
	DocumentID string          `json:"documentId"`
	Title      string          `json:"title"`
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	Nodes      []entities.Node `json:"nodes"`
	Edges      []entities.Edge `json:"edges"`
	HiddenIDs  []string        `json:"hiddenIds"`
}

// LayoutPreviewResult holds computed positions that were not stored
type LayoutPreviewResult struct {
	DocumentID string                           `json:"documentId"`
	RootID     string                           `json:"rootId,omitempty"`
	Positions  map[string]valueobjects.Position `json:"positions"`
	Unplaced   []string                         `json:"unplaced,omitempty"`
}

// EntryListItem is one brain dump in a listing
type EntryListItem struct {
	ID                string                  `json:"id"`
	Title             string                  `json:"title"`
	Type              aggregates.DocumentType `json:"type"`
	ParentBrainDumpID string                  `json:"parentBrainDumpId,omitempty"`
	NodeCount         int                     `json:"nodeCount"`
	EdgeCount         int                     `json:"edgeCount"`
	UpdatedAt         string                  `json:"updatedAt"`
	Unsaved           bool                    `json:"unsaved,omitempty"`
}
