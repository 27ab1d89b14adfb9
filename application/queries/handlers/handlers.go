package handlers

import (
	"context"
	"sort"

	"braindump/application/queries"
	"braindump/application/queries/bus"
	"braindump/application/services"
	domainservices "braindump/domain/services"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/utils"

	"go.uber.org/zap"
)

// GraphQueryHandler answers read-only questions about brain dumps. Nothing
// here changes a document.
type GraphQueryHandler struct {
	store       *services.GraphStore
	coordinator *services.PersistenceCoordinator
	synonyms    *services.SynonymService
	visibility  *domainservices.VisibilityResolver
	layout      *domainservices.LayoutEngine
	logger      *zap.Logger
}

// NewGraphQueryHandler creates a new graph query handler
func NewGraphQueryHandler(
	store *services.GraphStore,
	coordinator *services.PersistenceCoordinator,
	synonyms *services.SynonymService,
	visibility *domainservices.VisibilityResolver,
	layout *domainservices.LayoutEngine,
	logger *zap.Logger,
) *GraphQueryHandler {
	return &GraphQueryHandler{
		store:       store,
		coordinator: coordinator,
		synonyms:    synonyms,
		visibility:  visibility,
		layout:      layout,
		logger:      logger,
	}
}

// Register wires every query type to this handler
func (h *GraphQueryHandler) Register(b *bus.QueryBus) error {
	routes := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{&queries.GetEntryQuery{}, bus.Typed(h.HandleGetEntry)},
		{&queries.ListEntriesQuery{}, bus.Typed(h.HandleListEntries)},
		{&queries.GetVisibleGraphQuery{}, bus.Typed(h.HandleGetVisibleGraph)},
		{&queries.PreviewLayoutQuery{}, bus.Typed(h.HandlePreviewLayout)},
		{&queries.FindMatchesQuery{}, bus.Typed(h.HandleFindMatches)},
		{&queries.GetSaveStatusQuery{}, bus.Typed(h.HandleGetSaveStatus)},
	}
	for _, r := range routes {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// HandleGetEntry returns the persisted form of a brain dump
func (h *GraphQueryHandler) HandleGetEntry(ctx context.Context, q *queries.GetEntryQuery) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, q.DocumentID, q.UserID); err != nil {
		return nil, err
	}
	doc, err := h.store.Entry(q.DocumentID)
	if err != nil {
		return nil, err
	}
	return doc.ToRecord(), nil
}

// HandleListEntries merges stored summaries with brain dumps that exist only
// in memory so far, newest first
func (h *GraphQueryHandler) HandleListEntries(ctx context.Context, q *queries.ListEntriesQuery) (interface{}, error) {
	stored, err := h.store.ListStoredEntries(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]queries.EntryListItem, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, s := range stored {
		seen[s.ID] = true
		items = append(items, queries.EntryListItem{
			ID:                s.ID,
			Title:             s.Title,
			Type:              s.Type,
			ParentBrainDumpID: s.ParentBrainDumpID,
			NodeCount:         s.NodeCount,
			EdgeCount:         s.EdgeCount,
			UpdatedAt:         utils.FormatTimestamp(s.UpdatedAt),
		})
	}

	for _, doc := range h.store.ListEntries(q.UserID) {
		if seen[doc.ID()] {
			continue
		}
		item := queries.EntryListItem{
			ID:        doc.ID(),
			Title:     doc.Title(),
			Type:      doc.Type(),
			NodeCount: doc.NodeCount(),
			EdgeCount: doc.EdgeCount(),
			UpdatedAt: utils.FormatTimestamp(doc.UpdatedAt()),
			Unsaved:   true,
		}
		if origin, ok := doc.TopicOrigin(); ok {
			item.ParentBrainDumpID = origin.ParentBrainDumpID
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt > items[j].UpdatedAt
	})
	return items, nil
}

// HandleGetVisibleGraph resolves collapse hiding for the canvas
func (h *GraphQueryHandler) HandleGetVisibleGraph(ctx context.Context, q *queries.GetVisibleGraphQuery) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, q.DocumentID, q.UserID); err != nil {
		return nil, err
	}
	doc, err := h.store.Entry(q.DocumentID)
	if err != nil {
		return nil, err
	}

	visible := h.visibility.Resolve(doc.Nodes(), doc.Edges())
	if visible.DanglingEdges > 0 {
		h.logger.Warn("Skipped edges with missing endpoints",
			zap.String("documentID", q.DocumentID),
			zap.Int("edges", visible.DanglingEdges),
		)
	}

	return queries.VisibleGraphResult{
		DocumentID: doc.ID(),
		Title:      doc.Title(),
		Type:       string(doc.Type()),
		Version:    doc.Version(),
		Nodes:      visible.Nodes,
		Edges:      visible.Edges,
		HiddenIDs:  visible.HiddenIDs,
	}, nil
}

// HandlePreviewLayout computes positions without storing them
func (h *GraphQueryHandler) HandlePreviewLayout(ctx context.Context, q *queries.PreviewLayoutQuery) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, q.DocumentID, q.UserID); err != nil {
		return nil, err
	}
	doc, err := h.store.Entry(q.DocumentID)
	if err != nil {
		return nil, err
	}

	var result domainservices.LayoutResult
	if q.ParentID != "" {
		if !doc.HasNode(q.ParentID) {
			return nil, pkgerrors.NewNotFoundError("node " + q.ParentID)
		}
		result = h.layout.ParentChildLayout(q.ParentID, doc.Nodes(), doc.Edges(), h.layout.DefaultSpacing())
	} else {
		result = h.layout.HorizontalLayout(doc.Nodes(), doc.Edges())
	}

	return queries.LayoutPreviewResult{
		DocumentID: doc.ID(),
		RootID:     result.RootID,
		Positions:  result.Positions(),
		Unplaced:   result.Unplaced,
	}, nil
}

// HandleFindMatches searches the user's brain dumps for a concept
func (h *GraphQueryHandler) HandleFindMatches(ctx context.Context, q *queries.FindMatchesQuery) (interface{}, error) {
	matches := h.synonyms.FindMatches(ctx, q.UserID, q.Input)
	if matches == nil {
		matches = []domainservices.Match{}
	}
	return matches, nil
}

// HandleGetSaveStatus reports the save indicator of a brain dump
func (h *GraphQueryHandler) HandleGetSaveStatus(ctx context.Context, q *queries.GetSaveStatusQuery) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, q.DocumentID, q.UserID); err != nil {
		return nil, err
	}
	return h.coordinator.State(q.DocumentID), nil
}
