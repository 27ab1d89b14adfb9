package handlers

import (
	"context"

	"braindump/application/commands"
	"braindump/application/services"
	"braindump/domain/core/entities"
	"go.uber.org/zap"
)

// EdgeHandler handles edge commands against the graph store
type EdgeHandler struct {
	store  *services.GraphStore
	logger *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(store *services.GraphStore, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{
		store:  store,
		logger: logger,
	}
}

// HandleAddEdge connects two nodes
func (h *EdgeHandler) HandleAddEdge(ctx context.Context, cmd *commands.AddEdgeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}

	edge := entities.NewEdge(cmd.Source, cmd.Target)
	if cmd.ID != "" {
		edge.ID = cmd.ID
	}
	if cmd.Type != "" {
		edge.Type = cmd.Type
	}
	edge.SourceHandle = cmd.SourceHandle
	edge.TargetHandle = cmd.TargetHandle
	edge.Label = cmd.Label

	if err := h.store.AddEdge(cmd.DocumentID, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// HandleDeleteEdge removes an edge
func (h *EdgeHandler) HandleDeleteEdge(ctx context.Context, cmd *commands.DeleteEdgeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	return nil, ignoreMissing(h.store.DeleteEdge(cmd.DocumentID, cmd.EdgeID))
}
