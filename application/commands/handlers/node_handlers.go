package handlers

import (
	"context"

	"braindump/application/commands"
	"braindump/application/services"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"
	"go.uber.org/zap"
)

// ToggleCollapseResult reports a node's collapsed flag after a toggle
type ToggleCollapseResult struct {
	NodeID      string `json:"nodeId"`
	IsCollapsed bool   `json:"isCollapsed"`
}

// NodeHandler handles node commands against the graph store
type NodeHandler struct {
	store  *services.GraphStore
	logger *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(store *services.GraphStore, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		store:  store,
		logger: logger,
	}
}

// HandleAddNode creates a node of the requested variant
func (h *NodeHandler) HandleAddNode(ctx context.Context, cmd *commands.AddNodeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}

	variant, err := entities.ParseNodeVariant(cmd.Type)
	if err != nil {
		return nil, err
	}
	position, err := valueobjects.NewPosition(cmd.X, cmd.Y)
	if err != nil {
		return nil, err
	}
	node, err := entities.NewNode(variant, cmd.Label, position)
	if err != nil {
		return nil, err
	}
	node.Data.Category = cmd.Category
	if len(cmd.Synonyms) > 0 {
		node.Data.Synonyms = append([]string(nil), cmd.Synonyms...)
	}

	if err := h.store.AddNode(cmd.DocumentID, node); err != nil {
		return nil, err
	}
	return node, nil
}

// HandleUpdateNode merges a data patch into a node
func (h *NodeHandler) HandleUpdateNode(ctx context.Context, cmd *commands.UpdateNodeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	if err := h.store.UpdateNode(cmd.DocumentID, cmd.NodeID, cmd.Patch); err != nil {
		return nil, ignoreMissing(err)
	}

	node, err := h.store.Node(cmd.DocumentID, cmd.NodeID)
	if err != nil {
		return nil, ignoreMissing(err)
	}
	return node, nil
}

// HandleMoveNode stores a new position
func (h *NodeHandler) HandleMoveNode(ctx context.Context, cmd *commands.MoveNodeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	position, err := valueobjects.NewPosition(cmd.X, cmd.Y)
	if err != nil {
		return nil, err
	}
	return nil, ignoreMissing(h.store.MoveNode(cmd.DocumentID, cmd.NodeID, position))
}

// HandleDeleteNode removes a node and its edges
func (h *NodeHandler) HandleDeleteNode(ctx context.Context, cmd *commands.DeleteNodeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	return nil, ignoreMissing(h.store.DeleteNode(cmd.DocumentID, cmd.NodeID))
}

// HandleToggleCollapse flips a node's collapsed flag
func (h *NodeHandler) HandleToggleCollapse(ctx context.Context, cmd *commands.ToggleCollapseCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	collapsed, err := h.store.ToggleCollapse(cmd.DocumentID, cmd.NodeID)
	if err != nil {
		return nil, ignoreMissing(err)
	}
	return ToggleCollapseResult{NodeID: cmd.NodeID, IsCollapsed: collapsed}, nil
}

// HandleSetLayoutMode switches a node's child arrangement
func (h *NodeHandler) HandleSetLayoutMode(ctx context.Context, cmd *commands.SetLayoutModeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	return nil, h.store.SetLayoutMode(cmd.DocumentID, cmd.NodeID, entities.LayoutMode(cmd.Mode))
}

// HandleAddChild creates a thought under a parent
func (h *NodeHandler) HandleAddChild(ctx context.Context, cmd *commands.AddChildCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	child, err := h.store.AddChild(cmd.DocumentID, cmd.ParentID, cmd.Label)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Child added",
		zap.String("documentID", cmd.DocumentID),
		zap.String("parentID", cmd.ParentID),
		zap.String("nodeID", child.ID),
	)
	return child, nil
}

// HandleApplyLayout re-lays the whole brain dump
func (h *NodeHandler) HandleApplyLayout(ctx context.Context, cmd *commands.ApplyLayoutCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	return h.store.ApplyLayout(cmd.DocumentID)
}

// ignoreMissing turns a node or edge NotFound into a no-op. The store has
// already logged it and changed nothing.
func ignoreMissing(err error) error {
	if pkgerrors.IsNotFound(err) {
		return nil
	}
	return err
}
