package handlers

import (
	"net/http"

	"braindump/application/commands"
	"braindump/application/commands/bus"
	querybus "braindump/application/queries/bus"
	pkgerrors "braindump/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// AddNode handles POST /entries/{entryID}/nodes
func (h *NodeHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.AddNodeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")

	h.send(w, r, &cmd, http.StatusCreated)
}

// UpdateNode handles PATCH /entries/{entryID}/nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.UpdateNodeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")
	cmd.NodeID = chi.URLParam(r, "nodeID")

	h.send(w, r, &cmd, http.StatusOK)
}

// MoveNode handles PUT /entries/{entryID}/nodes/{nodeID}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.MoveNodeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")
	cmd.NodeID = chi.URLParam(r, "nodeID")

	h.send(w, r, &cmd, http.StatusOK)
}

// DeleteNode handles DELETE /entries/{entryID}/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.DeleteNodeCommand{
		UserID:     userID,
		DocumentID: chi.URLParam(r, "entryID"),
		NodeID:     chi.URLParam(r, "nodeID"),
	}, http.StatusOK)
}

// ToggleCollapse handles POST /entries/{entryID}/nodes/{nodeID}/collapse
func (h *NodeHandler) ToggleCollapse(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.ToggleCollapseCommand{
		UserID:     userID,
		DocumentID: chi.URLParam(r, "entryID"),
		NodeID:     chi.URLParam(r, "nodeID"),
	}, http.StatusOK)
}

// SetLayoutMode handles PUT /entries/{entryID}/nodes/{nodeID}/layout-mode
func (h *NodeHandler) SetLayoutMode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.SetLayoutModeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")
	cmd.NodeID = chi.URLParam(r, "nodeID")

	h.send(w, r, &cmd, http.StatusOK)
}

// AddChild handles POST /entries/{entryID}/nodes/{nodeID}/children
func (h *NodeHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.AddChildCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")
	cmd.ParentID = chi.URLParam(r, "nodeID")

	h.send(w, r, &cmd, http.StatusCreated)
}

// ExtractTopic handles POST /entries/{entryID}/nodes/{nodeID}/topic
func (h *NodeHandler) ExtractTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.ExtractTopicCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")
	cmd.NodeID = chi.URLParam(r, "nodeID")

	h.send(w, r, &cmd, http.StatusCreated)
}

// DissolveTopic handles DELETE /entries/{entryID}/nodes/{nodeID}/topic
func (h *NodeHandler) DissolveTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.DissolveTopicCommand{
		UserID:     userID,
		DocumentID: chi.URLParam(r, "entryID"),
		NodeID:     chi.URLParam(r, "nodeID"),
	}, http.StatusOK)
}
