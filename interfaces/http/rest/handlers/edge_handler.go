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

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	base
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// AddEdge handles POST /entries/{entryID}/edges
func (h *EdgeHandler) AddEdge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.AddEdgeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")

	h.send(w, r, &cmd, http.StatusCreated)
}

// DeleteEdge handles DELETE /entries/{entryID}/edges/{edgeID}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.DeleteEdgeCommand{
		UserID:     userID,
		DocumentID: chi.URLParam(r, "entryID"),
		EdgeID:     chi.URLParam(r, "edgeID"),
	}, http.StatusOK)
}
