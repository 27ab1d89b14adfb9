package handlers

import (
	"net/http"

	"braindump/application/commands"
	"braindump/application/commands/bus"
	"braindump/application/queries"
	querybus "braindump/application/queries/bus"
	pkgerrors "braindump/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EntryHandler handles brain dump level requests
type EntryHandler struct {
	base
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// ListEntries handles GET /entries
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, &queries.ListEntriesQuery{UserID: userID})
}

// CreateEntry handles POST /entries
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.CreateEntryCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID

	h.send(w, r, &cmd, http.StatusCreated)
}

// GetEntry handles GET /entries/{entryID}
func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, &queries.GetEntryQuery{UserID: userID, DocumentID: chi.URLParam(r, "entryID")})
}

// UpdateEntry handles PATCH /entries/{entryID}
func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.UpdateEntryCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")

	h.send(w, r, &cmd, http.StatusOK)
}

// DeleteEntry handles DELETE /entries/{entryID}
func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.DeleteEntryCommand{UserID: userID, DocumentID: chi.URLParam(r, "entryID")}, http.StatusOK)
}

// SaveEntry handles POST /entries/{entryID}/save, the manual save
func (h *EntryHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.SaveEntryCommand{UserID: userID, DocumentID: chi.URLParam(r, "entryID")}, http.StatusOK)
}

// GetSaveStatus handles GET /entries/{entryID}/status
func (h *EntryHandler) GetSaveStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, &queries.GetSaveStatusQuery{UserID: userID, DocumentID: chi.URLParam(r, "entryID")})
}

// GetVisibleGraph handles GET /entries/{entryID}/graph
func (h *EntryHandler) GetVisibleGraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, &queries.GetVisibleGraphQuery{UserID: userID, DocumentID: chi.URLParam(r, "entryID")})
}

// PreviewLayout handles GET /entries/{entryID}/layout[?parentId=]
func (h *EntryHandler) PreviewLayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, &queries.PreviewLayoutQuery{
		UserID:     userID,
		DocumentID: chi.URLParam(r, "entryID"),
		ParentID:   r.URL.Query().Get("parentId"),
	})
}

// ApplyLayout handles POST /entries/{entryID}/layout
func (h *EntryHandler) ApplyLayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, &commands.ApplyLayoutCommand{UserID: userID, DocumentID: chi.URLParam(r, "entryID")}, http.StatusOK)
}
