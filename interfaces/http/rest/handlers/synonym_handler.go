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

// SynonymHandler handles cross brain dump search and linking
type SynonymHandler struct {
	base
}

// NewSynonymHandler creates a new synonym handler
func NewSynonymHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *SynonymHandler {
	return &SynonymHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// FindMatches handles GET /matches?q=
func (h *SynonymHandler) FindMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, &queries.FindMatchesQuery{UserID: userID, Input: r.URL.Query().Get("q")})
}

// MaterializeMatch handles POST /entries/{entryID}/matches
func (h *SynonymHandler) MaterializeMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.MaterializeMatchCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")

	h.send(w, r, &cmd, http.StatusCreated)
}

// CreateLinkNode handles POST /entries/{entryID}/links
func (h *SynonymHandler) CreateLinkNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd commands.CreateLinkNodeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.UserID = userID
	cmd.DocumentID = chi.URLParam(r, "entryID")

	h.send(w, r, &cmd, http.StatusCreated)
}
