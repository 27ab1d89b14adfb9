package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"braindump/application/commands/bus"
	querybus "braindump/application/queries/bus"
	"braindump/pkg/common"
	pkgerrors "braindump/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; raw text of a brain dump is the largest
const maxBodyBytes = 4 << 20

// base carries what every resource handler needs to turn a request into a
// command or query and the result into a response
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func newBase(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	return base{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// userID returns the authenticated user or writes a 401
func (h *base) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("missing user context"))
		return "", false
	}
	return userID, true
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (h *base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
	return false
}

// send dispatches cmd and writes the result with status
func (h *base) send(w http.ResponseWriter, r *http.Request, cmd bus.Command, status int) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if result == nil {
		common.RespondNoContent(w)
		return
	}
	common.RespondJSON(w, status, result)
}

// ask runs query and writes the result
func (h *base) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
