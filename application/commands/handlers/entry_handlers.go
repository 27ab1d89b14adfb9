package handlers

import (
	"context"

	"braindump/application/commands"
	"braindump/application/services"
	"braindump/domain/core/aggregates"
	"go.uber.org/zap"
)

// EntryHandler handles brain dump lifecycle commands
type EntryHandler struct {
	store       *services.GraphStore
	coordinator *services.PersistenceCoordinator
	logger      *zap.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(store *services.GraphStore, coordinator *services.PersistenceCoordinator, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{
		store:       store,
		coordinator: coordinator,
		logger:      logger,
	}
}

// HandleCreateEntry creates a brain dump and makes it current
func (h *EntryHandler) HandleCreateEntry(ctx context.Context, cmd *commands.CreateEntryCommand) (interface{}, error) {
	doc, err := h.store.CreateEntry(services.EntryDraft{
		UserID:     cmd.UserID,
		Title:      cmd.Title,
		RawText:    cmd.RawText,
		Categories: cmd.Categories,
		Nodes:      cmd.Nodes,
		Edges:      cmd.Edges,
	})
	if err != nil {
		return nil, err
	}

	if err := h.store.SetCurrentEntry(doc.ID()); err != nil {
		h.logger.Warn("Failed to select new brain dump", zap.String("documentID", doc.ID()), zap.Error(err))
	}
	return doc.ToRecord(), nil
}

// HandleUpdateEntry changes title, raw text or categories
func (h *EntryHandler) HandleUpdateEntry(ctx context.Context, cmd *commands.UpdateEntryCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}

	patch := aggregates.EntryPatch{
		Title:      cmd.Title,
		RawText:    cmd.RawText,
		Categories: cmd.Categories,
	}
	if err := h.store.UpdateEntry(cmd.DocumentID, patch); err != nil {
		return nil, err
	}

	doc, err := h.store.Entry(cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	return doc.ToRecord(), nil
}

// HandleDeleteEntry deletes a brain dump
func (h *EntryHandler) HandleDeleteEntry(ctx context.Context, cmd *commands.DeleteEntryCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	return nil, h.store.DeleteEntry(cmd.DocumentID)
}

// HandleSaveEntry saves right away and returns the resulting save state
func (h *EntryHandler) HandleSaveEntry(ctx context.Context, cmd *commands.SaveEntryCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	if err := h.coordinator.SaveNow(ctx, cmd.DocumentID); err != nil {
		return nil, err
	}
	return h.coordinator.State(cmd.DocumentID), nil
}
