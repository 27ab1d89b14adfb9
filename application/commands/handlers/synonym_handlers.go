package handlers

import (
	"context"

	"braindump/application/commands"
	"braindump/application/services"
	domainservices "braindump/domain/services"
	"go.uber.org/zap"
)

// SynonymHandler handles commands that materialize cross-document references
type SynonymHandler struct {
	store    *services.GraphStore
	synonyms *services.SynonymService
	logger   *zap.Logger
}

// NewSynonymHandler creates a new synonym handler
func NewSynonymHandler(store *services.GraphStore, synonyms *services.SynonymService, logger *zap.Logger) *SynonymHandler {
	return &SynonymHandler{
		store:    store,
		synonyms: synonyms,
		logger:   logger,
	}
}

// HandleMaterializeMatch places an instance or ghost of a matched node
func (h *SynonymHandler) HandleMaterializeMatch(ctx context.Context, cmd *commands.MaterializeMatchCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	if err := h.store.EnsureLoaded(ctx, cmd.MatchDocumentID, cmd.UserID); err != nil {
		return nil, err
	}

	match := domainservices.Match{DocumentID: cmd.MatchDocumentID}
	match.Node.ID = cmd.MatchNodeID

	return h.synonyms.MaterializeMatch(ctx, cmd.DocumentID, match, services.MaterializeMode(cmd.Mode), cmd.Position())
}

// HandleCreateLinkNode adds a link to another brain dump of the same user
func (h *SynonymHandler) HandleCreateLinkNode(ctx context.Context, cmd *commands.CreateLinkNodeCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	if err := h.store.EnsureLoaded(ctx, cmd.TargetDocumentID, cmd.UserID); err != nil {
		return nil, err
	}
	return h.synonyms.CreateLinkNode(ctx, cmd.DocumentID, cmd.TargetDocumentID, cmd.Position())
}
