package handlers

import (
	"context"

	"braindump/application/commands"
	"braindump/application/services"
	pkgerrors "braindump/pkg/errors"
	"go.uber.org/zap"
)

// TopicHandler handles topic extraction and dissolution
type TopicHandler struct {
	store  *services.GraphStore
	topics *services.TopicExtractionService
	logger *zap.Logger
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(store *services.GraphStore, topics *services.TopicExtractionService, logger *zap.Logger) *TopicHandler {
	return &TopicHandler{
		store:  store,
		topics: topics,
		logger: logger,
	}
}

// HandleExtractTopic returns the new topic brain dump. A storage failure is
// returned as an error even though the split is kept in memory.
func (h *TopicHandler) HandleExtractTopic(ctx context.Context, cmd *commands.ExtractTopicCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}

	topic, err := h.topics.ExtractTopic(ctx, cmd.DocumentID, cmd.NodeID, cmd.InitialThoughts)
	if err != nil {
		if topic != nil && pkgerrors.IsStorage(err) {
			h.logger.Warn("Topic extracted but not saved", zap.String("topicID", topic.ID()))
		}
		return nil, err
	}
	return topic.ToRecord(), nil
}

// HandleDissolveTopic returns the source brain dump after the merge
func (h *TopicHandler) HandleDissolveTopic(ctx context.Context, cmd *commands.DissolveTopicCommand) (interface{}, error) {
	if err := h.store.EnsureLoaded(ctx, cmd.DocumentID, cmd.UserID); err != nil {
		return nil, err
	}

	source, err := h.topics.DissolveTopic(ctx, cmd.DocumentID, cmd.NodeID)
	if err != nil {
		return nil, err
	}
	return source.ToRecord(), nil
}
