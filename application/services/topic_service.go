package services

import (
	"context"
	"time"

	"braindump/domain/core/aggregates"
	"braindump/domain/events"
	domainservices "braindump/domain/services"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/observability"
	"go.uber.org/zap"
)

// TopicExtractionService moves a subtree out into its own topic brain dump
// and merges it back. Both documents are changed through GraphStore batches;
// the two writes are issued in order (source first) without any cross-document
// atomicity.
type TopicExtractionService struct {
	store       *GraphStore
	coordinator *PersistenceCoordinator
	planner     *domainservices.TopicPlanner
	metrics     *observability.Collector
	logger      *zap.Logger
}

// NewTopicExtractionService creates a new topic extraction service
func NewTopicExtractionService(
	store *GraphStore,
	coordinator *PersistenceCoordinator,
	planner *domainservices.TopicPlanner,
	metrics *observability.Collector,
	logger *zap.Logger,
) *TopicExtractionService {
	return &TopicExtractionService{
		store:       store,
		coordinator: coordinator,
		planner:     planner,
		metrics:     metrics,
		logger:      logger,
	}
}

// ExtractTopic moves originID and everything reachable from it into a new
// topic-focused brain dump. The origin stays behind as a dashed reference.
// When a write fails the in-memory split is kept and a StorageError is
// returned together with the new document.
func (s *TopicExtractionService) ExtractTopic(ctx context.Context, docID, originID, initialThoughts string) (*aggregates.Document, error) {
	var topic *aggregates.Document

	err := s.store.Batch(docID, PolicyManual, func(source *aggregates.Document) error {
		plan, err := s.planner.PlanExtraction(source, originID)
		if err != nil {
			return err
		}

		topic, err = aggregates.NewTopicDocument(source.UserID(), plan.TopicOrigin, initialThoughts, plan.TopicNodes, plan.TopicEdges)
		if err != nil {
			return err
		}

		source.RemoveNodes(plan.MovedSet())
		if err := source.ReplaceNode(plan.ReferenceNode(topic.ID())); err != nil {
			return err
		}
		source.RecordEvent(events.NewTopicExtracted(source.ID(), originID, topic.ID(), len(plan.MovedIDs), source.Version(), time.Now()))
		return nil
	})
	if err != nil {
		s.metrics.RecordTopicOperation("extract", err)
		return nil, err
	}

	if err := s.store.RegisterEntry(topic, false); err != nil {
		s.metrics.RecordTopicOperation("extract", err)
		return nil, err
	}
	s.coordinator.RecordChange(topic.ID(), PolicyManual)

	s.logger.Info("Topic extracted",
		zap.String("documentID", docID),
		zap.String("originNodeID", originID),
		zap.String("topicID", topic.ID()),
		zap.Int("nodes", topic.NodeCount()),
	)

	// both writes are issued even when the first fails
	sourceErr := s.coordinator.SaveNow(ctx, docID)
	topicErr := s.coordinator.SaveNow(ctx, topic.ID())
	err = firstError(sourceErr, topicErr)
	s.metrics.RecordTopicOperation("extract", err)

	snapshot, getErr := s.store.Entry(topic.ID())
	if getErr != nil {
		snapshot = topic.Clone()
	}
	if err != nil {
		s.logger.Error("Topic extraction not fully persisted",
			zap.String("documentID", docID),
			zap.String("topicID", topic.ID()),
			zap.NamedError("sourceError", sourceErr),
			zap.NamedError("topicError", topicErr),
		)
		return snapshot, err
	}
	return snapshot, nil
}

// DissolveTopic merges the topic brain dump hanging off originID back into
// docID and deletes the topic. Id collisions between the two documents abort
// the merge before anything changes.
func (s *TopicExtractionService) DissolveTopic(ctx context.Context, docID, originID string) (*aggregates.Document, error) {
	origin, err := s.store.Node(docID, originID)
	if err != nil {
		s.metrics.RecordTopicOperation("dissolve", err)
		return nil, err
	}
	if !origin.Data.HasTopicBrainDump || origin.Data.TopicBrainDumpID == "" {
		err := pkgerrors.NewValidationError("node " + originID + " has no topic brain dump")
		s.metrics.RecordTopicOperation("dissolve", err)
		return nil, err
	}
	topicID := origin.Data.TopicBrainDumpID

	topic, err := s.store.LoadEntry(ctx, topicID)
	if err != nil {
		s.metrics.RecordTopicOperation("dissolve", err)
		return nil, err
	}
	if meta, ok := topic.TopicOrigin(); ok && meta.OriginNodeID != originID {
		err := pkgerrors.NewValidationError("topic " + topicID + " was extracted from node " + meta.OriginNodeID)
		s.metrics.RecordTopicOperation("dissolve", err)
		return nil, err
	}

	merged := 0
	err = s.store.Batch(docID, PolicyManual, func(source *aggregates.Document) error {
		plan, err := s.planner.PlanDissolution(source, topic)
		if err != nil {
			return err
		}

		if err := source.ReplaceNode(plan.RestoredOrigin); err != nil {
			return err
		}
		for _, n := range plan.Nodes {
			if err := source.AddNode(n); err != nil {
				return err
			}
		}
		for _, e := range plan.Edges {
			if err := source.AddEdge(e); err != nil {
				return err
			}
		}
		if plan.ParentEdge != nil {
			if err := source.AddEdge(*plan.ParentEdge); err != nil {
				return err
			}
		}

		if plan.MissingParentID != "" {
			s.logger.Warn("Original parent of topic origin is gone, edge not restored",
				zap.String("documentID", docID),
				zap.String("originNodeID", originID),
				zap.String("originalParentNodeID", plan.MissingParentID),
			)
		}
		if plan.DroppedEdges > 0 {
			s.logger.Warn("Dropped topic edges with missing endpoints",
				zap.String("topicID", topicID),
				zap.Int("edges", plan.DroppedEdges),
			)
		}

		merged = len(plan.Nodes)
		source.RecordEvent(events.NewTopicDissolved(source.ID(), originID, topicID, merged, source.Version(), time.Now()))
		return nil
	})
	if err != nil {
		if pkgerrors.IsStructuralConflict(err) {
			s.logger.Error("Topic dissolution rejected",
				zap.String("documentID", docID),
				zap.String("topicID", topicID),
				zap.Error(err),
			)
		}
		s.metrics.RecordTopicOperation("dissolve", err)
		return nil, err
	}

	s.store.Evict(topicID)

	s.logger.Info("Topic dissolved",
		zap.String("documentID", docID),
		zap.String("originNodeID", originID),
		zap.String("topicID", topicID),
		zap.Int("nodesMerged", merged),
	)

	sourceErr := s.coordinator.SaveNow(ctx, docID)
	deleteErr := s.coordinator.DeleteNow(ctx, topicID)
	err = firstError(sourceErr, deleteErr)
	s.metrics.RecordTopicOperation("dissolve", err)

	snapshot, getErr := s.store.Entry(docID)
	if getErr != nil {
		return nil, getErr
	}
	if err != nil {
		s.logger.Error("Topic dissolution not fully persisted",
			zap.String("documentID", docID),
			zap.String("topicID", topicID),
			zap.NamedError("sourceError", sourceErr),
			zap.NamedError("deleteError", deleteErr),
		)
		return snapshot, err
	}
	return snapshot, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
