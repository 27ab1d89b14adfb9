package services

import (
	"context"

	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	domainservices "braindump/domain/services"
	pkgerrors "braindump/pkg/errors"
	"go.uber.org/zap"
)

// MaterializeMode selects what a synonym match becomes in the target document
type MaterializeMode string

const (
	MaterializeInstance MaterializeMode = "instance"
	MaterializeGhost    MaterializeMode = "ghost"
)

// IsValid reports whether m is a known mode
func (m MaterializeMode) IsValid() bool {
	return m == MaterializeInstance || m == MaterializeGhost
}

// SynonymService searches a user's brain dumps for duplicate concepts and
// turns matches into instances, ghosts or links. All changes go through the
// GraphStore.
type SynonymService struct {
	store   *GraphStore
	matcher *domainservices.SynonymMatcher
	logger  *zap.Logger
}

// NewSynonymService creates a new synonym service
func NewSynonymService(store *GraphStore, matcher *domainservices.SynonymMatcher, logger *zap.Logger) *SynonymService {
	return &SynonymService{
		store:   store,
		matcher: matcher,
		logger:  logger,
	}
}

// FindMatches searches every brain dump of userID
func (s *SynonymService) FindMatches(ctx context.Context, userID, input string) []domainservices.Match {
	documents := s.store.SearchCorpus(ctx, userID)
	matches := s.matcher.FindMatches(input, documents)

	s.logger.Debug("Synonym search",
		zap.String("userID", userID),
		zap.Int("documents", len(documents)),
		zap.Int("matches", len(matches)),
	)
	return matches
}

// MaterializeMatch places the matched node into docID at position, either as
// an instance of it or as a ghost referencing it. For instances the new id is
// also appended to the prototype's instance list in the prototype's own
// document.
func (s *SynonymService) MaterializeMatch(ctx context.Context, docID string, match domainservices.Match, mode MaterializeMode, position valueobjects.Position) (entities.Node, error) {
	if !mode.IsValid() {
		return entities.Node{}, pkgerrors.NewValidationError("unknown materialize mode " + string(mode))
	}
	if !position.IsValid() {
		return entities.Node{}, pkgerrors.NewValidationError("invalid position")
	}

	if _, err := s.store.LoadEntry(ctx, match.DocumentID); err != nil {
		return entities.Node{}, err
	}
	// re-read the matched node; the match may be stale
	prototype, err := s.store.Node(match.DocumentID, match.Node.ID)
	if err != nil {
		return entities.Node{}, err
	}

	var node entities.Node
	switch mode {
	case MaterializeGhost:
		node = domainservices.CreateGhost(prototype, position)
	default:
		node = domainservices.CreateInstance(prototype, position)
	}

	if err := s.store.AddNode(docID, node); err != nil {
		return entities.Node{}, err
	}

	if mode == MaterializeInstance {
		err := s.store.Batch(match.DocumentID, PolicyDebounced, func(doc *aggregates.Document) error {
			current, ok := doc.Node(prototype.ID)
			if !ok {
				return pkgerrors.NewNotFoundError("node " + prototype.ID)
			}
			return doc.ReplaceNode(domainservices.AddInstanceToPrototype(current, node.ID))
		})
		if err != nil {
			// the instance stays; only the back-reference is missing
			s.logger.Warn("Failed to record instance on prototype",
				zap.String("prototypeDocumentID", match.DocumentID),
				zap.String("prototypeID", prototype.ID),
				zap.String("instanceID", node.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Synonym match materialized",
		zap.String("documentID", docID),
		zap.String("mode", string(mode)),
		zap.String("nodeID", node.ID),
		zap.String("referencedNodeID", prototype.ID),
	)
	return node, nil
}

// CreateLinkNode adds a node to docID that points at another brain dump
func (s *SynonymService) CreateLinkNode(ctx context.Context, docID, targetDocID string, position valueobjects.Position) (entities.Node, error) {
	if !position.IsValid() {
		return entities.Node{}, pkgerrors.NewValidationError("invalid position")
	}
	if docID == targetDocID {
		return entities.Node{}, pkgerrors.NewValidationError("a brain dump cannot link to itself")
	}

	target, err := s.store.LoadEntry(ctx, targetDocID)
	if err != nil {
		return entities.Node{}, err
	}

	node := domainservices.CreateLinkNode(target, position)
	if err := s.store.AddNode(docID, node); err != nil {
		return entities.Node{}, err
	}
	return node, nil
}
