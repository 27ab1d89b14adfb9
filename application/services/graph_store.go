package services

import (
	"context"
	"sort"
	"sync"

	"braindump/application/ports"
	"braindump/domain/config"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/validators"
	"braindump/domain/core/valueobjects"
	"braindump/domain/events"
	domainservices "braindump/domain/services"
	pkgerrors "braindump/pkg/errors"
	"go.uber.org/zap"
)

// EntryDraft is the input for creating a brain dump
type EntryDraft struct {
	UserID     string
	Title      string
	RawText    string
	Categories []string
	Nodes      []entities.Node
	Edges      []entities.Edge
}

// GraphStore owns the in-memory brain dumps. Every mutation is applied under
// the store's lock, so readers never observe a half-applied change (such as a
// deleted node whose edges are still present), and then handed to the
// persistence coordinator without waiting for storage.
type GraphStore struct {
	storage        ports.DocumentStorage
	scheduler      ChangeRecorder
	layout         *domainservices.LayoutEngine
	nodeValidator  *validators.NodeValidator
	graphValidator *validators.GraphValidator
	cfg            *config.DomainConfig
	logger         *zap.Logger

	mu      sync.RWMutex
	docs    map[string]*aggregates.Document
	current string
}

// NewGraphStore creates a new graph store
func NewGraphStore(
	storage ports.DocumentStorage,
	layout *domainservices.LayoutEngine,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *GraphStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &GraphStore{
		storage:        storage,
		layout:         layout,
		nodeValidator:  validators.NewNodeValidator(cfg),
		graphValidator: validators.NewGraphValidator(cfg),
		cfg:            cfg,
		logger:         logger,
		docs:           make(map[string]*aggregates.Document),
	}
}

// SetScheduler sets the persistence scheduler
// This is used to resolve the circular dependency with PersistenceCoordinator
func (s *GraphStore) SetScheduler(scheduler ChangeRecorder) {
	s.scheduler = scheduler
}

// Entries

// CreateEntry builds a new brain dump in memory and schedules its creation
// in storage
func (s *GraphStore) CreateEntry(draft EntryDraft) (*aggregates.Document, error) {
	doc, err := aggregates.NewDocument(draft.UserID, draft.Title, draft.RawText)
	if err != nil {
		return nil, err
	}
	if len(draft.Categories) > 0 {
		categories := append([]string(nil), draft.Categories...)
		doc.UpdateEntry(aggregates.EntryPatch{Categories: &categories})
	}
	if err := s.graphValidator.ValidateNodeCount(doc, len(draft.Nodes)); err != nil {
		return nil, err
	}
	for _, n := range draft.Nodes {
		if err := s.nodeValidator.ValidateNode(n); err != nil {
			return nil, err
		}
		if err := doc.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range draft.Edges {
		if e.ID == "" {
			e.ID = valueobjects.EdgeIDFor(e.Source, e.Target)
		}
		if err := doc.AddEdge(e); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.docs[doc.ID()] = doc
	snapshot := doc.Clone()
	s.mu.Unlock()

	s.logger.Info("Brain dump created",
		zap.String("documentID", doc.ID()),
		zap.String("userID", draft.UserID),
		zap.Int("nodes", doc.NodeCount()),
		zap.Int("edges", doc.EdgeCount()),
	)

	s.track(doc.ID(), false)
	s.schedule(doc.ID(), PolicyImmediate)
	return snapshot, nil
}

// RegisterEntry adds a document built elsewhere, such as an extracted topic.
// persisted tells whether storage already holds it.
func (s *GraphStore) RegisterEntry(doc *aggregates.Document, persisted bool) error {
	if err := doc.CheckIntegrity(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.docs[doc.ID()]; exists {
		s.mu.Unlock()
		return pkgerrors.NewConflictError("brain dump " + doc.ID() + " already loaded")
	}
	s.docs[doc.ID()] = doc
	s.mu.Unlock()

	s.track(doc.ID(), persisted)
	return nil
}

// LoadEntry returns the in-memory document, loading it from storage first if
// needed. Edges pointing at missing nodes are pruned on load.
func (s *GraphStore) LoadEntry(ctx context.Context, docID string) (*aggregates.Document, error) {
	if doc, err := s.Entry(docID); err == nil {
		return doc, nil
	}

	record, err := s.storage.LoadDocument(ctx, docID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.NewStorageError("load document", err)
	}

	doc, pruned, err := aggregates.FromRecord(*record)
	if err != nil {
		return nil, err
	}
	if len(pruned) > 0 {
		s.logger.Warn("Pruned dangling edges on load",
			zap.String("documentID", docID),
			zap.Strings("edgeIDs", pruned),
		)
	}

	s.mu.Lock()
	if existing, ok := s.docs[docID]; ok {
		// loaded concurrently; keep the first copy
		snapshot := existing.Clone()
		s.mu.Unlock()
		return snapshot, nil
	}
	s.docs[docID] = doc
	snapshot := doc.Clone()
	s.mu.Unlock()

	s.track(docID, true)
	if len(pruned) > 0 {
		s.schedule(docID, PolicyDebounced)
	}
	return snapshot, nil
}

// EnsureLoaded makes sure docID is in memory and, when userID is set, owned
// by userID. Documents of other users are reported as not found.
func (s *GraphStore) EnsureLoaded(ctx context.Context, docID, userID string) error {
	s.mu.RLock()
	doc, ok := s.docs[docID]
	owner := ""
	if ok {
		owner = doc.UserID()
	}
	s.mu.RUnlock()

	if !ok {
		loaded, err := s.LoadEntry(ctx, docID)
		if err != nil {
			return err
		}
		owner = loaded.UserID()
	}
	if userID != "" && owner != userID {
		return pkgerrors.NewNotFoundError("brain dump " + docID)
	}
	return nil
}

// Entry returns a snapshot of an in-memory document
func (s *GraphStore) Entry(docID string) (*aggregates.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("brain dump " + docID)
	}
	return doc.Clone(), nil
}

// ListEntries returns snapshots of the in-memory documents owned by userID,
// oldest first. An empty userID lists every document.
func (s *GraphStore) ListEntries(userID string) []*aggregates.Document {
	s.mu.RLock()
	out := make([]*aggregates.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if userID == "" || doc.UserID() == userID {
			out = append(out, doc.Clone())
		}
	}
	s.mu.RUnlock()

	sortByCreation(out)
	return out
}

func sortByCreation(docs []*aggregates.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt().Equal(docs[j].CreatedAt()) {
			return docs[i].ID() < docs[j].ID()
		}
		return docs[i].CreatedAt().Before(docs[j].CreatedAt())
	})
}

// SearchCorpus returns snapshots of every brain dump of userID: the loaded
// ones as they are in memory and the stored ones decoded straight from their
// records. Stored documents are not registered, so a search leaves the set
// of loaded documents unchanged. A failing listing falls back to what is
// already loaded.
func (s *GraphStore) SearchCorpus(ctx context.Context, userID string) []*aggregates.Document {
	docs := s.ListEntries(userID)

	summaries, err := s.storage.ListDocuments(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to list stored brain dumps, using loaded ones",
			zap.String("userID", userID),
			zap.Error(err),
		)
		return docs
	}

	loaded := make(map[string]bool, len(docs))
	for _, doc := range docs {
		loaded[doc.ID()] = true
	}

	for _, summary := range summaries {
		if loaded[summary.ID] {
			continue
		}
		record, err := s.storage.LoadDocument(ctx, summary.ID)
		if err != nil {
			s.logger.Warn("Skipping brain dump that failed to load",
				zap.String("documentID", summary.ID),
				zap.Error(err),
			)
			continue
		}
		doc, _, err := aggregates.FromRecord(*record)
		if err != nil || doc.UserID() != userID {
			continue
		}
		docs = append(docs, doc)
	}

	sortByCreation(docs)
	return docs
}

// ListStoredEntries lists the summaries storage holds for userID
func (s *GraphStore) ListStoredEntries(ctx context.Context, userID string) ([]ports.DocumentSummary, error) {
	summaries, err := s.storage.ListDocuments(ctx, userID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("list documents", err)
	}
	return summaries, nil
}

// UpdateEntry applies a metadata patch
func (s *GraphStore) UpdateEntry(docID string, patch aggregates.EntryPatch) error {
	return s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		doc.UpdateEntry(patch)
		return nil
	})
}

// DeleteEntry drops a document from memory and deletes it from storage in
// the background
func (s *GraphStore) DeleteEntry(docID string) error {
	if !s.Evict(docID) {
		s.logger.Warn("Delete of unknown brain dump ignored", zap.String("documentID", docID))
		return pkgerrors.NewNotFoundError("brain dump " + docID)
	}
	if s.scheduler != nil {
		s.scheduler.RecordDeletion(docID)
	}
	return nil
}

// Evict drops a document from memory without touching storage
func (s *GraphStore) Evict(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[docID]; !ok {
		return false
	}
	delete(s.docs, docID)
	if s.current == docID {
		s.current = ""
	}
	return true
}

// SetCurrentEntry marks the document the user is looking at
func (s *GraphStore) SetCurrentEntry(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docID != "" {
		if _, ok := s.docs[docID]; !ok {
			return pkgerrors.NewNotFoundError("brain dump " + docID)
		}
	}
	s.current = docID
	return nil
}

// CurrentEntry returns a snapshot of the current document
func (s *GraphStore) CurrentEntry() (*aggregates.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[s.current]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// Nodes

// Node returns a copy of one node
func (s *GraphStore) Node(docID, nodeID string) (entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return entities.Node{}, pkgerrors.NewNotFoundError("brain dump " + docID)
	}
	node, ok := doc.Node(nodeID)
	if !ok {
		return entities.Node{}, pkgerrors.NewNotFoundError("node " + nodeID)
	}
	return node, nil
}

// AddNode places a node in a document
func (s *GraphStore) AddNode(docID string, node entities.Node) error {
	if err := s.nodeValidator.ValidateNode(node); err != nil {
		return err
	}
	return s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		if err := s.graphValidator.ValidateNodeCount(doc, 1); err != nil {
			return err
		}
		return doc.AddNode(node)
	})
}

// UpdateNode shallow-merges patch into a node's data. An unknown node id is
// logged and reported as NotFound; nothing changes.
func (s *GraphStore) UpdateNode(docID, nodeID string, patch entities.NodePatch) error {
	if err := s.nodeValidator.ValidatePatch(patch); err != nil {
		return err
	}
	return s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		return doc.UpdateNodeData(nodeID, patch)
	})
}

// MoveNode sets a node's position, typically on drag release
func (s *GraphStore) MoveNode(docID, nodeID string, position valueobjects.Position) error {
	return s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		return doc.MoveNode(nodeID, position)
	})
}

// DeleteNode removes a node and every edge touching it in one step
func (s *GraphStore) DeleteNode(docID, nodeID string) error {
	return s.mutate(docID, PolicyImmediate, func(doc *aggregates.Document) error {
		removed, err := doc.DeleteNode(nodeID)
		if err != nil {
			return err
		}
		s.logger.Debug("Node deleted",
			zap.String("documentID", docID),
			zap.String("nodeID", nodeID),
			zap.Int("edgesRemoved", len(removed)),
		)
		return nil
	})
}

// ToggleCollapse flips a node's collapsed flag and returns the new value
func (s *GraphStore) ToggleCollapse(docID, nodeID string) (bool, error) {
	var collapsed bool
	err := s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		node, ok := doc.Node(nodeID)
		if !ok {
			return pkgerrors.NewNotFoundError("node " + nodeID)
		}
		collapsed = !node.Data.IsCollapsed
		return doc.UpdateNodeData(nodeID, entities.NodePatch{IsCollapsed: &collapsed})
	})
	return collapsed, err
}

// SetLayoutMode changes how a node arranges its children. Switching to
// horizontal re-lays the node's subtree right away.
func (s *GraphStore) SetLayoutMode(docID, nodeID string, mode entities.LayoutMode) error {
	if !mode.IsValid() {
		return pkgerrors.NewValidationError("unknown layout mode " + string(mode))
	}
	return s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		if err := doc.UpdateNodeData(nodeID, entities.NodePatch{LayoutMode: &mode}); err != nil {
			return err
		}
		if mode != entities.LayoutHorizontal {
			return nil
		}
		result := s.layout.ParentChildLayout(nodeID, doc.Nodes(), doc.Edges(), s.layout.DefaultSpacing())
		doc.ApplyPositions(result.Positions())
		return nil
	})
}

// AddChild creates a thought under parentID, inheriting the parent's
// category, and connects it. The child goes into the parent's horizontal
// layout when the parent uses one, else one column right and below the
// existing children.
func (s *GraphStore) AddChild(docID, parentID, label string) (entities.Node, error) {
	var child entities.Node
	err := s.mutate(docID, PolicyImmediate, func(doc *aggregates.Document) error {
		parent, ok := doc.Node(parentID)
		if !ok {
			return pkgerrors.NewNotFoundError("node " + parentID)
		}
		if err := s.graphValidator.ValidateNodeCount(doc, 1); err != nil {
			return err
		}

		siblings := len(doc.OutgoingEdges(parentID))
		spacing := s.layout.DefaultSpacing()
		position := valueobjects.Position{
			X: parent.Position.X + spacing.Horizontal,
			Y: parent.Position.Y + float64(siblings)*spacing.Vertical,
		}

		node, err := entities.NewNode(entities.VariantThought, label, position)
		if err != nil {
			return err
		}
		node.Data.Category = parent.Data.Category
		if err := s.nodeValidator.ValidateNode(node); err != nil {
			return err
		}
		if err := doc.AddNode(node); err != nil {
			return err
		}
		if err := doc.AddEdge(entities.NewEdge(parentID, node.ID)); err != nil {
			return err
		}

		if parent.Data.LayoutMode == entities.LayoutHorizontal {
			result := s.layout.ParentChildLayout(parentID, doc.Nodes(), doc.Edges(), spacing)
			doc.ApplyPositions(result.Positions())
		}

		child, _ = doc.Node(node.ID)
		return nil
	})
	return child, err
}

// ApplyLayout re-lays the whole document as a horizontal tree
func (s *GraphStore) ApplyLayout(docID string) (domainservices.LayoutResult, error) {
	var result domainservices.LayoutResult
	err := s.mutate(docID, PolicyDebounced, func(doc *aggregates.Document) error {
		result = s.layout.HorizontalLayout(doc.Nodes(), doc.Edges())
		if result.RootID == "" {
			s.logger.Warn("No layout root found, positions unchanged", zap.String("documentID", docID))
			return nil
		}
		if len(result.Unplaced) > 0 {
			s.logger.Warn("Nodes unreachable from layout root kept their position",
				zap.String("documentID", docID),
				zap.String("rootID", result.RootID),
				zap.Strings("nodeIDs", result.Unplaced),
			)
		}
		doc.ApplyPositions(result.Positions())
		return nil
	})
	return result, err
}

// Edges

// AddEdge connects two nodes of the same document
func (s *GraphStore) AddEdge(docID string, edge entities.Edge) error {
	if edge.ID == "" {
		edge.ID = valueobjects.EdgeIDFor(edge.Source, edge.Target)
	}
	if edge.Type == "" {
		edge.Type = entities.EdgeTypeSmoothStep
	}
	return s.mutate(docID, PolicyImmediate, func(doc *aggregates.Document) error {
		if err := s.graphValidator.ValidateEdge(doc, edge); err != nil {
			return err
		}
		return doc.AddEdge(edge)
	})
}

// DeleteEdge removes an edge
func (s *GraphStore) DeleteEdge(docID, edgeID string) error {
	return s.mutate(docID, PolicyImmediate, func(doc *aggregates.Document) error {
		return doc.DeleteEdge(edgeID)
	})
}

// Batch runs fn against a working copy of the document. The copy replaces
// the document only when fn succeeds, and one change is recorded with policy.
func (s *GraphStore) Batch(docID string, policy PersistencePolicy, fn func(doc *aggregates.Document) error) error {
	s.mu.Lock()
	doc, ok := s.docs[docID]
	if !ok {
		s.mu.Unlock()
		return pkgerrors.NewNotFoundError("brain dump " + docID)
	}

	working := doc.Clone()
	if err := fn(working); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := working.CheckIntegrity(); err != nil {
		s.mu.Unlock()
		return pkgerrors.Wrap(err, "batch left the brain dump inconsistent")
	}
	s.docs[docID] = working
	s.mu.Unlock()

	s.schedule(docID, policy)
	return nil
}

// Snapshot returns the persisted form of a document and drains the events
// raised since the previous snapshot
func (s *GraphStore) Snapshot(docID string) (aggregates.DocumentRecord, []events.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return aggregates.DocumentRecord{}, nil, pkgerrors.NewNotFoundError("brain dump " + docID)
	}
	return doc.ToRecord(), doc.PullEvents(), nil
}

// mutate runs fn through Batch. NotFound results are logged as no-ops; any
// error means nothing changed and nothing is scheduled.
func (s *GraphStore) mutate(docID string, policy PersistencePolicy, fn func(doc *aggregates.Document) error) error {
	err := s.Batch(docID, policy, fn)
	if err != nil && pkgerrors.IsNotFound(err) {
		s.logger.Warn("Mutation of unknown id ignored",
			zap.String("documentID", docID),
			zap.Error(err),
		)
	}
	return err
}

func (s *GraphStore) track(docID string, persisted bool) {
	if s.scheduler != nil {
		s.scheduler.Track(docID, persisted)
	}
}

func (s *GraphStore) schedule(docID string, policy PersistencePolicy) {
	if s.scheduler != nil {
		s.scheduler.RecordChange(docID, policy)
	}
}
