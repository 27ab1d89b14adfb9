package services

import (
	"context"
	"sync"
	"time"

	"braindump/application/ports"
	"braindump/domain/config"
	"braindump/domain/core/aggregates"
	"braindump/domain/events"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/observability"
	"braindump/pkg/scheduling"
	"go.uber.org/zap"
)

// PersistencePolicy decides when a mutation reaches storage
type PersistencePolicy string

const (
	// PolicyDebounced coalesces bursts of edits into one trailing save
	PolicyDebounced PersistencePolicy = "debounced"
	// PolicyImmediate dispatches a save right after the mutation
	PolicyImmediate PersistencePolicy = "immediate"
	// PolicyManual only counts the change; the caller saves explicitly
	PolicyManual PersistencePolicy = "manual"
)

// SaveStatus is the per-document save state
type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

// SnapshotSource hands out the current persisted form of a document together
// with the events raised since the previous snapshot
type SnapshotSource interface {
	Snapshot(docID string) (aggregates.DocumentRecord, []events.DomainEvent, error)
}

// ChangeRecorder is what GraphStore needs from the coordinator
type ChangeRecorder interface {
	Track(docID string, persisted bool)
	RecordChange(docID string, policy PersistencePolicy)
	RecordDeletion(docID string)
}

// SaveState is a point-in-time view of a document's save state
type SaveState struct {
	DocumentID     string     `json:"documentId"`
	Status         SaveStatus `json:"status"`
	PendingChanges int        `json:"pendingChanges"`
	LastError      string     `json:"lastError,omitempty"`
	LastSavedAt    *time.Time `json:"lastSavedAt,omitempty"`
}

type docState struct {
	status      SaveStatus
	pending     int
	persisted   bool
	deleted     bool
	lastErr     error
	lastSavedAt time.Time

	// serializes saves of one document
	saveMu sync.Mutex

	revert    *time.Timer
	revertGen uint64
}

// PersistenceCoordinator schedules saves of in-memory documents and tracks a
// small status machine per document: idle -> saving -> saved|error -> idle.
// A failed save is never retried automatically and never rolls back the
// in-memory state.
type PersistenceCoordinator struct {
	storage   ports.DocumentStorage
	publisher ports.EventPublisher
	source    SnapshotSource
	metrics   *observability.Collector
	logger    *zap.Logger

	debouncer        *scheduling.Debouncer[string]
	savedRevertDelay time.Duration
	errorRevertDelay time.Duration

	mu       sync.Mutex
	docs     map[string]*docState
	inflight int
	idle     *sync.Cond
	closed   bool
}

// NewPersistenceCoordinator creates a new persistence coordinator
func NewPersistenceCoordinator(
	storage ports.DocumentStorage,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *PersistenceCoordinator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	c := &PersistenceCoordinator{
		storage:          storage,
		publisher:        publisher,
		metrics:          metrics,
		logger:           logger,
		savedRevertDelay: cfg.SavedRevertDelay,
		errorRevertDelay: cfg.ErrorRevertDelay,
		docs:             make(map[string]*docState),
	}
	c.idle = sync.NewCond(&c.mu)
	c.debouncer = scheduling.NewDebouncer[string](cfg.DebounceWindow, c.onDebounceElapsed)
	return c
}

// SetSnapshotSource sets the store the coordinator reads documents from
// This is used to resolve the circular dependency with GraphStore
func (c *PersistenceCoordinator) SetSnapshotSource(source SnapshotSource) {
	c.source = source
}

// SetDebounceWindow changes the window for saves scheduled from now on
func (c *PersistenceCoordinator) SetDebounceWindow(window time.Duration) {
	c.debouncer.SetWindow(window)
	c.logger.Info("Debounce window updated", zap.Duration("window", window))
}

// DebounceWindow returns the current debounce window
func (c *PersistenceCoordinator) DebounceWindow() time.Duration {
	return c.debouncer.Window()
}

// Track registers a document. persisted tells whether storage already holds
// it; the first save of an unpersisted document creates it.
func (c *PersistenceCoordinator) Track(docID string, persisted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stateLocked(docID)
	st.persisted = st.persisted || persisted
	st.deleted = false
}

// RecordChange counts one mutation and schedules persistence per policy
func (c *PersistenceCoordinator) RecordChange(docID string, policy PersistencePolicy) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	st := c.stateLocked(docID)
	st.pending++
	c.mu.Unlock()
	c.metrics.AddPendingChanges(1)

	switch policy {
	case PolicyDebounced:
		if c.debouncer.Schedule(docID) {
			c.metrics.RecordCoalesced()
		}
	case PolicyImmediate:
		c.debouncer.Cancel(docID)
		c.dispatch(docID, policy)
	case PolicyManual:
	default:
		c.logger.Warn("Unknown persistence policy, falling back to debounced",
			zap.String("policy", string(policy)),
			zap.String("documentID", docID),
		)
		c.debouncer.Schedule(docID)
	}
}

// SaveNow cancels any pending debounced save and persists the document's
// current state, waiting for the result
func (c *PersistenceCoordinator) SaveNow(ctx context.Context, docID string) error {
	c.debouncer.Cancel(docID)

	if !c.begin() {
		return pkgerrors.NewConflictError("persistence coordinator is closed")
	}
	defer c.end()

	return c.save(ctx, docID, PolicyManual)
}

// RecordDeletion removes a document from storage in the background
func (c *PersistenceCoordinator) RecordDeletion(docID string) {
	c.debouncer.Cancel(docID)
	if !c.begin() {
		return
	}
	go func() {
		defer c.end()
		if err := c.delete(context.Background(), docID); err != nil {
			c.logger.Error("Background delete failed", zap.String("documentID", docID), zap.Error(err))
		}
	}()
}

// DeleteNow removes a document from storage, waiting for the result
func (c *PersistenceCoordinator) DeleteNow(ctx context.Context, docID string) error {
	c.debouncer.Cancel(docID)
	if !c.begin() {
		return pkgerrors.NewConflictError("persistence coordinator is closed")
	}
	defer c.end()
	return c.delete(ctx, docID)
}

// FlushAll saves every document with changes not yet in storage: those
// waiting on a debounce timer, manual changes, and those whose last save
// failed. The first failure is returned after every save was attempted.
func (c *PersistenceCoordinator) FlushAll(ctx context.Context) error {
	seen := make(map[string]bool)
	var docIDs []string
	for _, docID := range c.debouncer.PendingKeys() {
		seen[docID] = true
		docIDs = append(docIDs, docID)
	}

	c.mu.Lock()
	for docID, st := range c.docs {
		if st.pending > 0 && !st.deleted && !seen[docID] {
			seen[docID] = true
			docIDs = append(docIDs, docID)
		}
	}
	c.mu.Unlock()

	var firstErr error
	for _, docID := range docIDs {
		if err := c.SaveNow(ctx, docID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Status returns the save status of a document; unknown documents are idle
func (c *PersistenceCoordinator) Status(docID string) SaveStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.docs[docID]; ok {
		return st.status
	}
	return StatusIdle
}

// PendingChanges returns the number of mutations not yet covered by a save
func (c *PersistenceCoordinator) PendingChanges(docID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.docs[docID]; ok {
		return st.pending
	}
	return 0
}

// State returns the full save state of a document
func (c *PersistenceCoordinator) State(docID string) SaveState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := SaveState{DocumentID: docID, Status: StatusIdle}
	st, ok := c.docs[docID]
	if !ok {
		return state
	}
	state.Status = st.status
	state.PendingChanges = st.pending
	if st.lastErr != nil {
		state.LastError = st.lastErr.Error()
	}
	if !st.lastSavedAt.IsZero() {
		t := st.lastSavedAt
		state.LastSavedAt = &t
	}
	return state
}

// Wait blocks until no save or delete is in flight
func (c *PersistenceCoordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
}

// Close cancels every pending debounced save and status timer. Saves already
// in flight run to completion.
func (c *PersistenceCoordinator) Close() {
	c.debouncer.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, st := range c.docs {
		if st.revert != nil {
			st.revert.Stop()
		}
	}
}

// onDebounceElapsed runs on the debouncer's timer goroutine
func (c *PersistenceCoordinator) onDebounceElapsed(docID string) {
	if !c.begin() {
		return
	}
	defer c.end()

	// errors are reflected in the status machine and logged by save
	_ = c.save(context.Background(), docID, PolicyDebounced)
}

func (c *PersistenceCoordinator) dispatch(docID string, policy PersistencePolicy) {
	if !c.begin() {
		return
	}
	go func() {
		defer c.end()
		_ = c.save(context.Background(), docID, policy)
	}()
}

// save persists the document's state as of the moment the save starts
func (c *PersistenceCoordinator) save(ctx context.Context, docID string, policy PersistencePolicy) error {
	if c.source == nil {
		return pkgerrors.NewInternalError("persistence coordinator has no snapshot source")
	}

	c.mu.Lock()
	st := c.stateLocked(docID)
	c.mu.Unlock()

	st.saveMu.Lock()
	defer st.saveMu.Unlock()

	c.mu.Lock()
	if st.deleted {
		c.mu.Unlock()
		return nil
	}
	c.setStatusLocked(docID, st, StatusSaving)
	persisted := st.persisted
	c.mu.Unlock()

	record, pendingEvents, err := c.source.Snapshot(docID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			c.mu.Lock()
			c.setStatusLocked(docID, st, StatusIdle)
			c.mu.Unlock()
			c.logger.Warn("Document vanished before save", zap.String("documentID", docID))
			return nil
		}
		return c.fail(docID, st, policy, err, pendingEvents, 0)
	}

	c.mu.Lock()
	covered := st.pending
	c.mu.Unlock()

	start := time.Now()
	if persisted {
		err = c.storage.SaveDocument(ctx, docID, ports.PatchFromRecord(record))
	} else {
		_, err = c.storage.CreateDocument(ctx, record)
	}
	duration := time.Since(start)

	if err != nil {
		return c.fail(docID, st, policy, err, pendingEvents, duration)
	}

	c.metrics.RecordSave(string(policy), nil, duration)

	c.mu.Lock()
	st.persisted = true
	st.lastErr = nil
	st.lastSavedAt = time.Now()
	if covered > st.pending {
		covered = st.pending
	}
	st.pending -= covered
	c.setStatusLocked(docID, st, StatusSaved)
	c.scheduleRevertLocked(docID, st, c.savedRevertDelay)
	c.mu.Unlock()
	c.metrics.AddPendingChanges(-covered)

	c.logger.Debug("Document saved",
		zap.String("documentID", docID),
		zap.String("policy", string(policy)),
		zap.Int("nodes", len(record.Nodes)),
		zap.Int("edges", len(record.Edges)),
		zap.Duration("duration", duration),
	)

	c.publish(ctx, docID, pendingEvents)
	return nil
}

func (c *PersistenceCoordinator) fail(docID string, st *docState, policy PersistencePolicy, cause error, dropped []events.DomainEvent, duration time.Duration) error {
	c.metrics.RecordSave(string(policy), cause, duration)
	storageErr := pkgerrors.NewStorageError("save document", cause)

	c.mu.Lock()
	st.lastErr = storageErr
	c.setStatusLocked(docID, st, StatusError)
	c.scheduleRevertLocked(docID, st, c.errorRevertDelay)
	c.mu.Unlock()

	c.logger.Error("Document save failed",
		zap.String("documentID", docID),
		zap.String("policy", string(policy)),
		zap.Error(cause),
	)
	if len(dropped) > 0 {
		c.logger.Warn("Dropping domain events of failed save",
			zap.String("documentID", docID),
			zap.Int("events", len(dropped)),
		)
	}
	return storageErr
}

func (c *PersistenceCoordinator) delete(ctx context.Context, docID string) error {
	c.mu.Lock()
	st := c.stateLocked(docID)
	c.mu.Unlock()

	st.saveMu.Lock()
	defer st.saveMu.Unlock()

	c.mu.Lock()
	persisted := st.persisted
	st.deleted = true
	c.mu.Unlock()

	if persisted {
		start := time.Now()
		err := c.storage.DeleteDocument(ctx, docID)
		c.metrics.RecordStorageOperation("delete_document", err, time.Since(start))
		if err != nil {
			c.mu.Lock()
			st.deleted = false
			st.lastErr = pkgerrors.NewStorageError("delete document", err)
			c.setStatusLocked(docID, st, StatusError)
			c.scheduleRevertLocked(docID, st, c.errorRevertDelay)
			c.mu.Unlock()
			c.logger.Error("Document delete failed", zap.String("documentID", docID), zap.Error(err))
			return pkgerrors.NewStorageError("delete document", err)
		}
	}

	c.publish(ctx, docID, []events.DomainEvent{events.NewEntryDeleted(docID, time.Now())})

	c.mu.Lock()
	c.metrics.AddPendingChanges(-st.pending)
	if st.revert != nil {
		st.revert.Stop()
	}
	delete(c.docs, docID)
	c.mu.Unlock()
	return nil
}

func (c *PersistenceCoordinator) publish(ctx context.Context, docID string, pending []events.DomainEvent) {
	if c.publisher == nil || len(pending) == 0 {
		return
	}
	if err := c.publisher.PublishBatch(ctx, pending); err != nil {
		c.logger.Warn("Failed to publish domain events",
			zap.String("documentID", docID),
			zap.Int("events", len(pending)),
			zap.Error(err),
		)
	}
}

func (c *PersistenceCoordinator) stateLocked(docID string) *docState {
	st, ok := c.docs[docID]
	if !ok {
		st = &docState{status: StatusIdle}
		c.docs[docID] = st
	}
	return st
}

func (c *PersistenceCoordinator) setStatusLocked(docID string, st *docState, status SaveStatus) {
	if st.status == status {
		return
	}
	if st.revert != nil {
		st.revert.Stop()
		st.revert = nil
	}
	c.logger.Debug("Save status changed",
		zap.String("documentID", docID),
		zap.String("from", string(st.status)),
		zap.String("to", string(status)),
	)
	st.status = status
}

// scheduleRevertLocked returns the document to idle after delay unless
// another transition happens first
func (c *PersistenceCoordinator) scheduleRevertLocked(docID string, st *docState, delay time.Duration) {
	if st.revert != nil {
		st.revert.Stop()
	}
	st.revertGen++
	gen := st.revertGen
	from := st.status

	st.revert = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if st.revertGen != gen || st.status != from {
			return
		}
		st.revert = nil
		c.setStatusLocked(docID, st, StatusIdle)
	})
}

func (c *PersistenceCoordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.inflight++
	return true
}

func (c *PersistenceCoordinator) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		c.idle.Broadcast()
	}
}
