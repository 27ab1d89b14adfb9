package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"braindump/application/ports"
	"braindump/domain/core/entities"
	"braindump/domain/events"
	"braindump/infrastructure/persistence/memory"
	pkgerrors "braindump/pkg/errors"
	"braindump/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPersistenceCoordinator_CoalescesUpdatesIntoOneSave(t *testing.T) {
	storage := new(mocks.MockDocumentStorage)
	store, coordinator := newTestStack(t, storage, nil, 50*time.Millisecond)
	docID := seedDocument(t, store, true)

	saved := make(chan ports.DocumentPatch, 4)
	storage.On("SaveDocument", mock.Anything, docID, mock.AnythingOfType("ports.DocumentPatch")).
		Run(func(args mock.Arguments) {
			saved <- args.Get(2).(ports.DocumentPatch)
		}).
		Return(nil)

	first := "Book flight"
	category := "travel"
	second := "Book flights"
	require.NoError(t, store.UpdateNode(docID, "a", entities.NodePatch{Label: &first, Category: &category}))
	require.NoError(t, store.UpdateNode(docID, "a", entities.NodePatch{Label: &second}))
	assert.Equal(t, 2, coordinator.PendingChanges(docID))

	var patch ports.DocumentPatch
	select {
	case patch = <-saved:
	case <-time.After(2 * time.Second):
		t.Fatal("no save issued")
	}
	coordinator.Wait()

	// a second save would have fired well within this
	time.Sleep(150 * time.Millisecond)
	storage.AssertNumberOfCalls(t, "SaveDocument", 1)

	require.NotNil(t, patch.Graph)
	node, ok := findNode(patch.Graph.Nodes, "a")
	require.True(t, ok)
	assert.Equal(t, "Book flights", node.Data.Label)
	assert.Equal(t, "travel", node.Data.Category)
	assert.Zero(t, coordinator.PendingChanges(docID))
	assert.NotNil(t, coordinator.State(docID).LastSavedAt)
}

func TestPersistenceCoordinator_StructuralChangesSaveImmediately(t *testing.T) {
	storage := memory.NewDocumentStore()
	store, _ := newTestStack(t, storage, nil, time.Hour)
	ctx := context.Background()

	doc, err := store.CreateEntry(tripDraft("user-1"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := storage.LoadDocument(ctx, doc.ID())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.DeleteNode(doc.ID(), "plan"))

	assert.Eventually(t, func() bool {
		rec, err := storage.LoadDocument(ctx, doc.ID())
		return err == nil && len(rec.Nodes) == 4 && len(rec.Edges) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPersistenceCoordinator_FailedSaveKeepsStateAndRevertsToIdle(t *testing.T) {
	storage := new(mocks.MockDocumentStorage)
	store, coordinator := newTestStack(t, storage, nil, time.Hour)
	docID := seedDocument(t, store, true)

	storage.On("SaveDocument", mock.Anything, docID, mock.Anything).Return(errors.New("table unavailable"))

	label := "changed"
	require.NoError(t, store.UpdateNode(docID, "a", entities.NodePatch{Label: &label}))

	err := coordinator.SaveNow(context.Background(), docID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStorage(err))

	state := coordinator.State(docID)
	assert.NotEmpty(t, state.LastError)
	assert.Equal(t, 1, state.PendingChanges)

	// no rollback of the optimistic change
	node, err := store.Node(docID, "a")
	require.NoError(t, err)
	assert.Equal(t, "changed", node.Data.Label)

	assert.Eventually(t, func() bool {
		return coordinator.Status(docID) == StatusIdle
	}, time.Second, 5*time.Millisecond)

	// not retried on its own
	storage.AssertNumberOfCalls(t, "SaveDocument", 1)
}

func TestPersistenceCoordinator_PublishesEventsAfterSave(t *testing.T) {
	storage := memory.NewDocumentStore()
	publisher := new(mocks.MockEventPublisher)
	published := make(chan []events.DomainEvent, 4)
	publisher.On("PublishBatch", mock.Anything, mock.AnythingOfType("[]events.DomainEvent")).
		Run(func(args mock.Arguments) {
			published <- args.Get(1).([]events.DomainEvent)
		}).
		Return(nil)

	store, _ := newTestStack(t, storage, publisher, time.Hour)
	_, err := store.CreateEntry(EntryDraft{UserID: "user-1", Title: "Empty"})
	require.NoError(t, err)

	select {
	case batch := <-published:
		require.NotEmpty(t, batch)
		assert.Equal(t, "entry.created", batch[0].GetEventType())
	case <-time.After(2 * time.Second):
		t.Fatal("no events published")
	}
}

func TestPersistenceCoordinator_FlushAllSavesPendingDocuments(t *testing.T) {
	storage := memory.NewDocumentStore()
	store, coordinator := newTestStack(t, storage, nil, time.Hour)
	ctx := context.Background()

	doc, err := store.CreateEntry(tripDraft("user-1"))
	require.NoError(t, err)
	coordinator.Wait()

	label := "Plan holiday"
	require.NoError(t, store.UpdateNode(doc.ID(), "plan", entities.NodePatch{Label: &label}))
	require.NoError(t, coordinator.FlushAll(ctx))

	rec, err := storage.LoadDocument(ctx, doc.ID())
	require.NoError(t, err)
	node, ok := findNode(rec.Nodes, "plan")
	require.True(t, ok)
	assert.Equal(t, "Plan holiday", node.Data.Label)
	assert.Zero(t, coordinator.PendingChanges(doc.ID()))
}

func TestPersistenceCoordinator_FlushAllRetriesFailedSaves(t *testing.T) {
	storage := new(mocks.MockDocumentStorage)
	store, coordinator := newTestStack(t, storage, nil, time.Hour)
	docID := seedDocument(t, store, true)
	ctx := context.Background()

	storage.On("SaveDocument", mock.Anything, docID, mock.Anything).Return(errors.New("table unavailable")).Once()
	storage.On("SaveDocument", mock.Anything, docID, mock.Anything).Return(nil)

	label := "changed"
	require.NoError(t, store.UpdateNode(docID, "a", entities.NodePatch{Label: &label}))
	require.Error(t, coordinator.SaveNow(ctx, docID))
	require.Equal(t, 1, coordinator.PendingChanges(docID))

	require.NoError(t, coordinator.FlushAll(ctx))

	storage.AssertNumberOfCalls(t, "SaveDocument", 2)
	assert.Zero(t, coordinator.PendingChanges(docID))
}

func TestPersistenceCoordinator_FlushAllReportsFailure(t *testing.T) {
	storage := new(mocks.MockDocumentStorage)
	store, coordinator := newTestStack(t, storage, nil, time.Hour)
	docID := seedDocument(t, store, true)
	ctx := context.Background()

	storage.On("SaveDocument", mock.Anything, docID, mock.Anything).Return(errors.New("table unavailable"))

	label := "changed"
	require.NoError(t, store.UpdateNode(docID, "a", entities.NodePatch{Label: &label}))
	require.Error(t, coordinator.SaveNow(ctx, docID))

	err := coordinator.FlushAll(ctx)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsStorage(err))
	storage.AssertNumberOfCalls(t, "SaveDocument", 2)
	assert.Equal(t, 1, coordinator.PendingChanges(docID))
}

func TestPersistenceCoordinator_SaveNowCancelsPendingDebounce(t *testing.T) {
	storage := new(mocks.MockDocumentStorage)
	store, coordinator := newTestStack(t, storage, nil, 50*time.Millisecond)
	docID := seedDocument(t, store, true)

	storage.On("SaveDocument", mock.Anything, docID, mock.Anything).Return(nil)

	label := "changed"
	require.NoError(t, store.UpdateNode(docID, "a", entities.NodePatch{Label: &label}))
	require.NoError(t, coordinator.SaveNow(context.Background(), docID))

	// the cancelled timer would have fired well within this
	time.Sleep(200 * time.Millisecond)
	coordinator.Wait()

	storage.AssertNumberOfCalls(t, "SaveDocument", 1)
	assert.Zero(t, coordinator.PendingChanges(docID))
}

func TestPersistenceCoordinator_DeleteEntryRemovesFromStorage(t *testing.T) {
	storage := memory.NewDocumentStore()
	store, coordinator := newTestStack(t, storage, nil, time.Hour)

	doc, err := store.CreateEntry(tripDraft("user-1"))
	require.NoError(t, err)
	coordinator.Wait()
	require.Equal(t, 1, storage.Len())

	require.NoError(t, store.DeleteEntry(doc.ID()))
	coordinator.Wait()

	assert.Zero(t, storage.Len())
	assert.Equal(t, StatusIdle, coordinator.Status(doc.ID()))
	assert.True(t, pkgerrors.IsNotFound(store.DeleteEntry(doc.ID())))
}

func TestPersistenceCoordinator_SetDebounceWindow(t *testing.T) {
	_, coordinator := newTestStack(t, memory.NewDocumentStore(), nil, time.Hour)

	coordinator.SetDebounceWindow(10 * time.Millisecond)

	assert.Equal(t, 10*time.Millisecond, coordinator.DebounceWindow())
}
