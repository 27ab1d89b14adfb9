package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"braindump/application/ports"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStore(t *testing.T) *DocumentStore {
	t.Helper()
	store, err := NewDocumentStore(context.Background(), filepath.Join(t.TempDir(), "braindump.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(t *testing.T, userID, title string) aggregates.DocumentRecord {
	t.Helper()
	doc, err := aggregates.NewDocument(userID, title, "notes")
	require.NoError(t, err)

	root, err := entities.NewNode(entities.VariantRoot, "root", valueobjects.Position{})
	require.NoError(t, err)
	child, err := entities.NewNode(entities.VariantThought, "child", valueobjects.Position{X: 250})
	require.NoError(t, err)
	require.NoError(t, doc.AddNode(root))
	require.NoError(t, doc.AddNode(child))
	require.NoError(t, doc.AddEdge(entities.NewEdge(root.ID, child.ID)))
	return doc.ToRecord()
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	rec := sampleRecord(t, "user-1", "Ideas")

	_, err := store.CreateDocument(ctx, rec)
	require.NoError(t, err)

	loaded, err := store.LoadDocument(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Title, loaded.Title)
	assert.Len(t, loaded.Nodes, 2)
	require.Len(t, loaded.Edges, 1)
	assert.Equal(t, rec.Edges[0].ID, loaded.Edges[0].ID)

	_, err = store.CreateDocument(ctx, rec)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestDocumentStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first := sampleRecord(t, "user-1", "First")
	second := sampleRecord(t, "user-1", "Second")
	foreign := sampleRecord(t, "user-2", "Foreign")
	for _, rec := range []aggregates.DocumentRecord{first, second, foreign} {
		_, err := store.CreateDocument(ctx, rec)
		require.NoError(t, err)
	}

	title := "First, renamed"
	require.NoError(t, store.SaveDocument(ctx, first.ID, ports.DocumentPatch{
		Title:     &title,
		Graph:     &ports.GraphSnapshot{Nodes: first.Nodes[:1], Edges: []entities.Edge{}},
		UpdatedAt: time.Now().Add(time.Hour),
		Version:   first.Version + 1,
	}))

	list, err := store.ListDocuments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "most recently updated first")
	assert.Equal(t, "First, renamed", list[0].Title)
	assert.Equal(t, 1, list[0].NodeCount)
	assert.Equal(t, 0, list[0].EdgeCount)

	loaded, err := store.LoadDocument(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", loaded.RawText)
}

func TestDocumentStore_MissingDocuments(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := store.LoadDocument(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	title := "x"
	err = store.SaveDocument(ctx, "missing", ports.DocumentPatch{Title: &title})
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.NoError(t, store.DeleteDocument(ctx, "missing"))
}
