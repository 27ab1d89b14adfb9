package services

import (
	"testing"
	"time"

	"braindump/application/ports"
	"braindump/domain/config"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	domainservices "braindump/domain/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(window time.Duration) *config.DomainConfig {
	cfg := config.DefaultDomainConfig()
	cfg.DebounceWindow = window
	cfg.SavedRevertDelay = 20 * time.Millisecond
	cfg.ErrorRevertDelay = 20 * time.Millisecond
	return cfg
}

// newTestStack wires a store and coordinator the way the container does
func newTestStack(t *testing.T, storage ports.DocumentStorage, publisher ports.EventPublisher, window time.Duration) (*GraphStore, *PersistenceCoordinator) {
	t.Helper()
	cfg := testConfig(window)

	coordinator := NewPersistenceCoordinator(storage, publisher, cfg, nil, zap.NewNop())
	store := NewGraphStore(storage, domainservices.NewLayoutEngine(cfg), cfg, zap.NewNop())
	store.SetScheduler(coordinator)
	coordinator.SetSnapshotSource(store)

	t.Cleanup(func() {
		coordinator.Close()
		coordinator.Wait()
	})
	return store, coordinator
}

func testNode(id string, variant entities.NodeVariant, label string, x, y float64) entities.Node {
	return entities.Node{
		ID:       id,
		Type:     variant,
		Position: valueobjects.Position{X: x, Y: y},
		Data:     entities.NodeData{Label: label, LayoutMode: entities.LayoutFreeform},
	}
}

// seedDocument registers root -> a -> b directly in the store
func seedDocument(t *testing.T, store *GraphStore, persisted bool) string {
	t.Helper()
	doc, err := aggregates.NewDocument("user-1", "Seed", "")
	require.NoError(t, err)
	require.NoError(t, doc.AddNode(testNode("root", entities.VariantRoot, "Root", 0, 0)))
	require.NoError(t, doc.AddNode(testNode("a", entities.VariantThought, "A", 250, 0)))
	require.NoError(t, doc.AddNode(testNode("b", entities.VariantThought, "B", 500, 0)))
	require.NoError(t, doc.AddEdge(entities.NewEdge("root", "a")))
	require.NoError(t, doc.AddEdge(entities.NewEdge("a", "b")))
	doc.PullEvents()

	require.NoError(t, store.RegisterEntry(doc, persisted))
	return doc.ID()
}

func tripDraft(userID string) EntryDraft {
	hotel := testNode("hotel", entities.VariantThought, "Book hotel", 350, 100)
	hotel.Data.Category = "travel"
	return EntryDraft{
		UserID: userID,
		Title:  "Weekend",
		Nodes: []entities.Node{
			testNode("root", entities.VariantRoot, "Weekend", 0, 0),
			testNode("plan", entities.VariantThought, "Plan trip", 100, 50),
			testNode("flight", entities.VariantThought, "Book flight", 350, 0),
			hotel,
			testNode("other", entities.VariantThought, "Groceries", 100, 200),
		},
		Edges: []entities.Edge{
			entities.NewEdge("root", "plan"),
			entities.NewEdge("plan", "flight"),
			entities.NewEdge("plan", "hotel"),
			entities.NewEdge("root", "other"),
		},
	}
}

func findNode(nodes []entities.Node, id string) (entities.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return entities.Node{}, false
}
