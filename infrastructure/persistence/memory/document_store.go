package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"braindump/application/ports"
	"braindump/domain/core/aggregates"
	pkgerrors "braindump/pkg/errors"
)

// DocumentStore keeps documents in process memory. Records are stored as
// JSON so callers never share slices with the store.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewDocumentStore creates an empty in-memory document store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string][]byte),
	}
}

// LoadDocument returns a copy of the stored record
func (s *DocumentStore) LoadDocument(ctx context.Context, id string) (*aggregates.DocumentRecord, error) {
	s.mu.RLock()
	raw, ok := s.docs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, pkgerrors.NewNotFoundError("document " + id)
	}
	return decode(raw)
}

// SaveDocument merges patch into the stored record
func (s *DocumentStore) SaveDocument(ctx context.Context, id string, patch ports.DocumentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.docs[id]
	if !ok {
		return pkgerrors.NewNotFoundError("document " + id)
	}
	rec, err := decode(raw)
	if err != nil {
		return err
	}

	updated, err := json.Marshal(patch.Apply(*rec))
	if err != nil {
		return pkgerrors.NewInternalError("encode document").WithCause(err)
	}
	s.docs[id] = updated
	return nil
}

// CreateDocument stores a new record
func (s *DocumentStore) CreateDocument(ctx context.Context, record aggregates.DocumentRecord) (*aggregates.DocumentRecord, error) {
	if record.ID == "" {
		return nil, pkgerrors.NewValidationError("document id is required")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, pkgerrors.NewInternalError("encode document").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[record.ID]; exists {
		return nil, pkgerrors.NewConflictError("document " + record.ID + " already exists")
	}
	s.docs[record.ID] = raw
	return decode(raw)
}

// DeleteDocument removes a record if present
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
	return nil
}

// ListDocuments returns summaries of userID's documents, newest first
func (s *DocumentStore) ListDocuments(ctx context.Context, userID string) ([]ports.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.DocumentSummary, 0)
	for _, raw := range s.docs {
		rec, err := decode(raw)
		if err != nil {
			return nil, err
		}
		if rec.UserID != userID {
			continue
		}
		out = append(out, ports.SummaryOf(*rec))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Len returns the number of stored documents
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func decode(raw []byte) (*aggregates.DocumentRecord, error) {
	var rec aggregates.DocumentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, pkgerrors.NewInternalError("decode document").WithCause(err)
	}
	return &rec, nil
}
