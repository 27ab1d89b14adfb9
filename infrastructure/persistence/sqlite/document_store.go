package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"braindump/application/ports"
	"braindump/domain/core/aggregates"
	pkgerrors "braindump/pkg/errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DocumentStore persists brain dumps in a single SQLite file
type DocumentStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentStore opens (or creates) the database at path
func NewDocumentStore(ctx context.Context, path string, logger *zap.Logger) (*DocumentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	// one writer keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)

	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}
	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	logger.Info("SQLite document store ready", zap.String("path", path))
	return &DocumentStore{db: db, logger: logger}, nil
}

// Close closes the database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// LoadDocument reads one record
func (s *DocumentStore) LoadDocument(ctx context.Context, id string) (*aggregates.DocumentRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM brain_dumps WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("document " + id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return decodeBody(body)
}

// SaveDocument merges patch into the stored record inside a transaction
func (s *DocumentStore) SaveDocument(ctx context.Context, id string, patch ports.DocumentPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx, `SELECT body FROM brain_dumps WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return pkgerrors.NewNotFoundError("document " + id)
	}
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	rec, err := decodeBody(body)
	if err != nil {
		return err
	}
	updated := patch.Apply(*rec)

	encoded, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE brain_dumps
		SET title = ?, node_count = ?, edge_count = ?, version = ?, updated_at = ?, body = ?
		WHERE id = ?`,
		updated.Title,
		len(updated.Nodes),
		len(updated.Edges),
		updated.Version,
		formatTime(updated.UpdatedAt),
		string(encoded),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	return tx.Commit()
}

// CreateDocument inserts a new record
func (s *DocumentStore) CreateDocument(ctx context.Context, record aggregates.DocumentRecord) (*aggregates.DocumentRecord, error) {
	if record.ID == "" {
		return nil, pkgerrors.NewValidationError("document id is required")
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	var parent interface{}
	if record.ParentBrainDumpID != "" {
		parent = record.ParentBrainDumpID
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO brain_dumps (id, user_id, title, type, parent_brain_dump_id, node_count, edge_count, version, created_at, updated_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Title,
		string(record.Type),
		parent,
		len(record.Nodes),
		len(record.Edges),
		record.Version,
		formatTime(record.CreatedAt),
		formatTime(record.UpdatedAt),
		string(encoded),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.NewConflictError("document " + record.ID + " already exists")
		}
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	created := record
	return &created, nil
}

// DeleteDocument removes a record; a missing id is not an error
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM brain_dumps WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns userID's summaries, newest first
func (s *DocumentStore) ListDocuments(ctx context.Context, userID string) ([]ports.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, parent_brain_dump_id, node_count, edge_count, updated_at
		FROM brain_dumps
		WHERE user_id = ?
		ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	out := make([]ports.DocumentSummary, 0)
	for rows.Next() {
		var (
			summary   ports.DocumentSummary
			docType   string
			parent    sql.NullString
			updatedAt string
		)
		if err := rows.Scan(&summary.ID, &summary.UserID, &summary.Title, &docType, &parent,
			&summary.NodeCount, &summary.EdgeCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		summary.Type = aggregates.DocumentType(docType)
		summary.ParentBrainDumpID = parent.String
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			summary.UpdatedAt = t
		} else {
			s.logger.Warn("Unparseable updated_at", zap.String("documentID", summary.ID), zap.String("value", updatedAt))
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

func decodeBody(body string) (*aggregates.DocumentRecord, error) {
	var rec aggregates.DocumentRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	return &rec, nil
}

// formatTime writes UTC RFC3339 with fixed-width nanoseconds so that text
// ordering matches time ordering
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
