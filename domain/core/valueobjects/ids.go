package valueobjects

import (
	"strings"

	pkgerrors "braindump/pkg/errors"

	"github.com/google/uuid"
)

// NewNodeID creates a new random node identifier
func NewNodeID() string {
	return uuid.New().String()
}

// NewEdgeID creates a new random edge identifier
func NewEdgeID() string {
	return uuid.New().String()
}

// NewDocumentID creates a new random brain dump identifier
func NewDocumentID() string {
	return uuid.New().String()
}

// EdgeIDFor builds the conventional id for an edge between two nodes.
// Ids only need to be unique within one document.
func EdgeIDFor(sourceID, targetID string) string {
	return "e-" + sourceID + "-" + targetID
}

// ValidateID rejects empty or whitespace-only identifiers
func ValidateID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.NewValidationError(kind + " ID cannot be empty")
	}
	return nil
}
