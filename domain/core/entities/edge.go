package entities

import (
	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"
)

// EdgeTypeSmoothStep is the default edge rendering type used by the canvas
const EdgeTypeSmoothStep = "smoothstep"

// Edge is a directed connection between two nodes of the same brain dump
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
	Label        string `json:"label,omitempty"`
}

// NewEdge creates an edge with the conventional id for the pair
func NewEdge(source, target string) Edge {
	return Edge{
		ID:     valueobjects.EdgeIDFor(source, target),
		Source: source,
		Target: target,
		Type:   EdgeTypeSmoothStep,
	}
}

// Validate checks the edge carries an id and both endpoints
func (e Edge) Validate() error {
	if err := valueobjects.ValidateID("edge", e.ID); err != nil {
		return err
	}
	if e.Source == "" || e.Target == "" {
		return pkgerrors.NewValidationError("edge " + e.ID + " must have a source and a target")
	}
	return nil
}

// Touches reports whether the edge starts or ends at nodeID
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}
