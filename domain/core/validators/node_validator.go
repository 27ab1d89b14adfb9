package validators

import (
	"fmt"
	"strings"
	"time"

	"braindump/domain/config"
	"braindump/domain/core/aggregates"
	"braindump/domain/core/entities"
	"braindump/pkg/errors"
)

// NodeValidator validates node-related domain rules
type NodeValidator struct {
	labelMaxLength int
	priorityMin    int
	priorityMax    int
}

// NewNodeValidator creates a new node validator
func NewNodeValidator(cfg *config.DomainConfig) *NodeValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &NodeValidator{
		labelMaxLength: cfg.MaxLabelLength,
		priorityMin:    1,
		priorityMax:    10,
	}
}

// ValidateNode checks the variant-specific shape of a node
func (v *NodeValidator) ValidateNode(node entities.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	if err := v.validateLabel(node.Data.Label); err != nil {
		return err
	}

	if node.Type.ReferencesNode() && node.Data.ReferencedNodeID == "" {
		return errors.NewValidationError("ghost node " + node.ID + " must reference a node").
			WithCode("GHOST_WITHOUT_REFERENCE")
	}
	if node.Type.ReferencesDocument() && node.Data.LinkedBrainDumpID == "" {
		return errors.NewValidationError("link node " + node.ID + " must reference a brain dump").
			WithCode("LINK_WITHOUT_TARGET")
	}
	if node.Data.IsInstance && node.Data.PrototypeID == "" {
		return errors.NewValidationError("instance node " + node.ID + " must reference its prototype").
			WithCode("INSTANCE_WITHOUT_PROTOTYPE")
	}

	if err := v.validatePriority("importance", node.Data.Importance); err != nil {
		return err
	}
	if err := v.validatePriority("urgency", node.Data.Urgency); err != nil {
		return err
	}
	return v.validateDueDate(node.Data.DueDate)
}

// ValidatePatch checks the fields a partial update sets
func (v *NodeValidator) ValidatePatch(patch entities.NodePatch) error {
	if patch.Label != nil {
		if err := v.validateLabel(*patch.Label); err != nil {
			return err
		}
	}
	if patch.LayoutMode != nil && !patch.LayoutMode.IsValid() {
		return errors.NewValidationError(fmt.Sprintf("unknown layout mode %q", string(*patch.LayoutMode)))
	}
	if err := v.validatePriority("importance", patch.Importance); err != nil {
		return err
	}
	if err := v.validatePriority("urgency", patch.Urgency); err != nil {
		return err
	}
	if patch.DueDate != nil {
		return v.validateDueDate(*patch.DueDate)
	}
	return nil
}

func (v *NodeValidator) validateLabel(label string) error {
	if len(strings.TrimSpace(label)) > v.labelMaxLength {
		return errors.NewValidationError("label exceeds maximum length").
			WithCode("LABEL_TOO_LONG").
			WithDetails(map[string]interface{}{"max_length": v.labelMaxLength})
	}
	return nil
}

func (v *NodeValidator) validatePriority(field string, value *int) error {
	if value == nil {
		return nil
	}
	if *value < v.priorityMin || *value > v.priorityMax {
		return errors.NewValidationError(fmt.Sprintf("%s must be between %d and %d", field, v.priorityMin, v.priorityMax))
	}
	return nil
}

// validateDueDate accepts RFC3339 timestamps and plain dates
func (v *NodeValidator) validateDueDate(due string) error {
	if due == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, due); err == nil {
		return nil
	}
	if _, err := time.Parse("2006-01-02", due); err == nil {
		return nil
	}
	return errors.NewValidationError("dueDate must be an RFC3339 timestamp or a YYYY-MM-DD date")
}

// GraphValidator validates document-level limits and edge rules
type GraphValidator struct {
	maxNodes             int
	maxEdges             int
	allowSelfConnections bool
	allowDuplicateEdges  bool
}

// NewGraphValidator creates a new graph validator
func NewGraphValidator(cfg *config.DomainConfig) *GraphValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &GraphValidator{
		maxNodes:             cfg.MaxNodesPerDocument,
		maxEdges:             cfg.MaxEdgesPerDocument,
		allowSelfConnections: cfg.AllowSelfConnections,
		allowDuplicateEdges:  cfg.AllowDuplicateEdges,
	}
}

// ValidateNodeCount rejects growing a document past its node limit
func (v *GraphValidator) ValidateNodeCount(doc *aggregates.Document, adding int) error {
	if doc.NodeCount()+adding > v.maxNodes {
		return errors.NewValidationError("maximum number of nodes in brain dump exceeded").
			WithCode("NODE_LIMIT_EXCEEDED").
			WithDetails(map[string]interface{}{"current": doc.NodeCount(), "limit": v.maxNodes})
	}
	return nil
}

// ValidateEdge checks an edge against the document it is added to
func (v *GraphValidator) ValidateEdge(doc *aggregates.Document, edge entities.Edge) error {
	if edge.Source == edge.Target && !v.allowSelfConnections {
		return errors.NewValidationError("cannot connect node " + edge.Source + " to itself").
			WithCode("SELF_REFERENTIAL_EDGE")
	}
	if !v.allowDuplicateEdges && doc.HasEdgeBetween(edge.Source, edge.Target) {
		return errors.NewConflictError("edge " + edge.Source + " -> " + edge.Target + " already exists")
	}
	if doc.EdgeCount()+1 > v.maxEdges {
		return errors.NewValidationError("maximum number of edges in brain dump exceeded").
			WithCode("EDGE_LIMIT_EXCEEDED").
			WithDetails(map[string]interface{}{"current": doc.EdgeCount(), "limit": v.maxEdges})
	}
	return nil
}
