package entities

import (
	"strings"

	"braindump/domain/core/valueobjects"
	pkgerrors "braindump/pkg/errors"
)

// Node is a single thought, category or placeholder on the canvas.
// Unlike the aggregate it is a plain value: layout and visibility return
// modified copies instead of mutating it.
type Node struct {
	ID       string                `json:"id"`
	Type     NodeVariant           `json:"type"`
	Position valueobjects.Position `json:"position"`
	Data     NodeData              `json:"data"`
}

// NodeData carries the variant-shaped payload of a node
type NodeData struct {
	Label       string     `json:"label"`
	Category    string     `json:"category,omitempty"`
	Synonyms    []string   `json:"synonyms,omitempty"`
	IsCollapsed bool       `json:"isCollapsed,omitempty"`
	LayoutMode  LayoutMode `json:"layoutMode,omitempty"`

	HasTopicBrainDump bool   `json:"hasTopicBrainDump,omitempty"`
	TopicBrainDumpID  string `json:"topicBrainDumpId,omitempty"`

	IsGhost          bool   `json:"isGhost,omitempty"`
	ReferencedNodeID string `json:"referencedNodeId,omitempty"`

	IsInstance  bool     `json:"isInstance,omitempty"`
	PrototypeID string   `json:"prototypeId,omitempty"`
	Instances   []string `json:"instances,omitempty"`

	IsLink            bool   `json:"isLink,omitempty"`
	LinkedBrainDumpID string `json:"linkedBrainDumpId,omitempty"`

	Importance *int              `json:"importance,omitempty"`
	Urgency    *int              `json:"urgency,omitempty"`
	DueDate    string            `json:"dueDate,omitempty"`
	Style      map[string]string `json:"style,omitempty"`

	// Derived by the visibility pass, never persisted
	Children         []string   `json:"children,omitempty"`
	ParentLayoutMode LayoutMode `json:"parentLayoutMode,omitempty"`
}

// Styles applied to placeholder nodes
var (
	GhostStyle = map[string]string{
		"borderStyle": "dashed",
		"opacity":     "0.7",
	}
	TopicReferenceStyle = map[string]string{
		"borderStyle": "dashed",
		"borderColor": "#8b5cf6",
		"opacity":     "0.85",
	}
)

// NewNode creates a node with a fresh id
func NewNode(variant NodeVariant, label string, position valueobjects.Position) (Node, error) {
	if !variant.IsValid() {
		return Node{}, pkgerrors.NewValidationError("unknown node type " + string(variant))
	}
	if !position.IsValid() {
		return Node{}, pkgerrors.NewValidationError("invalid position")
	}

	return Node{
		ID:       valueobjects.NewNodeID(),
		Type:     variant,
		Position: position,
		Data: NodeData{
			Label:      strings.TrimSpace(label),
			LayoutMode: LayoutFreeform,
		},
	}, nil
}

// Validate checks the structural rules every stored node must satisfy
func (n Node) Validate() error {
	if err := valueobjects.ValidateID("node", n.ID); err != nil {
		return err
	}
	if !n.Type.IsValid() {
		return pkgerrors.NewValidationError("unknown node type " + string(n.Type))
	}
	if !n.Position.IsValid() {
		return pkgerrors.NewValidationError("invalid position for node " + n.ID)
	}
	if n.Data.LayoutMode != "" && !n.Data.LayoutMode.IsValid() {
		return pkgerrors.NewValidationError("unknown layout mode " + string(n.Data.LayoutMode))
	}
	return nil
}

// IsPlaceholder reports whether the node only stands in for something else:
// a ghost, or an origin node whose subtree lives in a topic brain dump.
func (n Node) IsPlaceholder() bool {
	return n.Type == VariantGhost || n.Data.IsGhost
}

// WithPosition returns a copy of n moved to p
func (n Node) WithPosition(p valueobjects.Position) Node {
	n.Position = p
	return n
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// Clone returns a deep copy of the data
func (d NodeData) Clone() NodeData {
	d.Synonyms = cloneStrings(d.Synonyms)
	d.Instances = cloneStrings(d.Instances)
	d.Children = cloneStrings(d.Children)
	if d.Importance != nil {
		v := *d.Importance
		d.Importance = &v
	}
	if d.Urgency != nil {
		v := *d.Urgency
		d.Urgency = &v
	}
	if d.Style != nil {
		style := make(map[string]string, len(d.Style))
		for k, v := range d.Style {
			style[k] = v
		}
		d.Style = style
	}
	return d
}

// WithoutDerived clears the fields recomputed by the visibility pass
func (d NodeData) WithoutDerived() NodeData {
	d.Children = nil
	d.ParentLayoutMode = ""
	return d
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
