package entities

import (
	"fmt"

	pkgerrors "braindump/pkg/errors"
)

// NodeVariant is the closed set of node kinds a brain dump can hold
type NodeVariant string

const (
	VariantRoot     NodeVariant = "root"
	VariantCategory NodeVariant = "category"
	VariantThought  NodeVariant = "thought"
	VariantGhost    NodeVariant = "ghost"
	VariantLink     NodeVariant = "link"
)

// AllVariants lists every variant in declaration order
var AllVariants = []NodeVariant{VariantRoot, VariantCategory, VariantThought, VariantGhost, VariantLink}

// variantTraits describes how the graph engine treats a variant.
type variantTraits struct {
	layoutRoot      bool // preferred root for full-tree layout
	collapsesPeers  bool // collapsing also hides same-category thoughts
	categoryMember  bool // hidden when a collapsed category shares its category
	searchable      bool // takes part in synonym matching
	weakNodeRef     bool // data carries referencedNodeId
	weakDocumentRef bool // data carries linkedBrainDumpId
}

// traits is the single switch every variant-dependent rule goes through.
// Adding a variant means adding a case here; the default panics so a missing
// case is caught by the first test touching the new variant.
func (v NodeVariant) traits() variantTraits {
	switch v {
	case VariantRoot:
		return variantTraits{layoutRoot: true, searchable: true}
	case VariantCategory:
		return variantTraits{collapsesPeers: true, searchable: true}
	case VariantThought:
		return variantTraits{categoryMember: true, searchable: true}
	case VariantGhost:
		return variantTraits{weakNodeRef: true}
	case VariantLink:
		return variantTraits{searchable: true, weakDocumentRef: true}
	default:
		panic(fmt.Sprintf("unhandled node variant %q", string(v)))
	}
}

// IsValid reports whether v is one of the known variants
func (v NodeVariant) IsValid() bool {
	for _, known := range AllVariants {
		if v == known {
			return true
		}
	}
	return false
}

// IsLayoutRoot reports whether the variant anchors a full-tree layout
func (v NodeVariant) IsLayoutRoot() bool { return v.traits().layoutRoot }

// CollapsesCategoryPeers reports whether collapsing a node of this variant
// also hides thoughts filed under the same category
func (v NodeVariant) CollapsesCategoryPeers() bool { return v.traits().collapsesPeers }

// IsCategoryMember reports whether nodes of this variant are hidden by a
// collapsed category sharing their category
func (v NodeVariant) IsCategoryMember() bool { return v.traits().categoryMember }

// IsSearchable reports whether nodes of this variant are synonym candidates
func (v NodeVariant) IsSearchable() bool { return v.traits().searchable }

// ParseNodeVariant converts a wire value into a NodeVariant
func ParseNodeVariant(s string) (NodeVariant, error) {
	v := NodeVariant(s)
	if !v.IsValid() {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown node type %q", s))
	}
	return v, nil
}

// LayoutMode controls how a node arranges its children
type LayoutMode string

const (
	LayoutFreeform   LayoutMode = "freeform"
	LayoutHorizontal LayoutMode = "horizontal"
)

// IsValid reports whether m is a known layout mode
func (m LayoutMode) IsValid() bool {
	return m == LayoutFreeform || m == LayoutHorizontal
}

// OrDefault returns freeform for the zero value
func (m LayoutMode) OrDefault() LayoutMode {
	if m == "" {
		return LayoutFreeform
	}
	return m
}

// ReferencesNode reports whether the variant weakly points at another node
func (v NodeVariant) ReferencesNode() bool { return v.traits().weakNodeRef }

// ReferencesDocument reports whether the variant weakly points at another brain dump
func (v NodeVariant) ReferencesDocument() bool { return v.traits().weakDocumentRef }
