package commands

import (
	"braindump/domain/core/entities"
	"braindump/domain/core/valueobjects"
	"braindump/pkg/utils"
)

// AddNodeCommand places a new node on a brain dump's canvas
type AddNodeCommand struct {
	UserID     string   `json:"-" validate:"required"`
	DocumentID string   `json:"-" validate:"required"`
	Type       string   `json:"type" validate:"required,oneof=root category thought ghost link"`
	Label      string   `json:"label" validate:"max=500"`
	Category   string   `json:"category" validate:"max=100"`
	Synonyms   []string `json:"synonyms" validate:"max=50,dive,min=1,max=200"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
}

// Validate validates the command
func (c *AddNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// Position returns the requested position
func (c *AddNodeCommand) Position() valueobjects.Position {
	return valueobjects.Position{X: c.X, Y: c.Y}
}

// UpdateNodeCommand shallow-merges fields into a node's data
type UpdateNodeCommand struct {
	UserID     string             `json:"-" validate:"required"`
	DocumentID string             `json:"-" validate:"required"`
	NodeID     string             `json:"-" validate:"required"`
	Patch      entities.NodePatch `json:"data"`
}

// Validate validates the command
func (c *UpdateNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// MoveNodeCommand stores a node's position after a drag
type MoveNodeCommand struct {
	UserID     string  `json:"-" validate:"required"`
	DocumentID string  `json:"-" validate:"required"`
	NodeID     string  `json:"-" validate:"required"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Validate validates the command
func (c *MoveNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteNodeCommand removes a node and its edges
type DeleteNodeCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
	NodeID     string `validate:"required"`
}

// Validate validates the command
func (c *DeleteNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ToggleCollapseCommand flips a node's collapsed flag
type ToggleCollapseCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
	NodeID     string `validate:"required"`
}

// Validate validates the command
func (c *ToggleCollapseCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SetLayoutModeCommand switches a node between freeform and horizontal
// arrangement of its children
type SetLayoutModeCommand struct {
	UserID     string `json:"-" validate:"required"`
	DocumentID string `json:"-" validate:"required"`
	NodeID     string `json:"-" validate:"required"`
	Mode       string `json:"layoutMode" validate:"required,oneof=freeform horizontal"`
}

// Validate validates the command
func (c *SetLayoutModeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// AddChildCommand creates a thought under a parent node
type AddChildCommand struct {
	UserID     string `json:"-" validate:"required"`
	DocumentID string `json:"-" validate:"required"`
	ParentID   string `json:"-" validate:"required"`
	Label      string `json:"label" validate:"max=500"`
}

// Validate validates the command
func (c *AddChildCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ApplyLayoutCommand re-lays a whole brain dump as a horizontal tree
type ApplyLayoutCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Validate validates the command
func (c *ApplyLayoutCommand) Validate() error {
	return utils.ValidateStruct(c)
}
