package commands

import (
	"braindump/domain/core/valueobjects"
	"braindump/pkg/utils"
)

// MaterializeMatchCommand turns a synonym match into an instance or a ghost
// in the target brain dump
type MaterializeMatchCommand struct {
	UserID          string  `json:"-" validate:"required"`
	DocumentID      string  `json:"-" validate:"required"`
	MatchDocumentID string  `json:"matchDocumentId" validate:"required"`
	MatchNodeID     string  `json:"matchNodeId" validate:"required"`
	Mode            string  `json:"mode" validate:"required,oneof=instance ghost"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
}

// Validate validates the command
func (c *MaterializeMatchCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// Position returns the requested position
func (c *MaterializeMatchCommand) Position() valueobjects.Position {
	return valueobjects.Position{X: c.X, Y: c.Y}
}

// CreateLinkNodeCommand adds a node pointing at another brain dump
type CreateLinkNodeCommand struct {
	UserID           string  `json:"-" validate:"required"`
	DocumentID       string  `json:"-" validate:"required"`
	TargetDocumentID string  `json:"targetDocumentId" validate:"required"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
}

// Validate validates the command
func (c *CreateLinkNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// Position returns the requested position
func (c *CreateLinkNodeCommand) Position() valueobjects.Position {
	return valueobjects.Position{X: c.X, Y: c.Y}
}
