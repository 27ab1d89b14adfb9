package commands

import "braindump/pkg/utils"

// AddEdgeCommand connects two nodes of one brain dump
type AddEdgeCommand struct {
	UserID       string `json:"-" validate:"required"`
	DocumentID   string `json:"-" validate:"required"`
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
	Type         string `json:"type"`
	Label        string `json:"label" validate:"max=200"`
}

// Validate validates the command
func (c *AddEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteEdgeCommand removes an edge
type DeleteEdgeCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
	EdgeID     string `validate:"required"`
}

// Validate validates the command
func (c *DeleteEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}
