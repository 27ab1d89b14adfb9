package commands

import "braindump/pkg/utils"

// ExtractTopicCommand moves a node's subtree into a new topic brain dump
type ExtractTopicCommand struct {
	UserID          string `json:"-" validate:"required"`
	DocumentID      string `json:"-" validate:"required"`
	NodeID          string `json:"-" validate:"required"`
	InitialThoughts string `json:"initialThoughts" validate:"max=100000"`
}

// Validate validates the command
func (c *ExtractTopicCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DissolveTopicCommand merges a topic brain dump back into its source
type DissolveTopicCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
	NodeID     string `validate:"required"`
}

// Validate validates the command
func (c *DissolveTopicCommand) Validate() error {
	return utils.ValidateStruct(c)
}
