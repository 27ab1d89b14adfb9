package commands

import (
	"braindump/domain/core/entities"
	"braindump/pkg/utils"
)

// CreateEntryCommand creates a brain dump, optionally with an initial graph
// produced by the categorization step
type CreateEntryCommand struct {
	UserID     string          `json:"-" validate:"required"`
	Title      string          `json:"title" validate:"max=200"`
	RawText    string          `json:"rawText" validate:"max=100000"`
	Categories []string        `json:"categories" validate:"max=50,dive,min=1,max=100"`
	Nodes      []entities.Node `json:"nodes"`
	Edges      []entities.Edge `json:"edges"`
}

// Validate validates the command
func (c *CreateEntryCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateEntryCommand changes brain dump metadata
type UpdateEntryCommand struct {
	UserID     string    `json:"-" validate:"required"`
	DocumentID string    `json:"-" validate:"required"`
	Title      *string   `json:"title" validate:"omitempty,max=200"`
	RawText    *string   `json:"rawText" validate:"omitempty,max=100000"`
	Categories *[]string `json:"categories"`
}

// Validate validates the command
func (c *UpdateEntryCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteEntryCommand deletes a brain dump
type DeleteEntryCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Validate validates the command
func (c *DeleteEntryCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SaveEntryCommand writes a brain dump to storage right away and waits for
// the result
type SaveEntryCommand struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Validate validates the command
func (c *SaveEntryCommand) Validate() error {
	return utils.ValidateStruct(c)
}
