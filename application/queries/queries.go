package queries

import "braindump/pkg/utils"

// GetEntryQuery fetches one brain dump as stored
type GetEntryQuery struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Validate validates the query
func (q *GetEntryQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListEntriesQuery lists a user's brain dumps
type ListEntriesQuery struct {
	UserID string `validate:"required"`
}

// Validate validates the query
func (q *ListEntriesQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetVisibleGraphQuery returns the nodes and edges left after collapse
// hiding, with children and parent layout modes filled in
type GetVisibleGraphQuery struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Validate validates the query
func (q *GetVisibleGraphQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// PreviewLayoutQuery computes a layout without storing it. With a ParentID
// only that node's children and grandchildren move.
type PreviewLayoutQuery struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
	ParentID   string
}

// Validate validates the query
func (q *PreviewLayoutQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// FindMatchesQuery searches all of a user's brain dumps for a concept
type FindMatchesQuery struct {
	UserID string `validate:"required"`
	Input  string `validate:"required,max=500"`
}

// Validate validates the query
func (q *FindMatchesQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetSaveStatusQuery reports a brain dump's save indicator
type GetSaveStatusQuery struct {
	UserID     string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Validate validates the query
func (q *GetSaveStatusQuery) Validate() error {
	return utils.ValidateStruct(q)
}
