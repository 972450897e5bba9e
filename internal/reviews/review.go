// Package reviews implements the review grid domain: reviews, their
// columns, their document references, and the case file pool they draw
// from. Attaching a document or a column fans out pending cells for the
// new row or column in the same transaction, so the grid is never
// structurally inconsistent with its cells.
package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

// Review is a named grid bound to a case: documents are rows, columns are
// analyst questions.
type Review struct {
	ID            uuid.UUID         `json:"id"`
	CaseID        uuid.UUID         `json:"case_id"`
	Name          string            `json:"name"`
	Status        grid.ReviewStatus `json:"status"`
	DocumentCount int               `json:"document_count"`
	ColumnCount   int               `json:"column_count"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Column is one analyst question asked of every document in the review.
type Column struct {
	ID           uuid.UUID       `json:"id"`
	ReviewID     uuid.UUID       `json:"review_id"`
	Label        string          `json:"label"`
	Type         grid.ColumnType `json:"type"`
	Prompt       string          `json:"prompt"`
	IsCritical   bool            `json:"is_critical"`
	AlwaysReview bool            `json:"always_review"`
	Position     int             `json:"position"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Document references a case file included in a review. The file itself
// is owned by the external document store; removing the reference from
// one review never affects other reviews of the same file.
type Document struct {
	ReviewID uuid.UUID `json:"review_id"`
	FileID   uuid.UUID `json:"file_id"`
	Filename string    `json:"filename"`
	Position int       `json:"position"`
	AddedAt  time.Time `json:"added_at"`
}

// CaseFile mirrors the external document store's metadata for one file in
// the case pool.
type CaseFile struct {
	ID          uuid.UUID `json:"id"`
	CaseID      uuid.UUID `json:"case_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SizeLabel   string    `json:"size_label"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CreateCommand carries the data needed to create a new review.
type CreateCommand struct {
	CaseID uuid.UUID `json:"case_id"`
	Name   string    `json:"name"`
}

// AddColumnCommand carries the data needed to add a column to a review.
// AlwaysReview defaults by column type when nil (manual input columns
// always require a human touch).
type AddColumnCommand struct {
	Label        string          `json:"label"`
	Type         grid.ColumnType `json:"type"`
	Prompt       string          `json:"prompt"`
	IsCritical   bool            `json:"is_critical"`
	AlwaysReview *bool           `json:"always_review"`
}

// ForcedReview resolves the effective always_review flag for the command.
func (c AddColumnCommand) ForcedReview() bool {
	if c.AlwaysReview != nil {
		return *c.AlwaysReview
	}
	return c.Type.AlwaysReviewByDefault()
}

// AddDocumentCommand carries the file reference to attach to a review.
type AddDocumentCommand struct {
	FileID uuid.UUID `json:"file_id"`
}
