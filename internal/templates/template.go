// Package templates provides predefined column sets that can be applied
// to a review in one step. Applying a template adds the columns the
// review does not already have and expands the grid for each one.
package templates

import (
	"time"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

// Template is a named, curated set of column definitions.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Featured    bool      `json:"featured"`
	Description string    `json:"description"`
	ColumnCount int       `json:"column_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateColumn is one column definition within a template.
type TemplateColumn struct {
	ID           uuid.UUID       `json:"id"`
	TemplateID   uuid.UUID       `json:"template_id"`
	Label        string          `json:"label"`
	Type         grid.ColumnType `json:"type"`
	Prompt       string          `json:"prompt"`
	IsCritical   bool            `json:"is_critical"`
	AlwaysReview bool            `json:"always_review"`
	Position     int             `json:"position"`
}

// TemplateDetail pairs a template with its ordered columns.
type TemplateDetail struct {
	Template
	Columns []TemplateColumn `json:"columns"`
}

// ApplyCommand requests applying a template to a review.
type ApplyCommand struct {
	ReviewID   uuid.UUID `json:"review_id"`
	TemplateID uuid.UUID `json:"template_id"`
}

// ApplyResult reports what an application changed. Columns whose label
// the review already carries are skipped, not duplicated.
type ApplyResult struct {
	ReviewID           uuid.UUID `json:"review_id"`
	TemplateID         uuid.UUID `json:"template_id"`
	AddedColumnCount   int       `json:"added_column_count"`
	SkippedColumnCount int       `json:"skipped_column_count"`
}

// Filters narrows template listings.
type Filters struct {
	Category *string
	Featured *bool
	Search   *string
}
