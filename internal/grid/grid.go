// Package grid defines the shared vocabulary of the review grid: column
// types, cell statuses, resolution methods, and the cell key. Every other
// domain package speaks in these types; they carry no storage or transport
// concerns.
package grid

import (
	"fmt"

	"github.com/google/uuid"
)

// NotApplicable is the canonical sentinel recorded when a cell is resolved
// as having no applicable value.
const NotApplicable = "N/A"

// CellKey identifies the atomic unit of review: one document × one column
// within a review.
type CellKey struct {
	ReviewID uuid.UUID `json:"review_id"`
	FileID   uuid.UUID `json:"file_id"`
	ColumnID uuid.UUID `json:"column_id"`
}

// String renders the key for lock scoping and log correlation.
func (k CellKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ReviewID, k.FileID, k.ColumnID)
}
