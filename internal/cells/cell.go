// Package cells exposes grid cell state and human resolution. Resolution
// is guarded twice: a distributed lock serializes concurrent reviewers on
// the same cell, and the candidate set version guards against resolving
// on top of candidates that arrived after the reviewer last looked.
package cells

import (
	"time"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

// Cell is one document x question intersection with its current
// resolution state.
type Cell struct {
	ReviewID                uuid.UUID             `json:"review_id"`
	FileID                  uuid.UUID             `json:"file_id"`
	ColumnID                uuid.UUID             `json:"column_id"`
	Status                  grid.CellStatus       `json:"status"`
	IsLocked                bool                  `json:"is_locked"`
	ResolvedValue           *string               `json:"resolved_value,omitempty"`
	ResolvedNormalizedValue *string               `json:"resolved_normalized_value,omitempty"`
	ResolutionMethod        grid.ResolutionMethod `json:"resolution_method"`
	CandidateCount          int                   `json:"candidate_count"`
	CommentCount            int                   `json:"comment_count"`
	UnresolvedCommentCount  int                   `json:"unresolved_comment_count"`
	ReviewedBy              *string               `json:"reviewed_by,omitempty"`
	ReviewedAt              *time.Time            `json:"reviewed_at,omitempty"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// ResolveCommand carries a human resolution for one cell.
type ResolveCommand struct {
	FileID         uuid.UUID             `json:"file_id"`
	ColumnID       uuid.UUID             `json:"column_id"`
	Method         grid.ResolutionMethod `json:"method"`
	CandidateIndex *int                  `json:"candidate_index,omitempty"`
	MergedValue    string                `json:"merged_value,omitempty"`
	SetVersion     *int                  `json:"set_version,omitempty"`
	ResolvedBy     string                `json:"resolved_by"`
}
