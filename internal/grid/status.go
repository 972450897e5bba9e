package grid

import (
	"encoding/json"
	"slices"
)

// CellStatus tracks a cell through its extraction and review lifecycle.
type CellStatus string

// Valid cell statuses.
const (
	StatusPending    CellStatus = "pending"
	StatusProcessing CellStatus = "processing"
	StatusCompleted  CellStatus = "completed"
	StatusReviewed   CellStatus = "reviewed"
)

var cellStatuses = []CellStatus{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusReviewed,
}

// cellTransitions holds the permitted status edges. Forward edges follow
// the extraction lifecycle; reviewed -> completed is the regression edge
// taken when late candidates invalidate a resolution, and the edges into
// processing cover re-extraction, including of an already-reviewed cell.
var cellTransitions = map[CellStatus][]CellStatus{
	StatusPending:    {StatusProcessing, StatusCompleted},
	StatusProcessing: {StatusCompleted, StatusPending, StatusReviewed},
	StatusCompleted:  {StatusReviewed, StatusProcessing},
	StatusReviewed:   {StatusCompleted, StatusProcessing},
}

// CanTransition reports whether moving from s to next is a valid edge.
// Self-transitions are permitted; re-resolving a reviewed cell is legal.
func (s CellStatus) CanTransition(next CellStatus) bool {
	if s == next {
		return true
	}
	return slices.Contains(cellTransitions[s], next)
}

// UnmarshalJSON validates that the decoded string is a known cell status.
func (s *CellStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := CellStatus(raw)
	if !slices.Contains(cellStatuses, v) {
		return ErrInvalidCellStatus
	}
	*s = v
	return nil
}

// ReviewStatus tracks a review through its lifecycle.
type ReviewStatus string

// Valid review statuses.
const (
	ReviewDraft      ReviewStatus = "draft"
	ReviewProcessing ReviewStatus = "processing"
	ReviewActive     ReviewStatus = "active"
	ReviewArchived   ReviewStatus = "archived"
)

var reviewStatuses = []ReviewStatus{
	ReviewDraft,
	ReviewProcessing,
	ReviewActive,
	ReviewArchived,
}

// UnmarshalJSON validates that the decoded string is a known review status.
func (s *ReviewStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := ReviewStatus(raw)
	if !slices.Contains(reviewStatuses, v) {
		return ErrInvalidReviewStatus
	}
	*s = v
	return nil
}
