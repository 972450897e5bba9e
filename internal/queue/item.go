// Package queue maintains the prioritized review queue derived from
// cell classification. Queue items are a projection of grid state:
// they can be rebuilt wholesale for a review or upserted for a single
// cell as candidates arrive.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/detect"
	"github.com/casefold/tabular/internal/grid"
)

// Item is one entry in a review's queue, pointing at the cell that
// needs human attention.
type Item struct {
	ID         uuid.UUID  `json:"id"`
	ReviewID   uuid.UUID  `json:"review_id"`
	FileID     uuid.UUID  `json:"file_id"`
	ColumnID   uuid.UUID  `json:"column_id"`
	Priority   int        `json:"priority"`
	Reason     string     `json:"reason"`
	IsReviewed bool       `json:"is_reviewed"`
	ReviewedBy *string    `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Stats summarizes the live (unreviewed) portion of a review's queue.
type Stats struct {
	TotalItems        int            `json:"total_items"`
	ByReason          map[string]int `json:"by_reason"`
	ByPriority        map[int]int    `json:"by_priority"`
	HighPriorityCount int            `json:"high_priority_count"`
}

func newStats() Stats {
	return Stats{
		ByReason:   map[string]int{},
		ByPriority: map[int]int{},
	}
}

// add counts one queue entry. Reason sets are comma-packed, so a
// conflict,critical_column entry counts once per reason.
func (s *Stats) add(priority int, reason string) {
	s.TotalItems++
	s.ByPriority[priority]++
	if priority == 1 {
		s.HighPriorityCount++
	}
	for _, r := range detect.ParseReasonSet(reason).Slice() {
		s.ByReason[r.String()]++
	}
}

// QueueResult pairs the ordered items with their aggregate stats.
type QueueResult struct {
	Items []Item `json:"items"`
	Stats Stats  `json:"stats"`
}

// RebuildResult reports the outcome of a full queue rebuild, including
// the stats of the freshly staged queue.
type RebuildResult struct {
	ReviewID    uuid.UUID `json:"review_id"`
	CellCount   int       `json:"cell_count"`
	QueuedCount int       `json:"queued_count"`
	Stats       Stats     `json:"stats"`
}

// CellState carries everything classification needs to know about one
// cell: its position in the grid plus its column policy, status, and
// extraction candidates.
type CellState struct {
	Key   grid.CellKey
	Input detect.CellInput
}
