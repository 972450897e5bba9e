// Package candidates stores extraction candidates and drives the cell
// lifecycle around extraction: marking a cell processing when an
// extraction run begins, appending the run's proposed values, and
// settling the cell (auto-resolve, regress, or queue) when they land.
package candidates

import (
	"time"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

// Candidate is one extraction run's proposed value for a cell,
// append-only once written.
type Candidate struct {
	ID               uuid.UUID `json:"id"`
	ReviewID         uuid.UUID `json:"review_id"`
	FileID           uuid.UUID `json:"file_id"`
	ColumnID         uuid.UUID `json:"column_id"`
	Value            string    `json:"value"`
	NormalizedValue  string    `json:"normalized_value"`
	Confidence       float64   `json:"confidence"`
	VerbatimQuote    string    `json:"verbatim_quote,omitempty"`
	SourcePage       *int      `json:"source_page,omitempty"`
	SourceSection    *string   `json:"source_section,omitempty"`
	ExtractionMethod string    `json:"extraction_method"`
	Reasoning        string    `json:"reasoning,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CandidateSet is a cell's full candidate listing plus the set version
// a resolver echoes back to guard against concurrent appends.
type CandidateSet struct {
	Candidates []Candidate `json:"candidates"`
	SetVersion int         `json:"set_version"`
}

// AppendCandidate is one proposed value in an append batch.
type AppendCandidate struct {
	Value            string  `json:"value"`
	Confidence       float64 `json:"confidence"`
	VerbatimQuote    string  `json:"verbatim_quote,omitempty"`
	SourcePage       *int    `json:"source_page,omitempty"`
	SourceSection    *string `json:"source_section,omitempty"`
	ExtractionMethod string  `json:"extraction_method"`
	Reasoning        string  `json:"reasoning,omitempty"`
}

// AppendCommand is a batch of candidates from one extraction run.
type AppendCommand struct {
	Candidates []AppendCandidate `json:"candidates"`
}

// AppendResult reports how the cell settled after an append.
type AppendResult struct {
	Appended         int                   `json:"appended"`
	SetVersion       int                   `json:"set_version"`
	Status           grid.CellStatus       `json:"status"`
	ResolutionMethod grid.ResolutionMethod `json:"resolution_method"`
	Queued           bool                  `json:"queued"`
}

// ExtractionState reports a cell's status after extraction begins. The
// cell stays locked until its batch lands and the cell settles.
type ExtractionState struct {
	ReviewID uuid.UUID       `json:"review_id"`
	FileID   uuid.UUID       `json:"file_id"`
	ColumnID uuid.UUID       `json:"column_id"`
	Status   grid.CellStatus `json:"status"`
	IsLocked bool            `json:"is_locked"`
}
