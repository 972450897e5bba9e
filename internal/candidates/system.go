package candidates

import (
	"context"

	"github.com/casefold/tabular/internal/grid"
)

// System defines candidate storage and the extraction side of the cell
// lifecycle.
type System interface {
	Handler() *Handler
	BeginExtraction(ctx context.Context, key grid.CellKey) (*ExtractionState, error)
	Append(ctx context.Context, key grid.CellKey, cmd AppendCommand) (*AppendResult, error)
	ListByCell(ctx context.Context, key grid.CellKey) (*CandidateSet, error)
}
