package queue

import (
	"context"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

// System defines queue operations over a review's grid.
type System interface {
	Handler() *Handler
	Get(ctx context.Context, reviewID uuid.UUID, includeReviewed bool) (*QueueResult, error)
	Rebuild(ctx context.Context, reviewID uuid.UUID) (*RebuildResult, error)
	Upsert(ctx context.Context, key grid.CellKey) error
	MarkReviewed(ctx context.Context, reviewID, itemID uuid.UUID, reviewedBy string) error
}
