package cells

import (
	"context"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

// System defines cell state and resolution operations.
type System interface {
	Handler() *Handler
	ListByReview(ctx context.Context, reviewID uuid.UUID) ([]Cell, error)
	Get(ctx context.Context, key grid.CellKey) (*Cell, error)
	Resolve(ctx context.Context, reviewID uuid.UUID, cmd ResolveCommand) (*Cell, error)
}
