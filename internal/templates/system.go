package templates

import (
	"context"

	"github.com/google/uuid"
)

// System defines template listing and application operations.
type System interface {
	Handler() *Handler
	List(ctx context.Context, filters Filters) ([]Template, error)
	Find(ctx context.Context, id uuid.UUID) (*TemplateDetail, error)
	Apply(ctx context.Context, cmd ApplyCommand) (*ApplyResult, error)
}
