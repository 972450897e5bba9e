package reviews

import (
	"context"

	"github.com/google/uuid"

	"github.com/casefold/tabular/pkg/pagination"
	"github.com/casefold/tabular/pkg/storage"
)

// System defines the public contract for review grid operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Review], error)

	Find(ctx context.Context, id uuid.UUID) (*Review, error)
	Create(ctx context.Context, cmd CreateCommand) (*Review, error)

	Columns(ctx context.Context, reviewID uuid.UUID) ([]Column, error)
	AddColumn(ctx context.Context, reviewID uuid.UUID, cmd AddColumnCommand) (*Column, error)

	Documents(ctx context.Context, reviewID uuid.UUID) ([]Document, error)
	AddDocument(ctx context.Context, reviewID uuid.UUID, cmd AddDocumentCommand) (*Document, error)
	RemoveDocument(ctx context.Context, reviewID, fileID uuid.UUID) error

	AvailableFiles(ctx context.Context, reviewID uuid.UUID) ([]CaseFile, error)
	FileContent(ctx context.Context, reviewID, fileID uuid.UUID) (*storage.Content, string, error)
}
