package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/casefold/tabular/pkg/pagination"
	"github.com/casefold/tabular/pkg/query"
	"github.com/casefold/tabular/pkg/repository"
	"github.com/casefold/tabular/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a review repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "reviews"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Review], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReview)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Review, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rev, err := repository.QueryOne(ctx, r.db, q, args, scanReview)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rev, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Review, error) {
	if cmd.Name == "" || cmd.CaseID == uuid.Nil {
		return nil, fmt.Errorf("%w: case_id and name required", ErrInvalidInput)
	}

	q := `
		INSERT INTO reviews(id, case_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, case_id, name, status, document_count, column_count, created_at, updated_at`

	rev, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Review, error) {
		return repository.QueryOne(ctx, tx, q, []any{uuid.New(), cmd.CaseID, cmd.Name}, scanReview)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("review created", "id", rev.ID, "case_id", rev.CaseID, "name", rev.Name)
	return &rev, nil
}

const columnQuery = `
	SELECT id, review_id, label, type, prompt, is_critical, always_review, position, created_at
	FROM columns
	WHERE review_id = $1
	ORDER BY position ASC`

func (r *repo) Columns(ctx context.Context, reviewID uuid.UUID) ([]Column, error) {
	cols, err := repository.QueryMany(ctx, r.db, columnQuery, []any{reviewID}, scanColumn)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	return cols, nil
}

// AddColumn inserts a column and fans out a pending cell for every
// document already in the review, all in one transaction.
func (r *repo) AddColumn(ctx context.Context, reviewID uuid.UUID, cmd AddColumnCommand) (*Column, error) {
	if cmd.Label == "" {
		return nil, fmt.Errorf("%w: label required", ErrInvalidInput)
	}
	if _, err := r.Find(ctx, reviewID); err != nil {
		return nil, err
	}

	col, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Column, error) {
		return insertColumn(ctx, tx, reviewID, cmd)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicateLabel)
	}

	r.logger.Info("column added", "review_id", reviewID, "column_id", col.ID, "label", col.Label)
	return &col, nil
}

// insertColumn is shared with the template applicator, which performs the
// same structural expansion under its own transaction.
func insertColumn(ctx context.Context, tx *sql.Tx, reviewID uuid.UUID, cmd AddColumnCommand) (Column, error) {
	insert := `
		INSERT INTO columns(id, review_id, label, type, prompt, is_critical, always_review, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM columns WHERE review_id = $2))
		RETURNING id, review_id, label, type, prompt, is_critical, always_review, position, created_at`

	args := []any{
		uuid.New(),
		reviewID,
		cmd.Label,
		string(cmd.Type),
		cmd.Prompt,
		cmd.IsCritical,
		cmd.ForcedReview(),
	}

	col, err := repository.QueryOne(ctx, tx, insert, args, scanColumn)
	if err != nil {
		return Column{}, err
	}

	fanOut := `
		INSERT INTO cells(review_id, file_id, column_id, status)
		SELECT $1, file_id, $2, 'pending'
		FROM review_documents
		WHERE review_id = $1`
	if _, err := tx.ExecContext(ctx, fanOut, reviewID, col.ID); err != nil {
		return Column{}, fmt.Errorf("fan out cells for column: %w", err)
	}

	touch := `UPDATE reviews SET column_count = column_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, touch, reviewID); err != nil {
		return Column{}, fmt.Errorf("update review counts: %w", err)
	}

	return col, nil
}

const documentQuery = `
	SELECT rd.review_id, rd.file_id, cf.filename, rd.position, rd.added_at
	FROM review_documents rd
	JOIN case_files cf ON cf.id = rd.file_id
	WHERE rd.review_id = $1
	ORDER BY rd.position ASC`

func (r *repo) Documents(ctx context.Context, reviewID uuid.UUID) ([]Document, error) {
	docs, err := repository.QueryMany(ctx, r.db, documentQuery, []any{reviewID}, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query review documents: %w", err)
	}
	return docs, nil
}

// AddDocument attaches a case file as a new row and fans out a pending
// cell for every existing column, all in one transaction.
func (r *repo) AddDocument(ctx context.Context, reviewID uuid.UUID, cmd AddDocumentCommand) (*Document, error) {
	rev, err := r.Find(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	doc, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		inCase, err := repository.QueryScalar[bool](
			ctx, tx,
			"SELECT EXISTS (SELECT 1 FROM case_files WHERE id = $1 AND case_id = $2)",
			cmd.FileID, rev.CaseID,
		)
		if err != nil {
			return Document{}, fmt.Errorf("check case pool: %w", err)
		}
		if !inCase {
			return Document{}, ErrFileNotFound
		}

		insert := `
			INSERT INTO review_documents(review_id, file_id, position)
			VALUES ($1, $2,
				(SELECT COALESCE(MAX(position), 0) + 1 FROM review_documents WHERE review_id = $1))`
		if _, err := tx.ExecContext(ctx, insert, reviewID, cmd.FileID); err != nil {
			return Document{}, err
		}

		fanOut := `
			INSERT INTO cells(review_id, file_id, column_id, status)
			SELECT $1, $2, id, 'pending'
			FROM columns
			WHERE review_id = $1`
		if _, err := tx.ExecContext(ctx, fanOut, reviewID, cmd.FileID); err != nil {
			return Document{}, fmt.Errorf("fan out cells for document: %w", err)
		}

		touch := `UPDATE reviews SET document_count = document_count + 1, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, touch, reviewID); err != nil {
			return Document{}, fmt.Errorf("update review counts: %w", err)
		}

		q := `
			SELECT rd.review_id, rd.file_id, cf.filename, rd.position, rd.added_at
			FROM review_documents rd
			JOIN case_files cf ON cf.id = rd.file_id
			WHERE rd.review_id = $1 AND rd.file_id = $2`
		return repository.QueryOne(ctx, tx, q, []any{reviewID, cmd.FileID}, scanDocument)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrFileNotFound, ErrFileAttached)
	}

	r.logger.Info("document attached", "review_id", reviewID, "file_id", cmd.FileID)
	return &doc, nil
}

// RemoveDocument detaches a row; its cells, candidates, and queue items
// go with it via cascading deletes.
func (r *repo) RemoveDocument(ctx context.Context, reviewID, fileID uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM review_documents WHERE review_id = $1 AND file_id = $2",
			reviewID, fileID,
		); err != nil {
			return struct{}{}, err
		}

		touch := `UPDATE reviews SET document_count = document_count - 1, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, touch, reviewID); err != nil {
			return struct{}{}, fmt.Errorf("update review counts: %w", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrFileNotFound, ErrFileAttached)
	}

	r.logger.Info("document detached", "review_id", reviewID, "file_id", fileID)
	return nil
}

func (r *repo) AvailableFiles(ctx context.Context, reviewID uuid.UUID) ([]CaseFile, error) {
	if _, err := r.Find(ctx, reviewID); err != nil {
		return nil, err
	}

	q := `
		SELECT cf.id, cf.case_id, cf.filename, cf.content_type, cf.size_bytes,
		       cf.page_count, cf.storage_key, cf.uploaded_at
		FROM case_files cf
		JOIN reviews r ON r.case_id = cf.case_id
		WHERE r.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM review_documents rd
			WHERE rd.review_id = $1 AND rd.file_id = cf.id
		  )
		ORDER BY cf.uploaded_at DESC`

	files, err := repository.QueryMany(ctx, r.db, q, []any{reviewID}, scanCaseFile)
	if err != nil {
		return nil, fmt.Errorf("query available files: %w", err)
	}
	return files, nil
}

// FileContent streams a review document's content from the external
// store. Returns the filename alongside the stream for disposition headers.
func (r *repo) FileContent(ctx context.Context, reviewID, fileID uuid.UUID) (*storage.Content, string, error) {
	q := `
		SELECT cf.id, cf.case_id, cf.filename, cf.content_type, cf.size_bytes,
		       cf.page_count, cf.storage_key, cf.uploaded_at
		FROM case_files cf
		JOIN review_documents rd ON rd.file_id = cf.id
		WHERE rd.review_id = $1 AND rd.file_id = $2`

	file, err := repository.QueryOne(ctx, r.db, q, []any{reviewID, fileID}, scanCaseFile)
	if err != nil {
		return nil, "", repository.MapError(err, ErrFileNotFound, ErrFileAttached)
	}

	content, err := r.storage.Download(ctx, file.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("download file %s: %w", fileID, err)
	}

	return content, file.Filename, nil
}
