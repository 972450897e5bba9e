package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/casefold/tabular/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a template repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "templates"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

const templateColumns = `t.id, t.name, t.category, t.featured, t.description,
	(SELECT COUNT(*) FROM template_columns tc WHERE tc.template_id = t.id),
	t.created_at`

func scanTemplate(s repository.Scanner) (Template, error) {
	var t Template
	err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Category,
		&t.Featured,
		&t.Description,
		&t.ColumnCount,
		&t.CreatedAt,
	)
	return t, err
}

func scanTemplateColumn(s repository.Scanner) (TemplateColumn, error) {
	var c TemplateColumn
	err := s.Scan(
		&c.ID,
		&c.TemplateID,
		&c.Label,
		&c.Type,
		&c.Prompt,
		&c.IsCritical,
		&c.AlwaysReview,
		&c.Position,
	)
	return c, err
}

func (r *repo) List(ctx context.Context, filters Filters) ([]Template, error) {
	var conditions []string
	var args []any

	if filters.Category != nil {
		args = append(args, *filters.Category)
		conditions = append(conditions, fmt.Sprintf("t.category = $%d", len(args)))
	}
	if filters.Featured != nil {
		args = append(args, *filters.Featured)
		conditions = append(conditions, fmt.Sprintf("t.featured = $%d", len(args)))
	}
	if filters.Search != nil {
		args = append(args, "%"+*filters.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(t.name ILIKE $%d OR t.description ILIKE $%d)", n, n))
	}

	q := fmt.Sprintf("SELECT %s FROM templates t", templateColumns)
	if len(conditions) > 0 {
		q += " WHERE " + strings.Join(conditions, " AND ")
	}
	q += " ORDER BY t.featured DESC, t.name ASC"

	items, err := repository.QueryMany(ctx, r.db, q, args, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*TemplateDetail, error) {
	q := fmt.Sprintf("SELECT %s FROM templates t WHERE t.id = $1", templateColumns)

	tmpl, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanTemplate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query template: %w", err)
	}

	cols, err := r.columns(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	return &TemplateDetail{Template: tmpl, Columns: cols}, nil
}

func (r *repo) columns(ctx context.Context, q repository.Querier, templateID uuid.UUID) ([]TemplateColumn, error) {
	query := `
		SELECT id, template_id, label, type, prompt, is_critical, always_review, position
		FROM template_columns
		WHERE template_id = $1
		ORDER BY position ASC`

	cols, err := repository.QueryMany(ctx, q, query, []any{templateID}, scanTemplateColumn)
	if err != nil {
		return nil, fmt.Errorf("query template columns: %w", err)
	}
	return cols, nil
}

// Apply adds the template's columns to the review, skipping labels the
// review already has (case-insensitive), and fans out pending cells for
// each added column. The whole application is one transaction.
func (r *repo) Apply(ctx context.Context, cmd ApplyCommand) (*ApplyResult, error) {
	cols, err := r.columns(ctx, r.db, cmd.TemplateID)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		if _, err := r.Find(ctx, cmd.TemplateID); err != nil {
			return nil, err
		}
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ApplyResult, error) {
		exists, err := repository.QueryScalar[bool](
			ctx, tx,
			"SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)",
			cmd.ReviewID,
		)
		if err != nil {
			return ApplyResult{}, fmt.Errorf("check review: %w", err)
		}
		if !exists {
			return ApplyResult{}, ErrReviewNotFound
		}

		existing, err := repository.QueryMany(
			ctx, tx,
			"SELECT LOWER(label) FROM columns WHERE review_id = $1",
			[]any{cmd.ReviewID},
			func(s repository.Scanner) (string, error) {
				var label string
				err := s.Scan(&label)
				return label, err
			},
		)
		if err != nil {
			return ApplyResult{}, fmt.Errorf("query existing labels: %w", err)
		}

		taken := make(map[string]bool, len(existing))
		for _, label := range existing {
			taken[label] = true
		}

		result := ApplyResult{ReviewID: cmd.ReviewID, TemplateID: cmd.TemplateID}
		for _, col := range cols {
			if taken[strings.ToLower(col.Label)] {
				result.SkippedColumnCount++
				continue
			}
			if err := addColumn(ctx, tx, cmd.ReviewID, col); err != nil {
				return ApplyResult{}, err
			}
			taken[strings.ToLower(col.Label)] = true
			result.AddedColumnCount++
		}

		if result.AddedColumnCount > 0 {
			touch := `UPDATE reviews
				SET column_count = column_count + $2, updated_at = NOW()
				WHERE id = $1`
			if _, err := tx.ExecContext(ctx, touch, cmd.ReviewID, result.AddedColumnCount); err != nil {
				return ApplyResult{}, fmt.Errorf("update review counts: %w", err)
			}
		}

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("template applied",
		"review_id", cmd.ReviewID,
		"template_id", cmd.TemplateID,
		"added", result.AddedColumnCount,
		"skipped", result.SkippedColumnCount,
	)
	return &result, nil
}

// addColumn inserts one column from the template and creates pending
// cells for every document already in the review.
func addColumn(ctx context.Context, tx *sql.Tx, reviewID uuid.UUID, col TemplateColumn) error {
	insert := `
		INSERT INTO columns(id, review_id, label, type, prompt, is_critical, always_review, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM columns WHERE review_id = $2))`

	columnID := uuid.New()
	if _, err := tx.ExecContext(
		ctx, insert,
		columnID, reviewID, col.Label, string(col.Type), col.Prompt, col.IsCritical, col.AlwaysReview,
	); err != nil {
		return fmt.Errorf("insert column %q: %w", col.Label, err)
	}

	fanOut := `
		INSERT INTO cells(review_id, file_id, column_id, status)
		SELECT $1, file_id, $2, 'pending'
		FROM review_documents
		WHERE review_id = $1`
	if _, err := tx.ExecContext(ctx, fanOut, reviewID, columnID); err != nil {
		return fmt.Errorf("fan out cells for column %q: %w", col.Label, err)
	}

	return nil
}
