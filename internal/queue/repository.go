package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/detect"
	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/pkg/repository"
)

type repo struct {
	db         *sql.DB
	classifier *detect.Classifier
	workers    int
	logger     *slog.Logger
}

// New creates a queue repository implementing the System interface.
func New(
	db *sql.DB,
	classifier *detect.Classifier,
	workers int,
	logger *slog.Logger,
) System {
	return &repo{
		db:         db,
		classifier: classifier,
		workers:    workers,
		logger:     logger.With("system", "queue"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

const itemColumns = `id, review_id, file_id, column_id, priority, reason,
	is_reviewed, reviewed_by, reviewed_at, created_at`

func scanItem(rows repository.Scanner) (Item, error) {
	var item Item
	err := rows.Scan(
		&item.ID,
		&item.ReviewID,
		&item.FileID,
		&item.ColumnID,
		&item.Priority,
		&item.Reason,
		&item.IsReviewed,
		&item.ReviewedBy,
		&item.ReviewedAt,
		&item.CreatedAt,
	)
	return item, err
}

func (r *repo) Get(ctx context.Context, reviewID uuid.UUID, includeReviewed bool) (*QueueResult, error) {
	if err := r.checkReview(ctx, reviewID); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT %s
		FROM review_queue_items
		WHERE review_id = $1`, itemColumns)
	if !includeReviewed {
		q += " AND is_reviewed = false"
	}
	q += " ORDER BY priority ASC, created_at ASC, id ASC"

	items, err := repository.QueryMany(ctx, r.db, q, []any{reviewID}, scanItem)
	if err != nil {
		return nil, fmt.Errorf("query queue items: %w", err)
	}

	return &QueueResult{
		Items: items,
		Stats: computeStats(items),
	}, nil
}

// computeStats aggregates the live portion of the queue.
func computeStats(items []Item) Stats {
	stats := newStats()
	for _, item := range items {
		if item.IsReviewed {
			continue
		}
		stats.add(item.Priority, item.Reason)
	}
	return stats
}

// Rebuild reclassifies every unresolved cell in the review and replaces
// the queue wholesale. Reviewed-item markers are working state of the
// old queue and do not survive.
func (r *repo) Rebuild(ctx context.Context, reviewID uuid.UUID) (*RebuildResult, error) {
	if err := r.checkReview(ctx, reviewID); err != nil {
		return nil, err
	}

	cells, err := r.loadCells(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	items := stage(r.classifier, cells, r.workers)
	stats := stagedStats(items)

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(
			ctx,
			"DELETE FROM review_queue_items WHERE review_id = $1",
			reviewID,
		); err != nil {
			return struct{}{}, fmt.Errorf("clear queue: %w", err)
		}

		for _, item := range items {
			if err := insertItem(ctx, tx, reviewID, item); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("queue rebuilt",
		"review_id", reviewID,
		"cells", len(cells),
		"queued", len(items),
	)

	return &RebuildResult{
		ReviewID:    reviewID,
		CellCount:   len(cells),
		QueuedCount: len(items),
		Stats:       stats,
	}, nil
}

// Upsert reclassifies a single cell and replaces its queue entry. A cell
// that no longer needs review simply drops off the queue.
func (r *repo) Upsert(ctx context.Context, key grid.CellKey) error {
	state, err := r.loadCell(ctx, key)
	if err != nil {
		return err
	}

	// Reviewed cells never queue; their resolution stands until regressed.
	var outcome detect.Outcome
	if state.Input.Status != grid.StatusReviewed {
		outcome = r.classifier.Classify(state.Input)
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(
			ctx,
			"DELETE FROM review_queue_items WHERE review_id = $1 AND file_id = $2 AND column_id = $3",
			key.ReviewID, key.FileID, key.ColumnID,
		); err != nil {
			return struct{}{}, fmt.Errorf("clear queue entry: %w", err)
		}

		if !outcome.Queued() {
			return struct{}{}, nil
		}

		item := staged{
			state:    state,
			priority: outcome.Priority,
			reason:   outcome.Reasons.String(),
		}
		return struct{}{}, insertItem(ctx, tx, key.ReviewID, item)
	})
	return err
}

// MarkReviewed acknowledges a queue item as-is: the cell transitions to
// reviewed keeping whatever resolution it already carries, falling back
// to selecting the best candidate when none was recorded, and the item
// drops off the queue.
func (r *repo) MarkReviewed(ctx context.Context, reviewID, itemID uuid.UUID, reviewedBy string) error {
	if reviewedBy == "" {
		return fmt.Errorf("%w: reviewed_by required", ErrInvalidInput)
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		key := grid.CellKey{ReviewID: reviewID}
		err := tx.QueryRowContext(
			ctx,
			`SELECT file_id, column_id
			 FROM review_queue_items
			 WHERE review_id = $1 AND id = $2
			 FOR UPDATE`,
			reviewID, itemID,
		).Scan(&key.FileID, &key.ColumnID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return struct{}{}, ErrItemNotFound
			}
			return struct{}{}, fmt.Errorf("query queue item: %w", err)
		}

		var status grid.CellStatus
		var method grid.ResolutionMethod
		err = tx.QueryRowContext(
			ctx,
			`SELECT status, resolution_method
			 FROM cells
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3
			 FOR UPDATE`,
			key.ReviewID, key.FileID, key.ColumnID,
		).Scan(&status, &method)
		if err != nil {
			return struct{}{}, fmt.Errorf("query cell: %w", err)
		}

		if !status.CanTransition(grid.StatusReviewed) {
			return struct{}{}, fmt.Errorf("%w: %s", ErrCellNotReviewable, status)
		}

		if method == grid.MethodNone {
			var value, normalized string
			err := tx.QueryRowContext(
				ctx,
				`SELECT value, normalized_value
				 FROM candidates
				 WHERE review_id = $1 AND file_id = $2 AND column_id = $3
				 ORDER BY confidence DESC, created_at ASC, id ASC
				 LIMIT 1`,
				key.ReviewID, key.FileID, key.ColumnID,
			).Scan(&value, &normalized)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				// No candidates to settle on; the reviewed stamp stands alone.
			case err != nil:
				return struct{}{}, fmt.Errorf("query best candidate: %w", err)
			default:
				if _, err := tx.ExecContext(
					ctx,
					`UPDATE cells
					 SET resolution_method = 'select', resolved_value = $4, resolved_normalized_value = $5
					 WHERE review_id = $1 AND file_id = $2 AND column_id = $3`,
					key.ReviewID, key.FileID, key.ColumnID, value, normalized,
				); err != nil {
					return struct{}{}, fmt.Errorf("record selection: %w", err)
				}
			}
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE cells
			 SET status = 'reviewed', is_locked = false,
			     reviewed_by = $4, reviewed_at = NOW(), updated_at = NOW()
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3`,
			key.ReviewID, key.FileID, key.ColumnID, reviewedBy,
		); err != nil {
			return struct{}{}, fmt.Errorf("update cell: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			"DELETE FROM review_queue_items WHERE id = $1",
			itemID,
		); err != nil {
			return struct{}{}, fmt.Errorf("clear queue entry: %w", err)
		}

		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("queue item marked reviewed", "review_id", reviewID, "item_id", itemID, "reviewed_by", reviewedBy)
	return nil
}

func insertItem(ctx context.Context, tx *sql.Tx, reviewID uuid.UUID, item staged) error {
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO review_queue_items(id, review_id, file_id, column_id, priority, reason)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), reviewID, item.state.Key.FileID, item.state.Key.ColumnID, item.priority, item.reason,
	); err != nil {
		return fmt.Errorf("insert queue item: %w", err)
	}
	return nil
}

func (r *repo) checkReview(ctx context.Context, reviewID uuid.UUID) error {
	exists, err := repository.QueryScalar[bool](
		ctx, r.db,
		"SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)",
		reviewID,
	)
	if err != nil {
		return fmt.Errorf("check review: %w", err)
	}
	if !exists {
		return ErrReviewNotFound
	}
	return nil
}

const cellStateQuery = `
	SELECT c.file_id, c.column_id, c.status, col.type, col.is_critical, col.always_review
	FROM cells c
	JOIN columns col ON col.id = c.column_id
	WHERE c.review_id = $1 AND c.status <> 'reviewed'`

const candidateStateQuery = `
	SELECT file_id, column_id, value, normalized_value, confidence, created_at
	FROM candidates
	WHERE review_id = $1
	ORDER BY created_at ASC, id ASC`

// loadCells assembles classification inputs for every unresolved cell,
// joining the candidate sets in a second pass keyed by grid position.
func (r *repo) loadCells(ctx context.Context, reviewID uuid.UUID) ([]CellState, error) {
	rows, err := r.db.QueryContext(ctx, cellStateQuery, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var cells []CellState
	index := map[grid.CellKey]int{}

	for rows.Next() {
		state := CellState{Key: grid.CellKey{ReviewID: reviewID}}
		if err := rows.Scan(
			&state.Key.FileID,
			&state.Key.ColumnID,
			&state.Input.Status,
			&state.Input.ColumnType,
			&state.Input.IsCritical,
			&state.Input.AlwaysReview,
		); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		index[state.Key] = len(cells)
		cells = append(cells, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}

	candRows, err := r.db.QueryContext(ctx, candidateStateQuery, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer candRows.Close()

	for candRows.Next() {
		key := grid.CellKey{ReviewID: reviewID}
		var cand detect.Candidate
		if err := candRows.Scan(
			&key.FileID,
			&key.ColumnID,
			&cand.Value,
			&cand.NormalizedValue,
			&cand.Confidence,
			&cand.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if i, ok := index[key]; ok {
			cells[i].Input.Candidates = append(cells[i].Input.Candidates, cand)
		}
	}
	if err := candRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return cells, nil
}

// loadCell assembles the classification input for one cell.
func (r *repo) loadCell(ctx context.Context, key grid.CellKey) (CellState, error) {
	state := CellState{Key: key}

	err := r.db.QueryRowContext(
		ctx,
		`SELECT c.status, col.type, col.is_critical, col.always_review
		 FROM cells c
		 JOIN columns col ON col.id = c.column_id
		 WHERE c.review_id = $1 AND c.file_id = $2 AND c.column_id = $3`,
		key.ReviewID, key.FileID, key.ColumnID,
	).Scan(
		&state.Input.Status,
		&state.Input.ColumnType,
		&state.Input.IsCritical,
		&state.Input.AlwaysReview,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return CellState{}, ErrCellNotFound
		}
		return CellState{}, fmt.Errorf("query cell: %w", err)
	}

	candidates, err := repository.QueryMany(
		ctx, r.db,
		`SELECT value, normalized_value, confidence, created_at
		 FROM candidates
		 WHERE review_id = $1 AND file_id = $2 AND column_id = $3
		 ORDER BY created_at ASC, id ASC`,
		[]any{key.ReviewID, key.FileID, key.ColumnID},
		func(s repository.Scanner) (detect.Candidate, error) {
			var cand detect.Candidate
			err := s.Scan(&cand.Value, &cand.NormalizedValue, &cand.Confidence, &cand.CreatedAt)
			return cand, err
		},
	)
	if err != nil {
		return CellState{}, fmt.Errorf("query candidates: %w", err)
	}

	state.Input.Candidates = candidates
	return state, nil
}
