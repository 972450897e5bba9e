package cells

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/detect"
	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/pkg/locks"
	"github.com/casefold/tabular/pkg/repository"
)

type repo struct {
	db     *sql.DB
	locks  locks.System
	logger *slog.Logger
}

// New creates a cell repository implementing the System interface.
func New(db *sql.DB, lockSys locks.System, logger *slog.Logger) System {
	return &repo{
		db:     db,
		locks:  lockSys,
		logger: logger.With("system", "cells"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

const cellColumns = `c.review_id, c.file_id, c.column_id, c.status, c.is_locked,
	c.resolved_value, c.resolved_normalized_value, c.resolution_method,
	(SELECT COUNT(*) FROM candidates cd
	 WHERE cd.review_id = c.review_id AND cd.file_id = c.file_id AND cd.column_id = c.column_id),
	c.comment_count, c.unresolved_comment_count,
	c.reviewed_by, c.reviewed_at, c.created_at, c.updated_at`

func scanCell(s repository.Scanner) (Cell, error) {
	var cell Cell
	err := s.Scan(
		&cell.ReviewID,
		&cell.FileID,
		&cell.ColumnID,
		&cell.Status,
		&cell.IsLocked,
		&cell.ResolvedValue,
		&cell.ResolvedNormalizedValue,
		&cell.ResolutionMethod,
		&cell.CandidateCount,
		&cell.CommentCount,
		&cell.UnresolvedCommentCount,
		&cell.ReviewedBy,
		&cell.ReviewedAt,
		&cell.CreatedAt,
		&cell.UpdatedAt,
	)
	return cell, err
}

func (r *repo) ListByReview(ctx context.Context, reviewID uuid.UUID) ([]Cell, error) {
	exists, err := repository.QueryScalar[bool](
		ctx, r.db,
		"SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)",
		reviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if !exists {
		return nil, ErrCellNotFound
	}

	q := fmt.Sprintf(`
		SELECT %s
		FROM cells c
		JOIN review_documents rd ON rd.review_id = c.review_id AND rd.file_id = c.file_id
		JOIN columns col ON col.id = c.column_id
		WHERE c.review_id = $1
		ORDER BY rd.position ASC, col.position ASC`, cellColumns)

	items, err := repository.QueryMany(ctx, r.db, q, []any{reviewID}, scanCell)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	return items, nil
}

func (r *repo) Get(ctx context.Context, key grid.CellKey) (*Cell, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM cells c
		WHERE c.review_id = $1 AND c.file_id = $2 AND c.column_id = $3`, cellColumns)

	cell, err := repository.QueryOne(
		ctx, r.db, q,
		[]any{key.ReviewID, key.FileID, key.ColumnID},
		scanCell,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCellNotFound
		}
		return nil, fmt.Errorf("query cell: %w", err)
	}
	return &cell, nil
}

// Resolve applies a human resolution. The distributed lock serializes
// reviewers on the cell; the set version check rejects a resolution made
// against a candidate set that has since grown.
func (r *repo) Resolve(ctx context.Context, reviewID uuid.UUID, cmd ResolveCommand) (*Cell, error) {
	if !cmd.Method.Human() {
		return nil, fmt.Errorf("%w: method must be select, merge, or n_a", ErrInvalidInput)
	}
	if cmd.ResolvedBy == "" {
		return nil, fmt.Errorf("%w: resolved_by required", ErrInvalidInput)
	}

	key := grid.CellKey{ReviewID: reviewID, FileID: cmd.FileID, ColumnID: cmd.ColumnID}

	lease, err := r.locks.Acquire(ctx, key.String())
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return nil, ErrCellLocked
		}
		return nil, fmt.Errorf("acquire cell lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("cell lock release failed", "cell", key.String(), "error", err)
		}
	}()

	cell, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Cell, error) {
		return r.resolve(ctx, tx, key, cmd)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("cell resolved",
		"cell", key.String(),
		"method", cmd.Method,
		"resolved_by", cmd.ResolvedBy,
	)
	return &cell, nil
}

func (r *repo) resolve(ctx context.Context, tx *sql.Tx, key grid.CellKey, cmd ResolveCommand) (Cell, error) {
	var status grid.CellStatus
	var columnType grid.ColumnType
	err := tx.QueryRowContext(
		ctx,
		`SELECT c.status, col.type
		 FROM cells c
		 JOIN columns col ON col.id = c.column_id
		 WHERE c.review_id = $1 AND c.file_id = $2 AND c.column_id = $3
		 FOR UPDATE OF c`,
		key.ReviewID, key.FileID, key.ColumnID,
	).Scan(&status, &columnType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cell{}, ErrCellNotFound
		}
		return Cell{}, fmt.Errorf("query cell: %w", err)
	}

	if !status.CanTransition(grid.StatusReviewed) {
		return Cell{}, fmt.Errorf("%w: %s", ErrInvalidTransition, status)
	}

	candidates, err := repository.QueryMany(
		ctx, tx,
		`SELECT value, normalized_value
		 FROM candidates
		 WHERE review_id = $1 AND file_id = $2 AND column_id = $3
		 ORDER BY created_at ASC, id ASC`,
		[]any{key.ReviewID, key.FileID, key.ColumnID},
		func(s repository.Scanner) ([2]string, error) {
			var pair [2]string
			err := s.Scan(&pair[0], &pair[1])
			return pair, err
		},
	)
	if err != nil {
		return Cell{}, fmt.Errorf("query candidates: %w", err)
	}

	if cmd.SetVersion != nil && *cmd.SetVersion != len(candidates) {
		return Cell{}, fmt.Errorf("%w: have %d, resolved against %d",
			ErrStaleCandidateSet, len(candidates), *cmd.SetVersion)
	}

	value, normalized, err := resolvedValue(columnType, cmd, candidates)
	if err != nil {
		return Cell{}, err
	}

	update := fmt.Sprintf(`
		UPDATE cells c
		SET status = 'reviewed', is_locked = false, resolution_method = $4,
		    resolved_value = $5, resolved_normalized_value = $6,
		    reviewed_by = $7, reviewed_at = NOW(), updated_at = NOW()
		WHERE c.review_id = $1 AND c.file_id = $2 AND c.column_id = $3
		RETURNING %s`, cellColumns)

	cell, err := repository.QueryOne(
		ctx, tx, update,
		[]any{key.ReviewID, key.FileID, key.ColumnID, string(cmd.Method), value, normalized, cmd.ResolvedBy},
		scanCell,
	)
	if err != nil {
		return Cell{}, fmt.Errorf("update cell: %w", err)
	}

	// A resolved cell has no business on the queue.
	if _, err := tx.ExecContext(
		ctx,
		"DELETE FROM review_queue_items WHERE review_id = $1 AND file_id = $2 AND column_id = $3",
		key.ReviewID, key.FileID, key.ColumnID,
	); err != nil {
		return Cell{}, fmt.Errorf("clear queue entry: %w", err)
	}

	return cell, nil
}

// resolvedValue derives the stored value pair from the resolution method.
func resolvedValue(columnType grid.ColumnType, cmd ResolveCommand, candidates [][2]string) (string, string, error) {
	switch cmd.Method {
	case grid.MethodSelect:
		if cmd.CandidateIndex == nil {
			return "", "", fmt.Errorf("%w: candidate_index required for select", ErrInvalidInput)
		}
		i := *cmd.CandidateIndex
		if i < 0 || i >= len(candidates) {
			return "", "", fmt.Errorf("%w: %d of %d", ErrInvalidCandidateIndex, i, len(candidates))
		}
		return candidates[i][0], candidates[i][1], nil

	case grid.MethodMerge:
		if cmd.MergedValue == "" {
			return "", "", fmt.Errorf("%w: merged_value required for merge", ErrInvalidInput)
		}
		return cmd.MergedValue, detect.Normalize(columnType, cmd.MergedValue), nil

	case grid.MethodNA:
		return grid.NotApplicable, grid.NotApplicable, nil

	default:
		return "", "", fmt.Errorf("%w: %s", ErrInvalidInput, cmd.Method)
	}
}
