package candidates

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/detect"
	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/internal/queue"
	"github.com/casefold/tabular/pkg/repository"
)

type repo struct {
	db         *sql.DB
	classifier *detect.Classifier
	queue      queue.System
	logger     *slog.Logger
}

// New creates a candidate repository implementing the System interface.
func New(
	db *sql.DB,
	classifier *detect.Classifier,
	queueSys queue.System,
	logger *slog.Logger,
) System {
	return &repo{
		db:         db,
		classifier: classifier,
		queue:      queueSys,
		logger:     logger.With("system", "candidates"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// BeginExtraction marks the cell as processing. Idempotent for a cell
// already processing; rejected while a human holds the cell lock.
func (r *repo) BeginExtraction(ctx context.Context, key grid.CellKey) (*ExtractionState, error) {
	state, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ExtractionState, error) {
		var status grid.CellStatus
		var locked bool
		err := tx.QueryRowContext(
			ctx,
			`SELECT status, is_locked FROM cells
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3
			 FOR UPDATE`,
			key.ReviewID, key.FileID, key.ColumnID,
		).Scan(&status, &locked)
		if err != nil {
			if err == sql.ErrNoRows {
				return ExtractionState{}, ErrCellNotFound
			}
			return ExtractionState{}, fmt.Errorf("query cell: %w", err)
		}

		// A locked processing cell is our own extraction hold; any
		// other locked state belongs to a reviewer.
		if locked && status != grid.StatusProcessing {
			return ExtractionState{}, fmt.Errorf("%w: cell is locked for resolution", ErrInvalidState)
		}
		if !status.CanTransition(grid.StatusProcessing) {
			return ExtractionState{}, fmt.Errorf("%w: %s", ErrInvalidState, status)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE cells SET status = 'processing', is_locked = true, updated_at = NOW()
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3`,
			key.ReviewID, key.FileID, key.ColumnID,
		); err != nil {
			return ExtractionState{}, fmt.Errorf("update cell: %w", err)
		}

		return ExtractionState{
			ReviewID: key.ReviewID,
			FileID:   key.FileID,
			ColumnID: key.ColumnID,
			Status:   grid.StatusProcessing,
			IsLocked: true,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("extraction started", "cell", key.String())
	return &state, nil
}

// cellSnapshot is the cell and column state Append settles against.
type cellSnapshot struct {
	status       grid.CellStatus
	method       grid.ResolutionMethod
	resolvedNorm sql.NullString
	columnType   grid.ColumnType
	isCritical   bool
	alwaysReview bool
}

// Append stores one extraction run's batch and settles the cell: back
// to reviewed when a prior human resolution still agrees with the new
// values, auto-resolved when the full set is unanimous and confident,
// completed (and queued) otherwise. An empty batch is a run that found
// nothing; the cell still settles.
func (r *repo) Append(ctx context.Context, key grid.CellKey, cmd AppendCommand) (*AppendResult, error) {
	for _, cand := range cmd.Candidates {
		if cand.Confidence < 0 || cand.Confidence > 1 {
			return nil, fmt.Errorf("%w: confidence must be within [0, 1]", ErrInvalidInput)
		}
		if cand.ExtractionMethod == "" {
			return nil, fmt.Errorf("%w: extraction_method required", ErrInvalidInput)
		}
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (AppendResult, error) {
		snap, err := lockCell(ctx, tx, key)
		if err != nil {
			return AppendResult{}, err
		}
		if snap.status != grid.StatusProcessing {
			return AppendResult{}, fmt.Errorf("%w: status is %s", ErrNotExtracting, snap.status)
		}

		appended, err := insertBatch(ctx, tx, key, snap.columnType, cmd.Candidates)
		if err != nil {
			return AppendResult{}, err
		}

		all, err := loadCandidates(ctx, tx, key)
		if err != nil {
			return AppendResult{}, err
		}

		outcome := r.classifier.Classify(detect.CellInput{
			ColumnType:   snap.columnType,
			IsCritical:   snap.isCritical,
			AlwaysReview: snap.alwaysReview,
			Status:       grid.StatusCompleted,
			Candidates:   all,
		})

		result := AppendResult{
			Appended:   len(appended),
			SetVersion: len(all),
		}

		switch {
		case snap.method.Human() && !disagrees(snap, appended):
			// The human call still stands; restore it.
			result.Status = grid.StatusReviewed
			result.ResolutionMethod = snap.method
			err = settleCell(ctx, tx, key, grid.StatusReviewed, nil, false)

		case outcome.AutoValue != nil:
			result.Status = grid.StatusCompleted
			result.ResolutionMethod = grid.MethodAuto
			err = settleCell(ctx, tx, key, grid.StatusCompleted, outcome.AutoValue, false)

		default:
			result.Status = grid.StatusCompleted
			result.ResolutionMethod = grid.MethodNone
			result.Queued = outcome.Queued()
			err = settleCell(ctx, tx, key, grid.StatusCompleted, nil, true)
		}
		if err != nil {
			return AppendResult{}, err
		}

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.queue.Upsert(ctx, key); err != nil {
		return nil, fmt.Errorf("update queue for %s: %w", key.String(), err)
	}

	r.logger.Info("candidates appended",
		"cell", key.String(),
		"appended", result.Appended,
		"set_version", result.SetVersion,
		"status", result.Status,
		"method", result.ResolutionMethod,
	)
	return &result, nil
}

func (r *repo) ListByCell(ctx context.Context, key grid.CellKey) (*CandidateSet, error) {
	exists, err := repository.QueryScalar[bool](
		ctx, r.db,
		"SELECT EXISTS (SELECT 1 FROM cells WHERE review_id = $1 AND file_id = $2 AND column_id = $3)",
		key.ReviewID, key.FileID, key.ColumnID,
	)
	if err != nil {
		return nil, fmt.Errorf("check cell: %w", err)
	}
	if !exists {
		return nil, ErrCellNotFound
	}

	q := `
		SELECT id, review_id, file_id, column_id, value, normalized_value, confidence,
		       verbatim_quote, source_page, source_section, extraction_method, reasoning, created_at
		FROM candidates
		WHERE review_id = $1 AND file_id = $2 AND column_id = $3
		ORDER BY created_at ASC, id ASC`

	items, err := repository.QueryMany(
		ctx, r.db, q,
		[]any{key.ReviewID, key.FileID, key.ColumnID},
		scanCandidate,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	return &CandidateSet{
		Candidates: items,
		SetVersion: len(items),
	}, nil
}

func scanCandidate(s repository.Scanner) (Candidate, error) {
	var cand Candidate
	err := s.Scan(
		&cand.ID,
		&cand.ReviewID,
		&cand.FileID,
		&cand.ColumnID,
		&cand.Value,
		&cand.NormalizedValue,
		&cand.Confidence,
		&cand.VerbatimQuote,
		&cand.SourcePage,
		&cand.SourceSection,
		&cand.ExtractionMethod,
		&cand.Reasoning,
		&cand.CreatedAt,
	)
	return cand, err
}

func lockCell(ctx context.Context, tx *sql.Tx, key grid.CellKey) (cellSnapshot, error) {
	var snap cellSnapshot
	err := tx.QueryRowContext(
		ctx,
		`SELECT c.status, c.resolution_method, c.resolved_normalized_value,
		        col.type, col.is_critical, col.always_review
		 FROM cells c
		 JOIN columns col ON col.id = c.column_id
		 WHERE c.review_id = $1 AND c.file_id = $2 AND c.column_id = $3
		 FOR UPDATE OF c`,
		key.ReviewID, key.FileID, key.ColumnID,
	).Scan(
		&snap.status,
		&snap.method,
		&snap.resolvedNorm,
		&snap.columnType,
		&snap.isCritical,
		&snap.alwaysReview,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return cellSnapshot{}, ErrCellNotFound
		}
		return cellSnapshot{}, fmt.Errorf("query cell: %w", err)
	}
	return snap, nil
}

// insertBatch persists the run's candidates, normalizing each value by
// the column's type, and returns them as classification inputs.
func insertBatch(
	ctx context.Context,
	tx *sql.Tx,
	key grid.CellKey,
	columnType grid.ColumnType,
	batch []AppendCandidate,
) ([]detect.Candidate, error) {
	insert := `
		INSERT INTO candidates(
			id, review_id, file_id, column_id, value, normalized_value, confidence,
			verbatim_quote, source_page, source_section, extraction_method, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	appended := make([]detect.Candidate, 0, len(batch))
	for _, in := range batch {
		cand := detect.Candidate{
			Value:           in.Value,
			NormalizedValue: detect.Normalize(columnType, in.Value),
			Confidence:      in.Confidence,
		}
		err := tx.QueryRowContext(
			ctx, insert,
			uuid.New(), key.ReviewID, key.FileID, key.ColumnID,
			in.Value, cand.NormalizedValue, in.Confidence,
			in.VerbatimQuote, in.SourcePage, in.SourceSection,
			in.ExtractionMethod, in.Reasoning,
		).Scan(&cand.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert candidate: %w", err)
		}
		appended = append(appended, cand)
	}
	return appended, nil
}

func loadCandidates(ctx context.Context, tx *sql.Tx, key grid.CellKey) ([]detect.Candidate, error) {
	return repository.QueryMany(
		ctx, tx,
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
}

// disagrees reports whether any newly appended candidate contradicts the
// cell's prior human resolution. Unanimous absence counts as agreement.
func disagrees(snap cellSnapshot, appended []detect.Candidate) bool {
	resolved := snap.resolvedNorm.String
	for _, cand := range appended {
		if detect.IsNAEquivalent(cand.NormalizedValue) && detect.IsNAEquivalent(resolved) {
			continue
		}
		if !detect.Equivalent(snap.columnType, cand.NormalizedValue, resolved) {
			return true
		}
	}
	return false
}

// settleCell writes the cell's post-append state. The extraction hold
// is released; auto resolutions stamp values without a reviewer, and
// clearResolution wipes a regressed resolution.
func settleCell(
	ctx context.Context,
	tx *sql.Tx,
	key grid.CellKey,
	status grid.CellStatus,
	auto *detect.AutoValue,
	clearResolution bool,
) error {
	var q string
	args := []any{key.ReviewID, key.FileID, key.ColumnID}

	switch {
	case auto != nil:
		q = `UPDATE cells
			 SET status = $4, is_locked = false, resolution_method = 'auto',
			     resolved_value = $5, resolved_normalized_value = $6,
			     reviewed_by = NULL, reviewed_at = NULL, updated_at = NOW()
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3`
		args = append(args, string(status), auto.Value, auto.NormalizedValue)
	case clearResolution:
		q = `UPDATE cells
			 SET status = $4, is_locked = false, resolution_method = 'none',
			     resolved_value = NULL, resolved_normalized_value = NULL,
			     reviewed_by = NULL, reviewed_at = NULL, updated_at = NOW()
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3`
		args = append(args, string(status))
	default:
		q = `UPDATE cells SET status = $4, is_locked = false, updated_at = NOW()
			 WHERE review_id = $1 AND file_id = $2 AND column_id = $3`
		args = append(args, string(status))
	}

	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("settle cell: %w", err)
	}
	return nil
}
