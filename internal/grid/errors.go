package grid

import "errors"

// Validation errors for grid vocabulary values.
var (
	ErrInvalidColumnType       = errors.New("invalid column type")
	ErrInvalidCellStatus       = errors.New("invalid cell status")
	ErrInvalidReviewStatus     = errors.New("invalid review status")
	ErrInvalidResolutionMethod = errors.New("invalid resolution method")
)
