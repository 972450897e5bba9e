package reviews

import (
	"errors"
	"net/http"

	"github.com/casefold/tabular/internal/grid"
)

// Domain errors for review grid operations.
var (
	ErrNotFound       = errors.New("review not found")
	ErrDuplicate      = errors.New("review already exists")
	ErrColumnNotFound = errors.New("column not found")
	ErrDuplicateLabel = errors.New("column label already exists in review")
	ErrFileNotFound   = errors.New("file not found in case pool")
	ErrFileAttached   = errors.New("file already attached to review")
	ErrInvalidInput   = errors.New("invalid input")
)

// MapHTTPStatus maps review domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrColumnNotFound),
		errors.Is(err, ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrDuplicateLabel),
		errors.Is(err, ErrFileAttached):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, grid.ErrInvalidColumnType),
		errors.Is(err, grid.ErrInvalidReviewStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
