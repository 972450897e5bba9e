package cells

import (
	"errors"
	"net/http"
)

var (
	ErrCellNotFound          = errors.New("cell not found")
	ErrCellLocked            = errors.New("cell is locked by another reviewer")
	ErrStaleCandidateSet     = errors.New("candidate set has changed since last read")
	ErrInvalidCandidateIndex = errors.New("candidate index out of range")
	ErrInvalidTransition     = errors.New("cell cannot be resolved in its current status")
	ErrInvalidInput          = errors.New("invalid input")
)

// MapHTTPStatus maps cell errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrCellNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCellLocked),
		errors.Is(err, ErrStaleCandidateSet),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCandidateIndex), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
