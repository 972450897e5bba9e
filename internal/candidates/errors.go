package candidates

import (
	"errors"
	"net/http"
)

var (
	ErrCellNotFound  = errors.New("cell not found")
	ErrNotExtracting = errors.New("cell is not in extraction")
	ErrInvalidState  = errors.New("invalid cell state for extraction")
	ErrInvalidInput  = errors.New("invalid input")
)

// MapHTTPStatus maps candidate errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrCellNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotExtracting), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
