package queue

import (
	"errors"
	"net/http"
)

var (
	ErrReviewNotFound    = errors.New("review not found")
	ErrItemNotFound      = errors.New("queue item not found")
	ErrCellNotFound      = errors.New("cell not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrCellNotReviewable = errors.New("cell cannot transition to reviewed")
)

// MapHTTPStatus maps queue errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrReviewNotFound), errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrCellNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrCellNotReviewable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
