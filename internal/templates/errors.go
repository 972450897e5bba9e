package templates

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("template not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// MapHTTPStatus maps template errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
