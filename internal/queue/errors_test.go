package queue

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrReviewNotFound, http.StatusNotFound},
		{ErrItemNotFound, http.StatusNotFound},
		{ErrCellNotFound, http.StatusNotFound},
		{fmt.Errorf("reviewed_by: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: pending", ErrCellNotReviewable), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := MapHTTPStatus(tc.err); got != tc.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
