package grid_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
)

func TestCellStatusTransitions(t *testing.T) {
	tests := []struct {
		from grid.CellStatus
		to   grid.CellStatus
		want bool
	}{
		{grid.StatusPending, grid.StatusProcessing, true},
		{grid.StatusPending, grid.StatusCompleted, true},
		{grid.StatusPending, grid.StatusReviewed, false},
		{grid.StatusProcessing, grid.StatusCompleted, true},
		{grid.StatusProcessing, grid.StatusReviewed, true},
		{grid.StatusCompleted, grid.StatusReviewed, true},
		{grid.StatusCompleted, grid.StatusProcessing, true},
		{grid.StatusCompleted, grid.StatusPending, false},
		{grid.StatusReviewed, grid.StatusCompleted, true},
		{grid.StatusReviewed, grid.StatusProcessing, true},
		{grid.StatusReviewed, grid.StatusPending, false},
		{grid.StatusReviewed, grid.StatusReviewed, true},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestColumnTypeUnmarshal(t *testing.T) {
	var typ grid.ColumnType
	if err := json.Unmarshal([]byte(`"currency"`), &typ); err != nil {
		t.Fatalf("valid type rejected: %v", err)
	}
	if typ != grid.TypeCurrency {
		t.Errorf("got %s, want currency", typ)
	}

	if err := json.Unmarshal([]byte(`"spreadsheet"`), &typ); !errors.Is(err, grid.ErrInvalidColumnType) {
		t.Errorf("invalid type: got %v, want ErrInvalidColumnType", err)
	}
}

func TestColumnTypeAlwaysReviewByDefault(t *testing.T) {
	for _, typ := range grid.ColumnTypes() {
		want := typ == grid.TypeManualInput
		if got := typ.AlwaysReviewByDefault(); got != want {
			t.Errorf("%s: got %v, want %v", typ, got, want)
		}
	}
}

func TestResolutionMethodHuman(t *testing.T) {
	human := map[grid.ResolutionMethod]bool{
		grid.MethodNone:   false,
		grid.MethodAuto:   false,
		grid.MethodSelect: true,
		grid.MethodMerge:  true,
		grid.MethodNA:     true,
	}

	for method, want := range human {
		if got := method.Human(); got != want {
			t.Errorf("%s: got %v, want %v", method, got, want)
		}
	}
}

func TestCellKeyString(t *testing.T) {
	key := grid.CellKey{
		ReviewID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		FileID:   uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		ColumnID: uuid.MustParse("33333333-3333-3333-3333-333333333333"),
	}

	want := "11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222:33333333-3333-3333-3333-333333333333"
	if got := key.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
