package cells_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/cells"
	"github.com/casefold/tabular/internal/grid"
)

type mockSystem struct {
	listFn    func(ctx context.Context, reviewID uuid.UUID) ([]cells.Cell, error)
	getFn     func(ctx context.Context, key grid.CellKey) (*cells.Cell, error)
	resolveFn func(ctx context.Context, reviewID uuid.UUID, cmd cells.ResolveCommand) (*cells.Cell, error)
}

func (m *mockSystem) Handler() *cells.Handler {
	return cells.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) ListByReview(ctx context.Context, reviewID uuid.UUID) ([]cells.Cell, error) {
	return m.listFn(ctx, reviewID)
}

func (m *mockSystem) Get(ctx context.Context, key grid.CellKey) (*cells.Cell, error) {
	return m.getFn(ctx, key)
}

func (m *mockSystem) Resolve(ctx context.Context, reviewID uuid.UUID, cmd cells.ResolveCommand) (*cells.Cell, error) {
	return m.resolveFn(ctx, reviewID, cmd)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleCell() cells.Cell {
	return cells.Cell{
		ReviewID:               uuid.MustParse("9f3c1a52-8d2e-4b7a-9c40-1f6e5a2d8b01"),
		FileID:                 uuid.MustParse("4b1d9e77-2c3f-4a86-b5d1-8e0a7c4f2d02"),
		ColumnID:               uuid.MustParse("7a2e5c90-1b4d-4f38-a6c2-3d9f8e1b5c03"),
		Status:                 grid.StatusCompleted,
		ResolutionMethod:       grid.MethodNone,
		CandidateCount:         2,
		CommentCount:           3,
		UnresolvedCommentCount: 1,
		CreatedAt:              time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:              time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestHandlerListByReview(t *testing.T) {
	cell := sampleCell()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ uuid.UUID) ([]cells.Cell, error) {
			return []cells.Cell{cell}, nil
		},
	}
	mux := setupMux(sys)

	t.Run("returns cells in grid order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/"+cell.ReviewID.String()+"/cells", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got []cells.Cell
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("length = %d, want 1", len(got))
		}
		if got[0].ColumnID != cell.ColumnID {
			t.Errorf("column_id = %v, want %v", got[0].ColumnID, cell.ColumnID)
		}
	})

	t.Run("invalid review id returns 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/not-a-uuid/cells", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerGet(t *testing.T) {
	cell := sampleCell()

	t.Run("returns cell by key", func(t *testing.T) {
		sys := &mockSystem{
			getFn: func(_ context.Context, key grid.CellKey) (*cells.Cell, error) {
				if key.FileID != cell.FileID || key.ColumnID != cell.ColumnID {
					return nil, cells.ErrCellNotFound
				}
				return &cell, nil
			},
		}
		mux := setupMux(sys)

		path := "/reviews/" + cell.ReviewID.String() + "/cells/" + cell.FileID.String() + "/" + cell.ColumnID.String()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got cells.Cell
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Status != grid.StatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
		if got.CommentCount != 3 || got.UnresolvedCommentCount != 1 {
			t.Errorf("comment counts = %d/%d, want 3/1", got.CommentCount, got.UnresolvedCommentCount)
		}
	})

	t.Run("unknown cell returns 404", func(t *testing.T) {
		sys := &mockSystem{
			getFn: func(_ context.Context, _ grid.CellKey) (*cells.Cell, error) {
				return nil, cells.ErrCellNotFound
			},
		}
		mux := setupMux(sys)

		path := "/reviews/" + uuid.New().String() + "/cells/" + uuid.New().String() + "/" + uuid.New().String()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("invalid file id returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		path := "/reviews/" + cell.ReviewID.String() + "/cells/nope/" + cell.ColumnID.String()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerResolve(t *testing.T) {
	cell := sampleCell()
	resolveURL := "/reviews/" + cell.ReviewID.String() + "/cells/resolve"

	command := func() cells.ResolveCommand {
		idx := 0
		version := 2
		return cells.ResolveCommand{
			FileID:         cell.FileID,
			ColumnID:       cell.ColumnID,
			Method:         grid.MethodSelect,
			CandidateIndex: &idx,
			SetVersion:     &version,
			ResolvedBy:     "reviewer@example.com",
		}
	}

	t.Run("resolves cell", func(t *testing.T) {
		var captured cells.ResolveCommand
		resolved := cell
		resolved.Status = grid.StatusReviewed
		resolved.ResolutionMethod = grid.MethodSelect

		sys := &mockSystem{
			resolveFn: func(_ context.Context, _ uuid.UUID, cmd cells.ResolveCommand) (*cells.Cell, error) {
				captured = cmd
				return &resolved, nil
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(command())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", resolveURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.ResolvedBy != "reviewer@example.com" {
			t.Errorf("resolved_by = %q, want reviewer@example.com", captured.ResolvedBy)
		}
		if captured.SetVersion == nil || *captured.SetVersion != 2 {
			t.Errorf("set_version = %v, want 2", captured.SetVersion)
		}

		var got cells.Cell
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Status != grid.StatusReviewed {
			t.Errorf("status = %s, want reviewed", got.Status)
		}
	})

	t.Run("locked cell returns 409", func(t *testing.T) {
		sys := &mockSystem{
			resolveFn: func(_ context.Context, _ uuid.UUID, _ cells.ResolveCommand) (*cells.Cell, error) {
				return nil, cells.ErrCellLocked
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(command())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", resolveURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("stale candidate set returns 409", func(t *testing.T) {
		sys := &mockSystem{
			resolveFn: func(_ context.Context, _ uuid.UUID, _ cells.ResolveCommand) (*cells.Cell, error) {
				return nil, cells.ErrStaleCandidateSet
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(command())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", resolveURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", resolveURL, bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid candidate index returns 400", func(t *testing.T) {
		sys := &mockSystem{
			resolveFn: func(_ context.Context, _ uuid.UUID, _ cells.ResolveCommand) (*cells.Cell, error) {
				return nil, cells.ErrInvalidCandidateIndex
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(command())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", resolveURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
