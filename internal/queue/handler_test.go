package queue_test

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

	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/internal/queue"
)

type mockSystem struct {
	getFn          func(ctx context.Context, reviewID uuid.UUID, includeReviewed bool) (*queue.QueueResult, error)
	rebuildFn      func(ctx context.Context, reviewID uuid.UUID) (*queue.RebuildResult, error)
	upsertFn       func(ctx context.Context, key grid.CellKey) error
	markReviewedFn func(ctx context.Context, reviewID, itemID uuid.UUID, reviewedBy string) error
}

func (m *mockSystem) Handler() *queue.Handler {
	return queue.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) Get(ctx context.Context, reviewID uuid.UUID, includeReviewed bool) (*queue.QueueResult, error) {
	return m.getFn(ctx, reviewID, includeReviewed)
}

func (m *mockSystem) Rebuild(ctx context.Context, reviewID uuid.UUID) (*queue.RebuildResult, error) {
	return m.rebuildFn(ctx, reviewID)
}

func (m *mockSystem) Upsert(ctx context.Context, key grid.CellKey) error {
	return m.upsertFn(ctx, key)
}

func (m *mockSystem) MarkReviewed(ctx context.Context, reviewID, itemID uuid.UUID, reviewedBy string) error {
	return m.markReviewedFn(ctx, reviewID, itemID, reviewedBy)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleItem() queue.Item {
	return queue.Item{
		ID:        uuid.MustParse("2c8f4e61-7b3a-4d92-8e50-6a1b9c3d7e04"),
		ReviewID:  uuid.MustParse("9f3c1a52-8d2e-4b7a-9c40-1f6e5a2d8b01"),
		FileID:    uuid.MustParse("4b1d9e77-2c3f-4a86-b5d1-8e0a7c4f2d02"),
		ColumnID:  uuid.MustParse("7a2e5c90-1b4d-4f38-a6c2-3d9f8e1b5c03"),
		Priority:  1,
		Reason:    "conflict",
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandlerGet(t *testing.T) {
	item := sampleItem()

	t.Run("returns queue with stats", func(t *testing.T) {
		sys := &mockSystem{
			getFn: func(_ context.Context, _ uuid.UUID, _ bool) (*queue.QueueResult, error) {
				return &queue.QueueResult{
					Items: []queue.Item{item},
					Stats: queue.Stats{
						TotalItems:        1,
						ByReason:          map[string]int{"conflict": 1},
						ByPriority:        map[int]int{1: 1},
						HighPriorityCount: 1,
					},
				}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/"+item.ReviewID.String()+"/queue", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got queue.QueueResult
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got.Items) != 1 {
			t.Fatalf("items length = %d, want 1", len(got.Items))
		}
		if got.Items[0].Reason != "conflict" {
			t.Errorf("reason = %q, want conflict", got.Items[0].Reason)
		}
		if got.Stats.HighPriorityCount != 1 {
			t.Errorf("high_priority_count = %d, want 1", got.Stats.HighPriorityCount)
		}
	})

	t.Run("passes include_reviewed flag", func(t *testing.T) {
		var captured bool
		sys := &mockSystem{
			getFn: func(_ context.Context, _ uuid.UUID, includeReviewed bool) (*queue.QueueResult, error) {
				captured = includeReviewed
				return &queue.QueueResult{Items: []queue.Item{}}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/"+item.ReviewID.String()+"/queue?include_reviewed=true", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !captured {
			t.Error("include_reviewed not passed through")
		}
	})

	t.Run("unknown review returns 404", func(t *testing.T) {
		sys := &mockSystem{
			getFn: func(_ context.Context, _ uuid.UUID, _ bool) (*queue.QueueResult, error) {
				return nil, queue.ErrReviewNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/"+uuid.New().String()+"/queue", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("invalid review id returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/not-a-uuid/queue", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerRebuild(t *testing.T) {
	reviewID := uuid.MustParse("9f3c1a52-8d2e-4b7a-9c40-1f6e5a2d8b01")

	t.Run("rebuilds and reports counts with stats", func(t *testing.T) {
		sys := &mockSystem{
			rebuildFn: func(_ context.Context, id uuid.UUID) (*queue.RebuildResult, error) {
				return &queue.RebuildResult{
					ReviewID:    id,
					CellCount:   12,
					QueuedCount: 4,
					Stats: queue.Stats{
						TotalItems:        4,
						ByReason:          map[string]int{"conflict": 2, "low_confidence": 2},
						ByPriority:        map[int]int{1: 2, 2: 2},
						HighPriorityCount: 2,
					},
				}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/reviews/"+reviewID.String()+"/queue/rebuild", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got map[string]json.RawMessage
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		rawStats, ok := got["stats"]
		if !ok {
			t.Fatalf("response missing stats: %v", got)
		}

		var stats queue.Stats
		if err := json.Unmarshal(rawStats, &stats); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if stats.TotalItems != 4 || stats.HighPriorityCount != 2 {
			t.Errorf("stats = %+v, want 4 total, 2 high priority", stats)
		}
		if stats.ByReason["conflict"] != 2 || stats.ByPriority[1] != 2 {
			t.Errorf("breakdowns = %v / %v, want conflict=2, priority 1=2", stats.ByReason, stats.ByPriority)
		}

		var cellCount, queuedCount int
		if err := json.Unmarshal(got["cell_count"], &cellCount); err != nil {
			t.Fatalf("decode cell_count: %v", err)
		}
		if err := json.Unmarshal(got["queued_count"], &queuedCount); err != nil {
			t.Fatalf("decode queued_count: %v", err)
		}
		if cellCount != 12 || queuedCount != 4 {
			t.Errorf("counts = %d/%d, want 12/4", cellCount, queuedCount)
		}
	})

	t.Run("unknown review returns 404", func(t *testing.T) {
		sys := &mockSystem{
			rebuildFn: func(_ context.Context, _ uuid.UUID) (*queue.RebuildResult, error) {
				return nil, queue.ErrReviewNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/reviews/"+uuid.New().String()+"/queue/rebuild", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerMarkReviewed(t *testing.T) {
	item := sampleItem()
	markURL := "/reviews/" + item.ReviewID.String() + "/queue/" + item.ID.String() + "/mark-reviewed"

	t.Run("marks item reviewed", func(t *testing.T) {
		var capturedItem uuid.UUID
		var capturedBy string
		sys := &mockSystem{
			markReviewedFn: func(_ context.Context, _, itemID uuid.UUID, reviewedBy string) error {
				capturedItem = itemID
				capturedBy = reviewedBy
				return nil
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(queue.MarkReviewedRequest{ReviewedBy: "reviewer@example.com"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", markURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedItem != item.ID {
			t.Errorf("item_id = %s, want %s", capturedItem, item.ID)
		}
		if capturedBy != "reviewer@example.com" {
			t.Errorf("reviewed_by = %q, want reviewer@example.com", capturedBy)
		}
	})

	t.Run("unknown item returns 404", func(t *testing.T) {
		sys := &mockSystem{
			markReviewedFn: func(_ context.Context, _, _ uuid.UUID, _ string) error {
				return queue.ErrItemNotFound
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(queue.MarkReviewedRequest{ReviewedBy: "reviewer@example.com"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", markURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", markURL, bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
