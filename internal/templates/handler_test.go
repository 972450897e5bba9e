package templates_test

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
	"github.com/casefold/tabular/internal/templates"
)

type mockSystem struct {
	listFn  func(ctx context.Context, filters templates.Filters) ([]templates.Template, error)
	findFn  func(ctx context.Context, id uuid.UUID) (*templates.TemplateDetail, error)
	applyFn func(ctx context.Context, cmd templates.ApplyCommand) (*templates.ApplyResult, error)
}

func (m *mockSystem) Handler() *templates.Handler {
	return templates.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) List(ctx context.Context, filters templates.Filters) ([]templates.Template, error) {
	return m.listFn(ctx, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*templates.TemplateDetail, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Apply(ctx context.Context, cmd templates.ApplyCommand) (*templates.ApplyResult, error) {
	return m.applyFn(ctx, cmd)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleTemplate() templates.Template {
	return templates.Template{
		ID:          uuid.MustParse("0b0e4f3e-5a1c-4d2b-8f6e-7c3a9d1e9001"),
		Name:        "Contract Essentials",
		Category:    "contracts",
		Featured:    true,
		Description: "Core terms every contract review needs",
		ColumnCount: 5,
		CreatedAt:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	tpl := sampleTemplate()

	t.Run("returns templates", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(_ context.Context, _ templates.Filters) ([]templates.Template, error) {
				return []templates.Template{tpl}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/templates", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got []templates.Template
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 || got[0].Name != tpl.Name {
			t.Errorf("templates = %+v, want single %q", got, tpl.Name)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured templates.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, f templates.Filters) ([]templates.Template, error) {
				captured = f
				return []templates.Template{}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/templates?category=contracts&featured=true&search=lease", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Category == nil || *captured.Category != "contracts" {
			t.Errorf("category = %v, want contracts", captured.Category)
		}
		if captured.Featured == nil || !*captured.Featured {
			t.Errorf("featured = %v, want true", captured.Featured)
		}
		if captured.Search == nil || *captured.Search != "lease" {
			t.Errorf("search = %v, want lease", captured.Search)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	tpl := sampleTemplate()

	t.Run("returns template with columns", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*templates.TemplateDetail, error) {
				if id != tpl.ID {
					return nil, templates.ErrNotFound
				}
				return &templates.TemplateDetail{
					Template: tpl,
					Columns: []templates.TemplateColumn{{
						ID:         uuid.New(),
						TemplateID: tpl.ID,
						Label:      "Governing Law",
						Type:       grid.TypeText,
						Prompt:     "Which jurisdiction's law governs?",
						Position:   1,
					}},
				}, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/templates/"+tpl.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got templates.TemplateDetail
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got.Columns) != 1 || got.Columns[0].Label != "Governing Law" {
			t.Errorf("columns = %+v, want single Governing Law", got.Columns)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*templates.TemplateDetail, error) {
				return nil, templates.ErrNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/templates/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/templates/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerApply(t *testing.T) {
	tpl := sampleTemplate()
	reviewID := uuid.MustParse("9f3c1a52-8d2e-4b7a-9c40-1f6e5a2d8b01")

	t.Run("applies template to review", func(t *testing.T) {
		var captured templates.ApplyCommand
		sys := &mockSystem{
			applyFn: func(_ context.Context, cmd templates.ApplyCommand) (*templates.ApplyResult, error) {
				captured = cmd
				return &templates.ApplyResult{
					ReviewID:           cmd.ReviewID,
					TemplateID:         cmd.TemplateID,
					AddedColumnCount:   4,
					SkippedColumnCount: 1,
				}, nil
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(templates.ApplyCommand{ReviewID: reviewID, TemplateID: tpl.ID})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/templates/apply", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.TemplateID != tpl.ID {
			t.Errorf("template_id = %v, want %v", captured.TemplateID, tpl.ID)
		}

		var got templates.ApplyResult
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.AddedColumnCount != 4 || got.SkippedColumnCount != 1 {
			t.Errorf("counts = %d/%d, want 4/1", got.AddedColumnCount, got.SkippedColumnCount)
		}
	})

	t.Run("unknown review returns 404", func(t *testing.T) {
		sys := &mockSystem{
			applyFn: func(_ context.Context, _ templates.ApplyCommand) (*templates.ApplyResult, error) {
				return nil, templates.ErrReviewNotFound
			},
		}
		mux := setupMux(sys)

		body, _ := json.Marshal(templates.ApplyCommand{ReviewID: uuid.New(), TemplateID: tpl.ID})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/templates/apply", bytes.NewReader(body))
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
		req := httptest.NewRequest("POST", "/templates/apply", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
