package cells

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/pkg/handlers"
	"github.com/casefold/tabular/pkg/routes"
)

// Handler provides HTTP endpoints for cell operations, mounted under
// the reviews prefix since cells are addressed by review.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "cells"),
	}
}

// Routes returns the route group definition for cell endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/reviews",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/cells", Handler: h.ListByReview},
			{Method: "GET", Pattern: "/{id}/cells/{fileID}/{columnID}", Handler: h.Get},
			{Method: "POST", Pattern: "/{id}/cells/resolve", Handler: h.Resolve},
		},
	}
}

// ListByReview returns every cell in the review in grid order.
func (h *Handler) ListByReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	items, err := h.sys.ListByReview(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Get returns a single cell's state.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}
	fileID, err := uuid.Parse(r.PathValue("fileID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}
	columnID, err := uuid.Parse(r.PathValue("columnID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	cell, err := h.sys.Get(r.Context(), grid.CellKey{ReviewID: id, FileID: fileID, ColumnID: columnID})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cell)
}

// Resolve applies a human resolution to a cell.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	cmd, err := handlers.DecodeJSON[ResolveCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	cell, err := h.sys.Resolve(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cell)
}
