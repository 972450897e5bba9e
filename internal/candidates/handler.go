package candidates

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/casefold/tabular/internal/grid"
	"github.com/casefold/tabular/pkg/handlers"
	"github.com/casefold/tabular/pkg/routes"
)

// Handler provides HTTP endpoints for candidate operations, mounted
// under the reviews prefix since candidates are addressed by cell.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "candidates"),
	}
}

// Routes returns the route group definition for candidate endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/reviews",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/cells/{fileID}/{columnID}/begin-extraction", Handler: h.BeginExtraction},
			{Method: "GET", Pattern: "/{id}/cells/{fileID}/{columnID}/candidates", Handler: h.List},
			{Method: "POST", Pattern: "/{id}/cells/{fileID}/{columnID}/candidates", Handler: h.Append},
		},
	}
}

func cellKeyFromPath(r *http.Request) (grid.CellKey, error) {
	reviewID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return grid.CellKey{}, err
	}
	fileID, err := uuid.Parse(r.PathValue("fileID"))
	if err != nil {
		return grid.CellKey{}, err
	}
	columnID, err := uuid.Parse(r.PathValue("columnID"))
	if err != nil {
		return grid.CellKey{}, err
	}
	return grid.CellKey{ReviewID: reviewID, FileID: fileID, ColumnID: columnID}, nil
}

// BeginExtraction marks a cell as processing ahead of an extraction run.
func (h *Handler) BeginExtraction(w http.ResponseWriter, r *http.Request) {
	key, err := cellKeyFromPath(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	state, err := h.sys.BeginExtraction(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

// List returns a cell's candidates with the current set version.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	key, err := cellKeyFromPath(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	set, err := h.sys.ListByCell(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, set)
}

// Append records an extraction run's batch and settles the cell.
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	key, err := cellKeyFromPath(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	cmd, err := handlers.DecodeJSON[AppendCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	result, err := h.sys.Append(r.Context(), key, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
