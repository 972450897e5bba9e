package queue

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/casefold/tabular/pkg/handlers"
	"github.com/casefold/tabular/pkg/routes"
)

// Handler provides HTTP endpoints for queue operations. Routes mount
// under the reviews prefix since every queue is scoped to one review.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// MarkReviewedRequest identifies who acknowledged a queue item.
type MarkReviewedRequest struct {
	ReviewedBy string `json:"reviewed_by"`
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "queue"),
	}
}

// Routes returns the route group definition for queue endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/reviews",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/queue", Handler: h.Get},
			{Method: "POST", Pattern: "/{id}/queue/rebuild", Handler: h.Rebuild},
			{Method: "POST", Pattern: "/{id}/queue/{itemID}/mark-reviewed", Handler: h.MarkReviewed},
		},
	}
}

// Get returns the prioritized queue with aggregate stats. Pass
// include_reviewed=true to keep acknowledged items in the listing.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	includeReviewed, _ := strconv.ParseBool(r.URL.Query().Get("include_reviewed"))

	result, err := h.sys.Get(r.Context(), id, includeReviewed)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Rebuild reclassifies the review's cells and replaces the queue.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	result, err := h.sys.Rebuild(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// MarkReviewed acknowledges a queue item, settling its cell as
// reviewed with whatever resolution it already carries.
func (h *Handler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	req, err := handlers.DecodeJSON[MarkReviewedRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	if err := h.sys.MarkReviewed(r.Context(), id, itemID, req.ReviewedBy); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, struct{}{})
}
