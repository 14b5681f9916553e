package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/catalog"
	"github.com/blakestevenson/marquee/internal/httputil"
	"github.com/blakestevenson/marquee/internal/review"
)

// ReviewHandler handles review submission and listing
type ReviewHandler struct {
	service *review.Service
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger,
	}
}

// submitReviewRequest accepts the legacy movieId field as an alias of mediaId
// with mediaType defaulting to movie
type submitReviewRequest struct {
	review.SubmitParams
	MovieID *int `json:"movieId,omitempty"`
}

func (req submitReviewRequest) params() review.SubmitParams {
	p := req.SubmitParams
	if p.MediaID == 0 && req.MovieID != nil {
		p.MediaID = *req.MovieID
		if p.MediaType == "" {
			p.MediaType = string(catalog.MediaTypeMovie)
		}
	}
	return p
}

// Submit handles POST /api/reviews
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	state := requestState(r)
	if !state.IsAuthenticated() {
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req submitReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, created, err := h.service.Submit(r.Context(), state, req.params())
	if err != nil {
		respondError(w, h.logger, err, "Internal server error")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, saved)
}

// List handles GET /api/reviews/{mediaId}?type=
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context(), chi.URLParam(r, "mediaId"), r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, h.logger, err, "Internal server error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reviews)
}
