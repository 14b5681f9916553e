package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/catalog"
	"github.com/blakestevenson/marquee/internal/discovery"
	"github.com/blakestevenson/marquee/internal/httputil"
)

// MediaHandler handles catalog browse, details and search requests
type MediaHandler struct {
	service *discovery.Service
	logger  *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service *discovery.Service, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		logger:  logger,
	}
}

// ListMedia handles GET /api/media?type=&category=&page=
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.listCategory(w, r, q.Get("type"), q.Get("category"))
}

// ListMovieCategory handles GET /api/movies/category?category=&page=
func (h *MediaHandler) ListMovieCategory(w http.ResponseWriter, r *http.Request) {
	h.listCategory(w, r, string(catalog.MediaTypeMovie), r.URL.Query().Get("category"))
}

// Category returns a handler serving one fixed category, e.g. GET /api/tv/popular
func (h *MediaHandler) Category(mediaType catalog.MediaType, category catalog.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.listCategory(w, r, string(mediaType), string(category))
	}
}

func (h *MediaHandler) listCategory(w http.ResponseWriter, r *http.Request, mediaType, category string) {
	page, err := h.service.ListCategory(r.Context(), requestState(r), mediaType, category, r.URL.Query().Get("page"))
	if err != nil {
		respondError(w, h.logger, err, "Internal server error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// Details returns a handler for GET /api/{movies|tv}/{id}
func (h *MediaHandler) Details(mediaType catalog.MediaType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		media, err := h.service.Details(r.Context(), mediaType, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, h.logger, err, "Internal server error")
			return
		}

		httputil.RespondJSON(w, http.StatusOK, media)
	}
}

// Related returns a handler for GET /api/{movies|tv}/{id}/related
func (h *MediaHandler) Related(mediaType catalog.MediaType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		related, err := h.service.Related(r.Context(), mediaType, chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, h.logger, err, "Internal server error")
			return
		}

		httputil.RespondJSON(w, http.StatusOK, related)
	}
}

// Search handles GET /api/search?q=&type=&page=
func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.search(w, r, q.Get("type"))
}

// SearchMovies handles GET /api/movies/search?q=&page=
func (h *MediaHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, string(catalog.MediaTypeMovie))
}

func (h *MediaHandler) search(w http.ResponseWriter, r *http.Request, mediaType string) {
	q := r.URL.Query()
	results, err := h.service.Search(r.Context(), mediaType, q.Get("q"), q.Get("page"))
	if err != nil {
		respondError(w, h.logger, err, "Internal server error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
