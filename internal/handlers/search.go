package handlers

import (
	"net/http"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/models"
	"social-house-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// SearchHandler handles user search
type SearchHandler struct {
	searchService *services.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchResponse wraps search results
type SearchResponse struct {
	Users []*models.UserSummary `json:"users"`
}

// Search handles GET /api/search?query=. A failed search answers with an
// empty list.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		query = q.Get("q")
	}
	if query == "" {
		query = q.Get("username")
	}

	viewerID := middleware.GetUserID(r.Context())

	users, err := h.searchService.Search(r.Context(), query, viewerID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", viewerID).Msg("Search degraded to empty result")
	}

	respondJSON(w, http.StatusOK, SearchResponse{Users: users})
}
