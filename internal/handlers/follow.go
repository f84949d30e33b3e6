package handlers

import (
	"net/http"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/services"
)

// FollowHandler handles follow graph requests
type FollowHandler struct {
	followService *services.FollowService
	opts          Options
}

// NewFollowHandler creates a new follow handler
func NewFollowHandler(followService *services.FollowService, opts Options) *FollowHandler {
	return &FollowHandler{
		followService: followService,
		opts:          opts,
	}
}

// FollowRequest is the body of POST /api/follow and /api/unfollow
type FollowRequest struct {
	UserID string `json:"userId"`
}

// Follow handles POST /api/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req FollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.followService.Follow(r.Context(), userID, req.UserID); err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to follow user")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Unfollow handles POST /api/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req FollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.followService.Unfollow(r.Context(), userID, req.UserID); err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to unfollow user")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
