package handlers

import (
	"net/http"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ProfileHandler handles profile reads and edits
type ProfileHandler struct {
	userService *services.UserService
	opts        Options
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userService *services.UserService, opts Options) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		opts:        opts,
	}
}

// BioRequest is the body of POST /api/profile/bio
type BioRequest struct {
	Bio string `json:"bio"`
}

// ImageResponse is returned after a profile image upload
type ImageResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// UpdateBio handles POST /api/profile/bio
func (h *ProfileHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req BioRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdateBio(r.Context(), userID, req.Bio); err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to update bio")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// UploadImage handles POST /api/profile/image
func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	file, ok := readUpload(w, r, h.opts.MaxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	url, err := h.userService.SetProfileImage(r.Context(), userID, file, file.size)
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to update profile image")
		return
	}

	respondJSON(w, http.StatusOK, ImageResponse{Success: true, URL: url})
}

// UpdateSettings handles PATCH /api/settings
func (h *ProfileHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdateProfile(r.Context(), userID, req); err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to update settings")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetProfile handles GET /api/users/{username}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())

	profile, err := h.userService.Profile(r.Context(), chi.URLParam(r, "username"), viewerID)
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// GetStats handles GET /api/users/{username}/stats
func (h *ProfileHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
