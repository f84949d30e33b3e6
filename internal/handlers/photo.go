package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/models"
	"social-house-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo and feed requests
type PhotoHandler struct {
	photoService *services.PhotoService
	feedService  *services.FeedService
	opts         Options
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService, feedService *services.FeedService, opts Options) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		feedService:  feedService,
		opts:         opts,
	}
}

// GetPhotos handles GET /api/photos?userId=|username=|email=
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.PhotoFilter{
		UserID:   q.Get("userId"),
		Username: q.Get("username"),
		Email:    q.Get("email"),
	}

	var (
		photos []*models.Photo
		err    error
	)
	if limitStr := q.Get("limit"); limitStr != "" && filter == (services.PhotoFilter{}) {
		limit, convErr := strconv.Atoi(limitStr)
		if convErr != nil {
			respondError(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		photos, err = h.photoService.ListRecent(r.Context(), limit)
	} else {
		photos, err = h.photoService.List(r.Context(), filter)
	}
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to list photos")
		return
	}

	respondJSON(w, http.StatusOK, photos)
}

// UploadPhoto handles POST /api/photos
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	file, ok := readUpload(w, r, h.opts.MaxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	photo, err := h.photoService.Upload(ctx, userID, file, file.size, r.FormValue("caption"))
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to upload photo")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("photo_id", photo.ID).
		Int64("size", file.size).
		Msg("Photo uploaded")

	respondJSON(w, http.StatusCreated, photo)
}

// GetFeed handles GET /api/feed
func (h *PhotoHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	photos, err := h.feedService.ComposeFeed(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to compose feed")
		return
	}

	respondJSON(w, http.StatusOK, photos)
}

// errBodyTooLarge reports whether err came from http.MaxBytesReader
func errBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
