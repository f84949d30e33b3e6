package handlers

import (
	"errors"
	"net/http"
	"time"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles account and session requests
type UserHandler struct {
	userService *services.UserService
	sessionTTL  time.Duration
	opts        Options
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, sessionTTL time.Duration, opts Options) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessionTTL:  sessionTTL,
		opts:        opts,
	}
}

// PushTokenRequest is the body of PUT /api/me/push-token
type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// Signup handles POST /api/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to sign up")
		return
	}

	h.setSessionCookie(w, r, res.Token)
	respondJSON(w, http.StatusCreated, res)
}

// Login handles POST /api/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.userService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			respondError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		respondServiceError(w, r, err, h.opts, "Failed to log in")
		return
	}

	log.Info().Str("user_id", res.User.ID).Msg("User logged in")

	h.setSessionCookie(w, r, res.Token)
	respondJSON(w, http.StatusOK, res)
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	me, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to load current user")
		return
	}

	respondJSON(w, http.StatusOK, me)
}

// UpdatePushToken handles PUT /api/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(r.Context(), userID, req.PushToken); err != nil {
		respondServiceError(w, r, err, h.opts, "Failed to update push token")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
