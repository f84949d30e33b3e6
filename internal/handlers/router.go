package handlers

import (
	"context"
	"net/http"
	"time"

	"social-house-backend/internal/middleware"
	"social-house-backend/internal/notify"
	"social-house-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the HTTP surface needs
type RouterConfig struct {
	UserService   *services.UserService
	FollowService *services.FollowService
	PhotoService  *services.PhotoService
	FeedService   *services.FeedService
	SearchService *services.SearchService
	Hub           *notify.Hub

	// AuthLimiter throttles signup and login; nil disables it
	AuthLimiter *middleware.IPRateLimiter
	// MediaDir is served under /media when storage is local
	MediaDir string
	// Health reports database health for /healthz; nil means healthy
	Health func(ctx context.Context) error

	AllowedOrigin string
	SessionTTL    time.Duration
	Options       Options
}

// NewRouter builds the chi router with all routes mounted
func NewRouter(cfg RouterConfig) http.Handler {
	userHandler := NewUserHandler(cfg.UserService, cfg.SessionTTL, cfg.Options)
	followHandler := NewFollowHandler(cfg.FollowService, cfg.Options)
	photoHandler := NewPhotoHandler(cfg.PhotoService, cfg.FeedService, cfg.Options)
	searchHandler := NewSearchHandler(cfg.SearchService)
	profileHandler := NewProfileHandler(cfg.UserService, cfg.Options)
	wsHandler := NewWebSocketHandler(cfg.Hub, cfg.UserService, cfg.AllowedOrigin)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	r.Get("/healthz", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	if cfg.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(cfg.AuthLimiter.Middleware)
			}
			r.Post("/signup", userHandler.Signup)
			r.Post("/login", userHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.UserService))
			r.Get("/photos", photoHandler.GetPhotos)
			r.Get("/search", searchHandler.Search)
			r.Get("/users/{username}", profileHandler.GetProfile)
			r.Get("/users/{username}/stats", profileHandler.GetStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.UserService))
			r.Get("/me", userHandler.Me)
			r.Put("/me/push-token", userHandler.UpdatePushToken)
			r.Post("/follow", followHandler.Follow)
			r.Post("/unfollow", followHandler.Unfollow)
			r.Get("/feed", photoHandler.GetFeed)
			r.Post("/photos", photoHandler.UploadPhoto)
			r.Post("/profile/bio", profileHandler.UpdateBio)
			r.Post("/profile/image", profileHandler.UploadImage)
			r.Patch("/settings", profileHandler.UpdateSettings)
		})

		r.Get("/ws", wsHandler.HandleWebSocket)
	})

	return r
}

// healthHandler handles GET /healthz
func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
