package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-house-backend/internal/cache"
	"social-house-backend/internal/config"
	"social-house-backend/internal/handlers"
	"social-house-backend/internal/middleware"
	"social-house-backend/internal/notify"
	"social-house-backend/internal/repository"
	"social-house-backend/internal/repository/memory"
	"social-house-backend/internal/services"
	"social-house-backend/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const limiterExpiry = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return Run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type repositories struct {
	users   services.UserRepository
	photos  services.PhotoRepository
	follows services.FollowRepository
	health  func(ctx context.Context) error
	close   func()
}

// Run wires every component from cfg and serves until SIGINT or SIGTERM
func Run(cfg *config.Config) error {
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer repos.close()

	media, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	var mediaDir string
	if local, ok := media.(*storage.LocalStorage); ok {
		mediaDir = local.Root()
	}
	log.Info().Str("type", cfg.Storage.Type).Msg("Storage ready")

	searchCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	if searchCache != nil {
		defer searchCache.Close()
		log.Info().Str("type", searchCache.Name()).Msg("Search cache enabled")
	}

	hub := notify.NewHub()
	apns, err := notify.NewAPNsPusher(cfg.APNs)
	if err != nil {
		return fmt.Errorf("failed to create APNs client: %w", err)
	}
	var pusher notify.Pusher
	if apns != nil {
		pusher = apns
	}
	dispatcher := notify.NewDispatcher(hub, pusher, repos.users, repos.follows)

	searchService := services.NewSearchService(repos.users, searchCache, cfg.Cache.TTL)
	userService := services.NewUserService(repos.users, repos.follows, repos.photos, media, searchService, cfg.JWT.Secret, cfg.JWT.TTL)
	followService := services.NewFollowService(repos.follows, dispatcher)
	photoService := services.NewPhotoService(repos.photos, repos.users, media, dispatcher)
	feedService := services.NewFeedService(repos.photos)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst, limiterExpiry)
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.RouterConfig{
		UserService:   userService,
		FollowService: followService,
		PhotoService:  photoService,
		FeedService:   feedService,
		SearchService: searchService,
		Hub:           hub,
		AuthLimiter:   limiter,
		MediaDir:      mediaDir,
		Health:        repos.health,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		SessionTTL:    cfg.JWT.TTL,
		Options: handlers.Options{
			Debug:          cfg.Server.Debug,
			MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Close()
	dispatcher.Wait()

	log.Info().Msg("Server exited")
	return nil
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory database; data is lost on exit")
		store := memory.NewStore()
		return &repositories{
			users:   memory.NewUserRepository(store),
			photos:  memory.NewPhotoRepository(store),
			follows: memory.NewFollowRepository(store),
			close:   func() {},
		}, nil
	}

	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &repositories{
		users:   repository.NewUserRepository(db),
		photos:  repository.NewPhotoRepository(db),
		follows: repository.NewFollowRepository(db),
		health:  db.Ping,
		close:   db.Close,
	}, nil
}

// setupLogger configures the global zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
