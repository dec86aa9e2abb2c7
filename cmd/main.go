package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog_api/internal/auth"
	"blog_api/internal/config"
	loginHandler "blog_api/internal/http_server/handlers/auth/login"
	logoutHandler "blog_api/internal/http_server/handlers/auth/logout"
	refreshHandler "blog_api/internal/http_server/handlers/auth/refresh"
	registerHandler "blog_api/internal/http_server/handlers/auth/register"
	blogHandlers "blog_api/internal/http_server/handlers/blog"
	commentHandlers "blog_api/internal/http_server/handlers/comment"
	likeHandlers "blog_api/internal/http_server/handlers/like"
	userHandlers "blog_api/internal/http_server/handlers/user"
	resp "blog_api/internal/lib/api/response"
	sl "blog_api/internal/lib/logger"
	"blog_api/internal/middleware/authn"
	"blog_api/internal/middleware/authz"
	rateLimit "blog_api/internal/middleware/ratelimit"
	"blog_api/internal/models"
	"blog_api/internal/rabbitmq"
	"blog_api/internal/storage/objectstore"
	"blog_api/internal/storage/postgres"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const apiVersion = "1.0.0"

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting blog api", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	banners, err := objectstore.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect object storage", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(log, storage, storage, cfg)

	router := setupRouter(log, cfg, authService, storage, banners, msgBroker)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Blog api stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	authService *auth.Auth,
	storage *postgres.PostgresRepo,
	banners *objectstore.Client,
	msgBroker *rabbitmq.RabbitMQClient,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	allowedOrigins := cfg.HTTPServer.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", liveness)

		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit.Register()).Post("/register",
				registerHandler.New(log, validate, authService, msgBroker, cfg.Tokens.RefreshTokenTTL, cfg.IsProd()),
			)
			r.With(rateLimit.Login()).Post("/login",
				loginHandler.New(log, validate, authService, cfg.Tokens.RefreshTokenTTL, cfg.IsProd()),
			)
			r.With(rateLimit.Refresh()).Post("/refresh",
				refreshHandler.New(log, authService),
			)
			r.With(rateLimit.Logout()).Post("/logout",
				logoutHandler.New(log, authService, cfg.IsProd()),
			)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimit.API())
			r.Use(authn.New(log, cfg.Tokens.AccessTokenSecret))

			r.Group(func(r chi.Router) {
				r.Use(authz.New(log, storage, models.RoleUser, models.RoleAdmin))

				r.Route("/blogs", func(r chi.Router) {
					r.Post("/", blogHandlers.NewCreate(log, validate, storage, banners, msgBroker))
					r.Get("/", blogHandlers.NewList(log, storage, storage))
					r.Get("/user/{userID}", blogHandlers.NewListByUser(log, storage, storage))
					r.Get("/{slug}", blogHandlers.NewGet(log, storage, storage))
					r.Put("/{blogID}", blogHandlers.NewUpdate(log, validate, storage, storage, banners))
					r.Delete("/{blogID}", blogHandlers.NewDelete(log, storage, storage))
				})

				r.Route("/comments", func(r chi.Router) {
					r.Post("/blog/{blogID}", commentHandlers.NewCreate(log, validate, storage, storage))
					r.Get("/blog/{blogID}", commentHandlers.NewList(log, storage))
					r.Delete("/{commentID}", commentHandlers.NewDelete(log, storage, storage))
				})

				r.Route("/likes", func(r chi.Router) {
					r.Post("/blog/{blogID}", likeHandlers.New(log, storage, storage))
					r.Delete("/blog/{blogID}", likeHandlers.NewUnlike(log, storage))
				})

				r.Route("/users/current", func(r chi.Router) {
					r.Get("/", userHandlers.NewGetCurrent(log, storage))
					r.Put("/", userHandlers.NewUpdateCurrent(log, validate, storage))
					r.Delete("/", userHandlers.NewDeleteCurrent(log, storage))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(authz.New(log, storage, models.RoleAdmin))

				r.Get("/users", userHandlers.NewList(log, storage))
				r.Get("/users/{userID}", userHandlers.NewGetByID(log, storage))
				r.Delete("/users/{userID}", userHandlers.NewDeleteByID(log, storage))
			})
		})
	})

	return r
}

func liveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"message":   "API IS LIVE",
		"status":    resp.StatusOK,
		"version":   apiVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
