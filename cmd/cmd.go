package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civic-issues-backend/internal/config"
	"civic-issues-backend/internal/handlers"
	"civic-issues-backend/internal/middleware"
	"civic-issues-backend/internal/models"
	"civic-issues-backend/internal/repository"
	"civic-issues-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TTLDays)
	mediaService, err := services.NewMediaService(
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}
	notifier, err := services.NewNotifier(cfg.APNs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create notifier")
	}
	wsHub := services.NewWSHub()
	issueService := services.NewIssueService(issueRepo, userRepo, mediaService, notifier)
	messageService := services.NewMessageService(messageRepo, userRepo, wsHub, notifier)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	issueHandler := handlers.NewIssueHandler(issueService)
	messageHandler := handlers.NewMessageHandler(messageService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Public routes
	r.Post("/users/register", userHandler.Register)
	r.Post("/users/login", userHandler.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(userService))

		r.Put("/users/push-token", userHandler.UpdatePushToken)

		r.Route("/issues", func(r chi.Router) {
			r.Get("/", issueHandler.List)
			r.Get("/reported", issueHandler.ListReported)
			r.Get("/{id}", issueHandler.Get)

			r.With(middleware.RequireRole(models.RoleCitizen)).Group(func(r chi.Router) {
				r.Post("/", issueHandler.Create)
				r.Patch("/{id}/upvote", issueHandler.Upvote)
				r.Patch("/{id}/downvote", issueHandler.Downvote)
			})

			r.With(middleware.RequireRole(models.RoleWorker)).Group(func(r chi.Router) {
				r.Patch("/{id}", issueHandler.Update)
				r.Patch("/{id}/status", issueHandler.Transition)
				r.Patch("/{id}/resolve", issueHandler.Resolve)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.With(middleware.RequireRole(models.RoleCitizen)).Group(func(r chi.Router) {
				r.Post("/send", messageHandler.Send)
				r.Get("/", messageHandler.List)
			})

			r.With(middleware.RequireRole(models.RoleContactPerson)).Group(func(r chi.Router) {
				r.Post("/reply", messageHandler.Reply)
				r.Get("/contacts", messageHandler.ListContacts)
				r.Get("/conversation/{citizenId}", messageHandler.Conversation)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

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

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
