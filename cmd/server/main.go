package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/bhagyashreemodi/emergency-connect/internal/config"
	"github.com/bhagyashreemodi/emergency-connect/internal/database"
	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
	"github.com/bhagyashreemodi/emergency-connect/internal/repositories"
	"github.com/bhagyashreemodi/emergency-connect/internal/services"
	"github.com/bhagyashreemodi/emergency-connect/internal/transport"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.LogLevel)

	// Database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		l.Fatal("failed to create postgres pool", "error", err)
	}
	defer postgresPool.Close()

	if err := database.ApplySchema(ctx, postgresPool); err != nil {
		l.Fatal("failed to apply schema", "error", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		l.Fatal("failed to create redis client", "error", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(postgresPool)
	volunteerRepo := repositories.NewPostgresVolunteerRepository(postgresPool)
	taskRepo := repositories.NewPostgresTaskRepository(postgresPool)
	messageRepo := repositories.NewPostgresMessageRepository(postgresPool)
	sessionRepo := repositories.NewRedisSessionRepository(redisClient)

	// Real-time core. The hub needs the coordinator and the broadcaster
	// needs the hub, so the sender is bound after construction.
	registry := realtime.NewConnectionRegistry()
	sender := &transport.LateBoundSender{}
	broadcaster := realtime.NewBroadcaster(registry, sender)
	presence := realtime.NewPresenceCoordinator(registry, userRepo, broadcaster, cfg.OfflineDebounce, l)
	hub := transport.NewHub(presence, l)
	sender.Bind(hub)

	// Services
	authService := services.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret, cfg.JWTExpiry)
	chatService := services.NewChatService(messageRepo, userRepo, broadcaster, l)
	smsNotifier := services.NewTextbeltNotifier(cfg.SMSAPIURL, cfg.SMSAPIKey)
	taskMatcher := services.NewTaskMatcher(volunteerRepo, registry, broadcaster, smsNotifier, l)
	taskService := services.NewTaskService(taskRepo, taskMatcher, l)

	srv := &server{
		auth:       authService,
		chat:       chatService,
		tasks:      taskService,
		users:      userRepo,
		volunteers: volunteerRepo,
		logger:     l,
	}

	// HTTP router
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Handle("/ws", hub)

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", srv.handleRegister)
		r.Post("/auth/login", srv.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(srv.requireAuth)
			r.Post("/auth/logout", srv.handleLogout)
			r.Post("/auth/logout-all", srv.handleLogoutAll)
			r.Get("/users", srv.handleListUsers)
			r.Put("/users/me/status", srv.handleUpdateStatus)
			r.Get("/messages/public", srv.handlePublicHistory)
			r.Post("/messages/public", srv.handleSendPublicMessage)
			r.Get("/messages/private/{username}", srv.handlePrivateHistory)
			r.Post("/messages/private", srv.handleSendPrivateMessage)
			r.Get("/announcements", srv.handleAnnouncementHistory)
			r.Post("/announcements", srv.handlePostAnnouncement)
			r.Get("/volunteers/me", srv.handleGetVolunteer)
			r.Put("/volunteers/me", srv.handleUpsertVolunteer)
			r.Post("/tasks", srv.handleCreateTask)
			r.Get("/tasks", srv.handleListTasks)
			r.Post("/tasks/{title}/accept", srv.handleAcceptTask)
			r.Post("/tasks/{title}/decline", srv.handleDeclineTask)
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		l.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
	}()

	l.Info("starting server", "port", cfg.ServerPort)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		l.Fatal("server error", "error", err)
	}

	l.Info("server stopped gracefully")
}
