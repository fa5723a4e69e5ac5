package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"

	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/handlers/api"
	"github.com/PejmanG/chat-app/internal/logger"
	"github.com/PejmanG/chat-app/internal/middleware"
	appRedis "github.com/PejmanG/chat-app/internal/redis"
	"github.com/PejmanG/chat-app/internal/services"
	"github.com/PejmanG/chat-app/internal/storage"
	"github.com/PejmanG/chat-app/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Module("main")
	log.Info().Str("app", cfg.AppName).Str("version", cfg.AppVersion).Msg("starting")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database tables")
	}

	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	userRepo := storage.NewGormUserRepository(db)
	chatRepo := storage.NewGormChatRepository(db)

	authService := services.NewAuthService(userRepo, tokenBlacklist, cfg.Auth)
	userService := services.NewUserService(userRepo)
	chatService := services.NewChatService(chatRepo, userRepo)

	hub := websocket.NewHub(userService)
	controller := websocket.NewController(hub, chatService, userService)
	wsHandler := websocket.NewHandler(hub, controller, cfg.Auth, cfg.WebSocket, tokenBlacklist)

	authHandler := api.NewAuthHandler(authService, tokenBlacklist, cfg.Auth)
	chatHandler := api.NewChatHandler(chatService)

	r := mux.NewRouter()

	// Public auth routes.
	r.HandleFunc("/api/auth/", authHandler.Signup).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/session", authHandler.Signin).Methods(http.MethodPost)

	// Protected API routes.
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(next, cfg.Auth, tokenBlacklist)
	})
	protected.HandleFunc("/auth/session", authHandler.CurrentUser).Methods(http.MethodGet)
	protected.HandleFunc("/auth/signout", authHandler.Signout).Methods(http.MethodGet)
	protected.HandleFunc("/chats", chatHandler.ListChats).Methods(http.MethodGet)

	// WebSocket endpoint authenticates its own handshake.
	r.Handle(cfg.Server.WebSocketPath, wsHandler).Methods(http.MethodGet)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.Server.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.Server.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.Server.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.Server.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.Server.CORS.MaxAge),
	}
	if cfg.Server.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        corsHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis client")
	}
	log.Info().Msg("server stopped")
}
