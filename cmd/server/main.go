package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fonnect/internal/chat"
	"fonnect/internal/db"
	myMiddleware "fonnect/internal/middleware"
	"fonnect/internal/presence"
	"fonnect/internal/realtime"
	"fonnect/internal/user"

	"github.com/Netflix/go-env"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	users  user.Store
	chat   chat.Store
	closer io.Closer
}

func run() error {
	// 1. Config & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	st, err := openStores(ctx, config, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		_ = st.closer.Close()
	}()

	// 3. Realtime gateway
	hub := realtime.NewHub(log, presence.NewRegistry(), presence.NewDirectory())
	if config.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("Connected to Redis", "addr", config.RedisAddr)

		fanout := realtime.NewRedisFanout(redisClient, config.RedisChannel, log)
		hub.WithFanout(fanout)
		go fanout.Subscribe(ctx, hub.Deliver)
	}
	go hub.Run(ctx)

	// 4. Features
	userService := user.NewService(st.users, user.Options{
		JWTSecret:  config.JWTSecret,
		TokenTTL:   config.TokenTTL,
		BcryptCost: config.BcryptCost,
	}, hub, hub, log)
	userHandler := user.NewHandler(userService, log)

	chatService := chat.NewService(st.chat, st.users, hub, log)
	chatHandler := chat.NewHandler(chatService, log)

	wsHandler := realtime.NewHandler(hub, config.Origins(), log)
	authMiddleware := myMiddleware.NewAuthMiddleware(userService)

	// 5. Routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", userHandler.Routes)
		r.Route("/conversations", chatHandler.Routes)
	})
	r.With(authMiddleware.Handle).Get("/ws", wsHandler.ServeWs)

	server := &http.Server{
		Addr:              config.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", config.Addr, "store", config.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped cleanly")
	return nil
}

func openStores(ctx context.Context, config Config, log *slog.Logger) (*stores, error) {
	switch config.StoreDriver {
	case "badger":
		bdb, err := db.OpenBadger(config.BadgerFilepath)
		if err != nil {
			return nil, fmt.Errorf("database opening failed: %w", err)
		}
		log.Info("Opened BadgerDB", "path", config.BadgerFilepath)
		users := user.NewBadgerRepository(bdb)
		return &stores{users: users, chat: chat.NewBadgerStore(bdb), closer: bdb}, nil

	default:
		database, err := db.NewDatabase(config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		log.Info("Connected to PostgreSQL")
		if err := database.AutoMigrate(ctx); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		log.Info("Database Schema Initialized")
		users := user.NewRepository(database.Conn)
		return &stores{users: users, chat: chat.NewRepository(database.Conn), closer: database}, nil
	}
}
