package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ripplr_backend/internal/config"
	"ripplr_backend/internal/database"
	"ripplr_backend/internal/handler"
	"ripplr_backend/internal/queue"
	"ripplr_backend/internal/redis"
	"ripplr_backend/internal/repository"
	"ripplr_backend/internal/service"
	"ripplr_backend/internal/worker"

	"ripplr_backend/internal/cache"
)

const shutdownTimeout = 15 * time.Second

// Run wires every layer together and serves until SIGINT/SIGTERM.
func Run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	shareRepo := repository.NewShareRepository(db)
	followRepo := repository.NewFollowRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Redis-backed infrastructure
	feedCache := cache.NewFeedCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// Services
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	activityService := service.NewActivityService(userRepo, postRepo, likeRepo, shareRepo)
	postService := service.NewPostService(postRepo, userRepo, likeRepo, shareRepo, publisher)
	engagementService := service.NewEngagementService(postRepo, likeRepo, shareRepo, publisher, db)
	followService := service.NewFollowService(followRepo, userRepo, db, publisher)
	feedService := service.NewFeedService(feedCache, postRepo, followRepo, userRepo, likeRepo, shareRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	mediaService, err := service.NewMediaService(ctx, cfg, userRepo)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// Feed worker
	eventHandler := worker.NewHandler(feedCache, followRepo, postRepo)
	eventHandler.SetNotificationCreator(notificationService)
	manager := worker.NewManager(consumer, eventHandler, worker.DefaultManagerConfig())
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed workers: %w", err)
	}
	defer manager.Stop()

	// HTTP layer
	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService),
		UserHandler:         handler.NewUserHandler(userService, authService, activityService),
		FollowHandler:       handler.NewFollowHandler(followService, userService),
		FeedHandler:         handler.NewFeedHandler(feedService),
		PostHandler:         handler.NewPostHandler(postService),
		EngagementHandler:   handler.NewEngagementHandler(engagementService),
		MediaHandler:        handler.NewMediaHandler(mediaService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		JWTSecret:           cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.Printf("[Server] Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Println("[Server] Stopped cleanly")
	return nil
}
