package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/student-service/internal/cache"
	"github.com/SAP-F-2025/student-service/internal/config"
	"github.com/SAP-F-2025/student-service/internal/handlers"
	"github.com/SAP-F-2025/student-service/internal/messaging"
	"github.com/SAP-F-2025/student-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/student-service/internal/services"
	"github.com/SAP-F-2025/student-service/internal/storage"
	"github.com/SAP-F-2025/student-service/internal/utils"
	"github.com/SAP-F-2025/student-service/internal/validator"
	"github.com/SAP-F-2025/student-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize messaging
	publisher, err := messaging.NewKafkaPublisher(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize kafka publisher: %v", err)
	}
	queue := messaging.NewQueue(publisher, cfg.ProcessingTopic, cfg.CompletionTopic)

	// Initialize object storage
	objects, err := storage.NewLocalStorage(cfg.StorageDir)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repoManager.GetRepository(),
		Queue:     queue,
		Objects:   objects,
		Cache:     cache.NewCacheHelper(redisClient, cache.ExecutionCacheConfig.Prefix),
		Logger:    slogLogger,
		Validator: validator,
	}, services.ServiceManagerConfig{
		WorkflowConcurrency: cfg.WorkflowConcurrency,
		WorkflowMaxRetries:  cfg.WorkflowMaxRetries,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Start the processing-queue consumer
	subscriber, err := messaging.NewKafkaSubscriber(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize kafka subscriber: %v", err)
	}

	consumerRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(slogLogger))
	if err != nil {
		log.Fatalf("Failed to create message router: %v", err)
	}
	serviceManager.Aggregator().RegisterHandlers(consumerRouter, subscriber)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	go func() {
		if err := consumerRouter.Run(consumerCtx); err != nil {
			log.Printf("Message router stopped: %v", err)
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop consuming before tearing down services
	stopConsumer()
	if err := consumerRouter.Close(); err != nil {
		log.Printf("Failed to close message router: %v", err)
	}

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close messaging
	if err := queue.Close(); err != nil {
		log.Printf("Failed to close queue publisher: %v", err)
	}
	if err := subscriber.Close(); err != nil {
		log.Printf("Failed to close queue subscriber: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
