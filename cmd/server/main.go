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

	"story-server/internal/ai"
	"story-server/internal/config"
	"story-server/internal/handler"
	"story-server/internal/logger"
	"story-server/internal/middleware"
	"story-server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Failed to read .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	log.Info("Configuration loaded",
		zap.String("storage", cfg.StorageDriver),
		zap.String("default_provider", cfg.DefaultProvider),
		zap.Int("character_limit", cfg.CharacterLimit),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	storage, err := setupStorage(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.close()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := setupRedis(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	events, closeEvents, err := setupEvents(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize story event publisher", zap.Error(err))
	}
	defer closeEvents()

	dispatcher := ai.NewProviderDispatcher(cfg.AIConfig, log)

	services := service.New(service.Deps{
		Users:           storage.users,
		Shared:          storage.shared,
		Generator:       dispatcher,
		Preferences:     preferenceStore(redisClient, log),
		Events:          events,
		CharacterLimit:  cfg.CharacterLimit,
		DefaultProvider: ai.Provider(cfg.DefaultProvider),
		Logger:          log,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	var generation []gin.HandlerFunc
	if cfg.RateLimitPerMinute > 0 {
		store := middleware.RateLimitStore(redisClient, uint(cfg.RateLimitPerMinute))
		generation = append(generation, middleware.GenerationRateLimit(store, log))
		log.Info("Rate limiter middleware initialized", zap.Int("per_minute", cfg.RateLimitPerMinute))
	}
	handler.NewHandler(services, log).RegisterRoutes(router, generation...)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
		// Генерация может занимать до AI_TIMEOUT на каждую попытку
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout*time.Duration(cfg.MaxAttempts) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}
