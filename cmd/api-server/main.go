package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"filmvault/database"
	"filmvault/internal/config"
	"filmvault/internal/httpapi/handler"
	"filmvault/internal/httpapi/middleware"
	"filmvault/internal/httpapi/repository"
	"filmvault/internal/httpapi/service"
	"filmvault/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	files, err := storage.NewManager(cfg.MediaDataPath, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	// optional tag cache; the API works without Redis
	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		cache = redis.NewClient(opts)
		if err := cache.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, tag cache disabled", "error", err)
			cache = nil
		}
	}

	// repositories
	movieRepo := repository.NewMovieRepo(db)
	tagRepo := repository.NewTagRepo(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// services
	movieSvc := service.NewMovieService(movieRepo, tagRepo, files, logger)
	tagSvc := service.NewTagService(tagRepo, cache, time.Duration(cfg.CacheTTL)*time.Second, logger)
	authSvc := service.NewAuthService(userRepo, refreshTokenRepo, cfg)

	// handlers
	movieHandler := handler.NewMovieHandler(movieSvc, files, cfg.IsDevelopment())
	tagHandler := handler.NewTagHandler(tagSvc, cfg.IsDevelopment())
	authHandler := handler.NewAuthHandler(authSvc, cfg.IsDevelopment())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", middleware.LoginRateLimiter(cfg.LoginRatePerMin), authHandler.Login)
	authGroup.POST("/refresh", authHandler.RefreshToken)

	uploads := middleware.Uploads(files, cfg.UploadMaxSizeMB)
	authed := api.Group("", middleware.AuthMiddleware(authSvc))
	movieHandler.RegisterRoutes(authed.Group("/movies"), uploads)
	tagHandler.RegisterRoutes(authed.Group("/tags"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info("API server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
