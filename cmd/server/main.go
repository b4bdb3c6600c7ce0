package main

import (
	"context"
	"log"
	"strconv"
	"time"

	"shelf-scanner/backend/internal/agent"
	"shelf-scanner/backend/internal/config"
	"shelf-scanner/backend/internal/handler"
	"shelf-scanner/backend/internal/middleware"
	"shelf-scanner/backend/internal/model"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	logger, level, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting shelf scanner",
		zap.String("env", cfg.Env),
		zap.String("model", cfg.Model),
		zap.String("runtime", cfg.ModelRuntime),
	)

	h := handler.New(handler.Options{
		Logger:         logger.Named("http"),
		Level:          level,
		Cover:          model.TemplateCover(cfg.CoverURLTemplate),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	scanner, err := agent.NewScannerFromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Warn("failed to initialize scanner, image processing will be unavailable", zap.Error(err))
	} else {
		h.SetScanner(scanner)
		logger.Info("scanner initialized")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Named("access")))

	// Security headers (before CORS)
	r.Use(middleware.SecurityHeaders())

	allowedOrigins := cfg.Origins()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept-Language", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	ipLimiter := middleware.PerMinute(cfg.RateLimitPerMinute)
	dailyQuota := middleware.NewDailyQuota(cfg.DailyQuota)
	logger.Info("rate limiting enabled",
		zap.Int("per_minute", cfg.RateLimitPerMinute),
		zap.Int64("daily_quota", cfg.DailyQuota),
	)

	h.Register(r, middleware.RateLimitMiddleware(ipLimiter, dailyQuota, logger.Named("ratelimit")))

	if cfg.IsProduction() {
		handler.ServeSPA(r, cfg.StaticDir)
	}

	addr := ":" + strconv.Itoa(cfg.Port)
	logger.Info("server ready", zap.String("addr", addr), zap.Strings("allowed_origins", allowedOrigins))
	if err := r.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
