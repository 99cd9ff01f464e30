package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/innovativecursor/szc-sub001/config"
	"github.com/innovativecursor/szc-sub001/db"
	"github.com/innovativecursor/szc-sub001/internal/auth/domain"
	"github.com/innovativecursor/szc-sub001/internal/auth/handler"
	repo "github.com/innovativecursor/szc-sub001/internal/auth/repository/postgres"
	"github.com/innovativecursor/szc-sub001/internal/auth/repository/redisstore"
	"github.com/innovativecursor/szc-sub001/internal/auth/service"
	"github.com/innovativecursor/szc-sub001/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine in deployed environments; config falls back
	// to the process environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	userRepo := repo.NewPostgresRepository(dbPool)

	var sessions domain.RefreshTokenStore = userRepo
	if cfg.SessionStore == "redis" {
		redisClient, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to initialize redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		sessions = redisstore.NewRegistry(redisClient)
	}

	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin)
	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	userService := service.NewUserService(userRepo, sessions, tokenService, hasher, log)
	authHandler := handler.NewAuthHandler(userService, tokenService)

	go sweepSessions(ctx, userService, cfg.SweepIntervalMin, log)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(fiberrecover.New())
	app.Use(logger.RequestLogger(log))
	handler.RegisterRoutes(app, authHandler)

	log.Info("starting auth service", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func sweepSessions(ctx context.Context, svc *service.UserService, intervalMin int, log *slog.Logger) {
	if intervalMin <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(intervalMin) * time.Minute)
	defer ticker.Stop()

	log.Debug("session sweeper started", "interval_min", intervalMin)
	for range ticker.C {
		svc.SweepExpiredSessions(ctx)
	}
}
