package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/melhorenem-api/internal/config"
	"github.com/noah-isme/melhorenem-api/internal/database"
	"github.com/noah-isme/melhorenem-api/internal/handler"
	"github.com/noah-isme/melhorenem-api/internal/middleware"
	"github.com/noah-isme/melhorenem-api/internal/models"
	"github.com/noah-isme/melhorenem-api/internal/repository"
	"github.com/noah-isme/melhorenem-api/internal/router"
	"github.com/noah-isme/melhorenem-api/internal/service"
	"github.com/noah-isme/melhorenem-api/pkg/ai"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.Essay{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx := context.Background()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	scorer, err := ai.NewScorer(ctx, ai.Config{
		Provider:    cfg.AIProvider,
		APIKey:      cfg.AIAPIKey(),
		Model:       cfg.AIModel,
		BaseURL:     cfg.AIBaseURL,
		Timeout:     cfg.AITimeout,
		Temperature: 0.2,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.AIProvider).Msg("failed to create essay scorer")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	essayRepo := repository.NewEssayRepository(db)
	dashboardCache := service.NewDashboardCache(redisClient, cfg.DashboardCacheTTL, logger)
	events := service.NewNATSEssayPublisher(natsConn, cfg.NATSSubject)

	essayService := service.NewEssayService(essayRepo, scorer, dashboardCache, events, validate, logger, service.EssayServiceConfig{
		MinGradingLength: cfg.MinGradingLength,
		PublicRead:       cfg.PublicRead,
	})
	dashboardService := service.NewDashboardService(essayRepo, dashboardCache, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    1 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		EssayHandler:     handler.NewEssayHandler(essayService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, logger),
		DB:               db,
		GradeLimiter:     middleware.RateLimit("grade", cfg.GradeRateLimit, cfg.GradeRateWindow),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("provider", cfg.AIProvider).Msg("essay api listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
