package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/config"
	"github.com/codariq/codariq-api/internal/database"
	"github.com/codariq/codariq-api/internal/handler"
	"github.com/codariq/codariq-api/internal/middleware"
	"github.com/codariq/codariq-api/internal/models"
	"github.com/codariq/codariq-api/internal/registry"
	"github.com/codariq/codariq-api/internal/repository"
	"github.com/codariq/codariq-api/internal/router"
	"github.com/codariq/codariq-api/internal/service"
	cloud "github.com/codariq/codariq-api/pkg/cloudinary"
	"github.com/codariq/codariq-api/pkg/llm"
	"github.com/codariq/codariq-api/pkg/retrieval"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := connectDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Feedback{}, &models.Generation{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	modelRegistry, err := registry.FromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to build model registry: %v", err)
	}

	provider, err := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.InferenceBaseURL,
		APIKey:  cfg.InferenceAPIKey,
		Timeout: cfg.InferenceTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create inference client: %v", err)
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = store
	}

	var retriever retrieval.Retriever
	if cfg.RetrievalURL != "" {
		httpRetriever, err := retrieval.NewHTTPRetriever(cfg.RetrievalURL, 30*time.Second, logger)
		if err != nil {
			log.Fatalf("failed to create retrieval client: %v", err)
		}
		retriever = httpRetriever
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	feedbackRepo := repository.NewFeedbackRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	feedService := service.NewFeedService(redisClient, cfg.EventChannel, natsConn, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, redisClient, cfg.AggregateCacheTTL, validate, feedService, logger)
	generationService := service.NewGenerationService(service.GenerationDeps{
		Generations: generationRepo,
		Registry:    modelRegistry,
		Provider:    provider,
		Retriever:   retriever,
		Uploader:    uploader,
		Events:      feedService,
		Validator:   validate,
		MaxRefBytes: cfg.ReferenceMaxBytes,
		Logger:      logger,
	})
	evaluationService := service.NewEvaluationService(generationRepo, logger)
	insightService := service.NewInsightService(feedbackRepo, provider, cfg.InsightModel, validate, logger)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feedService.Start(appCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GenerationHandler: handler.NewGenerationHandler(generationService, logger),
		FeedbackHandler:   handler.NewFeedbackHandler(feedbackService, logger),
		RegistryHandler:   handler.NewRegistryHandler(modelRegistry, validate, logger),
		InsightHandler:    handler.NewInsightHandler(insightService, logger),
		EvaluationHandler: handler.NewEvaluationHandler(evaluationService, logger),
		FeedHandler:       handler.NewFeedHandler(feedService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func connectDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return database.ConnectPostgres(cfg.DatabaseURL)
	}
	return database.ConnectSQLite(cfg.SQLitePath)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
