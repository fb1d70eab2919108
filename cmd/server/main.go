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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/internal/config"
	"content-pipeline/internal/handler"
	"content-pipeline/internal/platform"
	"content-pipeline/internal/provider"
	"content-pipeline/internal/service"
	"content-pipeline/shared/database"
	"content-pipeline/shared/interfaces"
	sharedLogger "content-pipeline/shared/logger"
	"content-pipeline/shared/messaging"
	sharedMiddleware "content-pipeline/shared/middleware"
)

func main() {
	logger, err := sharedLogger.New(sharedLogger.FromEnv("content-api"))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- External Connections ---
	pgPool, err := platform.Postgres(ctx, cfg, platform.Retry{}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.RunMigrations(cfg.GetDSN(), logger); err != nil {
		logger.Fatal("Failed to apply database migrations", zap.Error(err))
	}

	redisClient, err := platform.Redis(ctx, cfg, platform.Retry{}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var (
		jobEvents      interfaces.JobEventPublisher
		templateEvents interfaces.TemplateEventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mqConn, err := platform.RabbitMQ(ctx, cfg.RabbitMQURL, platform.Retry{}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		jp, err := messaging.NewRabbitMQJobEventPublisher(mqConn, logger)
		if err != nil {
			logger.Fatal("Failed to create job event publisher", zap.Error(err))
		}
		defer jp.Close()
		tp, err := messaging.NewRabbitMQTemplatePublisher(mqConn, logger)
		if err != nil {
			logger.Fatal("Failed to create template event publisher", zap.Error(err))
		}
		defer tp.Close()
		jobEvents, templateEvents = jp, tp
	} else {
		lp := messaging.NewLogPublisher(logger)
		jobEvents, templateEvents = lp, lp
		logger.Info("RABBITMQ_URL not set, events are written to the log only")
	}

	registry, err := provider.FromConfig(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up AI providers", zap.Error(err))
	}

	// --- Dependency Injection ---
	txm := database.NewTransactionHelper(pgPool, logger)
	templateRepo := database.NewPgTemplateRepository(logger)
	genLogRepo := database.NewPgGenerationLogRepository(logger)
	contentRepo := database.NewPgContentRepository(logger)
	storyRepo := database.NewPgStoryRepository(logger)
	workflowRepo := database.NewPgWorkflowRepository(logger)
	jobRepo := database.NewPgJobRepository(logger)
	jobLogRepo := database.NewPgJobLogRepository(logger)
	imageRepo := database.NewPgImageRepository(logger)
	imageSettingsRepo := database.NewPgImageSettingsRepository(logger)

	logStream := service.NewJobLogStream(pgPool, jobLogRepo, service.LogStreamConfig{
		DefaultTailLimit: cfg.LogTailDefaultLimit,
	}, logger)
	logStream.Start()
	defer logStream.Close()

	generator := service.NewContentGenerator(pgPool, txm, templateRepo, genLogRepo, contentRepo, storyRepo,
		database.NewPgGenerationDefaultsRepository(logger), registry,
		service.GeneratorConfig{
			MaxAttempts:    cfg.AIMaxAttempts,
			BaseRetryDelay: cfg.AIBaseRetryDelay,
			TextTimeout:    cfg.Worker.TextStepTimeout,
		}, logger)

	pipeline := handler.NewPipelineHandler(handler.Services{
		Templates: service.NewTemplateService(pgPool, txm, templateRepo, genLogRepo, templateEvents, logger),
		Generator: generator,
		Jobs: service.NewJobService(pgPool, jobRepo, database.NewRedisIdempotencyStore(redisClient, logger),
			jobEvents, logStream, service.JobServiceConfig{
				MaxRetries:  cfg.Worker.MaxRetries,
				DedupWindow: cfg.Worker.EnqueueDedupWindow,
			}, logger),
		Logs:      logStream,
		Contents:  service.NewContentService(pgPool, contentRepo, logger),
		Workflows: service.NewWorkflowService(pgPool, txm, workflowRepo, templateRepo, logger),
		Images: service.NewImageService(pgPool, txm, imageRepo, imageSettingsRepo,
			database.NewRedisImageSettingsCache(redisClient, logger), contentRepo, templateRepo, genLogRepo, registry,
			cfg.Worker.ImageStepTimeout, logger),
	}, cfg.LogTailDefaultLimit, logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(sharedMiddleware.RequestID())
	router.Use(sharedMiddleware.AccessLog(logger, "/health", "/metrics"))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Length", "Content-Type",
		account.HeaderAccountID, account.HeaderUserID, account.HeaderUserRole,
	}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/health", handler.HealthCheck)
	router.HEAD("/health", handler.HealthCheck)

	pipeline.RegisterRoutes(router, handler.NewEnqueueLimiter(redisClient, cfg.EnqueueRateLimitPerMinute, logger))

	// Applied after the routes so every route gets a label.
	p.Use(router)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Image generation runs synchronously and may take minutes.
		WriteTimeout: cfg.Worker.ImageStepTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}
