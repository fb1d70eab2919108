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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"content-pipeline/internal/config"
	"content-pipeline/internal/platform"
	"content-pipeline/internal/provider"
	"content-pipeline/internal/service"
	"content-pipeline/internal/worker"
	"content-pipeline/shared/database"
	"content-pipeline/shared/interfaces"
	sharedLogger "content-pipeline/shared/logger"
	"content-pipeline/shared/messaging"
)

// enqueuedBindingKey matches enqueued events of every account.
const enqueuedBindingKey = "job.*.enqueued"

func main() {
	logger, err := sharedLogger.New(sharedLogger.FromEnv("content-worker"))
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
	logger = logger.With(zap.String("worker_id", cfg.Worker.ID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := startMetricsServer(cfg.MetricsPort, logger)

	// --- External Connections ---
	pgPool, err := platform.Postgres(ctx, cfg, platform.Retry{}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	redisClient, err := platform.Redis(ctx, cfg, platform.Retry{}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

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

	logStream := service.NewJobLogStream(pgPool, database.NewPgJobLogRepository(logger), service.LogStreamConfig{
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

	jobHandler := worker.NewHandler(worker.Dependencies{
		DB:        pgPool,
		Stories:   storyRepo,
		Contents:  contentRepo,
		Workflows: database.NewPgWorkflowRepository(logger),
		Generator: generator,
		Engine:    service.NewWorkflowEngine(generator, logger),
		Images: service.NewImageService(pgPool, txm, database.NewPgImageRepository(logger),
			database.NewPgImageSettingsRepository(logger), database.NewRedisImageSettingsCache(redisClient, logger),
			contentRepo, templateRepo, genLogRepo, registry, cfg.Worker.ImageStepTimeout, logger),
	}, logger)

	var publisher interfaces.JobEventPublisher = messaging.NewLogPublisher(logger)
	var mqConn *amqp091.Connection
	if cfg.RabbitMQURL != "" {
		mqConn, err = platform.RabbitMQ(ctx, cfg.RabbitMQURL, platform.Retry{}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		jp, err := messaging.NewRabbitMQJobEventPublisher(mqConn, logger)
		if err != nil {
			logger.Fatal("Failed to create job event publisher", zap.Error(err))
		}
		defer jp.Close()
		publisher = jp
	}

	pool := worker.NewPool(cfg.Worker, pgPool, database.NewPgJobRepository(logger), logStream, publisher, jobHandler, logger)

	if mqConn != nil {
		consumer, err := messaging.NewJobEventConsumer(mqConn, pool, enqueuedBindingKey, logger)
		if err != nil {
			logger.Fatal("Failed to create job event consumer", zap.Error(err))
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Job event consumer stopped", zap.Error(err))
			}
		}()
	}

	if cfg.PushgatewayURL != "" {
		pusher := worker.NewMetricsPusher(cfg.PushgatewayURL, logger)
		go pusher.Run(ctx, cfg.Worker.MetricsPushEvery)
		defer pusher.Cleanup()
	}

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		pool.Run(ctx)
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("Shutdown signal received, draining in-flight jobs",
		zap.Duration("timeout", cfg.Worker.ShutdownTimeout))
	<-runDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("In-flight jobs were interrupted and requeued", zap.Error(err))
	}

	metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()
	if err := metricsServer.Shutdown(metricsCtx); err != nil {
		logger.Error("Metrics server forced to shutdown", zap.Error(err))
	}
	logger.Info("Worker exiting")
}

// startMetricsServer serves /metrics and /health on port.
func startMetricsServer(port string, logger *zap.Logger) *http.Server {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, worker.Registry()}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting metrics server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	return srv
}
