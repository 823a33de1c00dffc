package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/auth"
	"github.com/portal-editais/edital-service/internal/cache"
	"github.com/portal-editais/edital-service/internal/config"
	"github.com/portal-editais/edital-service/internal/crypto"
	"github.com/portal-editais/edital-service/internal/handlers"
	"github.com/portal-editais/edital-service/internal/repositories/postgres"
	"github.com/portal-editais/edital-service/internal/services"
	"github.com/portal-editais/edital-service/internal/storage"
	"github.com/portal-editais/edital-service/internal/utils"
	"github.com/portal-editais/edital-service/internal/validator"
	"github.com/portal-editais/edital-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)

	var schemaCache cache.SchemaCache = cache.NoopSchemaCache{}
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, schema caching disabled", "error", err)
		} else {
			schemaCache = cache.NewRedisSchemaCache(redisClient, logger)
			defer redisClient.Close()
		}
	}

	cipher, err := crypto.NewFieldCipher(cfg.LogEncryptionKey)
	if err != nil {
		logger.Error("Failed to initialize log cipher", "error", err)
		os.Exit(1)
	}

	blobs, err := storage.NewDiskStore(cfg.BlobStorePath)
	if err != nil {
		logger.Error("Failed to open blob store", "error", err)
		os.Exit(1)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()
	formService := services.NewFormService(repo, schemaCache, slogger, v)
	auditService := services.NewAuditService(repo, cipher, slogger)
	exportService := services.NewExportService(repo, cipher, slogger)
	submissionService := services.NewSubmissionService(repo, formService, auditService, blobs, publisher, slogger)

	authenticator := auth.NewAuthenticator(cfg, repo.User(), slogger)

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger), gin.Recovery())

	handlerManager := handlers.NewHandlerManager(
		formService,
		submissionService,
		auditService,
		exportService,
		authenticator,
		repo,
		logger,
	)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
