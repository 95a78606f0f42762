package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/tuanphamdev/meeting-scribe/pkg/validator"

	"github.com/tuanphamdev/meeting-scribe/internal/adapter/handler"
	"github.com/tuanphamdev/meeting-scribe/internal/adapter/repository"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/cache"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/database"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/external/platform"
	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/storage"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/catchup"
	meetinguse "github.com/tuanphamdev/meeting-scribe/internal/usecase/meeting"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/store"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/summarizer"
	"github.com/tuanphamdev/meeting-scribe/internal/usecase/transcript"
	pkgai "github.com/tuanphamdev/meeting-scribe/pkg/ai"
	"github.com/tuanphamdev/meeting-scribe/pkg/config"
	"github.com/tuanphamdev/meeting-scribe/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Apply SQL migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	summaryRepo := repository.NewSummaryRepository(db)

	// Initialize platform client
	log.Println("🔗 Initializing platform client...")
	platformClient := platform.NewClient(&cfg.Platform)

	// Initialize transcript archive (optional)
	var archive *storage.TranscriptArchive
	if cfg.Archive.Enabled {
		log.Println("🗄️  Initializing transcript archive...")
		archive, err = storage.NewTranscriptArchive(&cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize transcript archive: %v", err)
		}
	}

	// Initialize transcript ingestion
	log.Println("🎙️  Initializing transcript ingestion...")
	buffer := transcript.NewSegmentBuffer(transcript.DefaultBufferCapacity, logger)
	registry := transcript.NewSubscriptionRegistry(redisClient, logger)

	strategies := transcript.NewStrategySet(
		platformClient,
		buffer,
		registry,
		cfg.Platform.CallbackURL,
		cfg.Platform.WebhookSecret,
		logger,
	)

	// Initialize summarization pipeline
	log.Println("🤖 Initializing summarization pipeline...")
	llmClient := pkgai.NewLLMClient(&cfg.LLM)
	summaryStore := store.NewService(summaryRepo, platformClient, logger)
	summaryStore.StartPurgeWorker()
	defer summaryStore.StopPurgeWorker()

	summarizerService := summarizer.NewService(
		buffer,
		llmClient,
		summarizer.NewParser(),
		summaryStore,
		platformClient,
		archive,
		cfg.LLM.Temperature,
		logger,
	)

	// Initialize catch-up delivery
	catchupService := catchup.NewService(summaryRepo, platformClient, logger)

	// Initialize meeting lifecycle controller
	log.Println("📅 Initializing meeting controller...")
	defaults := entities.MeetingConfig{
		SummaryIntervalMinutes:  cfg.Summarizer.IntervalMinutes,
		AutoPostToChat:          cfg.Summarizer.AutoPostToChat,
		LateJoinerNotifications: cfg.Summarizer.LateJoinerNotifications,
		RetentionDays:           cfg.Summarizer.RetentionDays,
		TranscriptMethod:        entities.TranscriptMethod(cfg.Summarizer.TranscriptMethod),
	}
	meetingService := meetinguse.NewService(
		platformClient,
		buffer,
		strategies,
		summarizerService,
		catchupService,
		defaults,
		logger,
	)

	// Initialize JWT manager for the summary query API
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.Secret, 24*time.Hour)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	meetingHandler := handler.NewMeeting(meetingService, logger)
	summaryHandler := handler.NewSummary(summaryStore, logger)

	webhookStrategy, _ := strategies[entities.TranscriptMethodWebhook].(*transcript.WebhookStrategy)
	webhookHandler := handler.NewWebhook(webhookStrategy, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, jwtManager, meetingHandler, summaryHandler, webhookHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// End every active meeting so buffered content gets a final pass
	meetingService.Shutdown(ctx)

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
