package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/ai"
	"github.com/ashot-israelyan/ai-job-board/internal/config"
	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/digest"
	"github.com/ashot-israelyan/ai-job-board/internal/email"
	"github.com/ashot-israelyan/ai-job-board/internal/events"
	"github.com/ashot-israelyan/ai-job-board/internal/handler"
	"github.com/ashot-israelyan/ai-job-board/internal/identity"
	"github.com/ashot-israelyan/ai-job-board/internal/jobs"
	"github.com/ashot-israelyan/ai-job-board/internal/middleware"
	"github.com/ashot-israelyan/ai-job-board/internal/repository"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logging
	logger, err := newLogger(cfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	// Initialize Redis for delivery deduplication
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	listingRepo := repository.NewJobListingRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize the event bus
	bus := events.NewBus(events.BusConfig{
		Store:        eventRepo,
		Logger:       logger,
		PollInterval: cfg.Digest.PollInterval,
	})

	matcher := ai.NewGeminiMatcher(cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
	matcher.MaxCandidates = cfg.AI.MaxCandidates

	// Initialize services
	listingService := service.NewJobListingService(service.JobListingServiceConfig{
		Repo:    listingRepo,
		Matcher: matcher,
	})
	applicationService := service.NewApplicationService(service.ApplicationServiceConfig{
		Repo:     applicationRepo,
		Listings: listingRepo,
		Bus:      bus,
		Logger:   logger,
	})
	settingsService := service.NewSettingsService(service.SettingsServiceConfig{
		Repo: settingsRepo,
	})
	syncService := service.NewSyncService(service.SyncServiceConfig{
		Users:    userRepo,
		Orgs:     orgRepo,
		Settings: settingsRepo,
		Logger:   logger,
	})

	// Initialize the digest pipeline
	aggregator := digest.NewAggregator(digest.AggregatorConfig{
		Settings:      settingsRepo,
		Users:         userRepo,
		Listings:      listingRepo,
		Applications:  applicationRepo,
		Organizations: orgRepo,
		Bus:           bus,
		Logger:        logger,
		Lookback:      cfg.Digest.Lookback,
	})

	deliverer := digest.NewDeliverer(digest.DelivererConfig{
		Matcher:          matcher,
		Sender:           email.NewSMTPSender(cfg.SMTP, logger),
		Dedupe:           digest.NewDedupe(redisClient, 0),
		Logger:           logger,
		JobListingLimit:  cfg.Digest.JobListingLimit,
		ApplicationLimit: cfg.Digest.ApplicationLimit,
	})
	deliverer.Register(bus)
	bus.Start()
	defer bus.Stop()

	// Initialize the digest schedule
	scheduler, err := jobs.NewScheduler(jobs.SchedulerConfig{
		Digests:   aggregator,
		CronSpec:  cfg.Digest.CronSpec,
		Timezone:  cfg.Digest.Timezone,
		Logger:    logger,
		Events:    eventRepo,
		Retention: cfg.Digest.EventRetention,
	})
	if err != nil {
		logger.Fatal("failed to initialize scheduler", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// Initialize handlers
	identityClient := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey, &http.Client{Timeout: cfg.Identity.Timeout})
	listingHandler := handler.NewJobListingHandler(listingService)
	applicationHandler := handler.NewApplicationHandler(applicationService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	webhookHandler := handler.NewWebhookHandler(syncService, cfg.Identity.WebhookSecret, logger)
	adminHandler := handler.NewAdminHandler(aggregator, cfg.Admin.APIKey, logger)

	// Route-level middleware
	optionalAuth := middleware.OptionalAuth(identityClient)
	requireAuth := middleware.RequireAuth(identityClient)
	requireOrg := func(h http.Handler) http.Handler {
		return requireAuth(middleware.RequireOrgAdmin(h))
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.Health)

	// Identity provider webhooks (signature-authenticated)
	mux.HandleFunc("POST /v1/webhooks/identity", webhookHandler.Handle)

	// Public job board
	mux.HandleFunc("GET /v1/job-listings", listingHandler.Search)
	mux.Handle("GET /v1/job-listings/{id}", optionalAuth(http.HandlerFunc(listingHandler.Get)))

	// Natural-language search (authenticated; backed by the AI matcher)
	mux.Handle("POST /v1/job-listings/ai-search", requireAuth(http.HandlerFunc(listingHandler.AISearch)))

	// Job seeker endpoints
	mux.Handle("POST /v1/job-listings/{id}/applications", requireAuth(http.HandlerFunc(applicationHandler.Apply)))
	mux.Handle("GET /v1/users/me/applications", requireAuth(http.HandlerFunc(applicationHandler.ListMine)))
	mux.Handle("GET /v1/users/me/notification-settings", requireAuth(http.HandlerFunc(settingsHandler.GetUserSettings)))
	mux.Handle("PUT /v1/users/me/notification-settings", requireAuth(http.HandlerFunc(settingsHandler.UpdateUserSettings)))

	// Employer endpoints - require an organization admin
	mux.Handle("POST /v1/organizations/me/job-listings", requireOrg(http.HandlerFunc(listingHandler.Create)))
	mux.Handle("GET /v1/organizations/me/job-listings", requireOrg(http.HandlerFunc(listingHandler.ListMine)))
	mux.Handle("PUT /v1/organizations/me/job-listings/{id}", requireOrg(http.HandlerFunc(listingHandler.Update)))
	mux.Handle("DELETE /v1/organizations/me/job-listings/{id}", requireOrg(http.HandlerFunc(listingHandler.Delete)))
	mux.Handle("POST /v1/organizations/me/job-listings/{id}/status", requireOrg(http.HandlerFunc(listingHandler.ToggleStatus)))
	mux.Handle("POST /v1/organizations/me/job-listings/{id}/featured", requireOrg(http.HandlerFunc(listingHandler.ToggleFeatured)))
	mux.Handle("GET /v1/organizations/me/job-listings/{id}/applications", requireOrg(http.HandlerFunc(applicationHandler.ListForListing)))
	mux.Handle("PUT /v1/organizations/me/job-listings/{id}/applications/{userID}/rating", requireOrg(http.HandlerFunc(applicationHandler.Rate)))
	mux.Handle("PUT /v1/organizations/me/job-listings/{id}/applications/{userID}/stage", requireOrg(http.HandlerFunc(applicationHandler.SetStage)))
	mux.Handle("GET /v1/organizations/me/notification-settings", requireAuth(http.HandlerFunc(settingsHandler.GetOrgSettings)))
	mux.Handle("PUT /v1/organizations/me/notification-settings", requireAuth(http.HandlerFunc(settingsHandler.UpdateOrgSettings)))

	// Operator endpoints (key-authenticated)
	mux.HandleFunc("POST /v1/admin/digests/run", adminHandler.RunDigests)

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(120, time.Minute)
	defer rateLimiter.Stop()

	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS([]string{cfg.Server.ServerURL}),
		rateLimiter.Middleware,
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
