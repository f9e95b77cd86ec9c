// Command digest runs the daily digest aggregation once and exits.
// It is the manual counterpart of the in-server cron schedule, useful for
// backfills and local testing. With -deliver the process also drains the
// emitted events itself instead of leaving them to a running server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/ai"
	"github.com/ashot-israelyan/ai-job-board/internal/config"
	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/digest"
	"github.com/ashot-israelyan/ai-job-board/internal/email"
	"github.com/ashot-israelyan/ai-job-board/internal/events"
	"github.com/ashot-israelyan/ai-job-board/internal/repository"
)

func main() {
	flow := flag.String("flow", "all", "digest flow to run: listings, applications, or all")
	deliver := flag.Bool("deliver", false, "process the emitted events in this process")
	drain := flag.Duration("drain", 5*time.Minute, "how long to process events when -deliver is set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := zap.NewDevelopment()
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if *flow != "all" && *flow != "listings" && *flow != "applications" {
		logger.Fatal("unknown flow, expected listings, applications, or all", zap.String("flow", *flow))
	}

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

	bus := events.NewBus(events.BusConfig{
		Store:        repository.NewEventRepository(db),
		Logger:       logger,
		PollInterval: cfg.Digest.PollInterval,
	})

	aggregator := digest.NewAggregator(digest.AggregatorConfig{
		Settings:      repository.NewSettingsRepository(db),
		Users:         repository.NewUserRepository(db),
		Listings:      repository.NewJobListingRepository(db),
		Applications:  repository.NewApplicationRepository(db),
		Organizations: repository.NewOrganizationRepository(db),
		Bus:           bus,
		Logger:        logger,
		Lookback:      cfg.Digest.Lookback,
	})

	now := time.Now().UTC()
	failed := false

	if *flow == "all" || *flow == "listings" {
		if err := aggregator.RunJobListingsDigest(ctx, now); err != nil {
			logger.Error("job listings digest failed", zap.Error(err))
			failed = true
		}
	}
	if *flow == "all" || *flow == "applications" {
		if err := aggregator.RunApplicationsDigest(ctx, now); err != nil {
			logger.Error("applications digest failed", zap.Error(err))
			failed = true
		}
	}

	if *deliver {
		redisClient, err := database.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		matcher := ai.NewGeminiMatcher(cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
		matcher.MaxCandidates = cfg.AI.MaxCandidates

		deliverer := digest.NewDeliverer(digest.DelivererConfig{
			Matcher:          matcher,
			Sender:           email.NewSMTPSender(cfg.SMTP, logger),
			Dedupe:           digest.NewDedupe(redisClient, 0),
			Logger:           logger,
			JobListingLimit:  cfg.Digest.JobListingLimit,
			ApplicationLimit: cfg.Digest.ApplicationLimit,
		})
		deliverer.Register(bus)

		logger.Info("draining digest events", zap.Duration("for", *drain))
		bus.Start()
		time.Sleep(*drain)
		bus.Stop()
	}

	if failed {
		os.Exit(1)
	}
	logger.Info("digest run complete", zap.String("flow", *flow), zap.Time("window_end", now))
}
