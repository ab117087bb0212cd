// cmd/worker/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/clients"
	"github.com/unclebandit/linkreach-backend/internal/config"
	"github.com/unclebandit/linkreach-backend/internal/db"
	"github.com/unclebandit/linkreach-backend/internal/pipeline"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
	"github.com/unclebandit/linkreach-backend/internal/sending"
)

// trashRetention is how long soft-deleted prospects stay recoverable before
// the nightly purge removes them.
const trashRetention = 30 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})
	}
	logger := slog.New(handler)

	pool, err := db.Open(cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	q, err := queue.NewAMQP(cfg.AMQP.URL, logger)
	if err != nil {
		logger.Error("queue connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer q.Close()
	if err := q.Declare(pipeline.AllQueues()...); err != nil {
		logger.Error("queue declaration error", slog.Any("error", err))
		os.Exit(1)
	}

	campaignRepo := &repository.CampaignRepository{DB: pool}
	prospectRepo := &repository.ProspectRepository{DB: pool}
	contactRepo := &repository.ContactRepository{DB: pool}
	emailRepo := &repository.EmailRepository{DB: pool}
	sequenceRepo := &repository.SequenceRepository{DB: pool}
	responseRepo := &repository.ResponseRepository{DB: pool}
	linkCheckRepo := &repository.LinkCheckRepository{DB: pool}
	blocklistRepo := &repository.BlocklistRepository{DB: pool}
	rateRepo := &repository.RateConfigRepository{DB: pool}
	auditRepo := &repository.AuditRepository{DB: pool}

	if err := rateRepo.EnsureExists(context.Background(), cfg.Sending.DailyLimit, cfg.Sending.WarmupEnabled); err != nil {
		logger.Error("failed to seed sending config", slog.Any("error", err))
		os.Exit(1)
	}

	trail := audit.NewTrail(auditRepo, logger)
	governor := sending.NewGovernor(rateRepo, emailRepo)

	generator := clients.NewGeneratorClient(cfg.Generator)
	discoverer := clients.NewDiscoveryClient(cfg.Discovery)
	fetcher := clients.NewPageFetcher(cfg.LinkCheck.FetchTimeout)

	var transport sending.Transport = sending.NewProviderClient(cfg.Emailer)
	if cfg.Safety.Mode {
		logger.Warn("safety mode enabled, redirecting all outbound email",
			slog.String("redirect", cfg.Safety.RedirectEmail))
		transport = &sending.SafetyTransport{
			Inner:         transport,
			RedirectEmail: cfg.Safety.RedirectEmail,
		}
	}

	followupInterval := time.Duration(cfg.Followup.IntervalDays) * 24 * time.Hour

	sweeps := &pipeline.Sweeps{
		Sequences:        sequenceRepo,
		Emails:           emailRepo,
		Queue:            q,
		Logger:           logger,
		LinkCheckMinAge:  time.Duration(cfg.LinkCheck.MinEmailAgeDays) * 24 * time.Hour,
		LinkCheckRecheck: time.Duration(cfg.LinkCheck.RecheckAfterDays) * 24 * time.Hour,
	}

	p := &pipeline.Pipeline{
		ContactFinder: &pipeline.ContactFinder{
			Prospects:  prospectRepo,
			Contacts:   contactRepo,
			Discoverer: discoverer,
			Queue:      q,
			Audit:      trail,
			Logger:     logger,
		},
		EmailGenerator: &pipeline.EmailGenerator{
			Prospects: prospectRepo,
			Contacts:  contactRepo,
			Campaigns: campaignRepo,
			Emails:    emailRepo,
			Generator: generator,
			Audit:     trail,
			Logger:    logger,
		},
		EmailSender: &pipeline.EmailSender{
			Emails:           emailRepo,
			Contacts:         contactRepo,
			Prospects:        prospectRepo,
			Sequences:        sequenceRepo,
			Blocklist:        blocklistRepo,
			Governor:         governor,
			Transport:        transport,
			Audit:            trail,
			Logger:           logger,
			FollowupMaxSteps: cfg.Followup.MaxSteps,
			FollowupInterval: followupInterval,
		},
		FollowupWorker: &pipeline.FollowupWorker{
			Sequences: sequenceRepo,
			Emails:    emailRepo,
			Contacts:  contactRepo,
			Blocklist: blocklistRepo,
			Generator: generator,
			Transport: transport,
			Audit:     trail,
			Logger:    logger,
			Interval:  followupInterval,
		},
		ResponseClassifier: &pipeline.ResponseClassifier{
			Responses: responseRepo,
			Emails:    emailRepo,
			Generator: generator,
			Dispatcher: &pipeline.Dispatcher{
				Sequences: sequenceRepo,
				Prospects: prospectRepo,
				Contacts:  contactRepo,
				Blocklist: blocklistRepo,
				Audit:     trail,
				Logger:    logger,
			},
			Audit:  trail,
			Logger: logger,
		},
		LinkChecker: &pipeline.LinkChecker{
			Emails:     emailRepo,
			Prospects:  prospectRepo,
			LinkChecks: linkCheckRepo,
			Fetcher:    fetcher,
			Audit:      trail,
			Logger:     logger,
		},
		Sweeps: sweeps,
	}

	if err := p.Register(q); err != nil {
		logger.Error("failed to register pipeline consumers", slog.Any("error", err))
		os.Exit(1)
	}

	c := cron.New()
	schedule := func(spec string, job func()) {
		if _, err := c.AddFunc(spec, job); err != nil {
			logger.Error("invalid cron schedule", slog.String("spec", spec), slog.Any("error", err))
			os.Exit(1)
		}
	}
	schedule("*/10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := sweeps.EnqueueDueFollowups(ctx); err != nil {
			logger.Error("followup sweep failed", slog.Any("error", err))
		}
	})
	schedule("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := sweeps.EnqueueDueLinkChecks(ctx); err != nil {
			logger.Error("link check sweep failed", slog.Any("error", err))
		}
	})
	schedule("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := prospectRepo.PurgeTrashedBefore(ctx, time.Now().Add(-trashRetention))
		if err != nil {
			logger.Error("trash purge failed", slog.Any("error", err))
			return
		}
		if n > 0 {
			logger.Info("purged trashed prospects", slog.Int64("count", n))
		}
	})
	c.Start()
	defer c.Stop()

	logger.Info("worker running, waiting for jobs")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
}
