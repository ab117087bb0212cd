// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/config"
	"github.com/unclebandit/linkreach-backend/internal/controller"
	"github.com/unclebandit/linkreach-backend/internal/db"
	"github.com/unclebandit/linkreach-backend/internal/pipeline"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
	"github.com/unclebandit/linkreach-backend/internal/sending"
	"github.com/unclebandit/linkreach-backend/internal/service"
)

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

	if cfg.Psql.RunMigrations {
		if err := db.Migrate(cfg.Psql.DSN()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

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
	rateRepo := &repository.RateConfigRepository{DB: pool}
	auditRepo := &repository.AuditRepository{DB: pool}

	if err := rateRepo.EnsureExists(context.Background(), cfg.Sending.DailyLimit, cfg.Sending.WarmupEnabled); err != nil {
		logger.Error("failed to seed sending config", slog.Any("error", err))
		os.Exit(1)
	}

	trail := audit.NewTrail(auditRepo, logger)
	governor := sending.NewGovernor(rateRepo, emailRepo)

	sweeps := &pipeline.Sweeps{
		Sequences:        sequenceRepo,
		Emails:           emailRepo,
		Queue:            q,
		Logger:           logger,
		LinkCheckMinAge:  time.Duration(cfg.LinkCheck.MinEmailAgeDays) * 24 * time.Hour,
		LinkCheckRecheck: time.Duration(cfg.LinkCheck.RecheckAfterDays) * 24 * time.Hour,
	}

	outreachService := &service.OutreachService{
		ProspectRepo:  prospectRepo,
		EmailRepo:     emailRepo,
		ResponseRepo:  responseRepo,
		SequenceRepo:  sequenceRepo,
		LinkCheckRepo: linkCheckRepo,
		Queue:         q,
		Sweeps:        sweeps,
		Audit:         trail,
	}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ProspectRepo: prospectRepo,
	}
	prospectService := &service.ProspectService{
		ProspectRepo: prospectRepo,
		ContactRepo:  contactRepo,
		CampaignRepo: campaignRepo,
		Queue:        q,
		Audit:        trail,
	}
	settingsService := &service.SettingsService{
		RateRepo: rateRepo,
		Governor: governor,
		Audit:    trail,
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	prospectController := &controller.ProspectController{
		ProspectService: prospectService,
		OutreachService: outreachService,
	}
	emailController := &controller.EmailController{OutreachService: outreachService}
	responseController := &controller.ResponseController{OutreachService: outreachService}
	opsController := &controller.OpsController{OutreachService: outreachService}
	settingsController := &controller.SettingsController{SettingsService: settingsService}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Patch("/campaigns/{id}/status", campaignController.UpdateCampaignStatus)

	r.Post("/prospects", prospectController.CreateProspect)
	r.Get("/prospects", prospectController.ListProspects)
	r.Get("/prospects/{id}", prospectController.GetProspect)
	r.Post("/prospects/{id}/find-contact", prospectController.FindContact)
	r.Post("/prospects/{id}/generate-email", prospectController.GenerateEmail)
	r.Delete("/prospects/{id}", prospectController.TrashProspect)
	r.Post("/prospects/{id}/restore", prospectController.RestoreProspect)

	r.Get("/emails/pending-review", emailController.ListPendingReview)
	r.Get("/emails/{id}", emailController.GetEmail)
	r.Post("/emails/{id}/approve", emailController.ApproveEmail)
	r.Post("/emails/{id}/reject", emailController.RejectEmail)

	r.Post("/responses", responseController.CreateResponse)
	r.Post("/responses/{id}/reclassify", responseController.Reclassify)

	r.Get("/settings/sending", settingsController.GetSending)
	r.Put("/settings/sending", settingsController.UpdateSending)
	r.Post("/settings/sending/advance-warmup", settingsController.AdvanceWarmup)

	r.Post("/ops/followup-sweep", opsController.RunFollowupSweep)
	r.Post("/ops/link-check-sweep", opsController.RunLinkCheckSweep)
	r.Get("/ops/queues", opsController.QueueHealth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: r,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server running on :%d", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}
	logger.Info("server gracefully stopped")
}
