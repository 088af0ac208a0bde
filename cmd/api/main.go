package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaign-platform/internal/analytics"
	"campaign-platform/internal/audit"
	"campaign-platform/internal/auth"
	"campaign-platform/internal/campaigns"
	"campaign-platform/internal/config"
	"campaign-platform/internal/credits"
	"campaign-platform/internal/httpapi"
	"campaign-platform/internal/ledger"
	"campaign-platform/internal/pricing"
	"campaign-platform/internal/reporting"
	"campaign-platform/pkg/logger"
	"campaign-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	rates, err := pricing.LoadRates(cfg.Pricing.RatesPath)
	if err != nil {
		log.Error("rate table load failed", "err", err, "path", cfg.Pricing.RatesPath)
		os.Exit(1)
	}

	// Service wiring. The ledger is the single source of truth for credits;
	// everything money-related flows through it.
	ledgerStore := ledger.NewPostgresStore(db)
	auditSvc := audit.NewService(audit.NewMemoryRepo())

	creditsSvc := credits.NewService(ledgerStore).
		WithDistributedLocker(utils.NewRedisLocker(rdb, utils.LockerConfig{})).
		WithAuditor(auditSvc)

	pricingSvc := pricing.NewService(rates, ledgerStore)

	campaignsSvc := campaigns.NewService(campaigns.NewMemoryRepo(), pricingSvc, creditsSvc).
		WithAuditor(auditSvc)

	analyticsSvc := analytics.NewService(analytics.NewMemoryInteractionStore()).
		WithConsumptionReader(ledgerStore).
		WithCache(analytics.NewRedisSnapshotCache(rdb), cfg.Analytics.SnapshotTTL)

	reportingRepo := reporting.NewMemoryRepo()
	reportingSvc := reporting.NewService(analyticsSvc, ledgerStore, reportingRepo)

	// Optional Kafka ingestion alongside the HTTP ingest endpoint.
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := analytics.NewConsumer(analytics.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}, analyticsSvc, log)
		defer consumer.Close()

		go func() {
			if err := consumer.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("kafka consumer stopped", "err", err)
				stop()
			}
		}()
	}

	h := httpapi.Handlers{
		Auth:      authManager,
		Credits:   creditsSvc,
		Campaigns: campaignsSvc,
		Analytics: analyticsSvc,
		Reporting: reportingSvc,
		ABTests:   reportingRepo,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, auth.RequireAccessToken(authManager), h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
