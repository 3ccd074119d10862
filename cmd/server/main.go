package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"chartwatch/internal/anomaly"
	"chartwatch/internal/bot"
	"chartwatch/internal/cache"
	"chartwatch/internal/config"
	"chartwatch/internal/db"
	"chartwatch/internal/domain"
	"chartwatch/internal/extract"
	"chartwatch/internal/handler"
	"chartwatch/internal/job"
	"chartwatch/internal/provider"
	"chartwatch/internal/recognizer"
	"chartwatch/internal/repository"
	"chartwatch/internal/service"
	"chartwatch/internal/strategy"
	"chartwatch/internal/tui"
	"chartwatch/internal/validate"
	"chartwatch/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newSignalRepoFunc      = repository.NewSignalRepository
	newChartImageRepoFunc  = repository.NewChartImageRepository
	newReviewerRepoFunc    = repository.NewReviewerRepository
	newRecognizerFunc      = recognizer.New
	newExtractionSvcFunc   = service.NewExtractionService
	newSignalServiceFunc   = service.NewSignalService
	startTelegramFunc      = bot.StartTelegramMonitor
	newRetentionJobFunc    = job.NewRetention
	startRetentionJobFunc  = func(j *job.Retention, ctx context.Context) { go j.Start(ctx) }
	startMarketFeedFunc    = func(f *provider.MarketFeed, ctx context.Context) { go f.Run(ctx) }
	startSSHReviewFunc     = startSSHReview
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations
	signalRepo := newSignalRepoFunc(db.Pool, tracer)
	imageRepo := newChartImageRepoFunc(db.Pool, tracer)
	reviewerRepo := newReviewerRepoFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := signalRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Live reference prices for the market proximity check and /api/prices
	var priceSource validate.PriceSource
	var priceView handler.PriceView
	if cfg.MarketFeedEnabled {
		feed := provider.NewMarketFeed(cfg.MarketFeedURL, cfg.MarketFeedSymbols)
		startMarketFeedFunc(feed, ctx)
		priceSource = feed
		priceView = feed
	}

	validator := validate.New(nil, cfg.AssetClassMap, priceSource)

	var damper extract.Damper
	var observer service.ReadingObserver
	if cfg.AnomalyEnabled {
		d := anomaly.New(anomaly.Config{
			Threshold:  cfg.AnomalyThreshold,
			DampMax:    cfg.AnomalyDampMax,
			NumTrees:   cfg.AnomalyTrees,
			SampleSize: cfg.AnomalySampleSize,
			MinSamples: cfg.AnomalyMinSamples,
		})
		damper = d
		observer = d
	}

	strategies, err := strategy.Resolve(cfg.StrategyOrder)
	if err != nil {
		log.Printf("Warning: invalid STRATEGY_ORDER (%v), using default order", err)
		strategies, _ = strategy.Resolve(nil)
	}

	rec := newRecognizerFunc(cfg.OpenAIAPIKey, cfg.OpenAIModel, tracer)
	orchestrator := extract.New(rec, validator, damper, tracer, extract.Config{
		AcceptConfidence: cfg.AcceptConfidence,
		StrategyTimeout:  time.Duration(cfg.StrategyTimeoutSecs) * time.Second,
		Strategies:       strategies,
	})

	// The alert notifier resolves through the monitor, which cannot exist
	// until the extraction service is built.
	var monitor *bot.Monitor
	notifier := service.NotifierFunc(func(s domain.Signal) {
		monitor.Alerts().NotifySignal(s)
	})

	extractionService := newExtractionSvcFunc(
		tracer,
		orchestrator,
		signalRepo,
		imageRepo,
		observer,
		notifier,
		time.Duration(cfg.ImageRetentionHours)*time.Hour,
	)
	signalService := newSignalServiceFunc(tracer, signalRepo, imageRepo)

	dedupe := cache.NewDeduper(cache.Client)
	monitor = startTelegramFunc(bot.Options{
		Token:         cfg.TelegramBotToken,
		ChatIDs:       cfg.MonitorChatIDs,
		Authors:       cfg.MonitorAuthors,
		PendingWindow: time.Duration(cfg.PendingSignalSecs) * time.Second,
	}, extractionService, signalService, dedupe)

	retention := newRetentionJobFunc(tracer, imageRepo, signalRepo, time.Hour)
	startRetentionJobFunc(retention, ctx)

	if cfg.SSHReviewEnabled {
		if db.Pool != nil {
			registerReviewers(ctx, reviewerRepo, cfg.SSHReviewReviewers)
		}
		startSSHReviewFunc(ctx, cfg, reviewerRepo, signalService)
	}

	// HTTP API
	h := handler.New(tracer, signalService, priceView)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("chartwatch"))
	r.Use(cors.Default())
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// reviewerRegistry seeds and reports the reviewer table at startup.
type reviewerRegistry interface {
	UpsertReviewer(ctx context.Context, username, fingerprint string) error
	ListActive(ctx context.Context) ([]repository.Reviewer, error)
}

// registerReviewers upserts the reviewers configured via SSH_REVIEW_REVIEWERS
// so their keys authorize review sessions without manual table edits.
func registerReviewers(ctx context.Context, registry reviewerRegistry, entries map[string]string) {
	for username, fingerprint := range entries {
		if err := registry.UpsertReviewer(ctx, username, fingerprint); err != nil {
			log.Printf("reviewer upsert failed for %s: %v", username, err)
		}
	}

	active, err := registry.ListActive(ctx)
	if err != nil {
		log.Printf("reviewer listing failed: %v", err)
		return
	}
	log.Printf("%d active reviewer(s) for the SSH console", len(active))
}

func startSSHReview(ctx context.Context, cfg *config.Config, reviewers tui.ReviewerStore, signals tui.SignalReviewer) {
	sshSrv, err := tui.NewSSHServer(tui.SSHServerConfig{
		Bind:                cfg.SSHReviewBind,
		Port:                cfg.SSHReviewPort,
		HostKeyPath:         cfg.SSHReviewHostKey,
		AllowedFingerprints: cfg.SSHReviewKeys,
	}, reviewers, signals)
	if err != nil {
		log.Printf("ssh review server setup failed: %v", err)
		return
	}

	go func() {
		log.Printf("SSH review console listening on %s:%d", cfg.SSHReviewBind, cfg.SSHReviewPort)
		if err := sshSrv.ListenAndServe(); err != nil {
			log.Printf("ssh review server stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = sshSrv.Close()
	}()
}
