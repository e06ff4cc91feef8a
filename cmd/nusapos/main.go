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

	"golang.org/x/sync/errgroup"

	"github.com/nusapos/nusapos/internal/app"
	"github.com/nusapos/nusapos/internal/catalog"
	"github.com/nusapos/nusapos/internal/checkout"
	"github.com/nusapos/nusapos/internal/events"
	"github.com/nusapos/nusapos/internal/history"
	"github.com/nusapos/nusapos/internal/ledger"
	"github.com/nusapos/nusapos/internal/observability"
	"github.com/nusapos/nusapos/internal/platform/cache"
	"github.com/nusapos/nusapos/internal/platform/db"
	"github.com/nusapos/nusapos/internal/recognition"
	"github.com/nusapos/nusapos/internal/shared"
	"github.com/nusapos/nusapos/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// The history cache degrades to direct reads when Redis is down, so
	// a failed dial is a warning, not a startup failure.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, history cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	bus := events.NewBus(cfg.EventBuffer, logger, metrics)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, auditLogger, metrics, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	ledgerRepo := ledger.NewRepository(dbpool)

	historyCache := history.NewCache(redisClient, cfg.HistoryTTL)
	historyService := history.NewService(ledgerRepo, historyCache)
	historyHandler := history.NewHandler(logger, historyService)

	checkoutService := checkout.NewService(ledgerRepo, catalogService, bus, auditLogger, idempotencyStore, historyCache, metrics, logger)
	checkoutHandler := checkout.NewHandler(logger, checkoutService, ledgerRepo)

	classifier := recognition.NewHTTPClassifier(cfg.ClassifierURL)
	gate := recognition.NewGate(classifier, catalogService, bus, metrics, logger, recognition.GateConfig{
		Threshold: cfg.RecognitionThreshold,
		Timeout:   cfg.RecognitionTimeout,
	})
	recognitionHandler := recognition.NewHandler(logger, gate)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, historyService, logger)

	sseHandler := events.NewSSEHandler(bus, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CheckoutHandler:    checkoutHandler,
		CatalogHandler:     catalogHandler,
		RecognitionHandler: recognitionHandler,
		HistoryHandler:     historyHandler,
		ReportHandler:      reportHandler,
		SSEHandler:         sseHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
