package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/cache"
	"github.com/mamadbah2/farmerp/internal/config"
	"github.com/mamadbah2/farmerp/internal/repository/mongodb"
	"github.com/mamadbah2/farmerp/internal/repository/sheets"
	"github.com/mamadbah2/farmerp/internal/scheduler"
	"github.com/mamadbah2/farmerp/internal/server/handlers"
	"github.com/mamadbah2/farmerp/internal/server/router"
	agrosvc "github.com/mamadbah2/farmerp/internal/service/agro"
	cropsvc "github.com/mamadbah2/farmerp/internal/service/crops"
	cropsowsvc "github.com/mamadbah2/farmerp/internal/service/cropsow"
	dashboardsvc "github.com/mamadbah2/farmerp/internal/service/dashboard"
	feedsvc "github.com/mamadbah2/farmerp/internal/service/feed"
	inventorysvc "github.com/mamadbah2/farmerp/internal/service/inventory"
	ledgersvc "github.com/mamadbah2/farmerp/internal/service/ledger"
	recordssvc "github.com/mamadbah2/farmerp/internal/service/records"
	reportingsvc "github.com/mamadbah2/farmerp/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/farmerp/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmerp/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, err := mongodb.NewStore(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := store.EnsureIndexes(startupCtx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	var dashCache *cache.Cache
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		dashCache = cache.New(rdb, cfg.Redis.TTL, baseLogger.Named("cache"))
		if err := dashCache.Ping(startupCtx); err != nil {
			baseLogger.Warn("redis unreachable, dashboards will be computed on every request", zap.Error(err))
		}
		defer func() { _ = dashCache.Close() }()
	} else {
		baseLogger.Info("redis not configured, dashboard cache disabled")
	}

	ledgerSvc := ledgersvc.NewService(store, baseLogger.Named("svc.ledger"))
	inventorySvc := inventorysvc.NewService(store, baseLogger.Named("svc.inventory"))
	agroSvc := agrosvc.NewService(store, baseLogger.Named("svc.agro"))
	cropSowSvc := cropsowsvc.NewService(store, inventorySvc, agroSvc, ledgerSvc, baseLogger.Named("svc.cropsow"))
	feedSvc := feedsvc.NewService(store, inventorySvc, ledgerSvc, baseLogger.Named("svc.feed"))
	cropSvc := cropsvc.NewService(store, ledgerSvc, baseLogger.Named("svc.crops"))
	dashboardSvc := dashboardsvc.NewService(store, dashCache, baseLogger.Named("svc.dashboard"))
	registers := recordssvc.NewRegisters(store, baseLogger.Named("svc.records"))

	handlerLogger := baseLogger.Named("handlers")
	engine := router.New(router.Handlers{
		Inventory: handlers.NewInventoryHandler(inventorySvc, handlerLogger),
		Agro:      handlers.NewAgroHandler(agroSvc, handlerLogger),
		CropSow:   handlers.NewCropSowHandler(cropSowSvc, handlerLogger),
		Feed:      handlers.NewFeedHandler(feedSvc, handlerLogger),
		Ledger:    handlers.NewLedgerHandler(ledgerSvc, handlerLogger),
		Crops:     handlers.NewCropHandler(cropSvc, handlerLogger),
		Dashboard: handlers.NewDashboardHandler(dashboardSvc, handlerLogger),
		Records:   handlers.NewRecordHandlers(registers, handlerLogger),
	}, store.Ping, baseLogger.Named("router"))

	reportingOpts := reportingsvc.Options{ValuationRange: cfg.Sheets.ValuationRange}
	if cfg.WhatsApp.Enabled() {
		reportingOpts.Messenger = whatsappclient.NewClient(cfg.WhatsApp)
		reportingOpts.Recipient = cfg.WhatsApp.AlertRecipient
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportingOpts.Sheets = sheetsRepo
	}
	reportingSvc := reportingsvc.NewService(store, reportingOpts, baseLogger.Named("svc.reporting"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if _, err := sched.Register(); err != nil {
		baseLogger.Fatal("failed to register scheduled jobs", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
