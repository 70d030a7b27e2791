package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/fenilmodi00/ipo-insights/config"
	"github.com/fenilmodi00/ipo-insights/handlers"
	"github.com/fenilmodi00/ipo-insights/jobs"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	engineConfig, err := cfg.Engine()
	if err != nil {
		log.Fatalf("Failed to load engine configuration: %v", err)
	}
	config.SetupLogging(engineConfig.Logging)

	// Engine services
	utilityService := services.NewUtilityService(services.LoadMarketLocation(cfg.MarketTimezone))
	resolver := services.NewStatusResolver(utilityService)

	httpFactory := shared.NewHTTPClientFactory(engineConfig.Service.HTTPRequestTimeout)
	defer httpFactory.CleanupAllClients()
	backend := services.NewBackendClient(engineConfig.Service, httpFactory)

	cacheService := services.NewCacheService(engineConfig.Cache.DefaultTTL, engineConfig.Cache.MaxSize)
	snapshots := services.NewCachedSnapshotSource(backend, cacheService)

	beacon := services.NewBeacon(backend, engineConfig.Beacon, shared.NewServiceMetrics("Beacon"))
	tracker := services.NewAllotmentTracker(backend, beacon, nil, resolver)
	ipoService := services.NewIPOService(snapshots, backend, backend, resolver)

	logrus.WithFields(logrus.Fields{
		"backend":         engineConfig.Service.BaseURL,
		"market_timezone": utilityService.Location().String(),
		"cache_ttl":       engineConfig.Cache.DefaultTTL,
		"beacon_workers":  engineConfig.Beacon.Workers,
	}).Info("IPO insights engine initialized")

	// Jobs
	refreshJob := jobs.NewSnapshotRefreshJob(snapshots, utilityService, engineConfig.Batch.MaxConcurrency)
	cleanupJob := jobs.NewCacheCleanupJob(cacheService)
	resultJob := jobs.NewResultReleaseCheckJob(ipoService, tracker, utilityService)

	scheduler := jobs.NewScheduler()
	mustSchedule(scheduler.Register("snapshot_refresh", engineConfig.Batch.RefreshSchedule, refreshJob.Run))
	mustSchedule(scheduler.Register("cache_cleanup", engineConfig.Batch.CleanupSchedule, func(context.Context) error {
		cleanupJob.Run()
		return nil
	}))
	mustSchedule(scheduler.Register("result_release_check", "@hourly", resultJob.Run))

	// Warmup cache on startup
	go func() {
		if err := refreshJob.Run(context.Background()); err != nil {
			logrus.WithError(err).Warn("Cache warmup failed")
		}
	}()
	scheduler.Start()

	// Setup Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	handlers.RegisterRoutes(app, handlers.Router{
		IPO:       handlers.NewIPOHandler(ipoService),
		GMP:       handlers.NewGMPHandler(ipoService),
		Check:     handlers.NewCheckHandler(ipoService, tracker),
		Dashboard: handlers.NewDashboardHandler(ipoService),
		Admin:     handlers.NewAdminHandler(ipoService),
		Performance: handlers.NewPerformanceHandler(snapshots, refreshJob,
			backend.Metrics(), ipoService.GetServiceMetrics(), tracker.Metrics(), beacon.Metrics()),
	})

	shutdownComplete := make(chan struct{})
	go func() {
		defer close(shutdownComplete)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logrus.Info("Shutting down")
		scheduler.Stop(ctx)
		if err := app.ShutdownWithContext(ctx); err != nil {
			logrus.WithError(err).Warn("Server shutdown incomplete")
		}
		if err := beacon.Close(ctx); err != nil {
			logrus.WithError(err).Warn("Beacon queue not drained")
		}
	}()

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
	<-shutdownComplete
}

func mustSchedule(err error) {
	if err != nil {
		log.Fatalf("Scheduler setup failed: %v", err)
	}
}
