package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/config"
	"github.com/smartcity/commute/internal/delivery/http"
	"github.com/smartcity/commute/internal/metrics"
	"github.com/smartcity/commute/internal/repository/postgres"
	"github.com/smartcity/commute/internal/service"
)

func main() {
	// Configuration (.env, config.yaml, COMMUTE_* environment)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zap.L().Sync() }()

	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("invalid configuration", zap.Error(err))
	}

	// Database connection
	pool := connectDB(cfg.Database.URL)
	if pool != nil {
		defer pool.Close()
	}

	// Dependency Injection: Repositories
	var dataRepo service.DataRepository
	if pool != nil {
		pgRepo := postgres.NewPostgresRepository(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			zap.L().Warn("could not ensure schema", zap.Error(err))
		}
		cancel()
		dataRepo = pgRepo
	} else {
		dataRepo = postgres.NewMockRepository()
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Dependency Injection: Services
	collab := service.NewCollaborators(cfg, m)
	heatmapSvc, err := service.NewHeatmapService(service.HeatmapSettingsFrom(cfg.Heatmap), collab.Weights, dataRepo, m)
	if err != nil {
		zap.L().Fatal("heatmap service", zap.Error(err))
	}
	commuteSvc := service.NewCommuteService(collab.Oracle, collab.Predictor, dataRepo, service.CommuteDefaultsFrom(cfg.Commute), m)
	dashboardSvc := service.NewDashboardService(heatmapSvc, commuteSvc)
	dashboardSvc.AddCheck("database", dataRepo)
	if collab.ML != nil {
		dashboardSvc.AddCheck("ml", collab.ML)
	}

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Commute API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.ML.TimeoutSecs+10) * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, http.NewHandler(heatmapSvc, commuteSvc, dashboardSvc), reg)

	// Warm the heatmap so the first GET has a layer
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ML.TimeoutSecs)*time.Second)
		defer cancel()
		if _, _, err := heatmapSvc.Refresh(ctx, service.HeatmapRefresh{}); err != nil {
			zap.L().Warn("initial heatmap refresh failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		zap.L().Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
		if err := app.Listen(addr); err != nil {
			zap.L().Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zap.L().Warn("server forced to shutdown", zap.Error(err))
	}
	dashboardSvc.WaitBackground()
	zap.L().Info("server exited gracefully")
}

// connectDB returns nil when no URL is configured or the database is unreachable
func connectDB(url string) *pgxpool.Pool {
	if url == "" {
		zap.L().Info("database.url not set, running with in-memory history")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		zap.L().Warn("could not connect to database, running with in-memory history", zap.Error(err))
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		zap.L().Warn("database unreachable, running with in-memory history", zap.Error(err))
		pool.Close()
		return nil
	}

	zap.L().Info("connected to PostgreSQL")
	return pool
}
