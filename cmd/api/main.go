package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/http"
	natsadapter "github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/nats"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/postgres"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/valkey"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/config"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/logging"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("terrasample-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS
	events, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer events.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	workspaceRepo := postgres.NewWorkspaceRepo(db)
	runRepo := postgres.NewRunRepo(db)

	// File stores and geometry engine
	defaultCRS := domain.CRS(cfg.Pipeline.DefaultCRS)
	vectors := gisio.NewVectorStore(defaultCRS)
	rasters := gisio.NewRasterStore(defaultCRS)
	engine := geometry.New()
	sampler := gisio.NewSampler()

	// Use cases
	workspaceSvc := usecases.NewWorkspaceService(workspaceRepo, cache, events, vectors, rasters)
	pipelineSvc := usecases.NewPipelineService(engine, sampler)
	runSvc := usecases.NewRunService(workspaceSvc, workspaceRepo, pipelineSvc, runRepo, events, rasters)

	deps := &http.Dependencies{
		Workspace: workspaceSvc,
		Runs:      runSvc,
		Params:    cfg.PipelineParams(),
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // registration payloads stay small, exports are streamed
		AppName:      "TerraSample API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
