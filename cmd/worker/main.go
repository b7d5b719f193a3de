package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	natsadapter "github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/nats"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/postgres"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/valkey"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/config"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/logging"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/workflows"
)

func main() {
	cfg, err := config.Load("terrasample-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Printf("valkey unavailable: %v", err)
	} else {
		defer cache.Close()
	}

	events, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Printf("nats unavailable: %v", err)
	} else {
		defer events.Close()
	}

	workspaceRepo := postgres.NewWorkspaceRepo(db)
	runRepo := postgres.NewRunRepo(db)

	defaultCRS := domain.CRS(cfg.Pipeline.DefaultCRS)
	vectors := gisio.NewVectorStore(defaultCRS)
	rasters := gisio.NewRasterStore(defaultCRS)

	workspaceSvc := usecases.NewWorkspaceService(workspaceRepo, cache, events, vectors, rasters)
	pipelineSvc := usecases.NewPipelineService(geometry.New(), gisio.NewSampler())
	runSvc := usecases.NewRunService(workspaceSvc, workspaceRepo, pipelineSvc, runRepo, events, rasters)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ExtractionWorkflow)
	w.RegisterActivity(&workflows.ExtractionActivities{
		Runs:      runSvc,
		Workspace: workspaceSvc,
		RunRepo:   runRepo,
		Writer:    vectors,
		Params:    cfg.PipelineParams(),
	})

	log.Println("extraction worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
