package http

import (
	"github.com/nats-io/nats.go"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/postgres"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/valkey"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Workspace *usecases.WorkspaceService
	Runs      *usecases.RunService
	Params    domain.PipelineParams
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
