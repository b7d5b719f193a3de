package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
)

// ListLayersHandler returns the registered datasets, partitioned into
// vector and raster layers.
func ListLayersHandler(deps *Dependencies) fiber.Handler {
	type layerList struct {
		Vector []domain.Dataset `json:"vector"`
		Raster []domain.Dataset `json:"raster"`
	}
	return func(c *fiber.Ctx) error {
		datasets, err := deps.Workspace.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		out := layerList{}
		for _, ds := range datasets {
			switch ds.Kind {
			case domain.DatasetVector:
				out.Vector = append(out.Vector, ds)
			case domain.DatasetRaster:
				out.Raster = append(out.Raster, ds)
			}
		}
		return c.JSON(out)
	}
}

// registerLayerRequest is the body of POST /v1/workspace/layers.
type registerLayerRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "vector" | "raster"
	Path string `json:"path"`
}

// RegisterLayerHandler loads a dataset from a server-side path and
// registers it into the workspace.
func RegisterLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerLayerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		kind := domain.DatasetKind(req.Kind)
		if kind != domain.DatasetVector && kind != domain.DatasetRaster {
			return errBadRequest(c, "kind must be vector or raster")
		}
		if req.Path == "" {
			return errBadRequest(c, "path is required")
		}

		ds, err := deps.Workspace.RegisterFromPath(c.Context(), req.Name, kind, req.Path)
		if err != nil {
			return errUnprocessable(c, err.Error())
		}
		return c.Status(201).JSON(ds)
	}
}

// GetLayerHandler returns one dataset by ID.
func GetLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := deps.Workspace.Get(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "layer not found")
		}
		return c.JSON(ds)
	}
}

// submitRunRequest is the body of POST /v1/runs. All four layers must be
// named; omitting one is the non-interactive analogue of cancelling the
// corresponding selection prompt.
type submitRunRequest struct {
	Centerline string `json:"centerline"`
	Corridor   string `json:"corridor"`
	Terrain    string `json:"terrain"`
	Surface    string `json:"surface"`
	MultiBand  bool   `json:"multi_band"`
}

// SubmitRunHandler executes a pipeline run synchronously and returns the
// final run record.
func SubmitRunHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submitRunRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		params := deps.Params
		params.MultiBand = req.MultiBand
		selection := domain.RunSelection{
			Centerline: req.Centerline,
			Corridor:   req.Corridor,
			Terrain:    req.Terrain,
			Surface:    req.Surface,
		}

		run, err := deps.Runs.Submit(c.Context(), selection, params)
		if err != nil {
			msg := usecases.FailureMessage(err)
			switch {
			case errors.Is(err, domain.ErrInsufficientInputs):
				return errConflict(c, msg)
			case errors.Is(err, domain.ErrSelectionCancelled):
				return errBadRequest(c, msg)
			default:
				return errUnprocessable(c, msg)
			}
		}
		return c.Status(201).JSON(run)
	}
}

// GetRunHandler returns a run record by ID.
func GetRunHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := deps.Runs.Get(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "run not found")
		}
		return c.JSON(run)
	}
}

// ListRunsHandler returns recent runs.
func ListRunsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		runs, err := deps.Runs.List(c.Context(), c.QueryInt("limit", 50))
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(runs)
	}
}

// RunPointsHandler streams a run's enriched point datasets as GeoJSON.
func RunPointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := deps.Runs.Get(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "run not found")
		}
		if run.Status != domain.RunCompleted {
			return errConflict(c, "run has no output: status is "+string(run.Status))
		}

		collections := make(map[string]any, len(run.OutputIDs))
		for _, id := range run.OutputIDs {
			ds, err := deps.Workspace.Get(c.Context(), id)
			if err != nil {
				return errInternal(c, err.Error())
			}
			if ds.Points == nil {
				continue
			}
			data, err := gisio.MarshalPoints(ds.Points)
			if err != nil {
				return errInternal(c, err.Error())
			}
			collections[ds.Name] = fiber.Map{"geojson": string(data)}
		}
		return c.JSON(collections)
	}
}
