package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"kind":        &graphql.Field{Type: graphql.String},
			"crs":         &graphql.Field{Type: graphql.String},
			"source_path": &graphql.Field{Type: graphql.String},
			"created_at":  &graphql.Field{Type: graphql.String},
		},
	})

	countsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StageCounts",
		Fields: graphql.Fields{
			"line_points": &graphql.Field{Type: graphql.Int},
			"grid_cells":  &graphql.Field{Type: graphql.Int},
			"centroids":   &graphql.Field{Type: graphql.Int},
			"remaining":   &graphql.Field{Type: graphql.Int},
			"merged":      &graphql.Field{Type: graphql.Int},
		},
	})

	selectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RunSelection",
		Fields: graphql.Fields{
			"centerline": &graphql.Field{Type: graphql.String},
			"corridor":   &graphql.Field{Type: graphql.String},
			"terrain":    &graphql.Field{Type: graphql.String},
			"surface":    &graphql.Field{Type: graphql.String},
		},
	})

	runType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Run",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"status":     &graphql.Field{Type: graphql.String},
			"selection":  &graphql.Field{Type: selectionType},
			"counts":     &graphql.Field{Type: countsType},
			"output_ids": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"error":      &graphql.Field{Type: graphql.String},
		},
	})

	layerMap := func(ds domain.Dataset) map[string]interface{} {
		return map[string]interface{}{
			"id":          ds.ID,
			"name":        ds.Name,
			"kind":        string(ds.Kind),
			"crs":         string(ds.CRS),
			"source_path": ds.SourcePath,
			"created_at":  ds.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	runMap := func(run *domain.Run) map[string]interface{} {
		return map[string]interface{}{
			"id":     run.ID,
			"status": string(run.Status),
			"selection": map[string]interface{}{
				"centerline": run.Selection.Centerline,
				"corridor":   run.Selection.Corridor,
				"terrain":    run.Selection.Terrain,
				"surface":    run.Selection.Surface,
			},
			"counts": map[string]interface{}{
				"line_points": run.Counts.LinePoints,
				"grid_cells":  run.Counts.GridCells,
				"centroids":   run.Counts.Centroids,
				"remaining":   run.Counts.Remaining,
				"merged":      run.Counts.Merged,
			},
			"output_ids": run.OutputIDs,
			"error":      run.Error,
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"layers": &graphql.Field{
				Type:        graphql.NewList(layerType),
				Description: "List all registered workspace layers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					datasets, err := deps.Workspace.List(p.Context)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(datasets))
					for _, ds := range datasets {
						result = append(result, layerMap(ds))
					}
					return result, nil
				},
			},
			"layer": &graphql.Field{
				Type:        layerType,
				Description: "Get a workspace layer by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ds, err := deps.Workspace.Get(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return layerMap(*ds), nil
				},
			},
			"runs": &graphql.Field{
				Type:        graphql.NewList(runType),
				Description: "List recent extraction runs",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					runs, err := deps.Runs.List(p.Context, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(runs))
					for i := range runs {
						result = append(result, runMap(&runs[i]))
					}
					return result, nil
				},
			},
			"run": &graphql.Field{
				Type:        runType,
				Description: "Get an extraction run by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					run, err := deps.Runs.Get(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return runMap(run), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
