package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/geometry"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/adapters/gisio"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/usecases"
	"github.com/soykotdev/DTM-DSM-Extractor/internal/pkg/logging"
)

func main() {
	var (
		centerlinePath = flag.String("centerline", "", "path to the centerline GeoJSON (required)")
		corridorPath   = flag.String("corridor", "", "path to the corridor polygon GeoJSON (required)")
		dtmPath        = flag.String("dtm", "", "path to the terrain raster (required)")
		dsmPath        = flag.String("dsm", "", "path to the surface raster (required)")
		outDir         = flag.String("out", ".", "directory for output GeoJSON files")
		multiBand      = flag.Bool("multiband", false, "extract every raster band into one combined layer")
		bufferDist     = flag.Float64("buffer", 2, "corridor buffer distance in CRS units")
		interval       = flag.Float64("interval", 5, "sampling interval along lines in CRS units")
		spacing        = flag.Float64("spacing", 5, "grid cell size in CRS units")
		crs            = flag.String("crs", "", "CRS to assume for layers that do not declare one")
		logLevel       = flag.String("log-level", "warn", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if *centerlinePath == "" || *corridorPath == "" || *dtmPath == "" || *dsmPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logging.Setup(*logLevel, "text")

	params := domain.DefaultParams()
	params.BufferDistance = *bufferDist
	params.SampleInterval = *interval
	params.GridSpacing = *spacing
	params.MultiBand = *multiBand

	ctx := context.Background()
	vectors := gisio.NewVectorStore(domain.CRS(*crs))
	rasters := gisio.NewRasterStore(domain.CRS(*crs))

	resolver := usecases.NewInputResolver(nil, nil, vectors, rasters)
	inputs, err := resolver.ResolveFromFiles(ctx, *centerlinePath, *corridorPath, *dtmPath, *dsmPath)
	if err != nil {
		fail(err)
	}

	pipeline := usecases.NewPipelineService(geometry.New(), gisio.NewSampler())
	result, err := pipeline.Run(ctx, inputs, params)
	if err != nil {
		fail(err)
	}

	for _, out := range result.Outputs {
		path := filepath.Join(*outDir, out.Name+".geojson")
		if err := vectors.WritePoints(ctx, path, out.Points); err != nil {
			fail(fmt.Errorf("write %s: %w", path, err))
		}
		fmt.Printf("wrote %s (%d points)\n", path, out.Points.Len())
	}

	c := result.Counts
	fmt.Printf("line points: %d, grid cells: %d, centroids kept: %d, merged: %d\n",
		c.LinePoints, c.GridCells, c.Remaining, c.Merged)
}

func fail(err error) {
	log.SetFlags(0)
	log.Fatalf("sampler: %s", usecases.FailureMessage(err))
}
