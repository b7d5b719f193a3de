package gisio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soykotdev/DTM-DSM-Extractor/internal/core/domain"
)

// RasterStore loads raster surfaces from ESRI ASCII grid files. A plain
// .asc file yields a single-band surface; a .bands manifest (one .asc path
// per line, relative to the manifest) yields a multi-band surface whose
// bands must share the grid geometry of the first.
type RasterStore struct {
	DefaultCRS domain.CRS
}

// NewRasterStore returns a store assigning crs to loaded surfaces.
func NewRasterStore(crs domain.CRS) *RasterStore {
	return &RasterStore{DefaultCRS: crs}
}

// LoadRaster reads a surface from path.
func (s *RasterStore) LoadRaster(ctx context.Context, path string) (*domain.Dataset, error) {
	var (
		surface *domain.RasterSurface
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".bands") {
		surface, err = s.loadManifest(path)
	} else {
		surface, err = s.loadGrid(path)
	}
	if err != nil {
		return nil, err
	}
	surface.Name = layerName(path)
	surface.CRS = s.DefaultCRS

	return &domain.Dataset{
		ID:         uuid.NewString(),
		Name:       surface.Name,
		Kind:       domain.DatasetRaster,
		CRS:        s.DefaultCRS,
		SourcePath: path,
		Raster:     surface,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (s *RasterStore) loadManifest(path string) (*domain.RasterSurface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load raster %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	var surface *domain.RasterSurface
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		band, err := s.loadGrid(filepath.Join(dir, line))
		if err != nil {
			return nil, err
		}
		if surface == nil {
			surface = band
			continue
		}
		if band.Cols != surface.Cols || band.Rows != surface.Rows ||
			band.OriginX != surface.OriginX || band.OriginY != surface.OriginY ||
			band.CellSize != surface.CellSize {
			return nil, fmt.Errorf("load raster %s: band %s grid geometry differs", path, line)
		}
		surface.Bands = append(surface.Bands, band.Bands[0])
	}
	if surface == nil {
		return nil, fmt.Errorf("load raster %s: empty band manifest", path)
	}
	return surface, nil
}

// loadGrid parses one ESRI ASCII grid: a whitespace key/value header
// followed by row-major values, north row first.
func (s *RasterStore) loadGrid(path string) (*domain.RasterSurface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load raster %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("unexpected end of file")
		}
		return sc.Text(), nil
	}

	surface := &domain.RasterSurface{NoData: domain.DefaultNoData}
	var (
		xll, yll   float64
		cellCenter bool
	)

	// Header: key/value pairs until the first bare number.
	var firstValue string
	for {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("load raster %s: header: %w", path, err)
		}
		key := strings.ToLower(tok)
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
			val, err := next()
			if err != nil {
				return nil, fmt.Errorf("load raster %s: header value for %s: %w", path, key, err)
			}
			fv, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("load raster %s: header %s: %w", path, key, err)
			}
			switch key {
			case "ncols":
				surface.Cols = int(fv)
			case "nrows":
				surface.Rows = int(fv)
			case "xllcorner":
				xll = fv
			case "xllcenter":
				xll = fv
				cellCenter = true
			case "yllcorner":
				yll = fv
			case "yllcenter":
				yll = fv
				cellCenter = true
			case "cellsize":
				surface.CellSize = fv
			case "nodata_value":
				surface.NoData = fv
			}
		default:
			firstValue = tok
		}
		if firstValue != "" {
			break
		}
	}
	if surface.Cols <= 0 || surface.Rows <= 0 || surface.CellSize <= 0 {
		return nil, fmt.Errorf("load raster %s: incomplete header", path)
	}
	if cellCenter {
		xll -= surface.CellSize / 2
		yll -= surface.CellSize / 2
	}
	surface.OriginX = xll
	surface.OriginY = yll + float64(surface.Rows)*surface.CellSize

	n := surface.Cols * surface.Rows
	values := make([]float64, 0, n)
	fv, err := strconv.ParseFloat(firstValue, 64)
	if err != nil {
		return nil, fmt.Errorf("load raster %s: value 0: %w", path, err)
	}
	values = append(values, fv)
	for len(values) < n {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("load raster %s: value %d: %w", path, len(values), err)
		}
		fv, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("load raster %s: value %d: %w", path, len(values), err)
		}
		values = append(values, fv)
	}

	surface.Bands = []domain.RasterBand{{Values: values}}
	return surface, nil
}
