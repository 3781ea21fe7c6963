package delivery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/config"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
	"github.com/paulmach/orb/geojson"
)

// RasterPrepResult records the outputs of the preparation stage: the
// preprocessed event-date bands and the reference grid everything downstream
// conforms to.
type RasterPrepResult struct {
	B03Preprocessed  string  `yaml:"b03_preprocessed"`
	B08Preprocessed  string  `yaml:"b08_preprocessed"`
	GridRef          GridRef `yaml:"grid_ref"`
	FootprintGeoJSON string  `yaml:"footprint_geojson"`
}

// RasterPrep reads the event-date B03 and B08 rasters, fixes the B03 grid as
// the run's reference grid, aligns B08 onto it when the grids differ and
// writes both bands back out under fixed names for the flood-mask stage.
func RasterPrep(cfg config.Config) (*RasterPrepResult, error) {
	b03, err := raster.Load(cfg.Paths.B03)
	if err != nil {
		return nil, err
	}
	b08, err := raster.Load(cfg.Paths.B08)
	if err != nil {
		return nil, err
	}

	logGrid("B03", b03)
	logGrid("B08", b08)

	b08Data := b08.Data
	b08DType := b08.DType
	if b03.Grid.Same(b08.Grid) {
		slog.Info("B08 already aligned, no resampling needed")
	} else {
		b08Data, err = raster.Resample(b08, b03.Grid, cfg.Processing.ResamplingContinuous)
		if err != nil {
			return nil, fmt.Errorf("failed to align B08 onto B03 grid: %w", err)
		}
		b08DType = raster.DTFloat32
		slog.Info("B08 resampled to match B03 grid", "method", cfg.Processing.ResamplingContinuous)
	}

	outDir := cfg.Paths.OutputDir
	b03Out := filepath.Join(outDir, "B03_preprocessed.tif")
	b08Out := filepath.Join(outDir, "B08_preprocessed.tif")

	b03Opts := []raster.StoreOption{raster.WithDType(b03.DType)}
	if b03.NoData != nil {
		b03Opts = append(b03Opts, raster.WithNoData(*b03.NoData))
	}
	if err := raster.Store(b03Out, b03.Data, b03.Grid, b03Opts...); err != nil {
		return nil, err
	}

	b08Opts := []raster.StoreOption{raster.WithDType(b08DType)}
	if b08.NoData != nil {
		b08Opts = append(b08Opts, raster.WithNoData(*b08.NoData))
	}
	if err := raster.Store(b08Out, b08Data, b03.Grid, b08Opts...); err != nil {
		return nil, err
	}

	footprint := filepath.Join(outDir, "reference_grid_footprint.geojson")
	if err := writeFootprint(footprint, b03.Grid); err != nil {
		return nil, err
	}

	result := &RasterPrepResult{
		B03Preprocessed:  b03Out,
		B08Preprocessed:  b08Out,
		GridRef:          gridRef(b03.Grid),
		FootprintGeoJSON: footprint,
	}
	if err := writeYAML(filepath.Join(outDir, "a_raster_prep_result.yaml"), result); err != nil {
		return nil, err
	}
	return result, nil
}

func logGrid(name string, r *raster.Raster) {
	dx, dy := r.Grid.PixelSize()
	slog.Info("loaded band",
		"band", name,
		"crs_set", r.Grid.CRS != "",
		"res_x", dx,
		"res_y", dy,
		"width", r.Grid.Width,
		"height", r.Grid.Height,
		"dtype", r.DType.String())
}

// writeFootprint writes the reference grid extent as a GeoJSON feature, in
// grid CRS coordinates, for the downstream vector stages.
func writeFootprint(path string, g raster.Grid) error {
	feature := geojson.NewFeature(g.Footprint())
	feature.Properties["width"] = g.Width
	feature.Properties["height"] = g.Height
	feature.Properties["crs"] = g.CRS

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to marshal grid footprint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write grid footprint %s: %w", path, err)
	}
	return nil
}
