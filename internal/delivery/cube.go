package delivery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/config"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/cube"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
)

// CubeOutputs names the temporal aggregate rasters.
type CubeOutputs struct {
	ChangeLastMinusFirst string `yaml:"ndwi_change_last_minus_first"`
	TimeMean             string `yaml:"ndwi_time_mean"`
}

// CubeResult records the cube stage: inputs, reference grid, per-date
// statistics and aggregate raster paths.
type CubeResult struct {
	Inputs    []string                  `yaml:"inputs"`
	GridRef   GridRef                   `yaml:"reference_grid"`
	Threshold float64                   `yaml:"threshold"`
	Stats     map[string]cube.DateStats `yaml:"stats"`
	Outputs   CubeOutputs               `yaml:"outputs"`
	StatsCSV  string                    `yaml:"stats_csv"`
}

// BuildCube stacks the NDWI time series into a (time, y, x) cube on the
// first date's grid and aggregates it: per-date statistics plus pixel-wise
// change and temporal mean rasters.
func BuildCube(cfg config.Config) (*CubeResult, error) {
	files, err := listIndexRasters(cfg.Paths.NDWITimeDir)
	if err != nil {
		return nil, err
	}

	c, err := cube.Build(files, cfg.Processing.ResamplingContinuous, cfg.NDWI.NoData)
	if err != nil {
		return nil, err
	}
	slog.Info("cube assembled",
		"dates", len(c.Dates),
		"width", c.Grid.Width,
		"height", c.Grid.Height)

	stats := c.Stats(cfg.NDWI.Threshold)

	outDir := cfg.Paths.OutputDir
	changeOut := filepath.Join(outDir, "ndwi_change_last_minus_first.tif")
	meanOut := filepath.Join(outDir, "ndwi_time_mean.tif")

	err = raster.Store(changeOut, c.Change(), c.Grid,
		raster.WithDType(raster.DTFloat32),
		raster.WithNoData(c.NoData))
	if err != nil {
		return nil, err
	}
	err = raster.Store(meanOut, c.TemporalMean(), c.Grid,
		raster.WithDType(raster.DTFloat32),
		raster.WithNoData(c.NoData))
	if err != nil {
		return nil, err
	}

	statsCSV := filepath.Join(outDir, "cube_stats.csv")
	if err := cube.WriteStatsCSV(statsCSV, c.Dates, stats); err != nil {
		return nil, err
	}

	result := &CubeResult{
		Inputs:    files,
		GridRef:   gridRef(c.Grid),
		Threshold: cfg.NDWI.Threshold,
		Stats:     stats,
		Outputs: CubeOutputs{
			ChangeLastMinusFirst: changeOut,
			TimeMean:             meanOut,
		},
		StatsCSV: statsCSV,
	}
	if err := writeYAML(filepath.Join(outDir, "cube_stats.yaml"), result); err != nil {
		return nil, err
	}
	return result, nil
}

// listIndexRasters returns the GeoTIFF files of a directory. The cube
// builder re-sorts by filename date, so plain name order here is only for
// determinism of the artifact's inputs list.
func listIndexRasters(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan index raster directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".tif" && ext != ".tiff" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .tif/.tiff files in %s", cube.ErrNoInputs, dir)
	}
	sort.Strings(files)
	return files, nil
}
