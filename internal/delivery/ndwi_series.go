package delivery

import (
	"log/slog"
	"path/filepath"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/config"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/series"
)

// NDWISeriesResult records the time-series stage outputs: one NDWI raster
// per complete band pair, sorted by date.
type NDWISeriesResult struct {
	InputsDir string   `yaml:"inputs_dir"`
	OutputDir string   `yaml:"output_dir"`
	NumDates  int      `yaml:"num_dates"`
	Outputs   []string `yaml:"outputs"`
	Scale     float64  `yaml:"scale"`
	NoData    float64  `yaml:"nodata"`
}

// NDWISeries pairs the per-date band rasters found in the bands directory
// and turns each complete pair into a continuous NDWI raster for cube
// stacking.
func NDWISeries(cfg config.Config) (*NDWISeriesResult, error) {
	pairs, err := series.CollectPairs(cfg.Paths.BandsTimeDir, cfg.Processing.StrictFilenames)
	if err != nil {
		return nil, err
	}

	outputs, err := series.Build(series.Config{
		Scale:      cfg.NDWI.Scale,
		NoData:     cfg.NDWI.NoData,
		Resampling: cfg.Processing.ResamplingContinuous,
		Workers:    cfg.Processing.Workers,
		OutputDir:  cfg.Paths.NDWITimeDir,
	}, pairs)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(outputs))
	for i, out := range outputs {
		paths[i] = out.Path
		slog.Info("NDWI raster written", "date", out.Date.Format("2006-01-02"), "path", filepath.Base(out.Path))
	}

	result := &NDWISeriesResult{
		InputsDir: cfg.Paths.BandsTimeDir,
		OutputDir: cfg.Paths.NDWITimeDir,
		NumDates:  len(paths),
		Outputs:   paths,
		Scale:     cfg.NDWI.Scale,
		NoData:    cfg.NDWI.NoData,
	}
	if err := writeYAML(filepath.Join(cfg.Paths.OutputDir, "ndwi_series_result.yaml"), result); err != nil {
		return nil, err
	}
	return result, nil
}
