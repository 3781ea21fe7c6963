package delivery

import (
	"log/slog"
	"path/filepath"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/config"
)

// RunLog aggregates every stage artifact of one pipeline run into a single
// reproducibility document.
type RunLog struct {
	Config     config.Config     `yaml:"config"`
	RasterPrep *RasterPrepResult `yaml:"module_a_raster_prep"`
	FloodMask  *FloodMaskResult  `yaml:"module_b_flood_mask"`
	NDWISeries *NDWISeriesResult `yaml:"module_ndwi_series"`
	Cube       *CubeResult       `yaml:"module_cube"`
}

// RunPipeline executes the four stages in order: raster preparation, flood
// masking, NDWI time series, cube aggregation. Any stage error aborts the
// run; there is no partial-failure mode.
func RunPipeline(cfg config.Config) (*RunLog, error) {
	slog.Info("stage A: raster preparation")
	prep, err := RasterPrep(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("stage B: flood masking")
	mask, err := FloodMask(cfg, prep)
	if err != nil {
		return nil, err
	}

	slog.Info("stage S: NDWI time series")
	ser, err := NDWISeries(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("stage C: time cube aggregation")
	cb, err := BuildCube(cfg)
	if err != nil {
		return nil, err
	}

	log := &RunLog{
		Config:     cfg,
		RasterPrep: prep,
		FloodMask:  mask,
		NDWISeries: ser,
		Cube:       cb,
	}
	logPath := filepath.Join(cfg.Paths.OutputDir, "run_log.yaml")
	if err := writeYAML(logPath, log); err != nil {
		return nil, err
	}
	slog.Info("pipeline finished", "run_log", logPath)
	return log, nil
}
