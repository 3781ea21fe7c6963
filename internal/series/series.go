package series

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/flood"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/utils"
	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
)

// Config carries the tunables the series builder needs. Passed explicitly so
// concurrent per-date workers share no mutable state.
type Config struct {
	Scale      float64
	NoData     float64
	Resampling string
	Workers    int
	OutputDir  string
}

// DatedOutput names one written NDWI raster and its acquisition date.
type DatedOutput struct {
	Date time.Time
	Path string
}

// Build computes one NDWI raster per complete band pair and writes it to the
// output directory, named after the original archive convention. Dates are
// processed by a bounded worker pool; each date is independent until the
// results are re-sorted by date key. The first failing date aborts the whole
// build, a truncated time series is worse than no series.
func Build(cfg Config, pairs map[time.Time]BandPair) ([]DatedOutput, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	var (
		mu       sync.Mutex
		outputs  []DatedOutput
		firstErr error
	)

	bar := progressbar.Default(int64(len(pairs)), "Building NDWI series")
	wp := workerpool.New(cfg.Workers)

	for _, date := range utils.SortedKeys(pairs) {
		pair := pairs[date]
		wp.Submit(func() {
			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			out, err := buildOne(cfg, pair)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("date %s: %w", pair.Date.Format(dateLayout), err)
				}
				return
			}
			outputs = append(outputs, out)
			bar.Add(1)
		})
	}
	wp.StopWait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(outputs, func(i, j int) bool {
		return outputs[i].Date.Before(outputs[j].Date)
	})
	return outputs, nil
}

// buildOne produces the NDWI raster for a single date: load both bands,
// align NIR onto the green reference grid, compute the index, blank invalid
// pixels and store as float32.
func buildOne(cfg Config, pair BandPair) (DatedOutput, error) {
	green, err := raster.Load(pair.Green)
	if err != nil {
		return DatedOutput{}, err
	}
	nir, err := raster.Load(pair.NIR)
	if err != nil {
		return DatedOutput{}, err
	}

	nirData, err := raster.Resample(nir, green.Grid, cfg.Resampling)
	if err != nil {
		return DatedOutput{}, fmt.Errorf("failed to align NIR band: %w", err)
	}

	ndwi, err := flood.ComputeNDWI(green.Data, nirData, cfg.Scale)
	if err != nil {
		return DatedOutput{}, err
	}
	valid, err := flood.ValidMask(green.Data, nirData)
	if err != nil {
		return DatedOutput{}, err
	}
	flood.ApplyIndexNoData(ndwi, valid, cfg.NoData)

	d := pair.Date.Format(dateLayout)
	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-00_00_%s-23_59_Sentinel-2_L2A_NDWI.tiff", d, d))
	err = raster.Store(path, ndwi, green.Grid,
		raster.WithDType(raster.DTFloat32),
		raster.WithNoData(cfg.NoData))
	if err != nil {
		return DatedOutput{}, err
	}
	return DatedOutput{Date: pair.Date, Path: path}, nil
}
