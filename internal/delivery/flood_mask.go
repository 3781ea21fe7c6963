package delivery

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/config"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/flood"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
	"github.com/fogleman/gg"
)

// FloodMaskParams echoes back the parameters a mask was produced with.
type FloodMaskParams struct {
	NDWIScale        float64 `yaml:"ndwi_scale"`
	NDWIThreshold    float64 `yaml:"ndwi_threshold"`
	DenoiseKernel    int     `yaml:"denoise_kernel_size"`
	DenoiseThreshold float64 `yaml:"denoise_threshold"`
	NDWINoData       float64 `yaml:"ndwi_nodata"`
	MaskNoData       int     `yaml:"mask_nodata"`
}

// FloodMaskResult records the flood-mask stage outputs. GridRef, the
// filtered mask path and the mask nodata value form the contract consumed by
// the vector overlay stages.
type FloodMaskResult struct {
	NDWI              string          `yaml:"ndwi"`
	FloodMaskRaw      string          `yaml:"flood_mask_raw"`
	FloodMaskFiltered string          `yaml:"flood_mask_filtered"`
	Quicklook         string          `yaml:"quicklook"`
	GridRef           GridRef         `yaml:"grid_ref"`
	ValidRatio        float64         `yaml:"valid_ratio"`
	Params            FloodMaskParams `yaml:"params"`
}

// FloodMask computes the event-date NDWI, thresholds it into a raw flood
// mask and denoises the mask with a majority filter. Both masks share the
// reference grid and the byte nodata sentinel; the continuous NDWI carries
// its own float sentinel.
func FloodMask(cfg config.Config, prep *RasterPrepResult) (*FloodMaskResult, error) {
	b03, err := raster.Load(prep.B03Preprocessed)
	if err != nil {
		return nil, err
	}
	b08, err := raster.Load(prep.B08Preprocessed)
	if err != nil {
		return nil, err
	}

	valid, err := flood.ValidMask(b03.Data, b08.Data)
	if err != nil {
		return nil, err
	}

	ndwi, err := flood.ComputeNDWI(b03.Data, b08.Data, cfg.NDWI.Scale)
	if err != nil {
		return nil, err
	}

	outDir := cfg.Paths.OutputDir
	grid := b03.Grid

	// Continuous NDWI with float nodata.
	ndwiOut := filepath.Join(outDir, "ndwi.tif")
	flood.ApplyIndexNoData(ndwi, valid, cfg.NDWI.NoData)
	err = raster.Store(ndwiOut, ndwi, grid,
		raster.WithDType(raster.DTFloat32),
		raster.WithNoData(cfg.NDWI.NoData))
	if err != nil {
		return nil, err
	}

	// Raw 0/1 mask with byte nodata. Thresholding is strict greater-than;
	// nodata pixels carry the NDWI sentinel here and are overwritten right
	// after.
	maskRaw := flood.Threshold(ndwi, cfg.NDWI.Threshold)
	flood.ApplyMaskNoData(maskRaw, valid)
	rawOut := filepath.Join(outDir, "flood_mask_raw.tif")
	if err := storeMask(rawOut, maskRaw, grid); err != nil {
		return nil, err
	}

	maskFiltered, err := flood.Denoise(maskRaw, cfg.Denoise.KernelSize, cfg.Denoise.VoteThreshold)
	if err != nil {
		return nil, err
	}
	filteredOut := filepath.Join(outDir, "flood_mask_filtered.tif")
	if err := storeMask(filteredOut, maskFiltered, grid); err != nil {
		return nil, err
	}

	quicklook := filepath.Join(outDir, "flood_mask_filtered.png")
	if err := writeQuicklook(quicklook, maskFiltered); err != nil {
		return nil, err
	}

	validRatio := ratio(valid)
	slog.Info("flood mask written",
		"valid_ratio", validRatio,
		"threshold", cfg.NDWI.Threshold,
		"kernel", cfg.Denoise.KernelSize)

	result := &FloodMaskResult{
		NDWI:              ndwiOut,
		FloodMaskRaw:      rawOut,
		FloodMaskFiltered: filteredOut,
		Quicklook:         quicklook,
		GridRef:           gridRef(grid),
		ValidRatio:        validRatio,
		Params: FloodMaskParams{
			NDWIScale:        cfg.NDWI.Scale,
			NDWIThreshold:    cfg.NDWI.Threshold,
			DenoiseKernel:    cfg.Denoise.KernelSize,
			DenoiseThreshold: cfg.Denoise.VoteThreshold,
			NDWINoData:       cfg.NDWI.NoData,
			MaskNoData:       int(flood.MaskNoData),
		},
	}
	if err := writeYAML(filepath.Join(outDir, "b_flood_mask_result.yaml"), result); err != nil {
		return nil, err
	}
	return result, nil
}

// storeMask writes a byte classification raster ({0, 1, 255}) on the
// reference grid.
func storeMask(path string, mask [][]uint8, grid raster.Grid) error {
	data := make([][]float32, len(mask))
	for i := range mask {
		data[i] = make([]float32, len(mask[i]))
		for j, v := range mask[i] {
			data[i][j] = float32(v)
		}
	}
	return raster.Store(path, data, grid,
		raster.WithDType(raster.DTByte),
		raster.WithNoData(float64(flood.MaskNoData)))
}

// writeQuicklook renders the classification as a PNG: water white, dry land
// black, nodata mid-gray.
func writeQuicklook(path string, mask [][]uint8) error {
	h := len(mask)
	if h == 0 {
		return fmt.Errorf("empty mask, nothing to render")
	}
	w := len(mask[0])

	dc := gg.NewContext(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch mask[y][x] {
			case 1:
				dc.SetRGB(1, 1, 1)
			case flood.MaskNoData:
				dc.SetRGB(0.5, 0.5, 0.5)
			default:
				dc.SetRGB(0, 0, 0)
			}
			dc.SetPixel(x, y)
		}
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save quicklook %s: %w", path, err)
	}
	return nil
}

func ratio(valid [][]bool) float64 {
	total, n := 0, 0
	for i := range valid {
		for _, v := range valid[i] {
			total++
			if v {
				n++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
