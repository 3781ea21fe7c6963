package raster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
)

// resamplingArg maps a method name to its gdalwarp -r argument.
func resamplingArg(method string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "bilinear":
		return "bilinear", nil
	case "nearest", "near":
		return "near", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
}

// Resample warps src onto the dst grid using the named method ("bilinear"
// for continuous rasters, "nearest" for masks and classes), reprojecting
// between coordinate systems when they differ. When the grids are already
// identical the source array is returned unchanged, which also guarantees
// bit-identical values for aligned inputs. The target grid must be north-up
// (positive pixel width, negative pixel height); the warper builds the
// output extent from the target bounds and would flip a south-up request.
// Output is float32 shaped (dst.Height, dst.Width).
func Resample(src *Raster, dst Grid, method string) ([][]float32, error) {
	arg, err := resamplingArg(method)
	if err != nil {
		return nil, err
	}
	if src.Grid.Same(dst) {
		return src.Data, nil
	}
	if err := dst.Validate(); err != nil {
		return nil, err
	}
	if src.Grid.CRS == "" || dst.CRS == "" {
		return nil, fmt.Errorf("%w: resampling needs a CRS on both grids", ErrMissingCRS)
	}
	if !src.Grid.axisAligned() || !dst.axisAligned() {
		return nil, fmt.Errorf("%w: rotated grids are not supported", ErrInvalidParameter)
	}
	if dst.Transform[1] < 0 || dst.Transform[5] > 0 {
		return nil, fmt.Errorf("%w: target grid must be north-up", ErrInvalidParameter)
	}

	srcDS, err := memDataset(src)
	if err != nil {
		return nil, err
	}
	defer srcDS.Close()

	xmin, ymin, xmax, ymax := dst.Bounds()
	switches := []string{
		"-of", "MEM",
		"-t_srs", dst.CRS,
		"-te", ftoa(xmin), ftoa(ymin), ftoa(xmax), ftoa(ymax),
		"-ts", strconv.Itoa(dst.Width), strconv.Itoa(dst.Height),
		"-r", arg,
	}
	if src.NoData != nil {
		switches = append(switches, "-srcnodata", ftoa(*src.NoData), "-dstnodata", ftoa(*src.NoData))
	}

	warped, err := godal.Warp("", []*godal.Dataset{srcDS}, switches)
	if err != nil {
		return nil, fmt.Errorf("warp to target grid failed: %w", err)
	}
	defer warped.Close()

	flat := make([]float32, dst.Width*dst.Height)
	if err := warped.Bands()[0].Read(0, 0, flat, dst.Width, dst.Height); err != nil {
		return nil, fmt.Errorf("failed to read warped band: %w", err)
	}
	out := make([][]float32, dst.Height)
	for i := range out {
		out[i] = flat[i*dst.Width : (i+1)*dst.Width]
	}
	return out, nil
}

// memDataset copies a raster into an in-memory GDAL dataset so it can feed
// the warper.
func memDataset(r *Raster) (*godal.Dataset, error) {
	ds, err := godal.Create(godal.Memory, "", 1, godal.Float32, r.Grid.Width, r.Grid.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory dataset: %w", err)
	}
	o := storeOptions{dtype: DTFloat32, nodata: r.NoData}
	if err := writeDataset(ds, r.Data, r.Grid, o); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to fill in-memory dataset: %w", err)
	}
	return ds, nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
