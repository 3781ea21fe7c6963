package flood

import (
	"fmt"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
)

const (
	// Epsilon keeps the NDWI denominator away from zero when both bands
	// are near zero.
	Epsilon = 1e-6
	// IndexNoData marks undefined pixels in continuous index rasters.
	IndexNoData = -9999.0
	// MaskNoData marks undefined pixels in classification masks. Distinct
	// from IndexNoData so "no water signal" and "index undefined" never
	// collide in the byte-typed mask.
	MaskNoData uint8 = 255
	// DefaultScale converts integer reflectance to unit reflectance.
	DefaultScale = 10000.0
)

// ComputeNDWI computes the normalized difference water index
// (g - n) / (g + n) elementwise from the green and NIR bands, after scaling
// both to unit reflectance. Values are nominally in [-1, 1] but are not
// clamped, so anomalies stay visible. The computation is total: validity is
// handled separately by ValidMask.
func ComputeNDWI(green, nir [][]float32, scale float64) ([][]float32, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("%w: scale must be positive, got %v", raster.ErrInvalidParameter, scale)
	}
	if err := sameShape(green, nir); err != nil {
		return nil, err
	}

	s := float32(scale)
	out := make([][]float32, len(green))
	for i := range green {
		out[i] = make([]float32, len(green[i]))
		for j := range green[i] {
			g := green[i][j] / s
			n := nir[i][j] / s
			out[i][j] = (g - n) / (g + n + Epsilon)
		}
	}
	return out, nil
}

// ValidMask reports which pixels carry a real measurement in both bands.
// Export padding and nodata edges come through as zeros or negatives in raw
// reflectance, so anything <= 0 in either band is invalid.
func ValidMask(green, nir [][]float32) ([][]bool, error) {
	if err := sameShape(green, nir); err != nil {
		return nil, err
	}
	valid := make([][]bool, len(green))
	for i := range green {
		valid[i] = make([]bool, len(green[i]))
		for j := range green[i] {
			valid[i][j] = green[i][j] > 0 && nir[i][j] > 0
		}
	}
	return valid, nil
}

// ApplyIndexNoData overwrites invalid pixels of a continuous index with the
// nodata sentinel, in place.
func ApplyIndexNoData(index [][]float32, valid [][]bool, nodata float64) {
	nd := float32(nodata)
	for i := range index {
		for j := range index[i] {
			if !valid[i][j] {
				index[i][j] = nd
			}
		}
	}
}

func sameShape(a, b [][]float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: band heights %d and %d differ", raster.ErrShapeMismatch, len(a), len(b))
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return fmt.Errorf("%w: band row %d widths %d and %d differ", raster.ErrShapeMismatch, i, len(a[i]), len(b[i]))
		}
	}
	return nil
}
