package flood

import (
	"fmt"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
)

// Threshold classifies a continuous index into a binary mask: pixels with
// index strictly greater than thr become 1, the rest 0.
func Threshold(index [][]float32, thr float64) [][]uint8 {
	t := float32(thr)
	mask := make([][]uint8, len(index))
	for i := range index {
		mask[i] = make([]uint8, len(index[i]))
		for j := range index[i] {
			if index[i][j] > t {
				mask[i][j] = 1
			}
		}
	}
	return mask
}

// ApplyMaskNoData overwrites invalid pixels of a classification mask with the
// mask nodata sentinel, in place.
func ApplyMaskNoData(mask [][]uint8, valid [][]bool) {
	for i := range mask {
		for j := range mask[i] {
			if !valid[i][j] {
				mask[i][j] = MaskNoData
			}
		}
	}
}

// Denoise smooths a binary classification with a uniform kernel×kernel mean
// filter and re-thresholds the smoothed fraction at vote. The input is
// edge-padded by replication so output shape equals input shape and border
// pixels are not diluted by phantom zeros. vote 0.5 behaves like a simple
// majority; the comparison is strict, so an exact tie resolves to 0. Nodata
// pixels enter the convolution as 0 and are restored afterward, so a nodata
// edge can never vote a neighbor into being flooded.
func Denoise(mask [][]uint8, kernel int, vote float64) ([][]uint8, error) {
	if kernel <= 0 || kernel%2 == 0 {
		return nil, fmt.Errorf("%w: kernel size must be a positive odd integer, got %d", raster.ErrInvalidParameter, kernel)
	}

	h := len(mask)
	if h == 0 {
		return [][]uint8{}, nil
	}
	w := len(mask[0])

	// Nodata contributes 0 to every window it touches.
	vals := make([][]float64, h)
	for i := range mask {
		vals[i] = make([]float64, w)
		for j, v := range mask[i] {
			if v == 1 {
				vals[i][j] = 1
			}
		}
	}

	half := kernel / 2
	norm := float64(kernel * kernel)
	out := make([][]uint8, h)
	for i := 0; i < h; i++ {
		out[i] = make([]uint8, w)
		for j := 0; j < w; j++ {
			if mask[i][j] == MaskNoData {
				out[i][j] = MaskNoData
				continue
			}
			sum := 0.0
			for di := -half; di <= half; di++ {
				y := clamp(i+di, h-1)
				for dj := -half; dj <= half; dj++ {
					x := clamp(j+dj, w-1)
					sum += vals[y][x]
				}
			}
			if sum/norm > vote {
				out[i][j] = 1
			}
		}
	}
	return out, nil
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
