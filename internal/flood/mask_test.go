package flood

import (
	"errors"
	"testing"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
)

func TestThreshold_StrictGreaterThan(t *testing.T) {
	index := [][]float32{{0.09, 0.1, 0.11}}
	mask := Threshold(index, 0.1)
	want := []uint8{0, 0, 1}
	for j, w := range want {
		if mask[0][j] != w {
			t.Errorf("mask[0][%d] = %d, want %d", j, mask[0][j], w)
		}
	}
}

func TestThreshold_Monotonic(t *testing.T) {
	index := [][]float32{
		{-0.3, 0.05, 0.15},
		{0.25, 0.5, 0.95},
	}
	low := Threshold(index, 0.1)
	high := Threshold(index, 0.3)

	// Every pixel flooded at the higher threshold must be flooded at the
	// lower one.
	for i := range high {
		for j := range high[i] {
			if high[i][j] == 1 && low[i][j] != 1 {
				t.Errorf("pixel (%d,%d) flooded at thr 0.3 but not at 0.1", i, j)
			}
		}
	}
}

func TestDenoise_EvenKernelRejected(t *testing.T) {
	mask := [][]uint8{{1}}
	if _, err := Denoise(mask, 4, 0.5); !errors.Is(err, raster.ErrInvalidParameter) {
		t.Errorf("kernel 4: got %v, want ErrInvalidParameter", err)
	}
	if _, err := Denoise(mask, 0, 0.5); !errors.Is(err, raster.ErrInvalidParameter) {
		t.Errorf("kernel 0: got %v, want ErrInvalidParameter", err)
	}
	if _, err := Denoise(mask, -3, 0.5); !errors.Is(err, raster.ErrInvalidParameter) {
		t.Errorf("kernel -3: got %v, want ErrInvalidParameter", err)
	}
}

func TestDenoise_AllOnesUnchanged(t *testing.T) {
	mask := make([][]uint8, 4)
	for i := range mask {
		mask[i] = []uint8{1, 1, 1, 1}
	}
	out, err := Denoise(mask, 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// Replicate padding means every 3x3 window of an all-ones mask has
	// mean 1.0, including the corners: nothing may change.
	for i := range out {
		for j := range out[i] {
			if out[i][j] != 1 {
				t.Errorf("pixel (%d,%d) = %d, want 1", i, j, out[i][j])
			}
		}
	}
}

func TestDenoise_RemovesIsolatedPixel(t *testing.T) {
	mask := make([][]uint8, 5)
	for i := range mask {
		mask[i] = make([]uint8, 5)
	}
	mask[2][2] = 1

	out, err := Denoise(mask, 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if out[2][2] != 0 {
		t.Errorf("isolated speckle survived denoising: %d", out[2][2])
	}
}

func TestDenoise_FillsIsolatedHole(t *testing.T) {
	mask := make([][]uint8, 5)
	for i := range mask {
		mask[i] = []uint8{1, 1, 1, 1, 1}
	}
	mask[2][2] = 0

	out, err := Denoise(mask, 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if out[2][2] != 1 {
		t.Errorf("single-pixel hole not filled: %d", out[2][2])
	}
}

func TestDenoise_NoDataInvariant(t *testing.T) {
	// A nodata pixel surrounded by water must stay nodata, and must not
	// drag neighbors toward flooded: it votes as 0, not as water.
	mask := [][]uint8{
		{1, 1, 1},
		{1, MaskNoData, 1},
		{1, 1, 1},
	}
	out, err := Denoise(mask, 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if out[1][1] != MaskNoData {
		t.Fatalf("nodata pixel changed to %d", out[1][1])
	}
}

func TestDenoise_NoDataDoesNotVoteFlooded(t *testing.T) {
	// The dry center has 4 water neighbors and 4 nodata neighbors. If
	// nodata counted as water the window mean would be 8/9 and the vote
	// would pass; counted as 0 it is 4/9 and must fail.
	nd := MaskNoData
	mask := [][]uint8{
		{nd, 1, nd},
		{1, 0, 1},
		{nd, 1, nd},
	}
	out, err := Denoise(mask, 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if out[1][1] != 0 {
		t.Errorf("nodata neighbors voted pixel into water: %d", out[1][1])
	}
}

func TestDenoise_ExactTieResolvesToZero(t *testing.T) {
	// Four water cells in a 3x3 window and a vote of exactly 4/9: the
	// comparison is strict, so the center stays dry.
	mask := [][]uint8{
		{1, 0, 1},
		{0, 0, 0},
		{1, 0, 1},
	}
	out, err := Denoise(mask, 3, 4.0/9.0)
	if err != nil {
		t.Fatal(err)
	}
	if out[1][1] != 0 {
		t.Errorf("exact tie classified as flooded: %d", out[1][1])
	}
}

func TestApplyMaskNoData(t *testing.T) {
	mask := [][]uint8{{1, 0}}
	valid := [][]bool{{true, false}}
	ApplyMaskNoData(mask, valid)
	if mask[0][0] != 1 {
		t.Errorf("valid pixel overwritten: %d", mask[0][0])
	}
	if mask[0][1] != MaskNoData {
		t.Errorf("invalid pixel = %d, want %d", mask[0][1], MaskNoData)
	}
}
