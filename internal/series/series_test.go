package series

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

func writeBand(t *testing.T, dir, name string, v float32, grid raster.Grid) {
	t.Helper()
	data := make([][]float32, grid.Height)
	for i := range data {
		data[i] = make([]float32, grid.Width)
		for j := range data[i] {
			data[i][j] = v
		}
	}
	if err := raster.Store(filepath.Join(dir, name), data, grid); err != nil {
		t.Fatalf("Store %s: %v", name, err)
	}
}

func TestBuild_WritesSortedNDWISeries(t *testing.T) {
	bandsDir := t.TempDir()
	outDir := t.TempDir()
	grid := raster.Grid{
		Transform: [6]float64{500000, 10, 0, 4649776, 0, -10},
		Width:     2,
		Height:    2,
	}

	for _, date := range []string{"2023-09-12", "2023-09-10"} {
		writeBand(t, bandsDir, date+"_B03.tif", 3000, grid)
		writeBand(t, bandsDir, date+"_B08.tif", 1000, grid)
	}

	pairs, err := CollectPairs(bandsDir, true)
	if err != nil {
		t.Fatalf("CollectPairs: %v", err)
	}

	outputs, err := Build(Config{
		Scale:      10000,
		NoData:     -9999,
		Resampling: "bilinear",
		Workers:    2,
		OutputDir:  outDir,
	}, pairs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outputs))
	}
	if !outputs[0].Date.Before(outputs[1].Date) {
		t.Errorf("outputs not sorted by date: %v, %v", outputs[0].Date, outputs[1].Date)
	}
	wantFirst := time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC)
	if !outputs[0].Date.Equal(wantFirst) {
		t.Errorf("first output date = %v, want %v", outputs[0].Date, wantFirst)
	}

	r, err := raster.Load(outputs[0].Path)
	if err != nil {
		t.Fatalf("Load NDWI output: %v", err)
	}
	if !r.Grid.Same(grid) {
		t.Errorf("NDWI grid = %+v, want reference grid", r.Grid)
	}
	if r.NoData == nil || *r.NoData != -9999 {
		t.Errorf("NDWI nodata = %v, want -9999", r.NoData)
	}
	want := (0.3 - 0.1) / (0.3 + 0.1 + 1e-6)
	if math.Abs(float64(r.Data[0][0])-want) > 1e-4 {
		t.Errorf("ndwi[0][0] = %v, want ~%v", r.Data[0][0], want)
	}
}

func TestBuild_MasksInvalidPixels(t *testing.T) {
	bandsDir := t.TempDir()
	outDir := t.TempDir()
	grid := raster.Grid{
		Transform: [6]float64{0, 10, 0, 0, 0, -10},
		Width:     2,
		Height:    1,
	}

	// Second pixel of the green band is export padding (zero): the output
	// must carry the nodata sentinel there.
	green := [][]float32{{3000, 0}}
	nir := [][]float32{{1000, 900}}
	if err := raster.Store(filepath.Join(bandsDir, "2023-09-10_B03.tif"), green, grid); err != nil {
		t.Fatal(err)
	}
	if err := raster.Store(filepath.Join(bandsDir, "2023-09-10_B08.tif"), nir, grid); err != nil {
		t.Fatal(err)
	}

	pairs, err := CollectPairs(bandsDir, true)
	if err != nil {
		t.Fatal(err)
	}
	outputs, err := Build(Config{
		Scale:      10000,
		NoData:     -9999,
		Resampling: "bilinear",
		Workers:    1,
		OutputDir:  outDir,
	}, pairs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r, err := raster.Load(outputs[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if r.Data[0][1] != -9999 {
		t.Errorf("invalid pixel = %v, want -9999", r.Data[0][1])
	}
	if r.Data[0][0] == -9999 {
		t.Error("valid pixel was masked")
	}
}
