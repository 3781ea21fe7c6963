package cube

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/series"
	"golang.org/x/sync/errgroup"
)

var ErrNoInputs = errors.New("no index rasters to stack")

// Cube is a time-indexed stack of aligned index rasters: Data is shaped
// (time, y, x), Dates is strictly increasing and matches the time axis, and
// every slice lives on exactly the reference grid.
type Cube struct {
	Dates  []time.Time
	Data   [][][]float32
	Grid   raster.Grid
	NoData float64
}

// Build stacks per-date index rasters into a cube. Dates are taken from the
// filenames and the stack order is date order, not the order paths were
// discovered in. The first (earliest) raster's grid becomes the reference
// grid; later rasters that drifted are resampled onto it with the given
// continuous method, so grid mismatch never surfaces to the caller. Slices
// load concurrently into date-indexed slots.
func Build(paths []string, method string, noData float64) (*Cube, error) {
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}

	type dated struct {
		date time.Time
		path string
	}
	inputs := make([]dated, 0, len(paths))
	for _, p := range paths {
		date, err := series.ExtractDate(filepath.Base(p))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, dated{date: date, path: p})
	}
	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].date.Before(inputs[j].date)
	})
	for i := 1; i < len(inputs); i++ {
		if !inputs[i-1].date.Before(inputs[i].date) {
			return nil, fmt.Errorf("duplicate date %s in index rasters",
				inputs[i].date.Format("2006-01-02"))
		}
	}

	ref, err := raster.Load(inputs[0].path)
	if err != nil {
		return nil, err
	}

	c := &Cube{
		Dates:  make([]time.Time, len(inputs)),
		Data:   make([][][]float32, len(inputs)),
		Grid:   ref.Grid,
		NoData: noData,
	}
	c.Dates[0] = inputs[0].date
	c.Data[0] = ref.Data

	g, _ := errgroup.WithContext(context.Background())
	for i := 1; i < len(inputs); i++ {
		g.Go(func() error {
			r, err := raster.Load(inputs[i].path)
			if err != nil {
				return err
			}
			aligned, err := raster.Resample(r, ref.Grid, method)
			if err != nil {
				return fmt.Errorf("failed to align %s onto reference grid: %w", inputs[i].path, err)
			}
			c.Dates[i] = inputs[i].date
			c.Data[i] = aligned
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cube) isNoData(v float32) bool {
	return v == float32(c.NoData) || math.IsNaN(float64(v))
}

// Change returns the pixel-wise difference between the last and first time
// slices. A pixel is nodata in the result when it is nodata on either side.
func (c *Cube) Change() [][]float32 {
	first := c.Data[0]
	last := c.Data[len(c.Data)-1]
	nd := float32(c.NoData)

	out := make([][]float32, c.Grid.Height)
	for y := 0; y < c.Grid.Height; y++ {
		out[y] = make([]float32, c.Grid.Width)
		for x := 0; x < c.Grid.Width; x++ {
			if c.isNoData(first[y][x]) || c.isNoData(last[y][x]) {
				out[y][x] = nd
				continue
			}
			out[y][x] = last[y][x] - first[y][x]
		}
	}
	return out
}

// TemporalMean returns the per-pixel mean over time, ignoring nodata
// samples. Pixels with no valid sample at any date come out as nodata.
func (c *Cube) TemporalMean() [][]float32 {
	nd := float32(c.NoData)

	out := make([][]float32, c.Grid.Height)
	for y := 0; y < c.Grid.Height; y++ {
		out[y] = make([]float32, c.Grid.Width)
		for x := 0; x < c.Grid.Width; x++ {
			sum := 0.0
			n := 0
			for t := range c.Data {
				v := c.Data[t][y][x]
				if c.isNoData(v) {
					continue
				}
				sum += float64(v)
				n++
			}
			if n == 0 {
				out[y][x] = nd
				continue
			}
			out[y][x] = float32(sum / float64(n))
		}
	}
	return out
}
