package cube

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// DateStats summarizes one time slice over its valid (non-nodata) pixels.
type DateStats struct {
	Mean float64 `yaml:"mean"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	// FloodedRatio is the fraction of valid pixels whose index exceeds the
	// classification threshold.
	FloodedRatio float64 `yaml:"flooded_ratio_ndwi_gt_thr"`
	// ValidPixels counts the pixels the other figures are computed over.
	ValidPixels int `yaml:"valid_pixels"`
}

// Stats computes per-date statistics over valid pixels, keyed by the
// ISO date. thr is the same threshold that governs classification, so the
// ratio and any downstream mask agree on what counts as flooded.
func (c *Cube) Stats(thr float64) map[string]DateStats {
	out := make(map[string]DateStats, len(c.Dates))
	for t, date := range c.Dates {
		var (
			sum     float64
			minV    float64
			maxV    float64
			valid   int
			flooded int
		)
		for y := 0; y < c.Grid.Height; y++ {
			for x := 0; x < c.Grid.Width; x++ {
				v := c.Data[t][y][x]
				if c.isNoData(v) {
					continue
				}
				f := float64(v)
				if valid == 0 || f < minV {
					minV = f
				}
				if valid == 0 || f > maxV {
					maxV = f
				}
				sum += f
				valid++
				if f > thr {
					flooded++
				}
			}
		}

		s := DateStats{ValidPixels: valid}
		if valid > 0 {
			s.Mean = sum / float64(valid)
			s.Min = minV
			s.Max = maxV
			s.FloodedRatio = float64(flooded) / float64(valid)
		}
		out[date.Format("2006-01-02")] = s
	}
	return out
}

// statsRow is the CSV shape of one date's statistics.
type statsRow struct {
	Date         string  `csv:"date"`
	Mean         float64 `csv:"mean"`
	Min          float64 `csv:"min"`
	Max          float64 `csv:"max"`
	FloodedRatio float64 `csv:"flooded_ratio"`
	ValidPixels  int     `csv:"valid_pixels"`
}

// WriteStatsCSV writes per-date statistics as CSV, rows in date order.
func WriteStatsCSV(path string, dates []time.Time, stats map[string]DateStats) error {
	rows := make([]statsRow, 0, len(dates))
	for _, date := range dates {
		key := date.Format("2006-01-02")
		s, ok := stats[key]
		if !ok {
			continue
		}
		rows = append(rows, statsRow{
			Date:         key,
			Mean:         s.Mean,
			Min:          s.Min,
			Max:          s.Max,
			FloodedRatio: s.FloodedRatio,
			ValidPixels:  s.ValidPixels,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stats CSV %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write stats CSV %s: %w", path, err)
	}
	return nil
}
