package delivery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flood-guardian/flood-guardian-raster-poc/internal/raster"
	"gopkg.in/yaml.v3"
)

// GridRef is the reference-grid block recorded in stage artifacts. It is the
// whole contract downstream vector and report stages need, together with a
// classification path and nodata value.
type GridRef struct {
	CRS       string    `yaml:"crs"`
	Transform []float64 `yaml:"transform"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Res       []float64 `yaml:"res"`
}

func gridRef(g raster.Grid) GridRef {
	dx, dy := g.PixelSize()
	return GridRef{
		CRS:       g.CRS,
		Transform: g.Transform[:],
		Width:     g.Width,
		Height:    g.Height,
		Res:       []float64{dx, dy},
	}
}

// writeYAML marshals a stage artifact to disk, creating parent directories.
func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return nil
}
