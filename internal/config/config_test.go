package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.NDWI.Scale != 10000.0 {
		t.Errorf("scale = %v, want 10000", cfg.NDWI.Scale)
	}
	if cfg.NDWI.Threshold != 0.1 {
		t.Errorf("threshold = %v, want 0.1", cfg.NDWI.Threshold)
	}
	if cfg.Denoise.KernelSize != 3 || cfg.Denoise.VoteThreshold != 0.5 {
		t.Errorf("denoise defaults = %d/%v, want 3/0.5", cfg.Denoise.KernelSize, cfg.Denoise.VoteThreshold)
	}
	if cfg.Processing.ResamplingContinuous != "bilinear" {
		t.Errorf("resampling = %q, want bilinear", cfg.Processing.ResamplingContinuous)
	}
	if !cfg.Processing.StrictFilenames {
		t.Error("strict filenames should default to true")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
paths:
  b03: data/B03.tif
  b08: data/B08.tif
  bands_time_dir: raster_data/bands_time
  ndwi_time_dir: raster_data/ndwi_time
  output_dir: data/output
ndwi:
  threshold: 0.2
denoise:
  kernel_size: 5
`

func TestLoad_OverridesAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NDWI.Threshold != 0.2 {
		t.Errorf("threshold = %v, want 0.2 from file", cfg.NDWI.Threshold)
	}
	if cfg.Denoise.KernelSize != 5 {
		t.Errorf("kernel = %d, want 5 from file", cfg.Denoise.KernelSize)
	}
	// Untouched keys keep their defaults.
	if cfg.NDWI.Scale != 10000.0 {
		t.Errorf("scale = %v, want default 10000", cfg.NDWI.Scale)
	}
	if cfg.NDWI.NoData != -9999.0 {
		t.Errorf("nodata = %v, want default -9999", cfg.NDWI.NoData)
	}
}

func TestLoad_RejectsEvenKernel(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Denoise.KernelSize = 4
	if err := cfg.Validate(); err == nil {
		t.Fatal("even kernel size passed validation")
	}
}

func TestLoad_RejectsMissingPaths(t *testing.T) {
	if _, err := Load(writeConfig(t, "ndwi:\n  threshold: 0.1\n")); err == nil {
		t.Fatal("config without paths passed validation")
	}
}

func TestLoad_RejectsUnknownResampling(t *testing.T) {
	body := validYAML + "processing:\n  resampling_continuous: cubic\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("unknown resampling method passed validation")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
