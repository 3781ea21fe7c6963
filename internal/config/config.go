package config

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration. Every tunable the pipeline consumes
// lives here and is passed down explicitly; no package holds mutable
// defaults, so concurrent per-date workers cannot observe cross-run state.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	NDWI       NDWIConfig       `yaml:"ndwi"`
	Denoise    DenoiseConfig    `yaml:"denoise"`
	Processing ProcessingConfig `yaml:"processing"`
}

// PathsConfig names the inputs and outputs of a run.
type PathsConfig struct {
	// B03 and B08 are the event-date green and NIR rasters.
	B03 string `yaml:"b03"`
	B08 string `yaml:"b08"`
	// BandsTimeDir holds per-date band rasters for the time series.
	BandsTimeDir string `yaml:"bands_time_dir"`
	// NDWITimeDir receives the per-date NDWI rasters.
	NDWITimeDir string `yaml:"ndwi_time_dir"`
	OutputDir   string `yaml:"output_dir"`
}

func (c PathsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.B03, validation.Required),
		validation.Field(&c.B08, validation.Required),
		validation.Field(&c.BandsTimeDir, validation.Required),
		validation.Field(&c.NDWITimeDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
	)
}

// NDWIConfig controls index computation and classification.
type NDWIConfig struct {
	// Scale divides raw reflectance into unit reflectance.
	Scale float64 `yaml:"scale"`
	// Threshold classifies NDWI > Threshold as flooded.
	Threshold float64 `yaml:"threshold"`
	// NoData is the sentinel written into continuous NDWI rasters.
	NoData float64 `yaml:"nodata"`
}

func (c NDWIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Scale, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// DenoiseConfig controls the majority filter on the raw classification.
type DenoiseConfig struct {
	KernelSize    int     `yaml:"kernel_size"`
	VoteThreshold float64 `yaml:"vote_threshold"`
}

func (c DenoiseConfig) Validate() error {
	if c.KernelSize <= 0 || c.KernelSize%2 == 0 {
		return fmt.Errorf("denoise kernel_size must be a positive odd integer, got %d", c.KernelSize)
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.VoteThreshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

// ProcessingConfig controls resampling, parallelism and filename strictness.
type ProcessingConfig struct {
	// ResamplingContinuous names the warp method for continuous rasters.
	ResamplingContinuous string `yaml:"resampling_continuous"`
	// Workers bounds the per-date worker pool for the series builder.
	Workers int `yaml:"workers"`
	// StrictFilenames fails the run when a band-tagged filename carries a
	// malformed date token; when false such files are skipped with a
	// warning.
	StrictFilenames bool `yaml:"strict_filenames"`
}

func (c ProcessingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ResamplingContinuous, validation.In("bilinear", "nearest", "near")),
		validation.Field(&c.Workers, validation.Min(1)),
	)
}

func (c *Config) Validate() error {
	if err := c.Paths.Validate(); err != nil {
		return err
	}
	if err := c.NDWI.Validate(); err != nil {
		return err
	}
	if err := c.Denoise.Validate(); err != nil {
		return err
	}
	return c.Processing.Validate()
}

// Default returns the configuration defaults: Sentinel-2 reflectance scale,
// NDWI threshold 0.1, 3x3 majority denoise, bilinear resampling.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			BandsTimeDir: "raster_data/bands_time",
			NDWITimeDir:  "raster_data/ndwi_time",
			OutputDir:    "data/output",
		},
		NDWI: NDWIConfig{
			Scale:     10000.0,
			Threshold: 0.1,
			NoData:    -9999.0,
		},
		Denoise: DenoiseConfig{
			KernelSize:    3,
			VoteThreshold: 0.5,
		},
		Processing: ProcessingConfig{
			ResamplingContinuous: "bilinear",
			Workers:              4,
			StrictFilenames:      true,
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
