package raster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
)

// Raster is a single band of samples together with the grid it lives on.
// The data slice is owned exclusively by the raster; the grid is a value and
// may be shared freely once a reference grid has been chosen for a run.
type Raster struct {
	Data   [][]float32
	Grid   Grid
	NoData *float64
	DType  DType
}

// Load reads band 1 of a raster file into memory along with its grid
// descriptor and nodata value.
func Load(path string) (*Raster, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %w", path, err)
	}

	st := ds.Structure()
	grid := Grid{
		CRS:       ds.Projection(),
		Transform: gt,
		Width:     st.SizeX,
		Height:    st.SizeY,
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("malformed grid in %s: %w", path, err)
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster %s has no bands", path)
	}
	band := bands[0]

	dtype, err := dtypeFromGDAL(band.Structure().DataType)
	if err != nil {
		return nil, fmt.Errorf("raster %s: %w", path, err)
	}

	flat := make([]float32, st.SizeX*st.SizeY)
	if err := band.Read(0, 0, flat, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("failed to read band 1 of %s: %w", path, err)
	}
	data := make([][]float32, st.SizeY)
	for i := range data {
		data[i] = flat[i*st.SizeX : (i+1)*st.SizeX]
	}

	r := &Raster{Data: data, Grid: grid, DType: dtype}
	if nd, ok := band.NoData(); ok {
		r.NoData = &nd
	}
	return r, nil
}

type storeOptions struct {
	dtype  DType
	nodata *float64
}

// StoreOption overrides how Store writes a raster.
type StoreOption func(*storeOptions)

// WithDType sets the sample type of the written band. Defaults to float32.
func WithDType(d DType) StoreOption {
	return func(o *storeOptions) { o.dtype = d }
}

// WithNoData sets the nodata value recorded on the written band.
func WithNoData(nd float64) StoreOption {
	return func(o *storeOptions) { o.nodata = &nd }
}

// Store writes data as a single-band LZW-compressed GeoTIFF whose grid is
// exactly ref. Parent directories are created as needed. The file is written
// to a temporary name and renamed into place so a failed run never leaves a
// half-written raster behind.
func Store(path string, data [][]float32, ref Grid, opts ...StoreOption) error {
	o := storeOptions{dtype: DTFloat32}
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) != ref.Height {
		got := fmt.Sprintf("%dx%d", len(data), rowLen(data))
		return fmt.Errorf("%w: got %s, reference grid is %dx%d", ErrShapeMismatch, got, ref.Height, ref.Width)
	}
	for i, row := range data {
		if len(row) != ref.Width {
			return fmt.Errorf("%w: row %d has %d samples, reference grid is %dx%d", ErrShapeMismatch, i, len(row), ref.Height, ref.Width)
		}
	}
	if err := ref.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	ds, err := godal.Create(godal.GTiff, tmp, 1, o.dtype.gdal(), ref.Width, ref.Height,
		godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return fmt.Errorf("failed to create raster %s: %w", tmp, err)
	}

	if err := writeDataset(ds, data, ref, o); err != nil {
		ds.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write raster %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize raster %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move raster into place: %w", err)
	}
	return nil
}

func writeDataset(ds *godal.Dataset, data [][]float32, ref Grid, o storeOptions) error {
	if err := ds.SetGeoTransform(ref.Transform); err != nil {
		return err
	}
	if ref.CRS != "" {
		sr, err := godal.NewSpatialRefFromWKT(ref.CRS)
		if err != nil {
			return fmt.Errorf("invalid CRS: %w", err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return err
		}
	}

	band := ds.Bands()[0]
	if o.nodata != nil {
		if err := band.SetNoData(*o.nodata); err != nil {
			return err
		}
	}

	flat := make([]float32, ref.Width*ref.Height)
	for i, row := range data {
		copy(flat[i*ref.Width:(i+1)*ref.Width], row)
	}
	return band.Write(0, 0, flat, ref.Width, ref.Height)
}

func rowLen(data [][]float32) int {
	if len(data) == 0 {
		return 0
	}
	return len(data[0])
}
