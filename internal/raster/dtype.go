package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

// DType is the closed set of sample types this pipeline reads and writes.
// Anything else coming out of a source file is rejected at the I/O boundary
// instead of being carried around as an opaque driver tag.
type DType int

const (
	// DTByte is 8-bit unsigned, used for classification masks (0/1/255).
	DTByte DType = iota
	// DTUInt16 is 16-bit unsigned, the usual storage type of integer
	// reflectance bands.
	DTUInt16
	// DTFloat32 is 32-bit float, used for index and aggregate rasters.
	DTFloat32
)

func (d DType) String() string {
	switch d {
	case DTByte:
		return "uint8"
	case DTUInt16:
		return "uint16"
	case DTFloat32:
		return "float32"
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

func (d DType) gdal() godal.DataType {
	switch d {
	case DTByte:
		return godal.Byte
	case DTUInt16:
		return godal.UInt16
	default:
		return godal.Float32
	}
}

func dtypeFromGDAL(dt godal.DataType) (DType, error) {
	switch dt {
	case godal.Byte:
		return DTByte, nil
	case godal.UInt16:
		return DTUInt16, nil
	case godal.Float32:
		return DTFloat32, nil
	}
	return 0, fmt.Errorf("%w: unsupported sample type %v", ErrInvalidParameter, dt)
}
