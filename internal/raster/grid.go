package raster

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrShapeMismatch     = errors.New("array shape does not match reference grid")
	ErrUnsupportedMethod = errors.New("unsupported resampling method")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrMissingCRS        = errors.New("raster has no coordinate reference system")
)

// Grid describes the geometric footprint of a raster: coordinate system,
// affine pixel-to-world transform and pixel dimensions. Grids are compared
// exactly; a raster that drifted by any amount is a different grid and must
// be resampled, never silently accepted.
type Grid struct {
	// CRS is the coordinate reference system as WKT. Empty when the source
	// file carries none.
	CRS string
	// Transform is the GDAL geotransform: origin x, pixel width, row
	// rotation, origin y, column rotation, pixel height (negative for
	// north-up rasters).
	Transform [6]float64
	Width     int
	Height    int
}

// Same reports whether two grids are exactly equal in CRS, transform, width
// and height. No epsilon comparison: callers that need tolerance must
// pre-round their transforms.
func (g Grid) Same(o Grid) bool {
	return g.CRS == o.CRS &&
		g.Transform == o.Transform &&
		g.Width == o.Width &&
		g.Height == o.Height
}

// Validate rejects degenerate grids (non-positive dimensions or zero pixel
// size). A malformed grid fails here, at load time, rather than deep inside
// cube assembly.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: grid dimensions %dx%d must be positive", ErrInvalidParameter, g.Width, g.Height)
	}
	if g.Transform[1] == 0 || g.Transform[5] == 0 {
		return fmt.Errorf("%w: grid pixel size must be non-zero", ErrInvalidParameter)
	}
	return nil
}

// PixelSize returns the absolute pixel width and height in CRS units.
func (g Grid) PixelSize() (float64, float64) {
	dx := g.Transform[1]
	dy := g.Transform[5]
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx, dy
}

// axisAligned reports whether the rotation terms of the transform are zero.
func (g Grid) axisAligned() bool {
	return g.Transform[2] == 0 && g.Transform[4] == 0
}

// PixelToWorld converts a pixel coordinate to world coordinates through the
// affine transform. Passing the pixel center (col+0.5, row+0.5) yields the
// center of the cell.
func (g Grid) PixelToWorld(col, row float64) (x, y float64) {
	t := g.Transform
	x = t[0] + t[1]*col + t[2]*row
	y = t[3] + t[4]*col + t[5]*row
	return x, y
}

// Bounds returns the extent of the grid in CRS units.
func (g Grid) Bounds() (xmin, ymin, xmax, ymax float64) {
	corners := [4][2]float64{}
	corners[0][0], corners[0][1] = g.PixelToWorld(0, 0)
	corners[1][0], corners[1][1] = g.PixelToWorld(float64(g.Width), 0)
	corners[2][0], corners[2][1] = g.PixelToWorld(0, float64(g.Height))
	corners[3][0], corners[3][1] = g.PixelToWorld(float64(g.Width), float64(g.Height))

	xmin, ymin = corners[0][0], corners[0][1]
	xmax, ymax = xmin, ymin
	for _, c := range corners[1:] {
		if c[0] < xmin {
			xmin = c[0]
		}
		if c[0] > xmax {
			xmax = c[0]
		}
		if c[1] < ymin {
			ymin = c[1]
		}
		if c[1] > ymax {
			ymax = c[1]
		}
	}
	return xmin, ymin, xmax, ymax
}

// Footprint returns the grid extent as a closed polygon ring, in grid CRS
// coordinates, suitable for GeoJSON export.
func (g Grid) Footprint() orb.Polygon {
	ulx, uly := g.PixelToWorld(0, 0)
	urx, ury := g.PixelToWorld(float64(g.Width), 0)
	lrx, lry := g.PixelToWorld(float64(g.Width), float64(g.Height))
	llx, lly := g.PixelToWorld(0, float64(g.Height))
	return orb.Polygon{orb.Ring{
		{ulx, uly}, {urx, ury}, {lrx, lry}, {llx, lly}, {ulx, uly},
	}}
}
