// Package raster holds co-registered band stacks over a fixed grid and the
// tile-parallel primitives the model stages are built from.
package raster

import (
	"math"

	"github.com/ctessum/geom"
)

// Grid describes the pixel lattice shared by all bands of a scene.
type Grid struct {
	Cols int
	Rows int
	// GeoTransform uses the GDAL layout: x0, pixel width, row rotation,
	// y0, column rotation, pixel height (negative for north-up).
	GeoTransform [6]float64
	CRS          string
}

// NewGrid builds a north-up grid whose upper-left corner is (x0, y0).
func NewGrid(crs string, x0, y0, scale float64, cols, rows int) Grid {
	return Grid{
		Cols:         cols,
		Rows:         rows,
		GeoTransform: [6]float64{x0, scale, 0, y0, 0, -scale},
		CRS:          crs,
	}
}

// Len is the number of pixels.
func (g Grid) Len() int { return g.Cols * g.Rows }

// Index returns the flat index of a pixel.
func (g Grid) Index(col, row int) int { return row*g.Cols + col }

// Scale returns the pixel width in CRS units.
func (g Grid) Scale() float64 { return math.Abs(g.GeoTransform[1]) }

// Center returns the map coordinates of a pixel centre.
func (g Grid) Center(col, row int) (x, y float64) {
	gt := g.GeoTransform
	c, r := float64(col)+0.5, float64(row)+0.5
	return gt[0] + c*gt[1] + r*gt[2], gt[3] + c*gt[4] + r*gt[5]
}

// Pixel returns the pixel containing a map coordinate on a north-up grid.
func (g Grid) Pixel(x, y float64) (col, row int, ok bool) {
	gt := g.GeoTransform
	if gt[1] == 0 || gt[5] == 0 {
		return 0, 0, false
	}
	c := math.Floor((x - gt[0]) / gt[1])
	r := math.Floor((y - gt[3]) / gt[5])
	if c < 0 || r < 0 || c >= float64(g.Cols) || r >= float64(g.Rows) {
		return 0, 0, false
	}
	return int(c), int(r), true
}

// Bounds returns the outer extent of the grid.
func (g Grid) Bounds() *geom.Bounds {
	gt := g.GeoTransform
	x1 := gt[0] + float64(g.Cols)*gt[1]
	y1 := gt[3] + float64(g.Rows)*gt[5]
	return &geom.Bounds{
		Min: geom.Point{X: math.Min(gt[0], x1), Y: math.Min(gt[3], y1)},
		Max: geom.Point{X: math.Max(gt[0], x1), Y: math.Max(gt[3], y1)},
	}
}

// Window returns the sub-grid covering the pixel range [col0, col1) x [row0, row1).
func (g Grid) Window(col0, row0, col1, row1 int) Grid {
	gt := g.GeoTransform
	w := g
	w.Cols = col1 - col0
	w.Rows = row1 - row0
	w.GeoTransform[0] = gt[0] + float64(col0)*gt[1] + float64(row0)*gt[2]
	w.GeoTransform[3] = gt[3] + float64(col0)*gt[4] + float64(row0)*gt[5]
	return w
}

// WindowFor returns the pixel range intersecting b, clamped to the grid.
// ok is false when nothing intersects.
func (g Grid) WindowFor(b *geom.Bounds) (col0, row0, col1, row1 int, ok bool) {
	gt := g.GeoTransform
	if gt[1] == 0 || gt[5] == 0 {
		return 0, 0, 0, 0, false
	}
	ca := (b.Min.X - gt[0]) / gt[1]
	cb := (b.Max.X - gt[0]) / gt[1]
	ra := (b.Min.Y - gt[3]) / gt[5]
	rb := (b.Max.Y - gt[3]) / gt[5]

	col0 = clampInt(int(math.Floor(math.Min(ca, cb))), 0, g.Cols)
	col1 = clampInt(int(math.Ceil(math.Max(ca, cb))), 0, g.Cols)
	row0 = clampInt(int(math.Floor(math.Min(ra, rb))), 0, g.Rows)
	row1 = clampInt(int(math.Ceil(math.Max(ra, rb))), 0, g.Rows)
	return col0, row0, col1, row1, col1 > col0 && row1 > row0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
