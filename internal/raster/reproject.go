package raster

import (
	"context"
	"fmt"
	"math"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
)

// Reproject resamples s onto a north-up grid in crs with square pixels of
// size scale, using the nearest source pixel. A scene already on such a grid
// is returned unchanged.
func Reproject(ctx context.Context, s *Scene, crs string, scale float64, workers int) (*Scene, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}
	gt := s.Grid.GeoTransform
	if geo.SameCRS(s.Grid.CRS, crs) && gt[2] == 0 && gt[4] == 0 &&
		math.Abs(gt[1]-scale) < 1e-9 && math.Abs(gt[5]+scale) < 1e-9 {
		return s, nil
	}

	fwd, err := geo.NewTransform(s.Grid.CRS, crs)
	if err != nil {
		return nil, err
	}
	inv, err := geo.NewTransform(crs, s.Grid.CRS)
	if err != nil {
		return nil, err
	}

	// Project the source outline; sampling the edges keeps curved
	// boundaries inside the target extent.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	b := s.Grid.Bounds()
	const steps = 16
	for k := 0; k <= steps; k++ {
		f := float64(k) / steps
		edge := [][2]float64{
			{b.Min.X + f*(b.Max.X-b.Min.X), b.Min.Y},
			{b.Min.X + f*(b.Max.X-b.Min.X), b.Max.Y},
			{b.Min.X, b.Min.Y + f*(b.Max.Y-b.Min.Y)},
			{b.Max.X, b.Min.Y + f*(b.Max.Y-b.Min.Y)},
		}
		for _, p := range edge {
			x, y, err := fwd(p[0], p[1])
			if err != nil {
				return nil, fmt.Errorf("while reprojecting scene %s: %w", s.ID, err)
			}
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}

	x0 := math.Floor(minX/scale) * scale
	y0 := math.Ceil(maxY/scale) * scale
	cols := int(math.Ceil((maxX - x0) / scale))
	rows := int(math.Ceil((y0 - minY) / scale))
	target := NewGrid(crs, x0, y0, scale, cols, rows)

	// Source index per target pixel, -1 when outside.
	lookup := make([]int, target.Len())
	err = ForEachTile(ctx, target, workers, func(_ context.Context, _ int, t Tile) error {
		for row := t.Row0; row < t.Row1; row++ {
			for col := 0; col < target.Cols; col++ {
				i := target.Index(col, row)
				lookup[i] = -1
				x, y := target.Center(col, row)
				sx, sy, err := inv(x, y)
				if err != nil {
					continue
				}
				if c, r, ok := s.Grid.Pixel(sx, sy); ok {
					lookup[i] = s.Grid.Index(c, r)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := NewScene(s.ID, s.Sensor, s.Acquired, target)
	for i, j := range lookup {
		out.valid[i] = j >= 0 && s.valid[j]
	}
	for _, name := range s.order {
		src := s.bands[name]
		dst := NewBand(name, target)
		for i, j := range lookup {
			if j >= 0 {
				dst.Data.Elements[i] = src.Data.Elements[j]
			}
		}
		out.bands[name] = dst
		out.order = append(out.order, name)
	}
	return out, nil
}
