package raster

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileRows is the height of the row strips pixels are processed in.
const TileRows = 64

// Tile is a strip of whole rows [Row0, Row1).
type Tile struct {
	Row0, Row1 int
}

// Tiles splits a grid into row strips.
func Tiles(g Grid) []Tile {
	var out []Tile
	for r := 0; r < g.Rows; r += TileRows {
		end := r + TileRows
		if end > g.Rows {
			end = g.Rows
		}
		out = append(out, Tile{Row0: r, Row1: end})
	}
	return out
}

// Workers normalises a worker count; zero or negative means GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ForEachTile runs fn for every tile of g on at most workers goroutines. The
// first error cancels the remaining tiles.
func ForEachTile(ctx context.Context, g Grid, workers int, fn func(ctx context.Context, idx int, t Tile) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(Workers(workers))
	for i, t := range Tiles(g) {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i, t)
		})
	}
	return eg.Wait()
}

// PixelFunc computes the values of one pixel. in holds the pixel's values of
// the input bands in the order they were requested; results go to out in the
// order of the output names.
type PixelFunc func(in, out []float64)

// Map evaluates fn over every valid pixel and returns one new band per output
// name. Masked pixels are left as NaN.
func Map(ctx context.Context, s *Scene, workers int, inputs, outputs []string, fn PixelFunc) ([]*Band, error) {
	src, err := s.Bands(inputs...)
	if err != nil {
		return nil, err
	}
	dst := make([]*Band, len(outputs))
	for i, name := range outputs {
		dst[i] = NewBand(name, s.Grid)
	}

	err = ForEachTile(ctx, s.Grid, workers, func(_ context.Context, _ int, t Tile) error {
		in := make([]float64, len(src))
		out := make([]float64, len(dst))
		for i := t.Row0 * s.Grid.Cols; i < t.Row1*s.Grid.Cols; i++ {
			if !s.valid[i] {
				continue
			}
			for k, b := range src {
				in[k] = b.Data.Elements[i]
			}
			fn(in, out)
			for k, b := range dst {
				b.Data.Elements[i] = out[k]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// MapInto is Map followed by With.
func MapInto(ctx context.Context, s *Scene, workers int, inputs, outputs []string, fn PixelFunc) (*Scene, error) {
	bands, err := Map(ctx, s, workers, inputs, outputs, fn)
	if err != nil {
		return nil, err
	}
	return s.With(bands...)
}

// Filter narrows the mask of s to the valid pixels for which keep returns
// true. keep receives the pixel's values of the input bands.
func Filter(ctx context.Context, s *Scene, workers int, inputs []string, keep func(in []float64) bool) (*Scene, error) {
	src, err := s.Bands(inputs...)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, s.Grid.Len())
	err = ForEachTile(ctx, s.Grid, workers, func(_ context.Context, _ int, t Tile) error {
		in := make([]float64, len(src))
		for i := t.Row0 * s.Grid.Cols; i < t.Row1*s.Grid.Cols; i++ {
			if !s.valid[i] {
				continue
			}
			for k, b := range src {
				in[k] = b.Data.Elements[i]
			}
			mask[i] = keep(in)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.WithMask(mask), nil
}
