package raster

import (
	"context"
	"fmt"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
)

// Clip masks every pixel whose centre lies outside region.
func Clip(ctx context.Context, s *Scene, region *geo.Region, workers int) (*Scene, error) {
	r, err := region.To(s.Grid.CRS)
	if err != nil {
		return nil, fmt.Errorf("while clipping scene %s: %w", s.ID, err)
	}
	mask := make([]bool, s.Grid.Len())
	err = ForEachTile(ctx, s.Grid, workers, func(_ context.Context, _ int, t Tile) error {
		for row := t.Row0; row < t.Row1; row++ {
			for col := 0; col < s.Grid.Cols; col++ {
				i := s.Grid.Index(col, row)
				if !s.valid[i] {
					continue
				}
				x, y := s.Grid.Center(col, row)
				mask[i] = r.Contains(x, y)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.WithMask(mask), nil
}
