// Package export writes model scenes as georeferenced rasters.
package export

import (
	"fmt"
	"math"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
)

// Options controls GeoTIFF creation.
type Options struct {
	// CreationOptions are passed to the GTiff driver, e.g. "COMPRESS=DEFLATE".
	CreationOptions []string
}

// DefaultOptions produce a tiled, deflate-compressed file.
func DefaultOptions() Options {
	return Options{CreationOptions: []string{"TILED=YES", "COMPRESS=DEFLATE", "PREDICTOR=3"}}
}

var registerOnce sync.Once

// WriteGeoTIFF writes every band of s, in scene order, as a Float32 GeoTIFF.
// Masked and missing pixels are NaN, which is also the declared no-data value.
func WriteGeoTIFF(path string, s *raster.Scene, opts Options) error {
	registerOnce.Do(godal.RegisterAll)

	names := s.BandNames()
	if len(names) == 0 {
		return fmt.Errorf("scene %s has no bands to export", s.ID)
	}
	code, err := geo.EPSGCode(s.Grid.CRS)
	if err != nil {
		return err
	}

	var createOpts []godal.DatasetCreateOption
	if len(opts.CreationOptions) > 0 {
		createOpts = append(createOpts, godal.CreationOption(opts.CreationOptions...))
	}
	ds, err := godal.Create(godal.GTiff, path, len(names), godal.Float32, s.Grid.Cols, s.Grid.Rows, createOpts...)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}

	if err := writeDataset(ds, s, names, code); err != nil {
		ds.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", path, err)
	}
	return nil
}

func writeDataset(ds *godal.Dataset, s *raster.Scene, names []string, epsg int) error {
	if err := ds.SetGeoTransform(s.Grid.GeoTransform); err != nil {
		return err
	}
	sr, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return err
	}

	bands := ds.Bands()
	buf := make([]float32, s.Grid.Len())
	for k, name := range names {
		b, err := s.Band(name)
		if err != nil {
			return err
		}
		for i := range buf {
			v := b.At(i)
			if !s.Valid(i) {
				v = math.NaN()
			}
			buf[i] = float32(v)
		}
		if err := bands[k].Write(0, 0, buf, s.Grid.Cols, s.Grid.Rows); err != nil {
			return fmt.Errorf("band %s: %w", name, err)
		}
		if err := bands[k].SetNoData(math.NaN()); err != nil {
			return err
		}
		if err := bands[k].SetDescription(name); err != nil {
			return err
		}
	}
	return nil
}
