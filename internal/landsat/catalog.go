package landsat

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/sensor"
)

// ErrNoOverlap is returned by Load when the region misses the product grid.
var ErrNoOverlap = errors.New("region does not overlap the product")

// Catalog indexes the products found below a directory.
type Catalog struct {
	dir           string
	maxCloudCover float64
	workers       int
	logger        *zap.SugaredLogger
}

// NewCatalog creates a catalog over dir. Products whose cloud cover exceeds
// maxCloudCover percent are never returned; values ≤ 0 disable the filter.
func NewCatalog(dir string, maxCloudCover float64, workers int, logger *zap.SugaredLogger) *Catalog {
	return &Catalog{dir: dir, maxCloudCover: maxCloudCover, workers: workers, logger: logger}
}

// Products lists every product below the catalog directory.
func (c *Catalog) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), "_MTL.json") {
			return nil
		}
		p, err := ParseMTL(path)
		if err != nil {
			c.logger.Warnf("skipping unreadable product metadata: %v", err)
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning catalog %s: %w", c.dir, err)
	}
	return out, nil
}

// Find returns the products of the sensor acquired in [start, end) whose
// footprint intersects region, in acquisition order.
func (c *Catalog) Find(ctx context.Context, coeffs sensor.Coefficients, start, end time.Time, region *geo.Region) ([]Product, error) {
	wgs, err := region.To(geo.WGS84)
	if err != nil {
		return nil, err
	}
	rb := wgs.Bounds()

	all, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range all {
		switch {
		case p.Spacecraft != coeffs.Spacecraft:
		case p.Acquired.Before(start) || !p.Acquired.Before(end):
		case c.maxCloudCover > 0 && p.CloudCover > c.maxCloudCover:
		case !geo.Overlaps(p.Footprint, rb):
		default:
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Acquired.Equal(out[j].Acquired) {
			return out[i].ID < out[j].ID
		}
		return out[i].Acquired.Before(out[j].Acquired)
	})
	c.logger.Debugw("catalog search", "sensor", coeffs.ID, "start", start, "end", end,
		"scanned", len(all), "matched", len(out))
	return out, nil
}

// Grid returns the full product grid. The metadata corners are pixel centres.
func (p Product) Grid() raster.Grid {
	half := p.CellSize / 2
	return raster.NewGrid(p.CRS, p.ULX-half, p.ULY+half, p.CellSize, p.Samples, p.Lines)
}

// Load reads the raw digital numbers of the sensor's bands over the window
// of the product grid covering region.
func (c *Catalog) Load(ctx context.Context, p Product, coeffs sensor.Coefficients, region *geo.Region) (*raster.Scene, error) {
	local, err := region.To(p.CRS)
	if err != nil {
		return nil, err
	}
	full := p.Grid()
	col0, row0, col1, row1, ok := full.WindowFor(local.Bounds())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOverlap, p.ID)
	}
	win := full.Window(col0, row0, col1, row1)

	names := coeffs.RawBands()
	bands := make([]*raster.Band, len(names))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(raster.Workers(c.workers))
	for i, name := range names {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, ok := p.File(name)
			if !ok {
				return fmt.Errorf("product %s has no %s band", p.ID, name)
			}
			b, err := readBand(path, name, full, image.Rect(col0, row0, col1, row1), win)
			if err != nil {
				return err
			}
			bands[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debugw("scene loaded", "scene", p.ID, "cols", win.Cols, "rows", win.Rows)
	return raster.NewScene(p.ID, string(coeffs.ID), p.Acquired, win).With(bands...)
}

// readBand decodes a single-channel GeoTIFF and copies the window into a band.
func readBand(path, name string, full raster.Grid, window image.Rectangle, win raster.Grid) (*raster.Band, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	size := img.Bounds().Size()
	if size.X != full.Cols || size.Y != full.Rows {
		return nil, fmt.Errorf("%s is %dx%d, metadata says %dx%d", path, size.X, size.Y, full.Cols, full.Rows)
	}

	b := raster.NewBand(name, win)
	origin := img.Bounds().Min
	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			b.Data.Elements[win.Index(x-window.Min.X, y-window.Min.Y)] = sample(img, origin.X+x, origin.Y+y)
		}
	}
	return b, nil
}

func sample(img image.Image, x, y int) float64 {
	switch m := img.(type) {
	case *image.Gray16:
		return float64(m.Gray16At(x, y).Y)
	case *image.Gray:
		return float64(m.GrayAt(x, y).Y)
	default:
		return float64(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
	}
}
