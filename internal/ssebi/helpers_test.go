package ssebi

import (
	"context"
	"time"

	"github.com/ctessum/geom"

	"github.com/jpkabala96/geeSSEBI/internal/forcing"
	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/landsat"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/sensor"
)

const epsilon = 1e-9

var acquired = time.Date(2022, 7, 14, 10, 12, 0, 0, time.UTC)

// fakeCatalog serves in-memory raw scenes.
type fakeCatalog struct {
	products []landsat.Product
	scenes   map[string]*raster.Scene
	calls    int
}

func (c *fakeCatalog) Find(_ context.Context, _ sensor.Coefficients, start, end time.Time, _ *geo.Region) ([]landsat.Product, error) {
	c.calls++
	var out []landsat.Product
	for _, p := range c.products {
		if !p.Acquired.Before(start) && p.Acquired.Before(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *fakeCatalog) Load(_ context.Context, p landsat.Product, _ sensor.Coefficients, _ *geo.Region) (*raster.Scene, error) {
	c.calls++
	return c.scenes[p.ID], nil
}

func (c *fakeCatalog) add(s *raster.Scene) {
	if c.scenes == nil {
		c.scenes = make(map[string]*raster.Scene)
	}
	c.products = append(c.products, landsat.Product{ID: s.ID, Acquired: s.Acquired})
	c.scenes[s.ID] = s
}

// pixel describes one raw pixel by its surface reflectances and temperature.
type pixel struct {
	sr     map[string]float64 // missing bands default to 0.1
	lst    float64
	qa     float64
	radsat float64
}

func reflectanceDN(c sensor.Coefficients, r float64) float64 {
	return (r - c.ReflectanceOffset) / c.ReflectanceScale
}

func thermalDN(c sensor.Coefficients, t float64) float64 {
	return (t - c.ThermalOffset) / c.ThermalScale
}

// rawScene builds a UTM 32N scene at 100 m whose upper-left corner is
// (500000, 5000200); pixels fill it row by row.
func rawScene(id string, c sensor.Coefficients, cols int, pixels []pixel) *raster.Scene {
	rows := (len(pixels) + cols - 1) / cols
	g := raster.NewGrid(geo.UTMNorth(32), 500000, 5000000+100*float64(rows), 100, cols, rows)
	s := raster.NewScene(id, string(c.ID), acquired, g)

	bands := make(map[string]*raster.Band)
	for _, name := range c.RawBands() {
		bands[name] = raster.NewBand(name, g)
	}
	for i, p := range pixels {
		for _, name := range c.ReflectanceBands {
			r, ok := p.sr[name]
			if !ok {
				r = 0.1
			}
			bands[name].Data.Elements[i] = reflectanceDN(c, r)
		}
		bands[c.ThermalBand].Data.Elements[i] = thermalDN(c, p.lst)
		bands[sensor.QAPixel].Data.Elements[i] = p.qa
		bands[sensor.QARadSat].Data.Elements[i] = p.radsat
	}
	for _, name := range c.RawBands() {
		s, _ = s.With(bands[name])
	}
	return s
}

// modelScene builds a preprocessed-like scene from explicit band values.
func modelScene(cols int, values map[string][]float64) *raster.Scene {
	var n int
	for _, v := range values {
		n = len(v)
	}
	rows := (n + cols - 1) / cols
	g := raster.NewGrid(geo.UTMNorth(32), 500000, 5000000+100*float64(rows), 100, cols, rows)
	s := raster.NewScene("synthetic", "L8", acquired, g)
	for name, v := range values {
		b := raster.NewBand(name, g)
		copy(b.Data.Elements, v)
		s, _ = s.With(b)
	}
	return s
}

func testRegion() *geo.Region {
	return geo.Rectangle(geo.UTMNorth(32), 499900, 4999900, 500900, 5000900)
}

var forcingBounds = &geom.Bounds{Min: geom.Point{X: 8.9, Y: 45.0}, Max: geom.Point{X: 9.1, Y: 45.3}}

const (
	hourlySW = 3.6e6 // 1000 W/m²
	hourlyLW = 1.26e6
	dailySW  = 2.7e7
	dailyLW  = -5e6
)

func testForcing() *forcing.MemorySource {
	return forcing.NewMemorySource(
		forcing.Uniform(forcing.Hourly, time.Date(2022, 7, 14, 10, 0, 0, 0, time.UTC), forcingBounds, hourlySW, hourlyLW),
		forcing.Uniform(forcing.Daily, time.Date(2022, 7, 14, 0, 0, 0, 0, time.UTC), forcingBounds, dailySW, dailyLW),
	)
}

func newTestPipeline(c Catalog, src forcing.Source) *Pipeline {
	return New(c, src, log.Nop(), 2)
}
