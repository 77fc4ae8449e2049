// Package ssebi implements the Simplified Surface Energy Balance Index model:
// a Landsat scene is masked and converted to physical bands, combined with
// reanalysis radiation, and split into soil, sensible and latent heat using
// the dry and wet edges of the albedo/temperature scatter.
package ssebi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/forcing"
	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/landsat"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/sensor"
	"github.com/jpkabala96/geeSSEBI/internal/solar"
)

// Catalog finds and loads raw scenes.
type Catalog interface {
	Find(ctx context.Context, c sensor.Coefficients, start, end time.Time, region *geo.Region) ([]landsat.Product, error)
	Load(ctx context.Context, p landsat.Product, c sensor.Coefficients, region *geo.Region) (*raster.Scene, error)
}

// Params are the caller-supplied model parameters of one run.
type Params struct {
	RadiationThreshold float64 `json:"rt" msgpack:"rt"`
	MoistureThreshold  float64 `json:"mt" msgpack:"mt"`
	CRS                string  `json:"crs" msgpack:"crs"`
	Scale              float64 `json:"scale" msgpack:"scale"`
}

// DefaultParams returns the parameters used when the caller sets none.
func DefaultParams() Params {
	return Params{
		RadiationThreshold: constants.DefaultRadiationThreshold,
		MoistureThreshold:  constants.DefaultMoistureThreshold,
		CRS:                constants.DefaultCRS,
		Scale:              constants.DefaultScale,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.CRS == "" {
		p.CRS = d.CRS
	}
	if p.Scale <= 0 {
		p.Scale = d.Scale
	}
	return p
}

// Model is the outcome of RunModel.
type Model struct {
	Scene   *raster.Scene
	Low     Line
	High    Line
	Samples []EdgeSample
	Sun     solar.Position
}

// Pipeline runs the model against a scene catalog and a forcing source.
type Pipeline struct {
	catalog Catalog
	forcing forcing.Source
	logger  *zap.SugaredLogger
	workers int
}

// New creates a pipeline. workers ≤ 0 uses GOMAXPROCS.
func New(catalog Catalog, source forcing.Source, logger *zap.SugaredLogger, workers int) *Pipeline {
	return &Pipeline{catalog: catalog, forcing: source, logger: logger, workers: raster.Workers(workers)}
}

func checkRegion(region *geo.Region) error {
	if region == nil {
		return ErrEmptyRegion
	}
	return region.Validate()
}

// Preprocess picks the first scene of the sensor acquired in [start, end)
// over region that keeps at least one valid pixel, and derives its physical
// bands clipped to region.
func (p *Pipeline) Preprocess(ctx context.Context, sensorName string, start, end time.Time, region *geo.Region) (*raster.Scene, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	coeffs, err := sensor.Lookup(sensorName)
	if err != nil {
		return nil, err
	}

	products, err := p.catalog.Find(ctx, coeffs, start, end, region)
	if err != nil {
		return nil, err
	}
	for _, prod := range products {
		raw, err := p.catalog.Load(ctx, prod, coeffs, region)
		if errors.Is(err, landsat.ErrNoOverlap) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if raw, err = raster.Clip(ctx, raw, region, p.workers); err != nil {
			return nil, err
		}
		scene, err := PrepareScene(ctx, raw, coeffs, p.workers)
		if err != nil {
			return nil, err
		}
		if n := scene.ValidCount(); n > 0 {
			p.logger.Debugw("scene preprocessed", "sensor", coeffs.ID, "scene", scene.ID, "valid", n)
			return scene, nil
		}
		p.logger.Debugw("scene has no valid pixel after masking", "sensor", coeffs.ID, "scene", prod.ID)
	}
	return nil, fmt.Errorf("%w: sensor %s between %s and %s (%d candidates)", ErrNoSceneFound,
		coeffs.ID, start.Format(time.DateOnly), end.Format(time.DateOnly), len(products))
}

// RunModel resamples a preprocessed scene to the model grid, aligns the
// forcing, fits both edges and partitions the energy. Any failure aborts
// the run without a partial result.
func (p *Pipeline) RunModel(ctx context.Context, scene *raster.Scene, region *geo.Region, params Params) (*Model, error) {
	if err := checkRegion(region); err != nil {
		return nil, err
	}
	params = params.withDefaults()

	s, err := raster.Reproject(ctx, scene, params.CRS, params.Scale, p.workers)
	if err != nil {
		return nil, err
	}
	if s, err = raster.Clip(ctx, s, region, p.workers); err != nil {
		return nil, err
	}

	s, sun, err := p.Align(ctx, s)
	if err != nil {
		return nil, err
	}

	samples, err := EdgeSamples(ctx, s, p.workers)
	if err != nil {
		return nil, err
	}
	low, high, err := FitEdges(samples, params.RadiationThreshold, params.MoistureThreshold)
	if err != nil {
		return nil, err
	}
	p.logger.Debugw("edges fitted", "scene", s.ID, "classes", len(samples),
		"lowSlope", low.Slope, "lowIntercept", low.Intercept,
		"highSlope", high.Slope, "highIntercept", high.Intercept)

	if s, err = PartitionScene(ctx, s, low, high, p.workers); err != nil {
		return nil, err
	}
	seconds := float64(s.Acquired.UnixMilli()) / 1000
	if s, err = s.With(raster.ConstantBand(BandDateSeconds, s.Grid, seconds)); err != nil {
		return nil, err
	}

	return &Model{Scene: s, Low: low, High: high, Samples: samples, Sun: sun}, nil
}

// SelectOutput restricts a model scene to OutputBands.
func SelectOutput(s *raster.Scene) (*raster.Scene, error) {
	return s.Select(OutputBands...)
}

// Request describes a complete run.
type Request struct {
	Sensor string
	Start  time.Time
	End    time.Time
	Region *geo.Region
	Params Params
}

// Result is a finished run.
type Result struct {
	*Model
	Output *raster.Scene
}

// Run validates the region, then chains Preprocess, RunModel and
// SelectOutput.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := checkRegion(req.Region); err != nil {
		return nil, err
	}
	started := time.Now()

	scene, err := p.Preprocess(ctx, req.Sensor, req.Start, req.End, req.Region)
	if err != nil {
		return nil, err
	}
	m, err := p.RunModel(ctx, scene, req.Region, req.Params)
	if err != nil {
		return nil, err
	}
	out, err := SelectOutput(m.Scene)
	if err != nil {
		return nil, err
	}

	p.logger.Infow("run complete", "sensor", req.Sensor, "scene", scene.ID,
		"valid", out.ValidCount(), "elapsed", time.Since(started))
	return &Result{Model: m, Output: out}, nil
}
