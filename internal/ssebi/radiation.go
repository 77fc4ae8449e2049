package ssebi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/forcing"
	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/solar"
)

// clearSkyTolerance bounds the daily shortwave sum relative to the clear-sky
// energy before a warning is logged.
const clearSkyTolerance = 1.2

// NetRadiationInstant is RnI = SW↓(1−α) + (LW↓·ε − LW↑), all in W/m².
func NetRadiationInstant(swDown, lwDown, albedo, emissivity, emitted float64) float64 {
	return swDown*(1-albedo) + (lwDown*emissivity - emitted)
}

// NetRadiationDaily is RnD in J/m². The net shortwave is attenuated by
// (1−α) twice and the reanalysis daily longwave is already net.
func NetRadiationDaily(swDown, lwNet, albedo float64) float64 {
	swNet := swDown * (1 - albedo)
	return swNet*(1-albedo) + lwNet
}

// Align attaches the reanalysis radiation matching the scene's acquisition
// and the instantaneous and daily net radiation. It also returns the sun
// position at the scene centre.
func (p *Pipeline) Align(ctx context.Context, s *raster.Scene) (*raster.Scene, solar.Position, error) {
	toWGS, err := geo.NewTransform(s.Grid.CRS, geo.WGS84)
	if err != nil {
		return nil, solar.Position{}, err
	}
	b := s.Grid.Bounds()
	footprint, err := geo.Rectangle(s.Grid.CRS, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y).To(geo.WGS84)
	if err != nil {
		return nil, solar.Position{}, err
	}
	lonlat := footprint.Bounds()

	// The daily record follows the hourly one when rounding rolls into the
	// next day.
	day, hour := forcing.AcquisitionHour(s.Acquired)
	hourly, err := p.forcing.Hourly(ctx, day, hour, lonlat)
	if err != nil {
		return nil, solar.Position{}, forcingError(err)
	}
	daily, err := p.forcing.Daily(ctx, day, lonlat)
	if err != nil {
		return nil, solar.Position{}, forcingError(err)
	}

	cx, cy := (lonlat.Min.X+lonlat.Max.X)/2, (lonlat.Min.Y+lonlat.Max.Y)/2
	sun := solar.Compute(cy, cx, s.Acquired, solar.DefaultTurbidity)
	if !sun.AboveHorizon() {
		p.logger.Warnw("sun below the horizon at acquisition, daily upscaling is undefined",
			"scene", s.ID, "elevation", sun.ElevationDeg)
	}
	p.logger.Debugw("forcing records selected", "scene", s.ID, "day", day, "hour", hour,
		"elevation", sun.ElevationDeg)

	// A daily sum well above the clear-sky energy usually means the file holds
	// a different accumulation than expected.
	if sw, _, ok := daily.Nearest(cx, cy); ok {
		clear := solar.ClearSkyEnergy(cy, cx, day, day.Add(24*time.Hour), 10*time.Minute)
		if clear > 0 && sw > clearSkyTolerance*clear {
			p.logger.Warnw("daily shortwave exceeds the clear-sky energy", "scene", s.ID,
				"shortwave", sw, "clearSky", clear)
		}
	}

	names := []string{BandShortwaveDownI, BandLongwaveDownI, BandShortwaveDownD, BandLongwaveDownD}
	down := make([]*raster.Band, len(names))
	for i, n := range names {
		down[i] = raster.NewBand(n, s.Grid)
	}
	matched := make([]int, len(raster.Tiles(s.Grid)))
	err = raster.ForEachTile(ctx, s.Grid, p.workers, func(_ context.Context, idx int, t raster.Tile) error {
		for row := t.Row0; row < t.Row1; row++ {
			for col := 0; col < s.Grid.Cols; col++ {
				i := s.Grid.Index(col, row)
				if !s.Valid(i) {
					continue
				}
				lon, lat, err := toWGS(s.Grid.Center(col, row))
				if err != nil {
					return err
				}
				swI, lwI, okI := hourly.Nearest(lon, lat)
				swD, lwD, okD := daily.Nearest(lon, lat)
				if !okI || !okD {
					continue
				}
				down[0].Data.Elements[i] = swI / constants.SecondsPerHour
				down[1].Data.Elements[i] = lwI / constants.SecondsPerHour
				down[2].Data.Elements[i] = swD
				down[3].Data.Elements[i] = lwD
				matched[idx]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, sun, err
	}
	total := 0
	for _, n := range matched {
		total += n
	}
	if total == 0 {
		return nil, sun, fmt.Errorf("%w: scene %s lies outside the reanalysis grid", ErrForcingUnavailable, s.ID)
	}

	if s, err = s.With(down...); err != nil {
		return nil, sun, err
	}
	inputs := []string{BandAlbedo, BandEmissivity, BandLongwaveEmitted,
		BandShortwaveDownI, BandLongwaveDownI, BandShortwaveDownD, BandLongwaveDownD}
	s, err = raster.MapInto(ctx, s, p.workers, inputs, []string{BandRnI, BandRnD}, func(in, out []float64) {
		albedo, emiss, emitted := in[0], in[1], in[2]
		out[0] = NetRadiationInstant(in[3], in[4], albedo, emiss, emitted)
		out[1] = NetRadiationDaily(in[5], in[6], albedo)
	})
	if err != nil {
		return nil, sun, err
	}
	return s, sun, nil
}

func forcingError(err error) error {
	if errors.Is(err, forcing.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrForcingUnavailable, err)
	}
	return err
}
