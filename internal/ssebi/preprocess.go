package ssebi

import (
	"context"
	"fmt"
	"math"

	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
	"github.com/jpkabala96/geeSSEBI/internal/sensor"
)

// Rectify evaluates x·(x>0)·(x<1) + (x>1) with comparisons as 0/1. Values
// in (0,1) pass, values above 1 become 1, everything else becomes 0,
// including exactly 1. NaN and ±Inf yield NaN.
func Rectify(x float64) float64 {
	return x*b2f(x > 0)*b2f(x < 1) + b2f(x > 1)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// FractionalCover is ((NDVI−0.2)/0.6)² capped at 1 and forced to 0 below
// the bare-soil NDVI.
func FractionalCover(ndvi float64) float64 {
	fc := (ndvi - constants.NDVISoil) / constants.NDVISpan
	fc *= fc
	if fc > 1 {
		fc = 1
	}
	if ndvi < constants.NDVISoil {
		fc = 0
	}
	return fc
}

// Emissivity mixes soil and canopy emissivity by fractional cover.
func Emissivity(fc float64) float64 {
	return constants.EmissivitySoil*(1-fc) + constants.EmissivityVegetation*fc
}

// AlbedoClass discretises albedo into percent bins.
func AlbedoClass(albedo float64) float64 {
	return math.Round(albedo * constants.AlbedoBin)
}

// EmittedLongwave is ε·σ·T⁴ in W/m².
func EmittedLongwave(emissivity, lst float64) float64 {
	t2 := lst * lst
	return emissivity * t2 * t2 * constants.StefanBoltzmann
}

// PrepareScene masks a raw digital-number scene and derives the physical
// bands. The result holds only PreprocessedBands.
func PrepareScene(ctx context.Context, raw *raster.Scene, c sensor.Coefficients, workers int) (*raster.Scene, error) {
	s, err := qualityMask(ctx, raw, c, workers)
	if err != nil {
		return nil, err
	}
	if s, err = waterMask(ctx, s, c, workers); err != nil {
		return nil, err
	}

	inputs := append(append([]string(nil), c.ReflectanceBands...), c.ThermalBand)
	pos := make(map[string]int, len(inputs))
	for i, n := range inputs {
		pos[n] = i
	}
	red, nir, thermal := pos[c.Red], pos[c.NIR], pos[c.ThermalBand]
	weights := make([]struct {
		idx    int
		factor float64
	}, len(c.Albedo))
	for i, w := range c.Albedo {
		idx, ok := pos[w.Band]
		if !ok {
			return nil, fmt.Errorf("albedo band %s is not a reflectance band of %s", w.Band, c.ID)
		}
		weights[i].idx, weights[i].factor = idx, w.Factor
	}
	sr := func(dn float64) float64 { return dn*c.ReflectanceScale + c.ReflectanceOffset }

	s, err = raster.MapInto(ctx, s, workers, inputs, PreprocessedBands, func(in, out []float64) {
		r, n := sr(in[red]), sr(in[nir])
		ndvi := Rectify((n - r) / (n + r))
		fc := FractionalCover(ndvi)

		albedo := c.AlbedoConstant
		for _, w := range weights {
			albedo += w.factor * sr(in[w.idx])
		}
		albedo = Rectify(albedo)

		emiss := Emissivity(fc)
		lst := in[thermal]*c.ThermalScale + c.ThermalOffset

		out[0] = albedo
		out[1] = ndvi
		out[2] = fc
		out[3] = emiss
		out[4] = lst
		out[5] = AlbedoClass(albedo)
		out[6] = EmittedLongwave(emiss, lst)
	})
	if err != nil {
		return nil, fmt.Errorf("while deriving physical bands of %s: %w", raw.ID, err)
	}
	// A zero or non-finite NDVI denominator, or a missing reflectance,
	// leaves NaN bands; those pixels are masked, not kept as valid.
	s, err = raster.Filter(ctx, s, workers, []string{BandNDVI, BandAlbedo}, func(in []float64) bool {
		return !math.IsNaN(in[0]) && !math.IsNaN(in[1])
	})
	if err != nil {
		return nil, err
	}
	return s.Select(PreprocessedBands...)
}

// qualityMask drops fill, cloud, cirrus, shadow and saturated pixels, and
// pixels whose surface temperature is implausible.
func qualityMask(ctx context.Context, s *raster.Scene, c sensor.Coefficients, workers int) (*raster.Scene, error) {
	return raster.Filter(ctx, s, workers, []string{sensor.QAPixel, sensor.QARadSat, c.ThermalBand}, func(in []float64) bool {
		if math.IsNaN(in[0]) || math.IsNaN(in[1]) {
			return false
		}
		if uint16(in[0])&constants.QAPixelRejectBits != 0 || in[1] != 0 {
			return false
		}
		lst := in[2]*c.ThermalScale + c.ThermalOffset
		return lst > constants.SurfaceTempMin && lst < constants.SurfaceTempMax
	})
}

// waterMask keeps pixels whose water index is below the sensor threshold.
func waterMask(ctx context.Context, s *raster.Scene, c sensor.Coefficients, workers int) (*raster.Scene, error) {
	return raster.Filter(ctx, s, workers, []string{c.WaterA, c.WaterB}, func(in []float64) bool {
		a := in[0]*c.ReflectanceScale + c.ReflectanceOffset
		b := in[1]*c.ReflectanceScale + c.ReflectanceOffset
		return (a-b)/(a+b) < c.WaterThreshold
	})
}
