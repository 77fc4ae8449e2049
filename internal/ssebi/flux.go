package ssebi

import (
	"context"

	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/raster"
)

// EvaporativeFraction places LST between the dry edge (EF = 0) and the wet
// edge (EF = 1) at the pixel's albedo. A near-zero denominator, where the
// edges cross, is not guarded.
func EvaporativeFraction(albedo, lst float64, low, high Line) float64 {
	dry := high.At(albedo)
	return (dry - lst) / (dry - low.At(albedo))
}

// SoilFluxCoefficient is Γc + (1−FC)(Γs−Γc).
func SoilFluxCoefficient(fc float64) float64 {
	return constants.SoilFluxCanopy + (constants.SoilFluxSoil-constants.SoilFluxCanopy)*(1-fc)
}

// Fluxes holds the per-pixel energy partition.
type Fluxes struct {
	EF, SoilFluxCoef, SoilFlux float64
	H, LE                      float64
	ETMass, ETHourly           float64
	CDI, ETDaily               float64
}

// Partition splits the instantaneous net radiation into soil, sensible and
// latent heat and converts latent heat to evapotranspiration.
func Partition(albedo, lst, fc, rnI, swDownI, swDownD float64, low, high Line) Fluxes {
	var f Fluxes
	f.EF = EvaporativeFraction(albedo, lst, low, high)
	f.SoilFluxCoef = SoilFluxCoefficient(fc)
	f.SoilFlux = rnI * f.SoilFluxCoef
	available := rnI - f.SoilFlux
	f.H = available * (1 - f.EF)
	f.LE = available * f.EF
	f.CDI = swDownD / swDownI
	f.ETMass = f.LE / constants.LatentHeatOfVaporization
	f.ETHourly = f.ETMass * constants.SecondsPerHour
	f.ETDaily = f.ETMass * f.CDI
	return f
}

var fluxBands = []string{
	BandEF, BandSoilFluxCoef, BandSoilFlux, BandH, BandLE,
	BandETMass, BandETHourly, BandCDI, BandETDaily,
}

// PartitionScene appends the flux and ET bands.
func PartitionScene(ctx context.Context, s *raster.Scene, low, high Line, workers int) (*raster.Scene, error) {
	inputs := []string{BandAlbedo, BandLST, BandFC, BandRnI, BandShortwaveDownI, BandShortwaveDownD}
	return raster.MapInto(ctx, s, workers, inputs, fluxBands, func(in, out []float64) {
		f := Partition(in[0], in[1], in[2], in[3], in[4], in[5], low, high)
		out[0] = f.EF
		out[1] = f.SoilFluxCoef
		out[2] = f.SoilFlux
		out[3] = f.H
		out[4] = f.LE
		out[5] = f.ETMass
		out[6] = f.ETHourly
		out[7] = f.CDI
		out[8] = f.ETDaily
	})
}
