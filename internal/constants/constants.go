// Package constants defines version information and the physical constants
// shared by the SSEBI model stages. All values are read-only for the life of
// the process.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

const (
	// StefanBoltzmann is σ in W m⁻² K⁻⁴.
	StefanBoltzmann = 5.67e-8

	// LatentHeatOfVaporization is λ in J/kg, held constant.
	LatentHeatOfVaporization = 2464705.0

	SecondsPerHour = 3600.0

	// Surface emissivity of bare soil and of full canopy.
	EmissivitySoil       = 0.971
	EmissivityVegetation = 0.982

	// Soil heat flux ratios after Su (2002): G0 = Rn·[Γc + (1 − fc)·(Γs − Γc)]
	// with Γc = 0.05 and Γs = 0.315.
	SoilFluxCanopy = 0.05
	SoilFluxSoil   = 0.315

	// NDVI of bare soil and the NDVI span to full cover used for fractional cover.
	NDVISoil  = 0.2
	NDVISpan  = 0.6
	AlbedoBin = 100.0

	// NoData is substituted for per-class reductions that found no valid pixel.
	NoData = -9999.0

	// Plausible surface temperature window in K (exclusive).
	SurfaceTempMin = 273.0
	SurfaceTempMax = 340.0

	// QAPixelRejectBits covers fill, dilated cloud, cirrus, cloud and cloud shadow (bits 0-4).
	QAPixelRejectBits = 0x1F
)

// Defaults applied when neither the configuration nor the caller supplies a value.
const (
	DefaultRadiationThreshold = 0.11
	DefaultMoistureThreshold  = 0.11
	DefaultCRS                = "EPSG:32632"
	DefaultScale              = 100.0
)
