package ssebi

// Band names produced by the model stages.
const (
	BandAlbedo          = "albedo"
	BandNDVI            = "NDVI"
	BandFC              = "FC"
	BandEmissivity      = "emiss"
	BandLST             = "LST"
	BandAlbedoClass     = "albedo_disc"
	BandLongwaveEmitted = "longwaveEmitted"

	BandShortwaveDownI = "ShortwaveDownI"
	BandLongwaveDownI  = "LongwaveDownI"
	BandShortwaveDownD = "ShortwaveDownD"
	BandLongwaveDownD  = "LongwaveDownD"
	BandRnI            = "RnI"
	BandRnD            = "RnD"

	BandEF           = "EF"
	BandSoilFluxCoef = "sfCoef"
	BandSoilFlux     = "soilFlux"
	BandH            = "H"
	BandLE           = "LE"
	BandETMass       = "ET_mass"
	BandETHourly     = "ET_hourly"
	BandCDI          = "CDI"
	BandETDaily      = "ET_daily"

	BandDateSeconds = "date_seconds"
)

// PreprocessedBands is the band set a preprocessed scene is restricted to.
var PreprocessedBands = []string{
	BandAlbedo, BandNDVI, BandFC, BandEmissivity, BandLST, BandAlbedoClass, BandLongwaveEmitted,
}

// OutputBands is the canonical output, in order.
var OutputBands = []string{
	BandAlbedo, BandLST, BandEmissivity, BandNDVI, BandFC,
	BandRnI, BandLE, BandH, BandSoilFlux, BandETDaily, BandDateSeconds,
}
