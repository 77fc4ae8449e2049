package ssebi

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestEvaporativeFractionBounds(t *testing.T) {
	low := Line{Slope: 40, Intercept: 290}
	high := Line{Slope: 120, Intercept: 295}
	for _, albedo := range []float64{0.12, 0.2, 0.35} {
		if ef := EvaporativeFraction(albedo, low.At(albedo), low, high); math.Abs(ef-1) > epsilon {
			t.Errorf("LST on the wet edge at albedo %v: EF = %v, want 1", albedo, ef)
		}
		if ef := EvaporativeFraction(albedo, high.At(albedo), low, high); math.Abs(ef) > epsilon {
			t.Errorf("LST on the dry edge at albedo %v: EF = %v, want 0", albedo, ef)
		}
	}
}

func TestEvaporativeFractionShiftInvariance(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	for k := 0; k < 200; k++ {
		low := Line{Slope: 200 * rng.Float64(), Intercept: 280 + 10*rng.Float64()}
		high := Line{Slope: low.Slope + 50 + 100*rng.Float64(), Intercept: low.Intercept + 5 + 10*rng.Float64()}
		albedo := 0.1 + 0.3*rng.Float64()
		lst := 290 + 30*rng.Float64()
		shift := -20 + 40*rng.Float64()

		ef := EvaporativeFraction(albedo, lst, low, high)
		shifted := EvaporativeFraction(albedo, lst+shift,
			Line{Slope: low.Slope, Intercept: low.Intercept + shift},
			Line{Slope: high.Slope, Intercept: high.Intercept + shift})
		if math.Abs(ef-shifted) > 1e-6*math.Max(1, math.Abs(ef)) {
			t.Fatalf("EF changed under a common shift of %v: %v vs %v", shift, ef, shifted)
		}
	}
}

func TestSoilFluxCoefficient(t *testing.T) {
	tests := []struct {
		fc, want float64
	}{
		{0, 0.315},
		{0.5, 0.1825},
		{1, 0.05},
	}
	for _, tt := range tests {
		if got := SoilFluxCoefficient(tt.fc); math.Abs(got-tt.want) > epsilon {
			t.Errorf("SoilFluxCoefficient(%v) = %v, want %v", tt.fc, got, tt.want)
		}
	}
}

func TestPartition(t *testing.T) {
	low := Line{Slope: 50, Intercept: 290}
	high := Line{Slope: 150, Intercept: 300}
	albedo, lst, fc := 0.2, 310.0, 0.4
	rnI, swI, swD := 550.0, 850.0, 2.55e7

	f := Partition(albedo, lst, fc, rnI, swI, swD, low, high)

	// dry = 330, wet = 300, EF = (330 − 310)/(330 − 300)
	if math.Abs(f.EF-2.0/3.0) > epsilon {
		t.Errorf("EF = %v, want 2/3", f.EF)
	}
	wantG := rnI * (0.05 + 0.265*(1-fc))
	if math.Abs(f.SoilFlux-wantG) > 1e-9 {
		t.Errorf("G = %v, want %v", f.SoilFlux, wantG)
	}
	if math.Abs(f.H+f.LE+f.SoilFlux-rnI) > 1e-9 {
		t.Errorf("H + LE + G = %v, want RnI = %v", f.H+f.LE+f.SoilFlux, rnI)
	}
	if math.Abs(f.CDI-swD/swI) > epsilon {
		t.Errorf("CDI = %v", f.CDI)
	}
	if math.Abs(f.ETMass-f.LE/2464705) > 1e-15 {
		t.Errorf("ET_mass = %v, want LE/λ", f.ETMass)
	}
	if math.Abs(f.ETHourly/3600-f.ETMass) > 1e-15 {
		t.Errorf("ET_hourly/3600 = %v, want ET_mass %v", f.ETHourly/3600, f.ETMass)
	}
	if math.Abs(f.ETDaily-f.ETMass*f.CDI) > 1e-12 {
		t.Errorf("ET_daily = %v, want ET_mass·CDI = %v", f.ETDaily, f.ETMass*f.CDI)
	}
}

func TestNetRadiation(t *testing.T) {
	albedo, emiss, lst := 0.2, 0.975, 300.0
	emitted := EmittedLongwave(emiss, lst)
	if want := emiss * 5.67e-8 * math.Pow(lst, 4); math.Abs(emitted-want) > 1e-9 {
		t.Errorf("emitted = %v, want %v", emitted, want)
	}

	rnI := NetRadiationInstant(1000, 350, albedo, emiss, emitted)
	if want := 800 + 350*emiss - emitted; math.Abs(rnI-want) > 1e-9 {
		t.Errorf("RnI = %v, want %v", rnI, want)
	}

	// Net shortwave is attenuated by (1 − albedo) twice.
	rnD := NetRadiationDaily(2.5e7, -4e6, albedo)
	if want := 2.5e7*0.8*0.8 - 4e6; math.Abs(rnD-want) > 1e-6 {
		t.Errorf("RnD = %v, want %v", rnD, want)
	}
}
