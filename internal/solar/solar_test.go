package solar

import (
	"math"
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		lat, lon    float64
		t           time.Time
		minElev     float64
		maxElev     float64
		minClearSky float64
		maxClearSky float64
	}{
		{
			name:    "equator at equinox noon",
			lat:     0, lon: 0,
			t:       time.Date(2023, 3, 20, 12, 0, 0, 0, time.UTC),
			minElev: 87, maxElev: 91,
			minClearSky: 900, maxClearSky: 1200,
		},
		{
			name:    "Po valley summer morning overpass",
			lat:     45.2, lon: 9.6,
			t:       time.Date(2022, 7, 14, 10, 12, 0, 0, time.UTC),
			minElev: 55, maxElev: 66,
			minClearSky: 700, maxClearSky: 1050,
		},
		{
			name:    "local midnight",
			lat:     45.2, lon: 9.6,
			t:       time.Date(2022, 7, 14, 23, 20, 0, 0, time.UTC),
			minElev: -90, maxElev: 0,
			minClearSky: 0, maxClearSky: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(tt.lat, tt.lon, tt.t, DefaultTurbidity)
			if p.ElevationDeg < tt.minElev || p.ElevationDeg > tt.maxElev {
				t.Errorf("elevation = %.2f, want in [%v, %v]", p.ElevationDeg, tt.minElev, tt.maxElev)
			}
			if p.ClearSky < tt.minClearSky || p.ClearSky > tt.maxClearSky {
				t.Errorf("clear sky = %.1f, want in [%v, %v]", p.ClearSky, tt.minClearSky, tt.maxClearSky)
			}
			if p.AboveHorizon() != (p.ElevationDeg > 0) {
				t.Error("AboveHorizon disagrees with elevation")
			}
		})
	}
}

func TestDeclinationAtSolstice(t *testing.T) {
	p := Compute(0, 0, time.Date(2022, 6, 21, 12, 0, 0, 0, time.UTC), DefaultTurbidity)
	if math.Abs(p.DeclinationDeg-23.44) > 0.1 {
		t.Errorf("declination = %.3f, want ~23.44", p.DeclinationDeg)
	}
	if p.DistanceAU < 1.01 || p.DistanceAU > 1.02 {
		t.Errorf("distance = %.4f AU, want near aphelion", p.DistanceAU)
	}
}

func TestClearSkyEnergy(t *testing.T) {
	day := time.Date(2022, 7, 14, 0, 0, 0, 0, time.UTC)
	daily := ClearSkyEnergy(45.2, 9.6, day, day.Add(24*time.Hour), 10*time.Minute)
	if daily < 20e6 || daily > 35e6 {
		t.Errorf("daily clear-sky energy = %.3g J/m², want 20-35 MJ/m²", daily)
	}

	hour := ClearSkyEnergy(45.2, 9.6, day.Add(10*time.Hour), day.Add(11*time.Hour), 5*time.Minute)
	if hour <= 0 || hour >= daily/4 {
		t.Errorf("hourly clear-sky energy = %.3g J/m²", hour)
	}

	if got := ClearSkyEnergy(45.2, 9.6, day, day, time.Minute); got != 0 {
		t.Errorf("empty interval = %v, want 0", got)
	}
}
