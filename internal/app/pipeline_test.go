package app

import (
	"strings"
	"testing"

	"github.com/jpkabala96/geeSSEBI/internal/forcing"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

func TestNewStackNetCDF(t *testing.T) {
	cfg := config.Default()
	cfg.Landsat.Dir = t.TempDir()
	cfg.Forcing.HourlyTemplate = "/era5/hourly_[DATE].nc"
	cfg.Forcing.DailyTemplate = "/era5/daily_[DATE].nc"
	cfg.Forcing.DailyVariables.Longwave = "strd_net"

	s, err := NewStack(cfg, log.Nop())
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	defer s.Close()

	src, ok := s.Forcing.(*forcing.NetCDFSource)
	if !ok {
		t.Fatalf("forcing source is %T, want *forcing.NetCDFSource", s.Forcing)
	}
	if src.DailyVars.Longwave != "strd_net" || src.DailyVars.Shortwave != "ssrd" {
		t.Errorf("daily variables = %+v", src.DailyVars)
	}
	if src.HourlyVars != forcing.DefaultHourlyVariables {
		t.Errorf("hourly variables = %+v, want defaults", src.HourlyVars)
	}
	if s.Pipeline == nil {
		t.Error("pipeline not built")
	}
}

func TestHourlyVariables(t *testing.T) {
	tests := []struct {
		name            string
		accumulation    string
		wantAccumulated bool
	}{
		{"raw ERA5-Land", config.AccumulationRunning, true},
		{"de-accumulated export", config.AccumulationHourly, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := config.Default().Forcing
			f.HourlyAccumulation = tt.accumulation
			f.HourlyVariables.Shortwave = "ssrd_hourly"

			v := HourlyVariables(f)
			if v.Accumulated != tt.wantAccumulated {
				t.Errorf("Accumulated = %v, want %v", v.Accumulated, tt.wantAccumulated)
			}
			if v.Shortwave != "ssrd_hourly" || v.Longwave != "strd" {
				t.Errorf("variables = %+v", v)
			}
		})
	}
}

func TestNewStackUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Forcing.Backend = "grib"
	if _, err := NewStack(cfg, log.Nop()); err == nil || !strings.Contains(err.Error(), "grib") {
		t.Errorf("error = %v, want unknown backend", err)
	}
}

func TestParams(t *testing.T) {
	p := Params(config.Default().Model)
	if p.RadiationThreshold != 0.11 || p.CRS != "EPSG:32632" || p.Scale != 100 {
		t.Errorf("params = %+v", p)
	}
}
