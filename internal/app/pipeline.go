package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jpkabala96/geeSSEBI/internal/database"
	"github.com/jpkabala96/geeSSEBI/internal/forcing"
	"github.com/jpkabala96/geeSSEBI/internal/landsat"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

// Stack is a pipeline together with the resources backing it
type Stack struct {
	Pipeline *ssebi.Pipeline
	Catalog  *landsat.Catalog
	Forcing  forcing.Source
	db       *database.Client
}

// Close releases the forcing database connection, if any
func (s *Stack) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewStack wires the scene catalog and the configured forcing backend into a pipeline
func NewStack(cfg *config.ConfigData, logger *zap.SugaredLogger) (*Stack, error) {
	s := &Stack{
		Catalog: landsat.NewCatalog(cfg.Landsat.Dir, cfg.Landsat.MaxCloudCover, cfg.Model.Workers, logger.Named("landsat")),
	}

	switch cfg.Forcing.Backend {
	case config.ForcingNetCDF:
		src := forcing.NewNetCDFSource(cfg.Forcing.HourlyTemplate, cfg.Forcing.DailyTemplate, logger.Named("forcing"))
		src.HourlyVars = HourlyVariables(cfg.Forcing)
		src.DailyVars = Variables(forcing.DefaultDailyVariables, cfg.Forcing.DailyVariables)
		s.Forcing = src
	case config.ForcingTimescaleDB:
		s.db = database.NewClient(cfg.Forcing.ConnectionString, logger.Named("database"))
		if err := s.db.Connect(); err != nil {
			return nil, fmt.Errorf("error connecting to forcing database: %w", err)
		}
		s.Forcing = forcing.NewTimescaleSource(s.db.DB, logger.Named("forcing"))
	default:
		return nil, fmt.Errorf("unknown forcing backend %q", cfg.Forcing.Backend)
	}

	s.Pipeline = ssebi.New(s.Catalog, s.Forcing, logger.Named("ssebi"), cfg.Model.Workers)
	return s, nil
}

// Variables overrides the variable names of def with the configured ones
func Variables(def forcing.Variables, v config.VariablesData) forcing.Variables {
	if v.Shortwave != "" {
		def.Shortwave = v.Shortwave
	}
	if v.Longwave != "" {
		def.Longwave = v.Longwave
	}
	return def
}

// HourlyVariables returns the hourly variable names and accumulation
// convention of the configured forcing files
func HourlyVariables(f config.ForcingData) forcing.Variables {
	v := Variables(forcing.DefaultHourlyVariables, f.HourlyVariables)
	v.Accumulated = f.HourlyAccumulation != config.AccumulationHourly
	return v
}

// Params returns the configured model defaults as run parameters
func Params(m config.ModelData) ssebi.Params {
	return ssebi.Params{
		RadiationThreshold: m.RadiationThreshold,
		MoistureThreshold:  m.MoistureThreshold,
		CRS:                m.CRS,
		Scale:              m.Scale,
	}
}
