package config

import (
	"fmt"
	"runtime"

	"github.com/jpkabala96/geeSSEBI/internal/constants"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Landsat LandsatData `json:"landsat"`
	Forcing ForcingData `json:"forcing"`
	Model   ModelData   `json:"model"`
	REST    RESTData    `json:"rest"`
	Export  ExportData  `json:"export"`
}

// LandsatData locates the Collection 2 Level-2 products on disk
type LandsatData struct {
	Dir           string  `json:"dir"`
	MaxCloudCover float64 `json:"max_cloud_cover,omitempty"`
}

// Forcing backends
const (
	ForcingNetCDF      = "netcdf"
	ForcingTimescaleDB = "timescaledb"
)

// Hourly accumulation conventions of the forcing files
const (
	// AccumulationRunning is raw ERA5-Land: sums restart after 00 UTC.
	AccumulationRunning = "running"
	// AccumulationHourly is one hour per record, as in de-accumulated exports.
	AccumulationHourly = "hourly"
)

// ForcingData selects and configures the reanalysis radiation source
type ForcingData struct {
	Backend            string        `json:"backend"`
	HourlyTemplate     string        `json:"hourly_template,omitempty"`
	DailyTemplate      string        `json:"daily_template,omitempty"`
	HourlyVariables    VariablesData `json:"hourly_variables,omitempty"`
	DailyVariables     VariablesData `json:"daily_variables,omitempty"`
	HourlyAccumulation string        `json:"hourly_accumulation,omitempty"`
	ConnectionString   string        `json:"connection_string,omitempty"`
}

// VariablesData names the netCDF variables of a forcing file. Empty names
// fall back to the ERA5-Land defaults.
type VariablesData struct {
	Shortwave string `json:"shortwave,omitempty"`
	Longwave  string `json:"longwave,omitempty"`
}

// ModelData holds the default run parameters
type ModelData struct {
	RadiationThreshold float64 `json:"rt"`
	MoistureThreshold  float64 `json:"mt"`
	CRS                string  `json:"crs"`
	Scale              float64 `json:"scale"`
	Workers            int     `json:"workers"`
}

// RESTData configures the run server
type RESTData struct {
	ListenAddr        string `json:"listen_addr,omitempty"`
	Port              int    `json:"port"`
	Cert              string `json:"cert,omitempty"`
	Key               string `json:"key,omitempty"`
	MaxConcurrentRuns int    `json:"max_concurrent_runs"`
	RetainedRuns      int    `json:"retained_runs"`
}

// ExportData holds GeoTIFF creation options passed to the GTiff driver
type ExportData struct {
	CreationOptions []string `json:"creation_options,omitempty"`
}

// Default returns a configuration with every default applied
func Default() *ConfigData {
	c := &ConfigData{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero values with the defaults
func (c *ConfigData) ApplyDefaults() {
	if c.Forcing.Backend == "" {
		c.Forcing.Backend = ForcingNetCDF
	}
	if c.Forcing.HourlyAccumulation == "" {
		c.Forcing.HourlyAccumulation = AccumulationRunning
	}
	if c.Model.RadiationThreshold == 0 {
		c.Model.RadiationThreshold = constants.DefaultRadiationThreshold
	}
	if c.Model.MoistureThreshold == 0 {
		c.Model.MoistureThreshold = constants.DefaultMoistureThreshold
	}
	if c.Model.CRS == "" {
		c.Model.CRS = constants.DefaultCRS
	}
	if c.Model.Scale == 0 {
		c.Model.Scale = constants.DefaultScale
	}
	if c.Model.Workers <= 0 {
		c.Model.Workers = runtime.GOMAXPROCS(0)
	}
	if c.REST.Port == 0 {
		c.REST.Port = 8080
	}
	if c.REST.MaxConcurrentRuns <= 0 {
		c.REST.MaxConcurrentRuns = 2
	}
	if c.REST.RetainedRuns <= 0 {
		c.REST.RetainedRuns = 50
	}
}

// Validate checks the settings that have no usable default
func (c *ConfigData) Validate() error {
	switch c.Forcing.Backend {
	case ForcingNetCDF:
		if c.Forcing.HourlyTemplate == "" || c.Forcing.DailyTemplate == "" {
			return fmt.Errorf("forcing backend %q requires hourly and daily file templates", c.Forcing.Backend)
		}
	case ForcingTimescaleDB:
		if c.Forcing.ConnectionString == "" {
			return fmt.Errorf("forcing backend %q requires a connection string", c.Forcing.Backend)
		}
	default:
		return fmt.Errorf("unknown forcing backend %q", c.Forcing.Backend)
	}
	switch c.Forcing.HourlyAccumulation {
	case AccumulationRunning, AccumulationHourly:
	default:
		return fmt.Errorf("unknown hourly accumulation %q, want %q or %q",
			c.Forcing.HourlyAccumulation, AccumulationRunning, AccumulationHourly)
	}
	if c.Landsat.Dir == "" {
		return fmt.Errorf("landsat directory is not configured")
	}
	if c.Model.RadiationThreshold < 0 || c.Model.MoistureThreshold < 0 {
		return fmt.Errorf("model thresholds must not be negative")
	}
	return nil
}

// Open returns the provider for a configuration backend, "yaml" or "sqlite"
func Open(filename, backend string) (ConfigProvider, error) {
	switch backend {
	case "yaml":
		return NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", backend)
	}
}
