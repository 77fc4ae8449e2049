package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

type yamlConfig struct {
	Landsat struct {
		Dir           string  `yaml:"dir"`
		MaxCloudCover float64 `yaml:"max-cloud-cover,omitempty"`
	} `yaml:"landsat"`
	Forcing struct {
		Backend            string        `yaml:"backend,omitempty"`
		HourlyTemplate     string        `yaml:"hourly-template,omitempty"`
		DailyTemplate      string        `yaml:"daily-template,omitempty"`
		HourlyVariables    yamlVariables `yaml:"hourly-variables,omitempty"`
		DailyVariables     yamlVariables `yaml:"daily-variables,omitempty"`
		HourlyAccumulation string        `yaml:"hourly-accumulation,omitempty"`
		ConnectionString   string        `yaml:"connection-string,omitempty"`
	} `yaml:"forcing"`
	Model struct {
		RT      float64 `yaml:"rt,omitempty"`
		MT      float64 `yaml:"mt,omitempty"`
		CRS     string  `yaml:"crs,omitempty"`
		Scale   float64 `yaml:"scale,omitempty"`
		Workers int     `yaml:"workers,omitempty"`
	} `yaml:"model,omitempty"`
	REST struct {
		ListenAddr        string `yaml:"listen-addr,omitempty"`
		Port              int    `yaml:"port,omitempty"`
		Cert              string `yaml:"cert,omitempty"`
		Key               string `yaml:"key,omitempty"`
		MaxConcurrentRuns int    `yaml:"max-concurrent-runs,omitempty"`
		RetainedRuns      int    `yaml:"retained-runs,omitempty"`
	} `yaml:"rest,omitempty"`
	Export struct {
		CreationOptions []string `yaml:"creation-options,omitempty"`
	} `yaml:"export,omitempty"`
}

type yamlVariables struct {
	Shortwave string `yaml:"shortwave,omitempty"`
	Longwave  string `yaml:"longwave,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into ConfigData with defaults applied
func ParseYAML(b []byte) (*ConfigData, error) {
	var yc yamlConfig
	if err := yaml.UnmarshalStrict(b, &yc); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Landsat: LandsatData{
			Dir:           yc.Landsat.Dir,
			MaxCloudCover: yc.Landsat.MaxCloudCover,
		},
		Forcing: ForcingData{
			Backend:        yc.Forcing.Backend,
			HourlyTemplate: yc.Forcing.HourlyTemplate,
			DailyTemplate:  yc.Forcing.DailyTemplate,
			HourlyVariables: VariablesData{
				Shortwave: yc.Forcing.HourlyVariables.Shortwave,
				Longwave:  yc.Forcing.HourlyVariables.Longwave,
			},
			DailyVariables: VariablesData{
				Shortwave: yc.Forcing.DailyVariables.Shortwave,
				Longwave:  yc.Forcing.DailyVariables.Longwave,
			},
			HourlyAccumulation: yc.Forcing.HourlyAccumulation,
			ConnectionString:   yc.Forcing.ConnectionString,
		},
		Model: ModelData{
			RadiationThreshold: yc.Model.RT,
			MoistureThreshold:  yc.Model.MT,
			CRS:                yc.Model.CRS,
			Scale:              yc.Model.Scale,
			Workers:            yc.Model.Workers,
		},
		REST: RESTData{
			ListenAddr:        yc.REST.ListenAddr,
			Port:              yc.REST.Port,
			Cert:              yc.REST.Cert,
			Key:               yc.REST.Key,
			MaxConcurrentRuns: yc.REST.MaxConcurrentRuns,
			RetainedRuns:      yc.REST.RetainedRuns,
		},
		Export: ExportData{
			CreationOptions: yc.Export.CreationOptions,
		},
	}
	config.ApplyDefaults()

	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
