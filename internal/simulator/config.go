package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SensorConfig describes one simulated sensor.
type SensorConfig struct {
	ID       int64   `yaml:"id"`
	Name     string  `yaml:"name"`
	APIKey   string  `yaml:"api_key"`
	SeriesID int64   `yaml:"series_id"`
	Type     string  `yaml:"type"`
	MinValue float64 `yaml:"min_value"`
	MaxValue float64 `yaml:"max_value"`
	Interval int     `yaml:"interval"` // seconds between readings
}

// Config is the simulator configuration file.
type Config struct {
	APIBaseURL string         `yaml:"api_base_url"`
	Sensors    []SensorConfig `yaml:"sensors"`
}

// LoadConfig reads and validates a simulator configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values that would make the
// simulator misbehave rather than fail loudly.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if len(c.Sensors) == 0 {
		return fmt.Errorf("at least one sensor is required")
	}

	for i, s := range c.Sensors {
		if s.ID <= 0 {
			return fmt.Errorf("sensor %d: id must be positive", i)
		}
		if s.APIKey == "" {
			return fmt.Errorf("sensor %d (%s): api_key is required", i, s.Name)
		}
		if s.SeriesID <= 0 {
			return fmt.Errorf("sensor %d (%s): series_id must be positive", i, s.Name)
		}
		if s.MinValue >= s.MaxValue {
			return fmt.Errorf("sensor %d (%s): min_value must be below max_value", i, s.Name)
		}
		if s.Interval <= 0 {
			return fmt.Errorf("sensor %d (%s): interval must be positive", i, s.Name)
		}
	}
	return nil
}
