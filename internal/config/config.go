// Package config loads the YAML configuration of the javazic command.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-javazic/internal/logging"
	"github.com/ngrash/go-javazic/tzc"
)

// Config holds the settings of a compilation. Command line flags override them.
type Config struct {
	OutputDir string `yaml:"output_dir"`
	// Version is the tzdata version written to the mappings file.
	Version string `yaml:"version"`
	// ZoneNamesFile limits the compilation to the zones it lists.
	ZoneNamesFile string   `yaml:"zone_names_file"`
	Sources       []string `yaml:"sources"`
	// Archive is a release archive to read sources from instead of Sources.
	Archive string `yaml:"archive"`
	// Fetch downloads the latest release when set.
	Fetch      bool    `yaml:"fetch"`
	StartYear  int     `yaml:"start_year"`
	EndYear    int     `yaml:"end_year"`
	SingleYear int     `yaml:"single_year"`
	Workers    int     `yaml:"workers"`
	Logging    Logging `yaml:"logging"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "zi",
		StartYear: tzc.DefaultStartYear,
		EndYear:   tzc.DefaultEndYear,
		Workers:   1,
		Logging: Logging{
			Level: "warning",
		},
	}
}

// LoadConfig loads the configuration at path on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.SingleYear == 0 {
		if c.StartYear < 1 {
			errs = append(errs, fmt.Errorf("start year must be positive, got %d", c.StartYear))
		}
		if c.EndYear < 1 {
			errs = append(errs, fmt.Errorf("end year must be positive, got %d", c.EndYear))
		}
		if c.StartYear > c.EndYear {
			errs = append(errs, fmt.Errorf("start year %d is after end year %d", c.StartYear, c.EndYear))
		}
	}
	if c.SingleYear < 0 {
		errs = append(errs, fmt.Errorf("invalid single year %d", c.SingleYear))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	inputs := 0
	if len(c.Sources) > 0 {
		inputs++
	}
	if c.Archive != "" {
		inputs++
	}
	if c.Fetch {
		inputs++
	}
	switch inputs {
	case 0:
		errs = append(errs, errors.New("no input: give source files, an archive or fetch"))
	case 1:
	default:
		errs = append(errs, errors.New("source files, archive and fetch are mutually exclusive"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
