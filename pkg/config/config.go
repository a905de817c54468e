// Package config provides configuration loading and management for pixelsearch.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"pixelsearch/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Search parameters
	Search struct {
		// NumCores specifies how many goroutines share the candidate space
		NumCores int `yaml:"numCores"`

		// GreyThreshold is the admissible [low, high] mean of the reference
		// window. Leaving it out disables the check.
		GreyThreshold *[2]float64 `yaml:"greyThreshold,omitempty"`
	} `yaml:"search"`

	// Input volumes
	Input struct {
		Reference     string `yaml:"reference"`
		ReferenceDims [3]int `yaml:"referenceDims"`
		Search        string `yaml:"search"`
		SearchDims    [3]int `yaml:"searchDims"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// ExtractSlices saves JPEG slices of the matched window and the correlation map
		ExtractSlices bool `yaml:"extractSlices"`

		// SlicesDir is where extracted slices are written
		SlicesDir string `yaml:"slicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Search.NumCores = runtime.NumCPU()

	cfg.Output.ExtractSlices = false
	cfg.Output.SlicesDir = "match_slices"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the values a search cannot run without
func (c *Config) Validate() error {
	if c.Search.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Search.NumCores)
	}
	if g := c.Search.GreyThreshold; g != nil && g[0] > g[1] {
		return fmt.Errorf("greyThreshold low %.4f exceeds high %.4f", g[0], g[1])
	}
	for name, d := range map[string][3]int{
		"referenceDims": c.Input.ReferenceDims,
		"searchDims":    c.Input.SearchDims,
	} {
		dims := models.Dims{Depth: d[0], Rows: d[1], Cols: d[2]}
		if _, err := dims.Size(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
