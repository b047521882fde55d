// Package config provides configuration loading and management for
// brainradiomics. It handles loading configuration from YAML files and
// provides the calibrated default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Model artifact locations. Both files must exist and decode at
	// startup; the pipeline refuses to serve predictions otherwise.
	Model struct {
		// ModelPath is the pretrained tree ensemble artifact.
		ModelPath string `yaml:"modelPath"`

		// ScalerPath is the feature-scaling artifact fitted alongside
		// the ensemble.
		ScalerPath string `yaml:"scalerPath"`
	} `yaml:"model"`

	// Segmentation thresholds.
	Segmentation struct {
		// BrightPercentile marks tumor-candidate seed pixels inside
		// the brain mask.
		BrightPercentile float64 `yaml:"brightPercentile"`

		// DarkPercentile marks background seed pixels inside the
		// brain mask.
		DarkPercentile float64 `yaml:"darkPercentile"`

		// MinBrainObject is the smallest surviving brain-mask region
		// in pixels.
		MinBrainObject int `yaml:"minBrainObject"`

		// MinTumorObject is the smallest surviving candidate region
		// in pixels.
		MinTumorObject int `yaml:"minTumorObject"`

		// FallbackMinPixels is the bright-region size below which the
		// mask falls back to the whole brain.
		FallbackMinPixels int `yaml:"fallbackMinPixels"`
	} `yaml:"segmentation"`

	// Fusion weights for combining the two scoring strategies.
	// Leaving both at zero is a sentinel for the calibrated 0.4/0.6
	// defaults; an all-zero pair is never served literally.
	Fusion struct {
		// EnsembleWeight scales the tree-ensemble probabilities.
		EnsembleWeight float64 `yaml:"ensembleWeight"`

		// HeuristicWeight scales the range-heuristic probabilities.
		HeuristicWeight float64 `yaml:"heuristicWeight"`
	} `yaml:"fusion"`

	// Processing parameters.
	Processing struct {
		// NumWorkers is the parallelism for batch classification.
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"processing"`

	// Output parameters.
	Output struct {
		// SaveOverlays enables writing segmentation overlay images.
		SaveOverlays bool `yaml:"saveOverlays"`

		// OverlayDir is the directory overlay images are written to.
		OverlayDir string `yaml:"overlayDir"`

		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with the calibrated defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Model.ModelPath = "output/warm_start_rlt_model.bin"
	cfg.Model.ScalerPath = "output/scaler.bin"

	cfg.Segmentation.BrightPercentile = 85
	cfg.Segmentation.DarkPercentile = 30
	cfg.Segmentation.MinBrainObject = 500
	cfg.Segmentation.MinTumorObject = 20
	cfg.Segmentation.FallbackMinPixels = 100

	cfg.Fusion.EnsembleWeight = 0.4
	cfg.Fusion.HeuristicWeight = 0.6

	cfg.Processing.NumWorkers = runtime.NumCPU()

	cfg.Output.SaveOverlays = false
	cfg.Output.OverlayDir = "overlays"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
