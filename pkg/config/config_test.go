package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.ModelPath == "" || cfg.Model.ScalerPath == "" {
		t.Error("default artifact paths must be set")
	}
	if cfg.Segmentation.BrightPercentile != 85 || cfg.Segmentation.DarkPercentile != 30 {
		t.Errorf("default percentiles = %v/%v, want 85/30",
			cfg.Segmentation.BrightPercentile, cfg.Segmentation.DarkPercentile)
	}
	if cfg.Fusion.EnsembleWeight != 0.4 || cfg.Fusion.HeuristicWeight != 0.6 {
		t.Errorf("default fusion weights = %v/%v, want 0.4/0.6",
			cfg.Fusion.EnsembleWeight, cfg.Fusion.HeuristicWeight)
	}
	if cfg.Processing.NumWorkers < 1 {
		t.Errorf("default worker count = %d, want at least 1", cfg.Processing.NumWorkers)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing config file should fall back to defaults, got %v", err)
	}
	if cfg.Segmentation.BrightPercentile != 85 {
		t.Errorf("fallback config percentile = %v, want the default 85", cfg.Segmentation.BrightPercentile)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.ModelPath = "custom/model.bin"
	cfg.Fusion.EnsembleWeight = 0.5
	cfg.Fusion.HeuristicWeight = 0.5
	cfg.Output.SaveOverlays = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Model.ModelPath != "custom/model.bin" {
		t.Errorf("loaded model path = %q, want the saved value", loaded.Model.ModelPath)
	}
	if loaded.Fusion.EnsembleWeight != 0.5 {
		t.Errorf("loaded ensemble weight = %v, want 0.5", loaded.Fusion.EnsembleWeight)
	}
	if !loaded.Output.SaveOverlays {
		t.Error("loaded SaveOverlays = false, want true")
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	// Fields absent from the file keep their defaults.
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("model:\n  modelPath: other/model.bin\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Model.ModelPath != "other/model.bin" {
		t.Errorf("model path = %q, want the overridden value", cfg.Model.ModelPath)
	}
	if cfg.Segmentation.MinBrainObject != 500 {
		t.Errorf("MinBrainObject = %d, want the default 500", cfg.Segmentation.MinBrainObject)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("model: [not a mapping"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed YAML should fail to load")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}
