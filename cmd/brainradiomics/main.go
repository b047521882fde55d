package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"brainradiomics/internal/models"
	"brainradiomics/pkg/config"
	"brainradiomics/pkg/decision"
	"brainradiomics/pkg/ensemble"
	"brainradiomics/pkg/heuristic"
	"brainradiomics/pkg/pipeline"
	"brainradiomics/pkg/preprocess"
	"brainradiomics/pkg/segmentation"
	"brainradiomics/pkg/visualization"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "MRI slice image or directory of images to classify")
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	modelPath := flag.String("model", "", "Override path to the tree ensemble artifact")
	scalerPath := flag.String("scaler", "", "Override path to the feature scaler artifact")
	workers := flag.Int("workers", 0, "Number of parallel workers for batch classification (default: config value)")
	overlayDir := flag.String("overlay-dir", "", "Directory to save segmentation overlay images (empty: disabled)")
	age := flag.Int("age", 0, "Patient age for the decision-support report (optional)")
	symptoms := flag.String("symptoms", "", "Comma-separated patient symptoms for the decision-support report (optional)")
	showFeatures := flag.Bool("features", false, "Print the extracted feature vector and per-feature contributions")
	flag.Parse()

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *modelPath != "" {
		cfg.Model.ModelPath = *modelPath
	}
	if *scalerPath != "" {
		cfg.Model.ScalerPath = *scalerPath
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}
	if *overlayDir != "" {
		cfg.Output.SaveOverlays = true
		cfg.Output.OverlayDir = *overlayDir
	}

	patient := models.PatientInfo{Age: *age}
	if *symptoms != "" {
		for _, s := range strings.Split(*symptoms, ",") {
			if s = strings.TrimSpace(s); s != "" {
				patient.Symptoms = append(patient.Symptoms, s)
			}
		}
	}

	fmt.Println("================================")
	fmt.Println("BRAIN MRI RADIOMIC CLASSIFICATION")
	fmt.Println("Watershed segmentation + warm-start tree ensemble + range heuristic")
	fmt.Println("================================")

	// The model artifacts are mandatory: without them the documented
	// confidence semantics cannot be honored, so refuse to run.
	predictor, err := ensemble.Load(cfg.Model.ModelPath, cfg.Model.ScalerPath)
	if err != nil {
		log.Fatalf("Failed to load model artifacts: %v", err)
	}
	fmt.Printf("Loaded ensemble with %d trees\n", predictor.NumTrees())

	pipe, err := pipeline.New(pipeline.Params{
		Predictor: predictor,
		Segmentation: segmentation.Params{
			BrightPercentile:  cfg.Segmentation.BrightPercentile,
			DarkPercentile:    cfg.Segmentation.DarkPercentile,
			MinBrainObject:    cfg.Segmentation.MinBrainObject,
			MinTumorObject:    cfg.Segmentation.MinTumorObject,
			FallbackMinPixels: cfg.Segmentation.FallbackMinPixels,
		},
		EnsembleWeight:  cfg.Fusion.EnsembleWeight,
		HeuristicWeight: cfg.Fusion.HeuristicWeight,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	paths, err := collectInputs(*input)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	fmt.Printf("Classifying %d image(s) with %d worker(s)...\n", len(paths), cfg.Processing.NumWorkers)

	images := make([]image.Image, len(paths))
	for i, path := range paths {
		img, err := preprocess.LoadImage(path)
		if err != nil {
			log.Fatalf("Failed to load image %s: %v", path, err)
		}
		images[i] = img
	}

	results := pipe.ClassifyBatch(images, cfg.Processing.NumWorkers)

	failures := 0
	for i, item := range results {
		fmt.Printf("\n=== %s ===\n", filepath.Base(paths[i]))
		if item.Err != nil {
			failures++
			fmt.Printf("Classification failed: %v\n", item.Err)
			continue
		}
		printResult(item.Result, patient)

		if *showFeatures || cfg.Output.SaveOverlays {
			_, mask, features, err := pipe.Inspect(images[i])
			if err != nil {
				log.Printf("Warning: inspection failed for %s: %v", paths[i], err)
				continue
			}
			if *showFeatures {
				printFeatures(features, item.Result.Label)
			}
			if cfg.Output.SaveOverlays {
				name := strings.TrimSuffix(filepath.Base(paths[i]), filepath.Ext(paths[i]))
				overlayPath := filepath.Join(cfg.Output.OverlayDir, name+"_overlay.png")
				if err := visualization.SaveOverlayPNG(overlayPath, images[i], mask); err != nil {
					log.Printf("Warning: failed to save overlay for %s: %v", paths[i], err)
				} else if cfg.Output.Verbose {
					fmt.Printf("Overlay saved to: %s\n", overlayPath)
				}
			}
		}
	}

	if failures > 0 {
		log.Fatalf("%d of %d image(s) failed to classify", failures, len(results))
	}
}

// collectInputs expands a file or directory argument into a sorted
// list of image paths.
func collectInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(input, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JPG or PNG images found in %s", input)
	}
	sort.Strings(paths)
	return paths, nil
}

func printResult(result *models.PredictionResult, patient models.PatientInfo) {
	fmt.Printf("Prediction: %s (%.1f%% confidence)\n", result.Label, result.Confidence*100)
	fmt.Printf("Risk tier:  %s\n", result.Risk)
	fmt.Println("Probabilities:")
	for _, c := range models.Classes {
		fmt.Printf("  %-11s %.3f\n", c.String()+":", result.Probabilities[c])
	}
	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}

	fmt.Printf("Assessment: %s\n", decision.RiskSummary(result, patient))
	if patient.Age > 0 || len(patient.Symptoms) > 0 {
		fmt.Printf("Patient:    %s\n", decision.PatientContext(patient))
		guidelines := decision.Recommend(result, patient)
		fmt.Printf("Urgency:    %s\n", guidelines.Urgency)
		fmt.Println("Next steps:")
		for _, step := range guidelines.NextSteps {
			fmt.Printf("  - %s\n", step)
		}
		fmt.Println("Referrals:")
		for _, ref := range guidelines.Referrals {
			fmt.Printf("  - %s\n", ref)
		}
	}
}

func printFeatures(features models.FeatureVector, label models.Class) {
	fmt.Println("Features:")
	fmt.Printf("  MeanIntensity:   %.1f\n", features.MeanIntensity)
	fmt.Printf("  VoxelCount:      %.0f\n", features.VoxelCount)
	fmt.Printf("  VolumeNum:       %.0f\n", features.VolumeNum)
	fmt.Printf("  Elongation:      %.3f\n", features.Elongation)
	fmt.Printf("  MajorAxisLength: %.1f\n", features.MajorAxisLength)
	fmt.Printf("  MinorAxisLength: %.1f\n", features.MinorAxisLength)

	fmt.Printf("Contribution to %q:\n", label)
	for _, c := range heuristic.Contributions(features, label) {
		fmt.Printf("  %-20s %.2f  (expected %.1f-%.1f) %s\n",
			c.Feature+":", c.Score, c.Expected.Min, c.Expected.Max, c.Explanation)
	}
}
