package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pixelsearch/internal/models"
	"pixelsearch/pkg/config"
	"pixelsearch/pkg/rawvolume"
	"pixelsearch/pkg/search"
	"pixelsearch/pkg/visualization"
)

func main() {
	configPath := flag.String("config", "pixelsearch.yaml", "YAML configuration file (optional)")
	writeConfig := flag.String("write-config", "", "Write the effective configuration to this YAML file and exit")
	// Overrides below are read back through flag.Visit by applyOverride
	flag.String("ref", "", "Raw float32 reference volume")
	flag.String("ref-dims", "", "Reference dimensions as depth,rows,cols")
	flag.String("search", "", "Raw float32 search volume")
	flag.String("search-dims", "", "Search dimensions as depth,rows,cols")
	flag.Int("cores", 0, "Number of goroutines sharing the search (default from config: all CPUs)")
	flag.Float64("grey-low", 0, "Lowest admissible reference mean (enables the grey threshold)")
	flag.Float64("grey-high", 0, "Highest admissible reference mean (enables the grey threshold)")
	flag.Bool("extract-slices", false, "Save slices of the matched window and the correlation map")
	flag.String("slices-dir", "", "Directory to save extracted slices")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the config file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if perr := applyOverride(cfg, f.Name, f.Value.String()); perr != nil && flagErr == nil {
			flagErr = fmt.Errorf("-%s: %w", f.Name, perr)
		}
	})
	if flagErr != nil {
		log.Fatalf("Invalid flag: %v", flagErr)
	}

	if *writeConfig != "" {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
		if err := config.SaveConfig(cfg, *writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Configuration written to: %s\n", *writeConfig)
		return
	}

	if cfg.Input.Reference == "" || cfg.Input.Search == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	refVol, err := rawvolume.Load(cfg.Input.Reference, dimsOf(cfg.Input.ReferenceDims))
	if err != nil {
		log.Fatalf("Failed to load reference volume: %v", err)
	}
	searchVol, err := rawvolume.Load(cfg.Input.Search, dimsOf(cfg.Input.SearchDims))
	if err != nil {
		log.Fatalf("Failed to load search volume: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("EXHAUSTIVE 3D PIXEL SEARCH BY NORMALIZED CROSS-CORRELATION")
	fmt.Println("================================")
	if cfg.Output.Verbose {
		fmt.Printf("Reference: %s (%s)\n", cfg.Input.Reference, refVol.Dims)
		fmt.Printf("Search:    %s (%s)\n", cfg.Input.Search, searchVol.Dims)
		fmt.Printf("Using %d cores\n", cfg.Search.NumCores)
	}

	matcher := search.NewMatcher(&search.Params{
		NumCores: cfg.Search.NumCores,
		Gate:     cfg.Search.GreyThreshold != nil,
		GreyLow:  greyBound(cfg, 0),
		GreyHigh: greyBound(cfg, 1),
	})

	startTime := time.Now()
	result, err := matcher.MatchNode(refVol, searchVol)
	if errors.Is(err, search.ErrGreyThreshold) {
		log.Fatalf("Reference window skipped: %v", err)
	} else if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	elapsed := time.Since(startTime)

	fmt.Println(renderResult(result, elapsed))

	if !result.Valid {
		fmt.Printf("Warning: reference %s does not fit inside search %s, no candidate was evaluated\n",
			refVol.Dims, searchVol.Dims)
	} else if !result.Finite() {
		fmt.Println("Warning: best score is not finite")
	}

	if cfg.Output.ExtractSlices && result.Valid {
		if err := saveSlices(cfg.Output.SlicesDir, refVol, searchVol, result); err != nil {
			log.Printf("Warning: Failed to save slices: %v", err)
		} else {
			fmt.Printf("Slices saved to: %s\n", cfg.Output.SlicesDir)
		}
	}
}

// applyOverride sets the config field behind a command line flag
func applyOverride(cfg *config.Config, name, value string) error {
	switch name {
	case "ref":
		cfg.Input.Reference = value
	case "search":
		cfg.Input.Search = value
	case "ref-dims", "search-dims":
		dims, err := parseDims(value)
		if err != nil {
			return err
		}
		if name == "ref-dims" {
			cfg.Input.ReferenceDims = dims
		} else {
			cfg.Input.SearchDims = dims
		}
	case "cores":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Search.NumCores = n
	case "grey-low", "grey-high":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if cfg.Search.GreyThreshold == nil {
			cfg.Search.GreyThreshold = &[2]float64{}
		}
		if name == "grey-low" {
			cfg.Search.GreyThreshold[0] = v
		} else {
			cfg.Search.GreyThreshold[1] = v
		}
	case "extract-slices":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		cfg.Output.ExtractSlices = b
	case "slices-dir":
		cfg.Output.SlicesDir = value
	}
	return nil
}

func greyBound(cfg *config.Config, i int) float64 {
	if cfg.Search.GreyThreshold == nil {
		return 0
	}
	return cfg.Search.GreyThreshold[i]
}

// parseDims parses "depth,rows,cols"
func parseDims(s string) ([3]int, error) {
	var dims [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return dims, fmt.Errorf("expected depth,rows,cols, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return dims, fmt.Errorf("bad dimension %q: %w", p, err)
		}
		if n < 0 {
			return dims, fmt.Errorf("dimension %d is negative", n)
		}
		dims[i] = n
	}
	if _, err := dimsOf(dims).Size(); err != nil {
		return dims, err
	}
	return dims, nil
}

func dimsOf(d [3]int) models.Dims {
	return models.Dims{Depth: d[0], Rows: d[1], Cols: d[2]}
}

// saveSlices writes the matched search window and the correlation map
// along all three axes
func saveSlices(dir string, refVol, searchVol *models.Volume, result models.Result) error {
	window, err := visualization.NewViewer(searchVol).ExtractRegion(result.Offset, refVol.Dims)
	if err != nil {
		return fmt.Errorf("matched window: %w", err)
	}
	cmap, _ := search.CorrelationMap(refVol, searchVol)

	for name, vol := range map[string]*models.Volume{"matched": window, "correlation": cmap} {
		viewer := visualization.NewViewer(vol)
		for _, axis := range []string{"x", "y", "z"} {
			if err := viewer.SaveSliceSequence(axis, filepath.Join(dir, name, axis)); err != nil {
				return fmt.Errorf("%s %s-axis: %w", name, axis, err)
			}
		}
	}
	return nil
}
