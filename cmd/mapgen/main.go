package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/lawnchairsociety/puzzlemap/internal/config"
	"github.com/lawnchairsociety/puzzlemap/internal/logger"
	"github.com/lawnchairsociety/puzzlemap/internal/mapfile"
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
)

// Output formats
const (
	formatASCII = "ascii"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

func main() {
	configFile := flag.String("config", "", "Path to config YAML file (optional)")
	width := flag.Int("width", 0, "Map width in tiles (default from config)")
	height := flag.Int("height", 0, "Map height in tiles (default from config)")
	difficulty := flag.Int("difficulty", 0, "Difficulty 1-4 (default from config)")
	seed := flag.Int64("seed", 0, "Base seed; map i uses seed+i (default: random based on current time)")
	count := flag.Int("count", 1, "Number of maps to generate")
	piecesFile := flag.String("pieces", "", "Path to piece catalog YAML file (default: built-in)")
	doodadsFile := flag.String("doodads", "", "Path to doodad catalog YAML file (default: built-in)")
	outDir := flag.String("out", "", "Output directory (empty for stdout)")
	format := flag.String("format", formatASCII, "Output format: ascii, yaml or json")
	save := flag.Bool("save", false, "Also save each map to the configured map store")
	colorMode := flag.String("color", "auto", "Colour ASCII output: auto, always or never")
	overlays := flag.Bool("overlays", true, "Draw doodads in ASCII output")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*configFile)
	if err := logger.Initialize(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyFlags(cfg, *width, *height, *difficulty, *piecesFile, *doodadsFile)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := checkFormat(*format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *count < 1 {
		fmt.Fprintln(os.Stderr, "Error: --count must be at least 1")
		os.Exit(1)
	}

	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalogs: %v\n", err)
		os.Exit(1)
	}

	var store *mapstore.Store
	if *save {
		store, err = mapstore.OpenWithConfig(cfg.Store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening map store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
			os.Exit(1)
		}
	}

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	opts := mapfile.RenderOptions{
		Color:        useColor(*colorMode, *outDir == ""),
		ShowOverlays: *overlays,
	}
	g := cfg.Generator

	failed := 0
	for i := 0; i < *count; i++ {
		mapSeed := baseSeed + int64(i)
		m, err := mapgen.NewSeededGenerator(genCfg, mapSeed).Generate(g.Width, g.Height, g.Difficulty)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Map %d (seed %d) FAILED: %v\n", i+1, mapSeed, err)
			failed++
			continue
		}
		logger.Debug("Map generated", "seed", mapSeed, "width", m.Width(), "height", m.Height())

		meta := mapfile.Meta{Seed: mapSeed, Name: fmt.Sprintf("map-%d", mapSeed)}
		if err := emit(m, meta, *format, *outDir, g.WalkableTile, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing map %d: %v\n", i+1, err)
			os.Exit(1)
		}

		if store != nil {
			rec, err := store.SaveMap(m, mapSeed)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error saving map %d: %v\n", i+1, err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Saved map %d as %s\n", i+1, rec.ID)
		}
	}

	if *outDir != "" {
		fmt.Printf("Generated %d map(s) in %s\n", *count-failed, *outDir)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// applyFlags overrides config values with the flags that were set
func applyFlags(cfg *config.Config, width, height, difficulty int, pieces, doodads string) {
	if width > 0 {
		cfg.Generator.Width = width
	}
	if height > 0 {
		cfg.Generator.Height = height
	}
	if difficulty > 0 {
		cfg.Generator.Difficulty = difficulty
	}
	if pieces != "" {
		cfg.Generator.PieceCatalog = pieces
	}
	if doodads != "" {
		cfg.Generator.DoodadCatalog = doodads
	}
}

func checkFormat(format string) error {
	switch format {
	case formatASCII, formatYAML, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want ascii, yaml or json)", format)
}

// useColor resolves the -color flag. Colour is only automatic on a terminal.
func useColor(mode string, toStdout bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return toStdout && term.IsTerminal(int(os.Stdout.Fd()))
}

// outputName returns the file name for a map in the given format
func outputName(meta mapfile.Meta, format string) string {
	ext := format
	if format == formatASCII {
		ext = "txt"
	}
	return fmt.Sprintf("%s.%s", meta.Name, ext)
}

// emit writes one map to stdout or to a file in outDir
func emit(m *mapgen.Map, meta mapfile.Meta, format, outDir string, walkableTile int, opts mapfile.RenderOptions) error {
	var w io.Writer = os.Stdout
	if outDir != "" {
		f, err := os.Create(filepath.Join(outDir, outputName(meta, format)))
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return write(w, m, meta, format, walkableTile, opts)
}

func write(w io.Writer, m *mapgen.Map, meta mapfile.Meta, format string, walkableTile int, opts mapfile.RenderOptions) error {
	switch format {
	case formatYAML:
		return mapfile.EncodeYAML(w, m, meta)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Name string `json:"name"`
			Seed int64  `json:"seed"`
			mapgen.MapData
		}{meta.Name, meta.Seed, m.Data()})
	default:
		_, err := fmt.Fprintf(w, "%s (seed %d, %dx%d, difficulty %d)\n%s\n",
			meta.Name, meta.Seed, m.Width(), m.Height(), m.Difficulty(),
			mapfile.RenderASCII(m, walkableTile, opts))
		return err
	}
}
