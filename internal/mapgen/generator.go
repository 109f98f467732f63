// Package mapgen assembles puzzle pieces into a connected tile map and
// decorates it with doodads.
//
// Generation runs column by column, left to right. Each cell takes a random
// piece among those whose openings agree with the already placed pieces above
// and to the left; a column that offers no way to the right is rebuilt.
package mapgen

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/lawnchairsociety/puzzlemap/internal/doodad"
	"github.com/lawnchairsociety/puzzlemap/internal/logger"
	"github.com/lawnchairsociety/puzzlemap/internal/puzzle"
)

// Generator produces maps from one configuration and random source.
// It is not safe for concurrent use; create one per goroutine.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a generator. A nil rng is seeded from the clock.
func NewGenerator(cfg Config, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		cfg: cfg.withDefaults(),
		rng: rng,
	}
}

// NewSeededGenerator creates a generator whose output is fixed by seed
func NewSeededGenerator(cfg Config, seed int64) *Generator {
	return NewGenerator(cfg, rand.New(rand.NewSource(seed)))
}

// Generate builds a map with the built-in catalogs and a clock-seeded source
func Generate(width, height, difficulty int) (*Map, error) {
	return NewGenerator(DefaultConfig(), nil).Generate(width, height, difficulty)
}

// Config returns the generator's effective configuration
func (g *Generator) Config() Config {
	return g.cfg
}

// Validate checks the request without generating anything
func (g *Generator) Validate(width, height, difficulty int) error {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return fmt.Errorf("%w: got %d, want %d-%d", ErrInvalidDifficulty, difficulty, MinDifficulty, MaxDifficulty)
	}

	size := g.cfg.Pieces.PieceSize()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if (width*height)%(size*size) != 0 || width%size != 0 || height%size != 0 {
		return fmt.Errorf("%w: %dx%d with %dx%d pieces", ErrInvalidSize, width, height, size, size)
	}
	if width < MinColumns*size {
		return fmt.Errorf("%w: width %d, need at least %d", ErrTooNarrow, width, MinColumns*size)
	}
	return nil
}

// generationContext owns the working state of one Generate call
type generationContext struct {
	grid       *pieceGrid
	zonePieces map[puzzle.Zone][]*puzzle.Piece
	rng        *rand.Rand
	maxRetries int
	log        *slog.Logger
}

func (g *Generator) newContext(cols, rows int, log *slog.Logger) *generationContext {
	zonePieces := make(map[puzzle.Zone][]*puzzle.Piece, 3)
	for _, z := range []puzzle.Zone{puzzle.ZoneLeft, puzzle.ZoneMiddle, puzzle.ZoneRight} {
		zonePieces[z] = g.cfg.Pieces.InZone(z)
	}
	return &generationContext{
		grid:       newPieceGrid(cols, rows),
		zonePieces: zonePieces,
		rng:        g.rng,
		maxRetries: g.cfg.MaxColumnRetries,
		log:        log,
	}
}

// Generate builds a width x height tile map. Leading blank rows are trimmed,
// so the returned height may be smaller than requested; the width never changes.
func (g *Generator) Generate(width, height, difficulty int) (*Map, error) {
	if err := g.Validate(width, height, difficulty); err != nil {
		return nil, err
	}

	size := g.cfg.Pieces.PieceSize()
	log := logger.With("width", width, "height", height, "difficulty", difficulty)
	ctx := g.newContext(width/size, height/size, log)

	for col := 0; col < ctx.grid.cols; col++ {
		if err := ctx.buildColumn(col); err != nil {
			return nil, err
		}
	}

	terrain := ctx.stamp(size, width, height)
	terrain, trimmed := trimBlankRows(terrain, width)
	height -= trimmed
	if trimmed > 0 {
		log.Debug("Trimmed blank rows", "rows", trimmed)
	}

	layer := doodad.NewLayer(width, height, terrain)
	placed := doodad.NewScatterer(g.cfg.Doodads, g.cfg.Scatter, g.rng).Scatter(layer)

	tiles := make([]int, len(terrain))
	for i, walkable := range terrain {
		if walkable {
			tiles[i] = g.cfg.WalkableTile
		} else {
			tiles[i] = g.cfg.NonWalkableTile
		}
	}

	log.Info("Generated map", "final_height", height, "doodads", placed)
	return &Map{
		tiles:      tiles,
		overlays:   layer.Overlays(),
		width:      width,
		height:     height,
		difficulty: difficulty,
	}, nil
}

// stamp flattens the piece grid into row-major binary terrain
func (ctx *generationContext) stamp(size, width, height int) []bool {
	terrain := make([]bool, width*height)
	x, y := 0, 0
	for _, p := range ctx.grid.cells {
		p.Stamp(terrain, width, x, y)
		y += size
		if y == height {
			y = 0
			x += size
		}
	}
	return terrain
}

// trimBlankRows drops leading rows with no walkable tile, stopping at the
// first row that has one. It returns the remaining terrain and the row count removed.
func trimBlankRows(terrain []bool, width int) ([]bool, int) {
	removed := 0
	for len(terrain) >= width && width > 0 {
		blank := true
		for _, walkable := range terrain[:width] {
			if walkable {
				blank = false
				break
			}
		}
		if !blank {
			break
		}
		terrain = terrain[width:]
		removed++
	}
	return terrain, removed
}
