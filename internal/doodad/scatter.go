package doodad

import (
	"math"
	"math/rand"

	"github.com/lawnchairsociety/puzzlemap/internal/logger"
)

// Layer is the overlay array for one map together with the binary terrain it
// decorates. Overlays may only cover non-walkable tiles and never each other.
type Layer struct {
	width, height int
	walkable      []bool
	overlays      []int
}

// NewLayer creates an empty overlay layer over row-major terrain.
// walkable is read, never written; it must hold width*height entries.
func NewLayer(width, height int, walkable []bool) *Layer {
	overlays := make([]int, width*height)
	for i := range overlays {
		overlays[i] = None
	}
	return &Layer{
		width:    width,
		height:   height,
		walkable: walkable,
		overlays: overlays,
	}
}

// Width returns the layer width in tiles
func (l *Layer) Width() int { return l.width }

// Height returns the layer height in tiles
func (l *Layer) Height() int { return l.height }

func (l *Layer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.width && y < l.height
}

// CanPlace is the dry run: it reports whether d fits with its top-left corner
// at (x, y). Cells outside the map are ignored. The layer is never modified.
func (l *Layer) CanPlace(d *Doodad, x, y int) bool {
	for dy := 0; dy < d.height; dy++ {
		for dx := 0; dx < d.width; dx++ {
			tx, ty := x+dx, y+dy
			if !l.inBounds(tx, ty) {
				continue
			}
			i := ty*l.width + tx
			if l.walkable[i] || l.overlays[i] != None {
				return false
			}
		}
	}
	return true
}

// Place writes d's graphics into every in-bounds cell without checking.
// Callers run CanPlace first.
func (l *Layer) Place(d *Doodad, x, y int) {
	for dy := 0; dy < d.height; dy++ {
		for dx := 0; dx < d.width; dx++ {
			tx, ty := x+dx, y+dy
			if !l.inBounds(tx, ty) {
				continue
			}
			l.overlays[ty*l.width+tx] = d.Graphic(dx, dy)
		}
	}
}

// TryPlace places d when the dry run passes and reports whether it did
func (l *Layer) TryPlace(d *Doodad, x, y int) bool {
	if !l.CanPlace(d, x, y) {
		return false
	}
	l.Place(d, x, y)
	return true
}

// Overlay returns the graphic id at (x, y), or None
func (l *Layer) Overlay(x, y int) int {
	if !l.inBounds(x, y) {
		return None
	}
	return l.overlays[y*l.width+x]
}

// Overlays returns a copy of the row-major overlay array
func (l *Layer) Overlays() []int {
	out := make([]int, len(l.overlays))
	copy(out, l.overlays)
	return out
}

// ScatterConfig tunes the attempt budget
type ScatterConfig struct {
	Density     float64 `yaml:"density"`      // Roughly one doodad every Density tiles
	MaxAttempts float64 `yaml:"max_attempts"` // Cap on area-scaled attempts before rarity
}

// DefaultScatterConfig returns the stock tuning: density 5, at most 250 attempts
func DefaultScatterConfig() ScatterConfig {
	return ScatterConfig{
		Density:     5,
		MaxAttempts: 250,
	}
}

// Scatterer places doodads by rejection sampling
type Scatterer struct {
	catalog *Catalog
	cfg     ScatterConfig
	rng     *rand.Rand
}

// NewScatterer creates a scatterer drawing positions from rng.
// Zero config fields fall back to the defaults.
func NewScatterer(catalog *Catalog, cfg ScatterConfig, rng *rand.Rand) *Scatterer {
	def := DefaultScatterConfig()
	if cfg.Density <= 0 {
		cfg.Density = def.Density
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &Scatterer{
		catalog: catalog,
		cfg:     cfg,
		rng:     rng,
	}
}

// Attempts returns how many placements of d are tried on a width x height map
func (s *Scatterer) Attempts(d *Doodad, width, height int) int {
	n := s.catalog.Len()
	if n == 0 {
		return 0
	}
	perSquare := float64(width*height) / s.cfg.Density / float64(n)
	budget := math.Min(float64(d.Area())*perSquare, s.cfg.MaxAttempts)
	return int(math.Ceil(budget / float64(d.Rarity())))
}

// Scatter runs every template's attempt budget against the layer and returns
// the number of doodads placed. Rejected attempts are skipped.
func (s *Scatterer) Scatter(l *Layer) int {
	if s.catalog.Len() == 0 {
		return 0
	}

	placed := 0
	for _, d := range s.catalog.doodads {
		attempts := s.Attempts(d, l.width, l.height)
		hits := 0
		for i := 0; i < attempts; i++ {
			// Anchors may start up to width-1 tiles off the left/top edge
			x := s.rng.Intn(l.width+d.width) - (d.width - 1)
			y := s.rng.Intn(l.height+d.height) - (d.height - 1)
			if l.TryPlace(d, x, y) {
				hits++
			}
		}
		logger.Debug("Scattered doodad", "doodad", d.name, "attempts", attempts, "placed", hits)
		placed += hits
	}
	return placed
}
