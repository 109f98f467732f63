package mapgen

import (
	"github.com/lawnchairsociety/puzzlemap/internal/doodad"
	"github.com/lawnchairsociety/puzzlemap/internal/puzzle"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 4

	// MinColumns is the narrowest map: one left, one middle and one right column
	MinColumns = 3

	DefaultMaxColumnRetries = 1000
	DefaultWalkableTile     = 16
	DefaultNonWalkableTile  = 88
)

// Config contains the catalogs and tuning for a Generator
type Config struct {
	Pieces           *puzzle.Catalog
	Doodads          *doodad.Catalog
	Scatter          doodad.ScatterConfig
	MaxColumnRetries int // Retries per column before giving up
	WalkableTile     int // Graphic id for walkable terrain
	NonWalkableTile  int // Graphic id for blocked terrain
}

// DefaultConfig returns the built-in catalogs and stock tuning
func DefaultConfig() Config {
	return Config{
		Pieces:           puzzle.DefaultCatalog(),
		Doodads:          doodad.DefaultCatalog(),
		Scatter:          doodad.DefaultScatterConfig(),
		MaxColumnRetries: DefaultMaxColumnRetries,
		WalkableTile:     DefaultWalkableTile,
		NonWalkableTile:  DefaultNonWalkableTile,
	}
}

// withDefaults fills unset catalogs and a negative retry cap.
// A nil doodad catalog means the built-in one; pass an empty catalog to disable doodads.
func (c Config) withDefaults() Config {
	if c.Pieces == nil {
		c.Pieces = puzzle.DefaultCatalog()
	}
	if c.Doodads == nil {
		c.Doodads = doodad.DefaultCatalog()
	}
	if c.MaxColumnRetries < 0 {
		c.MaxColumnRetries = DefaultMaxColumnRetries
	}
	return c
}
