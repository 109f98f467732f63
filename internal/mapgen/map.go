package mapgen

import (
	"fmt"

	"github.com/lawnchairsociety/puzzlemap/internal/doodad"
)

// Map is the finished product: row-major tile ids with a parallel overlay
// array. It is immutable; accessors return copies.
type Map struct {
	tiles      []int
	overlays   []int
	width      int
	height     int
	difficulty int
}

// MapData is the serializable form of a Map
type MapData struct {
	Width      int   `json:"width" yaml:"width"`
	Height     int   `json:"height" yaml:"height"`
	Difficulty int   `json:"difficulty" yaml:"difficulty"`
	Tiles      []int `json:"tiles" yaml:"tiles"`
	Overlays   []int `json:"overlays" yaml:"overlays"`
}

// NewMap validates and copies map contents. Overlay slots use doodad.None for empty.
func NewMap(width, height, difficulty int, tiles, overlays []int) (*Map, error) {
	if width <= 0 || height < 0 {
		return nil, fmt.Errorf("mapgen: invalid map dimensions %dx%d", width, height)
	}
	if len(tiles) != width*height {
		return nil, fmt.Errorf("mapgen: map has %d tiles, want %d for %dx%d", len(tiles), width*height, width, height)
	}
	if len(overlays) != len(tiles) {
		return nil, fmt.Errorf("mapgen: map has %d overlays, want %d", len(overlays), len(tiles))
	}
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDifficulty, difficulty)
	}
	for i, o := range overlays {
		if o < doodad.None {
			return nil, fmt.Errorf("mapgen: overlay %d has invalid id %d", i, o)
		}
	}

	m := &Map{
		tiles:      make([]int, len(tiles)),
		overlays:   make([]int, len(overlays)),
		width:      width,
		height:     height,
		difficulty: difficulty,
	}
	copy(m.tiles, tiles)
	copy(m.overlays, overlays)
	return m, nil
}

// FromData rebuilds a Map from its serializable form
func FromData(d MapData) (*Map, error) {
	return NewMap(d.Width, d.Height, d.Difficulty, d.Tiles, d.Overlays)
}

// Data returns the serializable form of the map
func (m *Map) Data() MapData {
	return MapData{
		Width:      m.width,
		Height:     m.height,
		Difficulty: m.difficulty,
		Tiles:      m.Tiles(),
		Overlays:   m.Overlays(),
	}
}

// Width returns the map width in tiles
func (m *Map) Width() int { return m.width }

// Height returns the map height in tiles after trimming
func (m *Map) Height() int { return m.height }

// Difficulty returns the requested difficulty
func (m *Map) Difficulty() int { return m.difficulty }

// Tiles returns a copy of the row-major tile ids
func (m *Map) Tiles() []int {
	out := make([]int, len(m.tiles))
	copy(out, m.tiles)
	return out
}

// Overlays returns a copy of the row-major overlay ids
func (m *Map) Overlays() []int {
	out := make([]int, len(m.overlays))
	copy(out, m.overlays)
	return out
}

// Tile returns the tile id at (x, y); out of range coordinates return -1
func (m *Map) Tile(x, y int) int {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return -1
	}
	return m.tiles[y*m.width+x]
}

// Overlay returns the overlay id at (x, y), or doodad.None
func (m *Map) Overlay(x, y int) int {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return doodad.None
	}
	return m.overlays[y*m.width+x]
}
