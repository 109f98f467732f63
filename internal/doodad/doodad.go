// Package doodad holds the decorative overlay templates and the scatterer that
// places them on finished terrain.
package doodad

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// None marks an overlay slot with no doodad graphic
const None = -1

var (
	ErrInvalidDoodad  = errors.New("doodad: invalid doodad")
	ErrInvalidCatalog = errors.New("doodad: invalid catalog")
)

// Doodad is an immutable rectangle of overlay graphic ids.
// Rarity divides the number of placement attempts; 1 is the most common.
type Doodad struct {
	name     string
	width    int
	height   int
	graphics []int
	rarity   int
}

// NewDoodad validates a template. graphics is row-major with width*height ids.
func NewDoodad(name string, width, height int, graphics []int, rarity int) (*Doodad, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w %q: size %dx%d must be positive", ErrInvalidDoodad, name, width, height)
	}
	if len(graphics) != width*height {
		return nil, fmt.Errorf("%w %q: has %d graphics, want %d for %dx%d", ErrInvalidDoodad, name, len(graphics), width*height, width, height)
	}
	if rarity < 1 {
		return nil, fmt.Errorf("%w %q: rarity must be at least 1, got %d", ErrInvalidDoodad, name, rarity)
	}
	for i, g := range graphics {
		if g < 0 {
			return nil, fmt.Errorf("%w %q: graphic %d is negative (%d)", ErrInvalidDoodad, name, i, g)
		}
	}

	d := &Doodad{
		name:     name,
		width:    width,
		height:   height,
		graphics: make([]int, len(graphics)),
		rarity:   rarity,
	}
	copy(d.graphics, graphics)
	return d, nil
}

// Name returns the catalog name
func (d *Doodad) Name() string { return d.name }

// Width returns the template width in tiles
func (d *Doodad) Width() int { return d.width }

// Height returns the template height in tiles
func (d *Doodad) Height() int { return d.height }

// Area returns width*height
func (d *Doodad) Area() int { return d.width * d.height }

// Rarity returns the attempt divisor
func (d *Doodad) Rarity() int { return d.rarity }

// Graphic returns the overlay id at (x, y) inside the template
func (d *Doodad) Graphic(x, y int) int {
	return d.graphics[y*d.width+x]
}

// Catalog is an ordered, read-only list of doodads. An empty catalog is valid
// and simply produces maps without overlays.
type Catalog struct {
	doodads []*Doodad
}

// NewCatalog builds a catalog, rejecting nil entries and duplicate names
func NewCatalog(doodads ...*Doodad) (*Catalog, error) {
	names := mapset.New[string]()
	for _, d := range doodads {
		if d == nil {
			return nil, fmt.Errorf("%w: nil doodad", ErrInvalidCatalog)
		}
		if names.Has(d.Name()) {
			return nil, fmt.Errorf("%w: duplicate doodad name %q", ErrInvalidCatalog, d.Name())
		}
		names.Put(d.Name())
	}

	c := &Catalog{doodads: make([]*Doodad, len(doodads))}
	copy(c.doodads, doodads)
	return c, nil
}

// Doodads returns the templates in catalog order
func (c *Catalog) Doodads() []*Doodad {
	out := make([]*Doodad, len(c.doodads))
	copy(out, c.doodads)
	return out
}

// Len returns the number of templates
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.doodads)
}

// Doodad returns the template with the given name, or nil
func (c *Catalog) Doodad(name string) *Doodad {
	for _, d := range c.doodads {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Overlay graphic ids used by the built-in catalog
const (
	GraphicWater1        = 130
	GraphicWater2        = 114
	GraphicGreenTree     = 73
	GraphicBareBrownTree = 75
	GraphicFullGreenTree = 77
	GraphicGreenBush1    = 78
	GraphicGreenBush2    = 79
	GraphicSmallGrayRock = 105
	GraphicSmallMushroom = 108
	GraphicBigMushroom   = 109
)

func filled(id, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = id
	}
	return out
}

// DefaultCatalog returns the built-in doodads: one big pond, two medium ponds,
// single-tile trees, bushes and a rock, and two rare mushrooms.
func DefaultCatalog() *Catalog {
	defs := []struct {
		name          string
		width, height int
		graphics      []int
		rarity        int
	}{
		{"big_pond", 5, 5, filled(GraphicWater1, 25), 1},
		{"pond", 3, 3, filled(GraphicWater1, 9), 1},
		{"dark_pond", 3, 3, filled(GraphicWater2, 9), 1},
		{"green_tree", 1, 1, []int{GraphicGreenTree}, 1},
		{"bare_brown_tree", 1, 1, []int{GraphicBareBrownTree}, 1},
		{"full_green_tree", 1, 1, []int{GraphicFullGreenTree}, 1},
		{"green_bush", 1, 1, []int{GraphicGreenBush1}, 1},
		{"green_bush_2", 1, 1, []int{GraphicGreenBush2}, 1},
		{"small_gray_rock", 1, 1, []int{GraphicSmallGrayRock}, 1},
		{"small_mushroom", 1, 1, []int{GraphicSmallMushroom}, 5},
		{"big_mushroom", 1, 1, []int{GraphicBigMushroom}, 5},
	}

	doodads := make([]*Doodad, 0, len(defs))
	for _, def := range defs {
		d, err := NewDoodad(def.name, def.width, def.height, def.graphics, def.rarity)
		if err != nil {
			panic(err)
		}
		doodads = append(doodads, d)
	}

	c, err := NewCatalog(doodads...)
	if err != nil {
		panic(err)
	}
	return c
}
