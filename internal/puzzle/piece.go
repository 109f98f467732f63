// Package puzzle defines the square tile templates ("puzzle pieces") that the map
// generator stitches together, along with the zone and edge sets used to match them.
package puzzle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPiece is returned when a piece template fails validation
var ErrInvalidPiece = errors.New("puzzle: invalid piece")

// Piece is an immutable square block of walkable (1) and non-walkable (0) tiles.
//
// Openings are derived from the tiles: a piece has an opening on an edge when
// any walkable tile touches that edge.
type Piece struct {
	name     string
	size     int
	tiles    []bool
	zones    ZoneSet
	openings DirectionSet
}

// NewPiece validates a template and computes its openings.
// tiles is row-major and must hold exactly size*size values of 0 or 1.
func NewPiece(name string, size int, tiles []int, zones ZoneSet) (*Piece, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w %q: size must be positive, got %d", ErrInvalidPiece, name, size)
	}
	if len(tiles) != size*size {
		return nil, fmt.Errorf("%w %q: has %d tiles, want %d for size %d", ErrInvalidPiece, name, len(tiles), size*size, size)
	}
	if zones.Empty() {
		return nil, fmt.Errorf("%w %q: no zones", ErrInvalidPiece, name)
	}

	p := &Piece{
		name:  name,
		size:  size,
		tiles: make([]bool, len(tiles)),
		zones: zones,
	}
	for i, v := range tiles {
		switch v {
		case 0:
		case 1:
			p.tiles[i] = true
		default:
			return nil, fmt.Errorf("%w %q: tile %d has value %d, want 0 or 1", ErrInvalidPiece, name, i, v)
		}
	}

	p.openings = p.computeOpenings()
	return p, nil
}

func (p *Piece) computeOpenings() DirectionSet {
	var dirs []Direction
	last := p.size - 1
	for i := 0; i < p.size; i++ {
		if p.Walkable(i, 0) {
			dirs = append(dirs, Up)
		}
		if p.Walkable(i, last) {
			dirs = append(dirs, Down)
		}
		if p.Walkable(0, i) {
			dirs = append(dirs, Left)
		}
		if p.Walkable(last, i) {
			dirs = append(dirs, Right)
		}
	}
	return Directions(dirs...)
}

// Name returns the catalog name of the piece
func (p *Piece) Name() string {
	return p.name
}

// Size returns the edge length of the piece in tiles
func (p *Piece) Size() int {
	return p.size
}

// Zones returns the zones the piece may occupy
func (p *Piece) Zones() ZoneSet {
	return p.zones
}

// Openings returns the edges a walkable path crosses
func (p *Piece) Openings() DirectionSet {
	return p.openings
}

// HasOpening reports whether a walkable tile touches the given edge
func (p *Piece) HasOpening(d Direction) bool {
	return p.openings.Has(d)
}

// Walkable reports whether the tile at (x, y) inside the piece is walkable.
// Coordinates outside the piece are not walkable.
func (p *Piece) Walkable(x, y int) bool {
	if x < 0 || y < 0 || x >= p.size || y >= p.size {
		return false
	}
	return p.tiles[y*p.size+x]
}

// Stamp copies the piece into a row-major terrain buffer of the given stride,
// with the piece's top-left tile landing at (x, y).
func (p *Piece) Stamp(dst []bool, stride, x, y int) {
	for row := 0; row < p.size; row++ {
		start := (y+row)*stride + x
		copy(dst[start:start+p.size], p.tiles[row*p.size:(row+1)*p.size])
	}
}

// String renders the piece as rows of 0 and 1 under a header line
func (p *Piece) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [zones=%s openings=%s]\n", p.name, p.zones, p.openings)
	for y := 0; y < p.size; y++ {
		for x := 0; x < p.size; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			if p.Walkable(x, y) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
