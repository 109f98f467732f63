package puzzle

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// DefaultPieceSize is the edge length of the built-in pieces
const DefaultPieceSize = 5

// ErrInvalidCatalog is returned when a set of pieces cannot form a catalog
var ErrInvalidCatalog = errors.New("puzzle: invalid catalog")

// Catalog is an ordered, read-only collection of pieces sharing one size.
// It is safe to share between goroutines.
type Catalog struct {
	pieces []*Piece
	size   int
}

// NewCatalog validates the pieces and returns a catalog preserving their order.
// Every zone needs at least one piece or some columns could never be filled.
func NewCatalog(pieces ...*Piece) (*Catalog, error) {
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no pieces", ErrInvalidCatalog)
	}

	names := mapset.New[string]()
	var covered ZoneSet
	size := 0
	for _, p := range pieces {
		if p == nil {
			return nil, fmt.Errorf("%w: nil piece", ErrInvalidCatalog)
		}
		if size == 0 {
			size = p.Size()
		}
		if p.Size() != size {
			return nil, fmt.Errorf("%w: piece %q has size %d, catalog uses %d", ErrInvalidCatalog, p.Name(), p.Size(), size)
		}
		if names.Has(p.Name()) {
			return nil, fmt.Errorf("%w: duplicate piece name %q", ErrInvalidCatalog, p.Name())
		}
		names.Put(p.Name())
		covered = covered.Union(p.Zones())
	}
	if covered != AllZones {
		return nil, fmt.Errorf("%w: pieces cover zones %s, need %s", ErrInvalidCatalog, covered, AllZones)
	}

	c := &Catalog{
		pieces: make([]*Piece, len(pieces)),
		size:   size,
	}
	copy(c.pieces, pieces)
	return c, nil
}

// Pieces returns the catalog pieces in insertion order
func (c *Catalog) Pieces() []*Piece {
	out := make([]*Piece, len(c.pieces))
	copy(out, c.pieces)
	return out
}

// Len returns the number of pieces
func (c *Catalog) Len() int {
	return len(c.pieces)
}

// PieceSize returns the edge length shared by every piece
func (c *Catalog) PieceSize() int {
	return c.size
}

// Piece returns the piece with the given name, or nil
func (c *Catalog) Piece(name string) *Piece {
	for _, p := range c.pieces {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// InZone returns the pieces eligible for zone z, in catalog order
func (c *Catalog) InZone(z Zone) []*Piece {
	var out []*Piece
	for _, p := range c.pieces {
		if p.Zones().Has(z) {
			out = append(out, p)
		}
	}
	return out
}

// builtinPieces mirrors the hand-authored set shipped with the game
var builtinPieces = []struct {
	name  string
	zones ZoneSet
	tiles []int
}{
	{"blank", AllZones, []int{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
	{"left_end", Zones(ZoneLeft), []int{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 1, 1, 1,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
	{"corridor", Zones(ZoneMiddle), []int{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		1, 1, 1, 1, 1,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
	{"dip", Zones(ZoneMiddle), []int{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		1, 1, 0, 1, 1,
		0, 1, 0, 1, 0,
		0, 1, 1, 1, 0,
	}},
	{"bend_up", Zones(ZoneMiddle), []int{
		0, 0, 1, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 1, 1, 1,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
	{"tee_up", Zones(ZoneMiddle), []int{
		0, 0, 1, 0, 0,
		0, 0, 1, 0, 0,
		1, 1, 1, 1, 1,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
	{"loop_fork", Zones(ZoneMiddle), []int{
		0, 1, 1, 1, 0,
		0, 1, 0, 1, 0,
		0, 1, 0, 1, 1,
		0, 1, 1, 0, 0,
		0, 0, 1, 0, 0,
	}},
	{"loop_through", Zones(ZoneMiddle), []int{
		0, 1, 1, 1, 0,
		0, 1, 0, 1, 0,
		1, 1, 0, 1, 1,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
	{"loop_east", Zones(ZoneMiddle), []int{
		0, 1, 1, 1, 0,
		0, 1, 0, 1, 0,
		0, 1, 1, 1, 1,
		0, 0, 1, 1, 0,
		0, 0, 0, 0, 0,
	}},
	{"right_end", Zones(ZoneRight), []int{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		1, 1, 1, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}},
}

// DefaultCatalog returns the built-in piece catalog
func DefaultCatalog() *Catalog {
	pieces := make([]*Piece, 0, len(builtinPieces))
	for _, def := range builtinPieces {
		p, err := NewPiece(def.name, DefaultPieceSize, def.tiles, def.zones)
		if err != nil {
			panic(err)
		}
		pieces = append(pieces, p)
	}
	c, err := NewCatalog(pieces...)
	if err != nil {
		panic(err)
	}
	return c
}
