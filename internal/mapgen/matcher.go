package mapgen

import (
	"github.com/lawnchairsociety/puzzlemap/internal/puzzle"
)

// pieceGrid is the column-major arrangement of placed pieces.
// Cells are appended in generation order, so index = col*rows + row.
type pieceGrid struct {
	cols, rows int
	cells      []*puzzle.Piece
}

func newPieceGrid(cols, rows int) *pieceGrid {
	return &pieceGrid{
		cols:  cols,
		rows:  rows,
		cells: make([]*puzzle.Piece, 0, cols*rows),
	}
}

func (g *pieceGrid) position(index int) (col, row int) {
	return index / g.rows, index % g.rows
}

// at returns the placed piece at (col, row), or nil if that cell is outside
// the grid or not yet placed.
func (g *pieceGrid) at(col, row int) *puzzle.Piece {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return nil
	}
	i := col*g.rows + row
	if i >= len(g.cells) {
		return nil
	}
	return g.cells[i]
}

// truncate drops every piece from index on
func (g *pieceGrid) truncate(index int) {
	for i := index; i < len(g.cells); i++ {
		g.cells[i] = nil
	}
	g.cells = g.cells[:index]
}

func (g *pieceGrid) place(p *puzzle.Piece) {
	g.cells = append(g.cells, p)
}

// candidates returns the catalog pieces that may go at index given the
// already placed up and left neighbours, in catalog order.
func (ctx *generationContext) candidates(index int) []*puzzle.Piece {
	g := ctx.grid
	col, row := g.position(index)
	zone := puzzle.ZoneForColumn(col, g.cols)
	above := g.at(col, row-1)
	left := g.at(col-1, row)

	var out []*puzzle.Piece
	for _, p := range ctx.zonePieces[zone] {
		if fits(p, zone, row, g.rows, above, left) {
			out = append(out, p)
		}
	}
	return out
}

func fits(p *puzzle.Piece, zone puzzle.Zone, row, rows int, above, left *puzzle.Piece) bool {
	// Shared top edge; no neighbour above means no top opening
	if above != nil {
		if above.HasOpening(puzzle.Down) != p.HasOpening(puzzle.Up) {
			return false
		}
	} else if p.HasOpening(puzzle.Up) {
		return false
	}

	// Shared left edge; the first column has no constraint here
	if left != nil && left.HasOpening(puzzle.Right) != p.HasOpening(puzzle.Left) {
		return false
	}

	// Paths may not leave the map vertically
	if row == 0 && p.HasOpening(puzzle.Up) {
		return false
	}
	if row == rows-1 && p.HasOpening(puzzle.Down) {
		return false
	}

	// A middle piece cannot continue a path out of a dead wall
	if zone == puzzle.ZoneMiddle && left != nil && !left.HasOpening(puzzle.Right) && p.HasOpening(puzzle.Left) {
		return false
	}

	return true
}
