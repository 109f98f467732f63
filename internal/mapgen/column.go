package mapgen

import (
	"github.com/lawnchairsociety/puzzlemap/internal/puzzle"
)

// buildColumn fills every row of col top to bottom. A column other than the
// last must contain at least one right opening; otherwise it is discarded and
// rebuilt, up to maxRetries times.
func (ctx *generationContext) buildColumn(col int) error {
	g := ctx.grid
	start := col * g.rows
	last := col == g.cols-1

	for retries := 0; ; retries++ {
		g.truncate(start)

		hasRight := false
		for row := 0; row < g.rows; row++ {
			index := start + row
			candidates := ctx.candidates(index)
			if len(candidates) == 0 {
				return ctx.unsatisfiable(index, 0)
			}

			p := candidates[ctx.rng.Intn(len(candidates))]
			g.place(p)
			if p.HasOpening(puzzle.Right) {
				hasRight = true
			}
		}

		if last || hasRight {
			if retries > 0 {
				ctx.log.Debug("Column rebuilt", "column", col, "retries", retries)
			}
			return nil
		}

		if retries >= ctx.maxRetries {
			g.truncate(start)
			return ctx.unsatisfiable(start, retries+1)
		}
		ctx.log.Debug("Column has no right opening, retrying", "column", col, "attempt", retries+1)
	}
}

// unsatisfiable captures the neighbourhood of index for diagnostics
func (ctx *generationContext) unsatisfiable(index, attempts int) *UnsatisfiableCellError {
	g := ctx.grid
	col, row := g.position(index)
	err := &UnsatisfiableCellError{
		Index:    index,
		Column:   col,
		Row:      row,
		Rows:     g.rows,
		Zone:     puzzle.ZoneForColumn(col, g.cols),
		Above:    g.at(col, row-1),
		Left:     g.at(col-1, row),
		Attempts: attempts,
	}

	args := []any{"index", index, "column", col, "row", row, "zone", err.Zone.String(), "attempts", attempts}
	if err.Above != nil {
		args = append(args, "above", err.Above.String())
	}
	if err.Left != nil {
		args = append(args, "left", err.Left.String())
	}
	ctx.log.Error("Unsatisfiable grid cell", args...)
	return err
}
