package mapgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lawnchairsociety/puzzlemap/internal/puzzle"
)

var (
	// ErrConfiguration is wrapped by every pre-generation validation failure
	ErrConfiguration = errors.New("mapgen: invalid configuration")

	ErrInvalidDifficulty = fmt.Errorf("%w: difficulty out of range", ErrConfiguration)
	ErrInvalidSize       = fmt.Errorf("%w: map size is not a multiple of the piece size", ErrConfiguration)
	ErrTooNarrow         = fmt.Errorf("%w: map is narrower than %d pieces", ErrConfiguration, MinColumns)

	// ErrUnsatisfiable is wrapped by UnsatisfiableCellError
	ErrUnsatisfiable = errors.New("mapgen: unsatisfiable cell")
)

// UnsatisfiableCellError reports a grid cell no catalog piece can fill, or a
// column that never produced a right opening (Attempts > 0).
type UnsatisfiableCellError struct {
	Index    int
	Column   int
	Row      int
	Rows     int
	Zone     puzzle.Zone
	Above    *puzzle.Piece // nil in the top row
	Left     *puzzle.Piece // nil in the first column
	Attempts int           // Column attempts made when the retry cap was hit
}

func describeNeighbour(p *puzzle.Piece) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%s (openings=%s)", p.Name(), p.Openings())
}

func (e *UnsatisfiableCellError) Error() string {
	var b strings.Builder
	if e.Attempts > 0 {
		fmt.Fprintf(&b, "%v: column %d has no right opening after %d attempts", ErrUnsatisfiable, e.Column, e.Attempts)
		return b.String()
	}

	fmt.Fprintf(&b, "%v: no piece fits index %d (column %d, row %d of %d, zone %s); above: %s; left: %s",
		ErrUnsatisfiable, e.Index, e.Column, e.Row, e.Rows, e.Zone, describeNeighbour(e.Above), describeNeighbour(e.Left))
	if e.Row == 0 {
		b.WriteString("; top row forbids top openings")
	}
	if e.Row == e.Rows-1 {
		b.WriteString("; bottom row forbids bottom openings")
	}
	return b.String()
}

func (e *UnsatisfiableCellError) Unwrap() error {
	return ErrUnsatisfiable
}
