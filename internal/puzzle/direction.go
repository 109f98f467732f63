package puzzle

import "strings"

// Direction represents one edge of a puzzle piece
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Opposite returns the edge a neighbouring piece presents across this one
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	default:
		return d
	}
}

func (d Direction) valid() bool {
	return d >= Up && d <= Left
}

// AllDirections returns the four edges in clockwise order starting at Up
func AllDirections() []Direction {
	return []Direction{Up, Right, Down, Left}
}

// DirectionSet is a set of piece edges. The zero value is the empty set.
type DirectionSet uint8

// Directions builds a set from the given directions. Unknown values are ignored.
func Directions(dirs ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range dirs {
		if d.valid() {
			s |= 1 << uint(d)
		}
	}
	return s
}

// Has reports whether d is in the set
func (s DirectionSet) Has(d Direction) bool {
	if !d.valid() {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Union returns the directions present in either set
func (s DirectionSet) Union(other DirectionSet) DirectionSet {
	return s | other
}

// Intersect returns the directions present in both sets
func (s DirectionSet) Intersect(other DirectionSet) DirectionSet {
	return s & other
}

// Empty reports whether the set has no directions
func (s DirectionSet) Empty() bool {
	return s == 0
}

// Len returns the number of directions in the set
func (s DirectionSet) Len() int {
	n := 0
	for _, d := range AllDirections() {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// String joins the set members with "|", or returns "none"
func (s DirectionSet) String() string {
	if s.Empty() {
		return "none"
	}
	var parts []string
	for _, d := range AllDirections() {
		if s.Has(d) {
			parts = append(parts, d.String())
		}
	}
	return strings.Join(parts, "|")
}
