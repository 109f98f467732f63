package puzzle

import (
	"fmt"
	"strings"
)

// Zone is a horizontal band of the map a piece may occupy
type Zone int

const (
	ZoneLeft   Zone = iota // First column
	ZoneMiddle             // Any column between the first and the last
	ZoneRight              // Last column
)

// String returns the string representation of a Zone
func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneMiddle:
		return "middle"
	case ZoneRight:
		return "right"
	default:
		return "unknown"
	}
}

func (z Zone) valid() bool {
	return z >= ZoneLeft && z <= ZoneRight
}

// ParseZone converts a catalog zone name to a Zone
func ParseZone(name string) (Zone, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return ZoneLeft, nil
	case "middle":
		return ZoneMiddle, nil
	case "right":
		return ZoneRight, nil
	default:
		return 0, fmt.Errorf("unknown zone %q", name)
	}
}

// ZoneForColumn returns the zone required at column col of a map that is
// cols pieces wide.
func ZoneForColumn(col, cols int) Zone {
	switch {
	case col == 0:
		return ZoneLeft
	case col == cols-1:
		return ZoneRight
	default:
		return ZoneMiddle
	}
}

// ZoneSet is a set of zones. The zero value is the empty set.
type ZoneSet uint8

// AllZones contains every zone
var AllZones = Zones(ZoneLeft, ZoneMiddle, ZoneRight)

// Zones builds a set from the given zones. Unknown values are ignored.
func Zones(zones ...Zone) ZoneSet {
	var s ZoneSet
	for _, z := range zones {
		if z.valid() {
			s |= 1 << uint(z)
		}
	}
	return s
}

// Has reports whether z is in the set
func (s ZoneSet) Has(z Zone) bool {
	if !z.valid() {
		return false
	}
	return s&(1<<uint(z)) != 0
}

// Union returns the zones present in either set
func (s ZoneSet) Union(other ZoneSet) ZoneSet {
	return s | other
}

// Intersect returns the zones present in both sets
func (s ZoneSet) Intersect(other ZoneSet) ZoneSet {
	return s & other
}

// Intersects reports whether the two sets share at least one zone
func (s ZoneSet) Intersects(other ZoneSet) bool {
	return s&other != 0
}

// Empty reports whether the set has no zones
func (s ZoneSet) Empty() bool {
	return s == 0
}

// String joins the set members with "|", or returns "none"
func (s ZoneSet) String() string {
	if s.Empty() {
		return "none"
	}
	var parts []string
	for _, z := range []Zone{ZoneLeft, ZoneMiddle, ZoneRight} {
		if s.Has(z) {
			parts = append(parts, z.String())
		}
	}
	return strings.Join(parts, "|")
}
