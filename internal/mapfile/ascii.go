package mapfile

import (
	"strings"

	"github.com/gookit/color"

	"github.com/lawnchairsociety/puzzlemap/internal/doodad"
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
)

// Glyphs used by RenderASCII
const (
	GlyphWalkable = '.'
	GlyphBlocked  = '#'
	GlyphOverlay  = '*'
	GlyphWater    = '~'
)

// RenderOptions controls ASCII output
type RenderOptions struct {
	// Color wraps glyphs in ANSI styles
	Color bool

	// ShowOverlays draws doodads over the terrain
	ShowOverlays bool
}

var (
	styleWalkable = color.Style{color.FgGray}
	styleBlocked  = color.Style{color.FgGreen}
	styleOverlay  = color.Style{color.FgYellow, color.OpBold}
	styleWater    = color.Style{color.FgBlue, color.OpBold}
)

// RenderASCII draws the map one line per row. Tiles equal to walkableTile
// are walkable; every other tile is blocked. Water doodads use their own glyph.
func RenderASCII(m *mapgen.Map, walkableTile int, opts RenderOptions) string {
	var sb strings.Builder
	sb.Grow((m.Width() + 1) * m.Height())

	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			glyph, style := cellGlyph(m, x, y, walkableTile, opts.ShowOverlays)
			if opts.Color {
				sb.WriteString(style.Sprint(string(glyph)))
			} else {
				sb.WriteRune(glyph)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellGlyph(m *mapgen.Map, x, y, walkableTile int, overlays bool) (rune, color.Style) {
	if overlays {
		switch o := m.Overlay(x, y); o {
		case doodad.None:
		case doodad.GraphicWater1, doodad.GraphicWater2:
			return GlyphWater, styleWater
		default:
			return GlyphOverlay, styleOverlay
		}
	}
	if m.Tile(x, y) == walkableTile {
		return GlyphWalkable, styleWalkable
	}
	return GlyphBlocked, styleBlocked
}
