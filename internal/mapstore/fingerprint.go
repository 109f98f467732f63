package mapstore

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
)

// Fingerprint returns a hex BLAKE2b-256 digest of the map's dimensions,
// difficulty, tiles and overlays. Identical maps share a fingerprint.
func Fingerprint(m *mapgen.Map) string {
	tiles := m.Tiles()
	overlays := m.Overlays()

	buf := make([]byte, 0, 8*(3+len(tiles)+len(overlays)))
	for _, v := range []int{m.Width(), m.Height(), m.Difficulty()} {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(v)))
	}
	for _, t := range tiles {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(t)))
	}
	for _, o := range overlays {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(o)))
	}

	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
