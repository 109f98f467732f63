package puzzle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PieceDefinition is a piece as written in a catalog file.
// Rows are strings of '0' and '1', one per tile row.
type PieceDefinition struct {
	Name  string   `yaml:"name"`
	Zones []string `yaml:"zones"`
	Rows  []string `yaml:"rows"`
}

// CatalogFile is the layout of a piece catalog YAML file
type CatalogFile struct {
	PieceSize int               `yaml:"piece_size"`
	Pieces    []PieceDefinition `yaml:"pieces"`
}

// LoadCatalog reads and validates a piece catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read piece catalog: %w", err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("piece catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog builds a catalog from YAML bytes
func ParseCatalog(data []byte) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse piece catalog YAML: %w", err)
	}

	size := file.PieceSize
	if size == 0 {
		size = DefaultPieceSize
	}

	pieces := make([]*Piece, 0, len(file.Pieces))
	for i, def := range file.Pieces {
		p, err := def.toPiece(size)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		pieces = append(pieces, p)
	}

	return NewCatalog(pieces...)
}

func (d PieceDefinition) toPiece(size int) (*Piece, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPiece)
	}
	if len(d.Rows) != size {
		return nil, fmt.Errorf("%w %q: has %d rows, want %d", ErrInvalidPiece, d.Name, len(d.Rows), size)
	}

	var zones ZoneSet
	for _, name := range d.Zones {
		z, err := ParseZone(name)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPiece, d.Name, err)
		}
		zones = zones.Union(Zones(z))
	}

	tiles := make([]int, 0, size*size)
	for y, row := range d.Rows {
		if len(row) != size {
			return nil, fmt.Errorf("%w %q: row %d has %d tiles, want %d", ErrInvalidPiece, d.Name, y, len(row), size)
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case '0':
				tiles = append(tiles, 0)
			case '1':
				tiles = append(tiles, 1)
			default:
				return nil, fmt.Errorf("%w %q: row %d column %d has %q, want '0' or '1'", ErrInvalidPiece, d.Name, y, x, row[x])
			}
		}
	}

	return NewPiece(d.Name, size, tiles, zones)
}
