package doodad

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is a doodad as written in a catalog file. Either Graphics lists
// every id row-major, or Fill repeats one id over the whole rectangle.
type Definition struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Graphics []int  `yaml:"graphics,omitempty"`
	Fill     *int   `yaml:"fill,omitempty"`
	Rarity   int    `yaml:"rarity,omitempty"`
}

// CatalogFile is the layout of a doodad catalog YAML file
type CatalogFile struct {
	Doodads []Definition `yaml:"doodads"`
}

// LoadCatalog reads a doodad catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read doodad catalog: %w", err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("doodad catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog builds a catalog from YAML bytes
func ParseCatalog(data []byte) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse doodad catalog YAML: %w", err)
	}

	doodads := make([]*Doodad, 0, len(file.Doodads))
	for i, def := range file.Doodads {
		d, err := def.toDoodad()
		if err != nil {
			return nil, fmt.Errorf("doodad %d: %w", i, err)
		}
		doodads = append(doodads, d)
	}
	return NewCatalog(doodads...)
}

func (def Definition) toDoodad() (*Doodad, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDoodad)
	}

	graphics := def.Graphics
	if def.Fill != nil {
		if len(graphics) > 0 {
			return nil, fmt.Errorf("%w %q: set graphics or fill, not both", ErrInvalidDoodad, def.Name)
		}
		if def.Width > 0 && def.Height > 0 {
			graphics = filled(*def.Fill, def.Width*def.Height)
		}
	}

	rarity := def.Rarity
	if rarity == 0 {
		rarity = 1
	}
	return NewDoodad(def.Name, def.Width, def.Height, graphics, rarity)
}
