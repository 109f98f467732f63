// Package mapfile reads and writes generated maps as YAML files and renders
// them as ASCII for terminals.
package mapfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
)

// Meta carries generation details stored next to the map data
type Meta struct {
	Seed int64
	Name string
}

// fileYAML is the on-disk layout. Tiles and overlays are stored one row per entry.
type fileYAML struct {
	Name       string  `yaml:"name,omitempty"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Difficulty int     `yaml:"difficulty"`
	Seed       int64   `yaml:"seed"`
	Tiles      [][]int `yaml:"tiles"`
	Overlays   [][]int `yaml:"overlays"`
}

// orderedFileYAML keeps each row on one line
type orderedFileYAML struct {
	Name       string    `yaml:"name,omitempty"`
	Width      int       `yaml:"width"`
	Height     int       `yaml:"height"`
	Difficulty int       `yaml:"difficulty"`
	Seed       int64     `yaml:"seed"`
	Tiles      yaml.Node `yaml:"tiles"`
	Overlays   yaml.Node `yaml:"overlays"`
}

// WriteYAML writes a map to a YAML file
func WriteYAML(path string, m *mapgen.Map, meta Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return EncodeYAML(f, m, meta)
}

// EncodeYAML writes the header comment and map document to w
func EncodeYAML(w io.Writer, m *mapgen.Map, meta Meta) error {
	fmt.Fprintf(w, "# Puzzle map %dx%d, difficulty %d\n", m.Width(), m.Height(), m.Difficulty())
	fmt.Fprintf(w, "# Generated with seed: %d\n\n", meta.Seed)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	doc := &orderedFileYAML{
		Name:       meta.Name,
		Width:      m.Width(),
		Height:     m.Height(),
		Difficulty: m.Difficulty(),
		Seed:       meta.Seed,
		Tiles:      rowsNode(m.Tiles(), m.Width()),
		Overlays:   rowsNode(m.Overlays(), m.Width()),
	}

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// rowsNode returns values as a block sequence of flow-style rows
func rowsNode(values []int, width int) yaml.Node {
	node := yaml.Node{Kind: yaml.SequenceNode}
	for start := 0; start+width <= len(values); start += width {
		row := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range values[start : start+width] {
			row.Content = append(row.Content, &yaml.Node{
				Kind:  yaml.ScalarNode,
				Tag:   "!!int",
				Value: strconv.Itoa(v),
			})
		}
		node.Content = append(node.Content, row)
	}
	return node
}

// ReadYAML loads a map written by WriteYAML
func ReadYAML(path string) (*mapgen.Map, Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to read map file: %w", err)
	}

	m, meta, err := DecodeYAML(data)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("map file %s: %w", path, err)
	}
	return m, meta, nil
}

// DecodeYAML parses a map document
func DecodeYAML(data []byte) (*mapgen.Map, Meta, error) {
	var file fileYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, Meta{}, fmt.Errorf("failed to parse map YAML: %w", err)
	}

	tiles, err := flatten("tiles", file.Tiles, file.Width, file.Height)
	if err != nil {
		return nil, Meta{}, err
	}
	overlays, err := flatten("overlays", file.Overlays, file.Width, file.Height)
	if err != nil {
		return nil, Meta{}, err
	}

	m, err := mapgen.NewMap(file.Width, file.Height, file.Difficulty, tiles, overlays)
	if err != nil {
		return nil, Meta{}, err
	}
	return m, Meta{Seed: file.Seed, Name: file.Name}, nil
}

func flatten(field string, rows [][]int, width, height int) ([]int, error) {
	if len(rows) != height {
		return nil, fmt.Errorf("%s has %d rows, want %d", field, len(rows), height)
	}
	out := make([]int, 0, width*height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%s row %d has %d values, want %d", field, y, len(row), width)
		}
		out = append(out, row...)
	}
	return out, nil
}
