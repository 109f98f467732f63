package doodad

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewDoodadValidation(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		graphics      []int
		rarity        int
	}{
		{"zero width", 0, 1, nil, 1},
		{"count mismatch", 2, 2, []int{1, 2, 3}, 1},
		{"zero rarity", 1, 1, []int{5}, 0},
		{"negative graphic", 1, 1, []int{-3}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDoodad(tc.name, tc.width, tc.height, tc.graphics, tc.rarity)
			if !errors.Is(err, ErrInvalidDoodad) {
				t.Errorf("NewDoodad() error = %v, want ErrInvalidDoodad", err)
			}
		})
	}
}

func TestDoodadGraphicIsCopied(t *testing.T) {
	graphics := []int{1, 2, 3, 4, 5, 6}
	d, err := NewDoodad("strip", 3, 2, graphics, 1)
	if err != nil {
		t.Fatalf("NewDoodad() failed: %v", err)
	}

	graphics[0] = 99
	if d.Graphic(0, 0) != 1 {
		t.Error("Doodad shares the caller's graphics slice")
	}
	if d.Graphic(2, 1) != 6 {
		t.Errorf("Graphic(2, 1) = %d, want 6", d.Graphic(2, 1))
	}
	if d.Area() != 6 {
		t.Errorf("Area() = %d, want 6", d.Area())
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 11 {
		t.Fatalf("Len() = %d, want 11", c.Len())
	}

	pond := c.Doodad("big_pond")
	if pond == nil || pond.Width() != 5 || pond.Height() != 5 || pond.Graphic(4, 4) != GraphicWater1 {
		t.Errorf("big_pond = %+v, want 5x5 of water", pond)
	}
	if got := c.Doodad("dark_pond").Graphic(1, 1); got != GraphicWater2 {
		t.Errorf("dark_pond graphic = %d, want %d", got, GraphicWater2)
	}
	for _, name := range []string{"small_mushroom", "big_mushroom"} {
		if r := c.Doodad(name).Rarity(); r != 5 {
			t.Errorf("%s rarity = %d, want 5", name, r)
		}
	}
}

func TestNewCatalog(t *testing.T) {
	rock, _ := NewDoodad("rock", 1, 1, []int{105}, 1)

	empty, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog() with no doodads failed: %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("Len() = %d, want 0", empty.Len())
	}

	if _, err := NewCatalog(rock, rock); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("duplicate names: error = %v, want ErrInvalidCatalog", err)
	}
	if _, err := NewCatalog(rock, nil); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("nil doodad: error = %v, want ErrInvalidCatalog", err)
	}
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`doodads:
  - name: lake
    width: 2
    height: 2
    fill: 130
  - name: flowers
    width: 2
    height: 1
    graphics: [126, 127]
    rarity: 3
`)

	c, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("ParseCatalog() failed: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	lake := c.Doodad("lake")
	if lake.Graphic(1, 1) != 130 || lake.Rarity() != 1 {
		t.Errorf("lake = graphic %d rarity %d, want 130 and 1", lake.Graphic(1, 1), lake.Rarity())
	}
	flowers := c.Doodad("flowers")
	if flowers.Graphic(1, 0) != 127 || flowers.Rarity() != 3 {
		t.Errorf("flowers = graphic %d rarity %d, want 127 and 3", flowers.Graphic(1, 0), flowers.Rarity())
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "doodads: {"},
		{"no name", "doodads:\n  - width: 1\n    height: 1\n    fill: 3\n"},
		{"both forms", "doodads:\n  - name: a\n    width: 1\n    height: 1\n    fill: 3\n    graphics: [3]\n"},
		{"short graphics", "doodads:\n  - name: a\n    width: 2\n    height: 2\n    graphics: [1, 2]\n"},
		{"duplicate", "doodads:\n  - name: a\n    width: 1\n    height: 1\n    fill: 3\n  - name: a\n    width: 1\n    height: 1\n    fill: 4\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tc.yaml)); err == nil {
				t.Error("ParseCatalog() succeeded, want error")
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doodads.yaml")
	if err := os.WriteFile(path, []byte("doodads:\n  - name: rock\n    width: 1\n    height: 1\n    fill: 105\n"), 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}
	if c.Doodad("rock") == nil {
		t.Error("rock missing from loaded catalog")
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadCatalog(missing) succeeded, want error")
	}
}
