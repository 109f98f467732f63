package doodad

import (
	"math/rand"
	"testing"
)

func blockedTerrain(width, height int) []bool {
	return make([]bool, width*height)
}

func mustDoodad(t *testing.T, name string, width, height, graphic, rarity int) *Doodad {
	t.Helper()
	d, err := NewDoodad(name, width, height, filled(graphic, width*height), rarity)
	if err != nil {
		t.Fatalf("NewDoodad(%q) failed: %v", name, err)
	}
	return d
}

func TestLayerStartsEmpty(t *testing.T) {
	l := NewLayer(4, 3, blockedTerrain(4, 3))
	for i, v := range l.Overlays() {
		if v != None {
			t.Fatalf("overlay %d = %d, want None", i, v)
		}
	}
	if l.Overlay(-1, 0) != None || l.Overlay(4, 0) != None {
		t.Error("out of bounds Overlay() should be None")
	}
}

func TestCanPlaceRejectsWalkable(t *testing.T) {
	terrain := blockedTerrain(5, 5)
	terrain[2*5+2] = true // centre tile is walkable

	l := NewLayer(5, 5, terrain)
	pond := mustDoodad(t, "pond", 3, 3, 130, 1)

	if l.CanPlace(pond, 1, 1) {
		t.Error("CanPlace() over a walkable tile = true, want false")
	}
	if !l.CanPlace(pond, 0, 0) {
		t.Error("CanPlace() on blocked terrain = false, want true")
	}
}

func TestCanPlaceDoesNotMutate(t *testing.T) {
	terrain := blockedTerrain(6, 6)
	terrain[0] = true

	l := NewLayer(6, 6, terrain)
	rock := mustDoodad(t, "rock", 1, 1, 105, 1)
	pond := mustDoodad(t, "pond", 3, 3, 130, 1)

	if !l.TryPlace(rock, 4, 4) {
		t.Fatal("TryPlace(rock) failed on blocked terrain")
	}
	before := l.Overlays()

	// Rejected by the walkable tile at (0, 0)
	if l.CanPlace(pond, 0, 0) {
		t.Fatal("CanPlace() = true, want rejection")
	}
	// Rejected by the rock at (4, 4)
	if l.CanPlace(pond, 3, 3) {
		t.Fatal("CanPlace() = true, want rejection")
	}
	// Accepted, but still only a check
	if !l.CanPlace(pond, 1, 1) {
		t.Fatal("CanPlace() = false, want acceptance")
	}

	after := l.Overlays()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("overlay %d changed from %d to %d during dry run", i, before[i], after[i])
		}
	}
}

func TestTryPlaceRejectsOverlap(t *testing.T) {
	l := NewLayer(5, 5, blockedTerrain(5, 5))
	a := mustDoodad(t, "a", 2, 2, 1, 1)
	b := mustDoodad(t, "b", 2, 2, 2, 1)

	if !l.TryPlace(a, 1, 1) {
		t.Fatal("first placement failed")
	}
	if l.TryPlace(b, 2, 2) {
		t.Error("overlapping placement succeeded")
	}
	if l.Overlay(2, 2) != 1 {
		t.Errorf("Overlay(2, 2) = %d, want 1", l.Overlay(2, 2))
	}
}

func TestPlacePartiallyOffMap(t *testing.T) {
	l := NewLayer(4, 4, blockedTerrain(4, 4))
	pond := mustDoodad(t, "pond", 3, 3, 130, 1)

	// Only the bottom-right cell of the template lands on the map
	if !l.TryPlace(pond, -2, -2) {
		t.Fatal("TryPlace() partially off map failed")
	}
	if l.Overlay(0, 0) != 130 {
		t.Errorf("Overlay(0, 0) = %d, want 130", l.Overlay(0, 0))
	}
	if l.Overlay(1, 0) != None || l.Overlay(0, 1) != None {
		t.Error("cells outside the template footprint were written")
	}

	// Top-left cell only, at the far corner
	if !l.TryPlace(pond, 3, 3) {
		t.Fatal("TryPlace() at far corner failed")
	}
	if l.Overlay(3, 3) != 130 {
		t.Errorf("Overlay(3, 3) = %d, want 130", l.Overlay(3, 3))
	}

	// Entirely off map is trivially accepted and writes nothing
	if !l.CanPlace(pond, -5, -5) {
		t.Error("CanPlace() fully off map = false, want true")
	}
}

func TestAttempts(t *testing.T) {
	s := NewScatterer(DefaultCatalog(), DefaultScatterConfig(), rand.New(rand.NewSource(1)))
	c := DefaultCatalog()

	tests := []struct {
		name string
		want int
	}{
		{"big_pond", 250},
		{"pond", 205},
		{"green_tree", 23},
		{"small_mushroom", 5},
	}

	for _, tc := range tests {
		if got := s.Attempts(c.Doodad(tc.name), 50, 25); got != tc.want {
			t.Errorf("Attempts(%s, 50, 25) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestNewScattererDefaults(t *testing.T) {
	s := NewScatterer(DefaultCatalog(), ScatterConfig{}, rand.New(rand.NewSource(1)))
	if s.cfg != DefaultScatterConfig() {
		t.Errorf("cfg = %+v, want defaults", s.cfg)
	}
}

func TestScatterInvariants(t *testing.T) {
	const width, height = 40, 20
	rng := rand.New(rand.NewSource(42))

	terrain := make([]bool, width*height)
	for i := range terrain {
		terrain[i] = rng.Intn(4) == 0
	}

	l := NewLayer(width, height, terrain)
	s := NewScatterer(DefaultCatalog(), DefaultScatterConfig(), rng)
	placed := s.Scatter(l)
	if placed == 0 {
		t.Fatal("Scatter() placed nothing on mostly blocked terrain")
	}

	for i, v := range l.Overlays() {
		if v != None && terrain[i] {
			t.Errorf("overlay %d covers walkable tile %d", v, i)
		}
	}
}

func TestScatterEmptyCatalog(t *testing.T) {
	empty, _ := NewCatalog()
	l := NewLayer(10, 10, blockedTerrain(10, 10))

	s := NewScatterer(empty, DefaultScatterConfig(), rand.New(rand.NewSource(1)))
	if n := s.Scatter(l); n != 0 {
		t.Errorf("Scatter() with empty catalog = %d, want 0", n)
	}
}

func TestScatterIsReproducible(t *testing.T) {
	run := func() []int {
		l := NewLayer(30, 15, blockedTerrain(30, 15))
		s := NewScatterer(DefaultCatalog(), DefaultScatterConfig(), rand.New(rand.NewSource(7)))
		s.Scatter(l)
		return l.Overlays()
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("overlay %d differs between runs with the same seed", i)
		}
	}
}
