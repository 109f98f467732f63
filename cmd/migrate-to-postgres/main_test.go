package main

import (
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
)

func openStore(t *testing.T, name string) *mapstore.Store {
	t.Helper()
	s, err := mapstore.Open(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateMaps(t *testing.T) {
	src := openStore(t, "src.db")
	dst := openStore(t, "dst.db")

	var ids []string
	for seed := int64(1); seed <= 3; seed++ {
		m, err := mapgen.NewSeededGenerator(mapgen.DefaultConfig(), seed).Generate(20, 10, 2)
		if err != nil {
			t.Fatalf("Generate(seed %d): %v", seed, err)
		}
		r, err := src.SaveMap(m, seed)
		if err != nil {
			t.Fatalf("SaveMap: %v", err)
		}
		ids = append(ids, r.ID)
	}

	migrated, skipped, err := migrateMaps(src, dst, 3)
	if err != nil {
		t.Fatalf("migrateMaps: %v", err)
	}
	if migrated != 3 || skipped != 0 {
		t.Errorf("migrated %d, skipped %d; want 3, 0", migrated, skipped)
	}

	for _, id := range ids {
		r, _, err := dst.LoadMap(id)
		if err != nil {
			t.Errorf("LoadMap(%s) in destination: %v", id, err)
			continue
		}
		if r.ID != id {
			t.Errorf("record id = %s, want %s", r.ID, id)
		}
	}

	// A second run finds everything already present
	migrated, skipped, err = migrateMaps(src, dst, 3)
	if err != nil {
		t.Fatalf("second migrateMaps: %v", err)
	}
	if migrated != 0 || skipped != 3 {
		t.Errorf("second run migrated %d, skipped %d; want 0, 3", migrated, skipped)
	}
}

func TestMigrateMapsEmpty(t *testing.T) {
	migrated, skipped, err := migrateMaps(openStore(t, "src.db"), openStore(t, "dst.db"), 0)
	if err != nil || migrated != 0 || skipped != 0 {
		t.Errorf("migrateMaps on empty store = %d, %d, %v", migrated, skipped, err)
	}
}
