package mapstore

import (
	"os"
	"strconv"
	"testing"
	"time"
)

// getPostgresTestConfig returns PostgreSQL config if available, nil otherwise.
// Set PUZZLEMAP_TEST_POSTGRES to run these tests; connection settings come from
//
//	PUZZLEMAP_TEST_POSTGRES_HOST (default: localhost)
//	PUZZLEMAP_TEST_POSTGRES_PORT (default: 5432)
//	PUZZLEMAP_TEST_POSTGRES_USER (default: puzzlemap)
//	PUZZLEMAP_TEST_POSTGRES_PASSWORD (default: puzzlemap)
//	PUZZLEMAP_TEST_POSTGRES_DATABASE (default: puzzlemap_test)
func getPostgresTestConfig() *Config {
	if os.Getenv("PUZZLEMAP_TEST_POSTGRES") == "" {
		return nil
	}

	env := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(env("PUZZLEMAP_TEST_POSTGRES_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	return &Config{
		Driver: string(DialectPostgres),
		Postgres: PostgresConfig{
			Host:            env("PUZZLEMAP_TEST_POSTGRES_HOST", "localhost"),
			Port:            port,
			User:            env("PUZZLEMAP_TEST_POSTGRES_USER", "puzzlemap"),
			Password:        env("PUZZLEMAP_TEST_POSTGRES_PASSWORD", "puzzlemap"),
			Database:        env("PUZZLEMAP_TEST_POSTGRES_DATABASE", "puzzlemap_test"),
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
	}
}

func setupPostgresTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := getPostgresTestConfig()
	if cfg == nil {
		t.Skip("Skipping PostgreSQL test: PUZZLEMAP_TEST_POSTGRES not set")
	}

	s, err := OpenWithConfig(*cfg)
	if err != nil {
		t.Fatalf("Failed to open PostgreSQL store: %v", err)
	}
	s.db.Exec("DELETE FROM maps")
	t.Cleanup(func() {
		s.db.Exec("DELETE FROM maps")
		s.Close()
	})
	return s
}

func TestPostgres_SaveLoadDelete(t *testing.T) {
	s := setupPostgresTestStore(t)
	m := testMap(t, 5)

	rec, err := s.SaveMap(m, 5)
	if err != nil {
		t.Fatalf("SaveMap() failed: %v", err)
	}

	again, err := s.SaveMap(m, 6)
	if err != nil {
		t.Fatalf("duplicate SaveMap() failed: %v", err)
	}
	if again.ID != rec.ID {
		t.Errorf("duplicate SaveMap() id = %s, want %s", again.ID, rec.ID)
	}

	_, loaded, err := s.LoadMap(rec.ID)
	if err != nil {
		t.Fatalf("LoadMap() failed: %v", err)
	}
	if Fingerprint(loaded) != rec.Fingerprint {
		t.Error("loaded map differs from the saved map")
	}

	list, err := s.ListMaps(10)
	if err != nil || len(list) != 1 {
		t.Errorf("ListMaps() = %d records, %v; want 1", len(list), err)
	}

	if err := s.DeleteMap(rec.ID); err != nil {
		t.Fatalf("DeleteMap() failed: %v", err)
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("Count() = %d after delete, want 0", n)
	}
}
