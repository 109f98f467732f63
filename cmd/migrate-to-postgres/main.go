// migrate-to-postgres copies stored maps from a SQLite map store to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/maps.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user puzzlemap \
//	    -pg-password puzzlemap \
//	    -pg-database puzzlemap
package main

import (
	"flag"
	"log"
	"os"

	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
)

func main() {
	defaults := mapstore.DefaultPostgresConfig()

	sqlitePath := flag.String("sqlite", "data/maps.db", "Path to SQLite map store")
	pgHost := flag.String("pg-host", defaults.Host, "PostgreSQL host")
	pgPort := flag.Int("pg-port", defaults.Port, "PostgreSQL port")
	pgUser := flag.String("pg-user", defaults.User, "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", defaults.Database, "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", defaults.SSLMode, "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Map Migration")
	log.Println("==================================")

	// Open would create an empty store, so refuse a missing source explicitly
	if _, err := os.Stat(*sqlitePath); err != nil {
		log.Fatalf("SQLite map store not found: %v", err)
	}

	log.Printf("Opening SQLite map store: %s", *sqlitePath)
	src, err := mapstore.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite map store: %v", err)
	}
	defer src.Close()

	total, err := src.Count()
	if err != nil {
		log.Fatalf("Failed to count maps: %v", err)
	}
	log.Printf("Found %d stored maps", total)

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
		log.Printf("Would migrate up to %d maps to %s@%s:%d/%s", total, *pgUser, *pgHost, *pgPort, *pgDatabase)
		return
	}

	pgCfg := mapstore.Config{
		Driver:   string(mapstore.DialectPostgres),
		Postgres: defaults,
	}
	pgCfg.Postgres.Host = *pgHost
	pgCfg.Postgres.Port = *pgPort
	pgCfg.Postgres.User = *pgUser
	pgCfg.Postgres.Password = *pgPassword
	pgCfg.Postgres.Database = *pgDatabase
	pgCfg.Postgres.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL map store: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := mapstore.OpenWithConfig(pgCfg)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL map store: %v", err)
	}
	defer dst.Close()

	migrated, skipped, err := migrateMaps(src, dst, total)
	if err != nil {
		log.Fatalf("Migration failed after %d maps: %v", migrated, err)
	}

	log.Println("==================================")
	log.Printf("Migration complete! Migrated: %d, already present: %d", migrated, skipped)
}

// migrateMaps copies up to limit maps from src into dst, keeping ids and
// creation times. Maps whose content already exists in dst are skipped.
func migrateMaps(src, dst *mapstore.Store, limit int) (migrated, skipped int, err error) {
	if limit == 0 {
		return 0, 0, nil
	}

	records, err := src.ListMaps(limit)
	if err != nil {
		return 0, 0, err
	}

	for _, r := range records {
		_, m, err := src.LoadMap(r.ID)
		if err != nil {
			return migrated, skipped, err
		}
		ok, err := dst.Import(r, m)
		if err != nil {
			return migrated, skipped, err
		}
		if ok {
			migrated++
		} else {
			skipped++
			log.Printf("  Skipped %s (already present)", r.ID)
		}
	}
	return migrated, skipped, nil
}
