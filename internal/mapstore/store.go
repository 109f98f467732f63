// Package mapstore persists generated maps in SQLite or PostgreSQL.
package mapstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/puzzlemap/internal/logger"
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
)

// ErrNotFound is returned when no stored map matches the lookup
var ErrNotFound = errors.New("mapstore: map not found")

// DefaultListLimit caps ListMaps when the caller passes a non-positive limit
const DefaultListLimit = 100

// Record describes a stored map without its tile data.
type Record struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Difficulty  int       `json:"difficulty"`
	Seed        int64     `json:"seed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps the database connection and provides map persistence.
type Store struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite store at the given path.
func Open(path string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the configured backend and runs migrations.
func OpenWithConfig(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.Postgres.DSN()
	default:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	if _, ok := dialect.(*PostgresDialect); ok {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s store: %w", cfg.Driver, err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		qb:      NewQueryBuilder(dialect),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Map store opened", "driver", dialect.DriverName())
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) migrate() error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS maps (
			id TEXT PRIMARY KEY,
			fingerprint TEXT UNIQUE NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			difficulty INTEGER NOT NULL,
			seed BIGINT NOT NULL DEFAULT 0,
			tiles %[1]s NOT NULL,
			overlays %[1]s NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, s.dialect.JSONType()),
		`CREATE INDEX IF NOT EXISTS idx_maps_created_at ON maps(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

const recordColumns = "id, fingerprint, width, height, difficulty, seed, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extra ...any) (Record, error) {
	var r Record
	dest := append([]any{&r.ID, &r.Fingerprint, &r.Width, &r.Height, &r.Difficulty, &r.Seed, &r.CreatedAt}, extra...)
	err := row.Scan(dest...)
	return r, err
}

// SaveMap stores m and returns its record. A map whose fingerprint is
// already stored is not duplicated; the existing record is returned instead.
func (s *Store) SaveMap(m *mapgen.Map, seed int64) (Record, error) {
	fp := Fingerprint(m)
	if existing, err := s.FindByFingerprint(fp); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	tiles, err := json.Marshal(m.Tiles())
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode tiles: %w", err)
	}
	overlays, err := json.Marshal(m.Overlays())
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode overlays: %w", err)
	}

	r := Record{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		Width:       m.Width(),
		Height:      m.Height(),
		Difficulty:  m.Difficulty(),
		Seed:        seed,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	_, err = s.db.Exec(
		s.qb.Build("INSERT INTO maps ("+recordColumns+", tiles, overlays) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		r.ID, r.Fingerprint, r.Width, r.Height, r.Difficulty, r.Seed, r.CreatedAt, string(tiles), string(overlays),
	)
	if err != nil {
		// Another writer stored the same map between our lookup and insert
		if s.dialect.IsDuplicateKeyError(err) {
			return s.FindByFingerprint(fp)
		}
		return Record{}, fmt.Errorf("failed to save map: %w", err)
	}

	logger.Debug("Map stored", "id", r.ID, "width", r.Width, "height", r.Height)
	return r, nil
}

// LoadMap returns the record and map stored under id.
func (s *Store) LoadMap(id string) (Record, *mapgen.Map, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, nil, fmt.Errorf("%w: %q is not a map id", ErrNotFound, id)
	}

	var tiles, overlays string
	row := s.db.QueryRow(s.qb.Build("SELECT "+recordColumns+", tiles, overlays FROM maps WHERE id = ?"), id)
	r, err := scanRecord(row, &tiles, &overlays)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil, ErrNotFound
	}
	if err != nil {
		return Record{}, nil, fmt.Errorf("failed to load map: %w", err)
	}

	data := mapgen.MapData{
		Width:      r.Width,
		Height:     r.Height,
		Difficulty: r.Difficulty,
	}
	if err := json.Unmarshal([]byte(tiles), &data.Tiles); err != nil {
		return Record{}, nil, fmt.Errorf("failed to decode tiles of map %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(overlays), &data.Overlays); err != nil {
		return Record{}, nil, fmt.Errorf("failed to decode overlays of map %s: %w", id, err)
	}

	m, err := mapgen.FromData(data)
	if err != nil {
		return Record{}, nil, fmt.Errorf("stored map %s is corrupt: %w", id, err)
	}
	return r, m, nil
}

// FindByFingerprint returns the record of the map with the given fingerprint.
func (s *Store) FindByFingerprint(fingerprint string) (Record, error) {
	row := s.db.QueryRow(s.qb.Build("SELECT "+recordColumns+" FROM maps WHERE fingerprint = ?"), fingerprint)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to find map: %w", err)
	}
	return r, nil
}

// ListMaps returns up to limit records, newest first.
func (s *Store) ListMaps(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(s.qb.Build("SELECT "+recordColumns+" FROM maps ORDER BY created_at DESC, id LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteMap removes the map stored under id.
func (s *Store) DeleteMap(id string) error {
	res, err := s.db.Exec(s.qb.Build("DELETE FROM maps WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored maps.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM maps").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count maps: %w", err)
	}
	return count, nil
}

// Import stores a map under an existing record, keeping its id, seed and
// creation time. Used when copying maps between backends; a record whose
// fingerprint already exists is skipped and reported as false.
func (s *Store) Import(r Record, m *mapgen.Map) (bool, error) {
	tiles, err := json.Marshal(m.Tiles())
	if err != nil {
		return false, fmt.Errorf("failed to encode tiles: %w", err)
	}
	overlays, err := json.Marshal(m.Overlays())
	if err != nil {
		return false, fmt.Errorf("failed to encode overlays: %w", err)
	}

	_, err = s.db.Exec(
		s.qb.Build("INSERT INTO maps ("+recordColumns+", tiles, overlays) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		r.ID, Fingerprint(m), m.Width(), m.Height(), m.Difficulty(), r.Seed, r.CreatedAt, string(tiles), string(overlays),
	)
	if err != nil {
		if s.dialect.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to import map %s: %w", r.ID, err)
	}
	return true, nil
}
