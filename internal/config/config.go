// Package config loads the puzzlemap YAML configuration shared by the
// generator CLI and the map service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/puzzlemap/internal/doodad"
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
	"github.com/lawnchairsociety/puzzlemap/internal/puzzle"
)

// Config is the top-level configuration file layout.
// The logging section is read separately by logger.LoadConfig.
type Config struct {
	Generator GeneratorConfig      `yaml:"generator"`
	Doodads   doodad.ScatterConfig `yaml:"doodads"`
	Store     mapstore.Config      `yaml:"store"`
	Server    ServerConfig         `yaml:"server"`
}

// GeneratorConfig holds map size defaults and generator tuning.
type GeneratorConfig struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	Difficulty int `yaml:"difficulty"`

	// MaxColumnRetries bounds column rebuilds before generation fails
	MaxColumnRetries int `yaml:"max_column_retries"`

	WalkableTile    int `yaml:"walkable_tile"`
	NonWalkableTile int `yaml:"non_walkable_tile"`

	// Catalog files; empty means the built-in catalogs
	PieceCatalog  string `yaml:"piece_catalog"`
	DoodadCatalog string `yaml:"doodad_catalog"`
}

// ServerConfig holds map service settings.
type ServerConfig struct {
	Address     string            `yaml:"address"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	Generation  GenerationConfig  `yaml:"generation"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig holds lockout settings for clients sending rejected requests.
type RateLimitConfig struct {
	// MaxFailures is the number of rejected requests before lockout.
	MaxFailures int `yaml:"max_failures"`

	// LockoutSeconds is the initial lockout duration in seconds.
	LockoutSeconds int `yaml:"lockout_seconds"`

	// MaxLockoutSeconds caps the doubling lockout.
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// GenerationConfig bounds the work a single client can ask for.
type GenerationConfig struct {
	// MaxPerIP is the number of maps one IP may generate at the same time. 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the number of concurrent generations server-wide. 0 means unlimited.
	MaxTotal int `yaml:"max_total"`

	// MaxMapTiles rejects requests whose width*height exceeds it.
	MaxMapTiles int `yaml:"max_map_tiles"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a Config with the built-in catalogs, a local SQLite
// store and a same-origin map service.
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Width:            50,
			Height:           25,
			Difficulty:       2,
			MaxColumnRetries: mapgen.DefaultMaxColumnRetries,
			WalkableTile:     mapgen.DefaultWalkableTile,
			NonWalkableTile:  mapgen.DefaultNonWalkableTile,
		},
		Doodads: doodad.DefaultScatterConfig(),
		Store:   mapstore.DefaultConfig("data/maps.db"),
		Server: ServerConfig{
			Address: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
			Generation: GenerationConfig{
				MaxPerIP:    2,
				MaxTotal:    16,
				MaxMapTiles: 250 * 250,
			},
			RateLimit: RateLimitConfig{
				MaxFailures:       10,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, returns default config. A parse error returns
// the defaults together with the error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Validate reports every invalid setting, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	g := c.Generator
	if g.Width <= 0 || g.Height <= 0 {
		errs = append(errs, fmt.Errorf("generator: width and height must be positive, got %dx%d", g.Width, g.Height))
	}
	if g.Difficulty < mapgen.MinDifficulty || g.Difficulty > mapgen.MaxDifficulty {
		errs = append(errs, fmt.Errorf("generator: difficulty must be between %d and %d, got %d",
			mapgen.MinDifficulty, mapgen.MaxDifficulty, g.Difficulty))
	}
	if g.WalkableTile < 0 || g.NonWalkableTile < 0 {
		errs = append(errs, errors.New("generator: tile ids must be non-negative"))
	}

	if c.Doodads.Density < 0 || c.Doodads.MaxAttempts < 0 {
		errs = append(errs, errors.New("doodads: density and max_attempts must be non-negative"))
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	s := c.Server
	if s.WebSocket.MaxMessageSize < 0 {
		errs = append(errs, errors.New("server: websocket max_message_size must be non-negative"))
	}
	if s.Generation.MaxMapTiles < 0 {
		errs = append(errs, errors.New("server: generation max_map_tiles must be non-negative"))
	}
	if s.Connections.MaxPerIP < 0 || s.Connections.MaxTotal < 0 ||
		s.Generation.MaxPerIP < 0 || s.Generation.MaxTotal < 0 {
		errs = append(errs, errors.New("server: limits must be non-negative"))
	}

	return errors.Join(errs...)
}

// GeneratorConfig builds the mapgen configuration, loading catalog files
// named in the generator section.
func (c *Config) GeneratorConfig() (mapgen.Config, error) {
	cfg := mapgen.DefaultConfig()
	cfg.Scatter = c.Doodads
	cfg.MaxColumnRetries = c.Generator.MaxColumnRetries
	cfg.WalkableTile = c.Generator.WalkableTile
	cfg.NonWalkableTile = c.Generator.NonWalkableTile

	if path := c.Generator.PieceCatalog; path != "" {
		pieces, err := puzzle.LoadCatalog(path)
		if err != nil {
			return mapgen.Config{}, err
		}
		cfg.Pieces = pieces
	}
	if path := c.Generator.DoodadCatalog; path != "" {
		doodads, err := doodad.LoadCatalog(path)
		if err != nil {
			return mapgen.Config{}, err
		}
		cfg.Doodads = doodads
	}

	return cfg, nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // Non-browser clients send no Origin header
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
