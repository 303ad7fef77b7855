package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application settings, populated from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	GBIF     GBIFConfig
	Region   RegionConfig
	Species  []Species
	Data     DataConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string
}

// GBIFConfig holds occurrence API client settings.
type GBIFConfig struct {
	BaseURL         string
	Timeout         time.Duration
	PerSpeciesLimit int
}

// RegionConfig is the lat/lng bounding box constraining occurrence queries.
type RegionConfig struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Species pairs the scientific name used for querying with the display label
// shown in the UI and attached to every record.
type Species struct {
	ScientificName string
	Label          string
}

// DataConfig selects where the server's session dataset comes from and where
// the standalone flat files live.
type DataConfig struct {
	// Source is "postgres" or "snapshot".
	Source      string
	SnapshotCSV string
	RasterPath  string
}

// LoadConfig reads configuration from environment variables, applying
// defaults where unset. Defaults describe the Colorado extent the bundled
// elevation raster covers.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         envOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         envInt("SERVER_PORT", 8080),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            envOrDefault("DB_HOST", "localhost"),
			Port:            envInt("DB_PORT", 5432),
			User:            envOrDefault("DB_USER", "postgres"),
			Password:        envOrDefault("DB_PASSWORD", "postgres"),
			Database:        envOrDefault("DB_NAME", "occurrence_atlas"),
			SSLMode:         envOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: envOrDefault("LOG_LEVEL", "info"),
		},
		GBIF: GBIFConfig{
			BaseURL:         envOrDefault("GBIF_BASE_URL", "https://api.gbif.org/v1"),
			Timeout:         envDuration("GBIF_TIMEOUT", 30*time.Second),
			PerSpeciesLimit: envInt("GBIF_PER_SPECIES_LIMIT", 2000),
		},
		Region: RegionConfig{
			MinLat: envFloat("REGION_MIN_LAT", 36.99),
			MinLon: envFloat("REGION_MIN_LON", -109.06),
			MaxLat: envFloat("REGION_MAX_LAT", 41.0),
			MaxLon: envFloat("REGION_MAX_LON", -102.04),
		},
		Data: DataConfig{
			Source:      envOrDefault("DATA_SOURCE", "postgres"),
			SnapshotCSV: envOrDefault("SNAPSHOT_CSV", "./data/occurrences.csv"),
			RasterPath:  envOrDefault("RASTER_PATH", "./data/elevation.asc"),
		},
	}

	species, err := parseSpecies(envOrDefault("SPECIES", defaultSpecies))
	if err != nil {
		return nil, err
	}
	cfg.Species = species

	return cfg, nil
}

// defaultSpecies lists the mammals the bundled Colorado dataset tracks.
const defaultSpecies = "Cervus canadensis=Elk;" +
	"Odocoileus hemionus=Mule Deer;" +
	"Ovis canadensis=Bighorn Sheep;" +
	"Alces alces=Moose;" +
	"Oreamnos americanus=Mountain Goat"

// parseSpecies parses "Scientific name=Label;..." pairs in configured order.
func parseSpecies(raw string) ([]Species, error) {
	var out []Species
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("invalid SPECIES entry %q, expected \"Scientific name=Label\"", pair)
		}
		out = append(out, Species{
			ScientificName: strings.TrimSpace(parts[0]),
			Label:          strings.TrimSpace(parts[1]),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("SPECIES list is empty")
	}
	return out, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GBIF.PerSpeciesLimit <= 0 {
		return fmt.Errorf("GBIF per-species limit must be positive, got %d", c.GBIF.PerSpeciesLimit)
	}
	if c.Region.MinLat >= c.Region.MaxLat || c.Region.MinLon >= c.Region.MaxLon {
		return fmt.Errorf("invalid region bounds: (%g,%g)-(%g,%g)",
			c.Region.MinLat, c.Region.MinLon, c.Region.MaxLat, c.Region.MaxLon)
	}
	switch c.Data.Source {
	case "postgres", "snapshot":
	default:
		return fmt.Errorf("invalid DATA_SOURCE %q, expected postgres or snapshot", c.Data.Source)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
