package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/citygrid/traffic-scan/internal/traffic"
)

type AppConfig struct {
	TomTomAPIKey string

	// Bounding box corners for grid generation.
	BBoxSW traffic.LatLon
	BBoxNE traffic.LatLon

	// Default grid dimensions.
	GridRows int
	GridCols int

	// IngestInterval controls how often the server runs an ingest cycle.
	// Zero disables in-process ingestion (use the ingest CLI instead).
	IngestInterval time.Duration

	// SQLite database location; the parent directory is created on open.
	DBPath string

	// Timeout for outbound provider calls.
	HTTPTimeout time.Duration

	Port string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.TomTomAPIKey = os.Getenv("TOMTOM_API_KEY")

	sw, err := ParseLatLon(getenvDefault("BBOX_SW", "39.9300,-83.0550"))
	if err != nil {
		return nil, fmt.Errorf("invalid BBOX_SW: %w", err)
	}
	ne, err := ParseLatLon(getenvDefault("BBOX_NE", "40.0300,-82.9650"))
	if err != nil {
		return nil, fmt.Errorf("invalid BBOX_NE: %w", err)
	}
	cfg.BBoxSW = sw
	cfg.BBoxNE = ne

	cfg.GridRows = getenvInt("INGEST_ROWS", 6)
	cfg.GridCols = getenvInt("INGEST_COLS", 6)

	// Server-side ingest is off unless an interval is configured.
	intervalStr := getenvDefault("INGEST_INTERVAL", "0")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_INTERVAL: %w", err)
	}
	cfg.IngestInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.DBPath = getenvDefault("DB_PATH", "data/traffic.sqlite")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// ParseLatLon parses a "lat,lon" pair as used by BBOX_SW/BBOX_NE.
func ParseLatLon(s string) (traffic.LatLon, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return traffic.LatLon{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return traffic.LatLon{}, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return traffic.LatLon{}, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return traffic.LatLon{Lat: lat, Lon: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
