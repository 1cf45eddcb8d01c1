// Package config loads service configuration from an optional YAML file, an
// optional .env file, and CLUBEVENTS_* environment variables. Environment
// variables win over the file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings of the club events service.
type Config struct {
	HTTPPort        int
	Storage         string
	SQLiteDSN       string
	SessionSlotPath string
	SessionTTL      time.Duration
	SweepSchedule   string
	SeedDemoData    bool
}

// fileConfig mirrors Config for YAML decoding; durations are written as Go
// duration strings ("24h", "30m").
type fileConfig struct {
	HTTPPort        *int    `yaml:"http_port"`
	Storage         *string `yaml:"storage"`
	SQLiteDSN       *string `yaml:"sqlite_dsn"`
	SessionSlotPath *string `yaml:"session_slot_path"`
	SessionTTL      *string `yaml:"session_ttl"`
	SweepSchedule   *string `yaml:"sweep_schedule"`
	SeedDemoData    *bool   `yaml:"seed_demo_data"`
}

// Storage backends selectable via configuration.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

func defaults() Config {
	return Config{
		HTTPPort:        8080,
		Storage:         StorageMemory,
		SQLiteDSN:       "file:clubevents.db",
		SessionSlotPath: "clubevents-session.json",
		SessionTTL:      24 * time.Hour,
		SweepSchedule:   "@every 5m",
		SeedDemoData:    false,
	}
}

// Load builds the configuration. A .env file in the working directory is
// applied first when present; CLUBEVENTS_CONFIG may point to a YAML file;
// individual CLUBEVENTS_* variables override everything.
func Load() (Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CLUBEVENTS_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CLUBEVENTS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CLUBEVENTS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.TrimSpace(os.Getenv("CLUBEVENTS_STORAGE")); storage != "" {
		cfg.Storage = storage
	}

	if dsn := strings.TrimSpace(os.Getenv("CLUBEVENTS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if path := strings.TrimSpace(os.Getenv("CLUBEVENTS_SESSION_SLOT_PATH")); path != "" {
		cfg.SessionSlotPath = path
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CLUBEVENTS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "CLUBEVENTS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if schedule := strings.TrimSpace(os.Getenv("CLUBEVENTS_SWEEP_SCHEDULE")); schedule != "" {
		cfg.SweepSchedule = schedule
	}

	if seedValue := strings.TrimSpace(os.Getenv("CLUBEVENTS_SEED_DEMO_DATA")); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "CLUBEVENTS_SEED_DEMO_DATA")
		} else {
			cfg.SeedDemoData = seed
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	switch cfg.Storage {
	case StorageMemory, StorageSQLite:
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.HTTPPort != nil {
		cfg.HTTPPort = *file.HTTPPort
	}
	if file.Storage != nil {
		cfg.Storage = *file.Storage
	}
	if file.SQLiteDSN != nil {
		cfg.SQLiteDSN = *file.SQLiteDSN
	}
	if file.SessionSlotPath != nil {
		cfg.SessionSlotPath = *file.SessionSlotPath
	}
	if file.SessionTTL != nil {
		ttl, err := time.ParseDuration(*file.SessionTTL)
		if err != nil || ttl < 0 {
			return fmt.Errorf("config file %s: invalid session_ttl %q", path, *file.SessionTTL)
		}
		cfg.SessionTTL = ttl
	}
	if file.SweepSchedule != nil {
		cfg.SweepSchedule = *file.SweepSchedule
	}
	if file.SeedDemoData != nil {
		cfg.SeedDemoData = *file.SeedDemoData
	}

	return nil
}
