package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration: an optional YAML file overlaid by
// environment variables, so containers can run with env only.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`

	// Engine defaults applied when a request leaves them unset.
	SpeedMph       float64 `yaml:"speedMph"`
	MaxTimeSeconds float64 `yaml:"maxTimeSeconds"`
	DayStart       string  `yaml:"dayStart"`

	// ProgressEventsPerSec caps how fast solver progress is published to
	// subscribers; 0 selects the default.
	ProgressEventsPerSec float64 `yaml:"progressEventsPerSec"`
}

const defaultProgressEventsPerSec = 10.0

// Load reads path (skipped when empty or missing) and overlays environment
// variables: PORT, DATABASE_URL, REDIS_URL, SPEED_MPH, MAX_TIME_SECONDS,
// DAY_START, PROGRESS_EVENTS_PER_SEC.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:                 "8080",
		SpeedMph:             30,
		MaxTimeSeconds:       300,
		DayStart:             "08:00",
		ProgressEventsPerSec: defaultProgressEventsPerSec,
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	overlayString(&cfg.Port, "PORT")
	overlayString(&cfg.DatabaseURL, "DATABASE_URL")
	overlayString(&cfg.RedisURL, "REDIS_URL")
	overlayFloat(&cfg.SpeedMph, "SPEED_MPH")
	overlayFloat(&cfg.MaxTimeSeconds, "MAX_TIME_SECONDS")
	overlayString(&cfg.DayStart, "DAY_START")
	overlayFloat(&cfg.ProgressEventsPerSec, "PROGRESS_EVENTS_PER_SEC")
	if cfg.ProgressEventsPerSec <= 0 {
		cfg.ProgressEventsPerSec = defaultProgressEventsPerSec
	}
	return cfg, nil
}

func overlayString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overlayFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
