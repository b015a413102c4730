package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL      string
	EventsChannel string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	TickRate            int
	Autoplay            bool
	RestartDelaySeconds int

	// Logging
	LogLevel  string
	LogFormat string

	// Match tuning
	TuningFile string
	Match      MatchConfig
}

// Load reads the process environment (and .env when present) and overlays the
// optional YAML tuning file on top of the default match configuration.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		RedisURL:      getEnv("REDIS_URL", ""),
		EventsChannel: getEnv("EVENTS_CHANNEL", "match_events"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		TickRate:            getEnvInt("TICK_RATE", 60),
		Autoplay:            getEnvBool("AUTOPLAY", true),
		RestartDelaySeconds: getEnvInt("RESTART_DELAY_SECONDS", 5),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		TuningFile: getEnv("TUNING_FILE", ""),
		Match:      DefaultMatchConfig(),
	}

	if cfg.TuningFile != "" {
		if err := LoadTuning(cfg.TuningFile, &cfg.Match); err != nil {
			return nil, err
		}
	}

	difficulty, err := ParseDifficulty(getEnv("DIFFICULTY", string(cfg.Match.Difficulty)))
	if err != nil {
		return nil, err
	}
	cfg.Match.Difficulty = difficulty

	mode, err := ParseMode(getEnv("MATCH_MODE", string(cfg.Match.Mode)))
	if err != nil {
		return nil, err
	}
	cfg.Match.Mode = mode
	cfg.Match.AutoplayPlayer1 = cfg.Autoplay

	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate)
	}
	if err := cfg.Match.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TickSeconds is the fixed simulation step derived from TickRate.
func (c *Config) TickSeconds() float64 {
	return 1.0 / float64(c.TickRate)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
