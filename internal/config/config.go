package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all the environment‐driven settings for the application.
type Config struct {
	// OpenWeatherMap
	OpenWeatherMapOrgKey string
	OpenWeatherMapURL    string // scheme://host override, used by tests and proxies
	HTTPTimeout          time.Duration
	SearchLimit          int

	// Location used when neither a live coordinate nor a remembered city is available
	HasFallback  bool
	FallbackLat  float64
	FallbackLon  float64
	FallbackName string

	// Storage: sqlite | postgres | redis
	StorageDriver string
	SQLitePath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	// Kafka (optional)
	KafkaBrokers []string
	KafkaTopic   string

	// Scheduler
	RefreshCron string

	// API
	Port     string
	LogLevel string
}

// Load reads and validates all required environment variables, applying defaults
// where appropriate. A .env file in the working directory is honoured if present.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	var err error

	owmKey := os.Getenv("OPENWEATHERMAP_ORG_API_KEY")
	if owmKey == "" {
		return nil, fmt.Errorf("OPENWEATHERMAP_ORG_API_KEY is required")
	}

	timeout := 10 * time.Second
	if s := os.Getenv("HTTP_TIMEOUT"); s != "" {
		timeout, err = time.ParseDuration(s)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q", s)
		}
	}

	searchLimit := 25
	if s := os.Getenv("SEARCH_LIMIT"); s != "" {
		searchLimit, err = strconv.Atoi(s)
		if err != nil || searchLimit <= 0 {
			return nil, fmt.Errorf("invalid SEARCH_LIMIT %q", s)
		}
	}

	cfg := &Config{
		OpenWeatherMapOrgKey: owmKey,
		OpenWeatherMapURL:    os.Getenv("OWM_BASE_URL"),
		HTTPTimeout:          timeout,
		SearchLimit:          searchLimit,
		FallbackName:         os.Getenv("FALLBACK_NAME"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "weatherhere.events"),
		RefreshCron:          getEnv("REFRESH_CRON", "*/15 * * * *"),
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	// Fallback coordinate: both or neither
	latStr, lonStr := os.Getenv("FALLBACK_LAT"), os.Getenv("FALLBACK_LON")
	if (latStr == "") != (lonStr == "") {
		return nil, fmt.Errorf("FALLBACK_LAT and FALLBACK_LON must be set together")
	}
	if latStr != "" {
		if cfg.FallbackLat, err = strconv.ParseFloat(latStr, 64); err != nil {
			return nil, fmt.Errorf("invalid FALLBACK_LAT %q: %w", latStr, err)
		}
		if cfg.FallbackLon, err = strconv.ParseFloat(lonStr, 64); err != nil {
			return nil, fmt.Errorf("invalid FALLBACK_LON %q: %w", lonStr, err)
		}
		cfg.HasFallback = true
	}

	// Storage settings
	cfg.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite"))
	switch cfg.StorageDriver {
	case "sqlite":
		cfg.SQLitePath = getEnv("SQLITE_PATH", "weatherhere.db")
	case "postgres":
		if cfg.DatabaseURL, err = postgresURL(); err != nil {
			return nil, err
		}
	case "redis":
		cfg.RedisAddr = getEnv("REDIS_ADDR", "redis:6379")
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q (want sqlite, postgres or redis)", cfg.StorageDriver)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg, nil
}

// postgresURL prefers DATABASE_URL and otherwise assembles one from POSTGRES_* parts.
func postgresURL() (string, error) {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u, nil
	}
	pgUser := os.Getenv("POSTGRES_USER")
	if pgUser == "" {
		return "", fmt.Errorf("POSTGRES_USER is required")
	}
	pgPass := os.Getenv("POSTGRES_PASSWORD")
	if pgPass == "" {
		return "", fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	pgDB := os.Getenv("POSTGRES_DB")
	if pgDB == "" {
		return "", fmt.Errorf("POSTGRES_DB is required")
	}
	pgHost := getEnv("POSTGRES_HOST", "db")
	pgPortStr := getEnv("POSTGRES_PORT", "5432")
	pgPort, err := strconv.Atoi(pgPortStr)
	if err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", pgPortStr, err)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPass, pgHost, pgPort, pgDB,
	), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
