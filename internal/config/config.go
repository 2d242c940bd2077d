package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings for the navigation service.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	// Directions provider: "google" or "ors".
	DirectionsProvider string
	DirectionsAPIKey   string
	DirectionsBaseURL  string
	DirectionsTimeout  time.Duration

	DBPath      string
	DatabaseURL string
	RedisURL    string
	RouteTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	MapStylePath string

	LocationInterval             time.Duration
	LocationFastestInterval      time.Duration
	LocationSmallestDisplacement float64

	// Marker animation on later fixes; off unless enabled.
	MarkerAnimation bool
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Read loads .env (if present) and environment variables on top of
// defaults, without validation.
func Read() *Config {
	// A missing .env is normal outside local runs.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DIRECTIONS_PROVIDER", "google")
	v.SetDefault("DIRECTIONS_TIMEOUT", "10s")
	v.SetDefault("DB_PATH", "data/app.db")
	v.SetDefault("ROUTE_CACHE_TTL", "24h")
	v.SetDefault("KAFKA_TOPIC", "navigation.session.events")
	v.SetDefault("MAP_STYLE_PATH", "assets/map_style.json")
	v.SetDefault("LOCATION_INTERVAL", "10s")
	v.SetDefault("LOCATION_FASTEST_INTERVAL", "5s")
	v.SetDefault("LOCATION_SMALLEST_DISPLACEMENT", 10.0)
	v.SetDefault("MARKER_ANIMATION", false)

	return &Config{
		AppEnv:                       v.GetString("APP_ENV"),
		LogLevel:                     v.GetString("LOG_LEVEL"),
		Port:                         v.GetString("PORT"),
		DirectionsProvider:           strings.ToLower(strings.TrimSpace(v.GetString("DIRECTIONS_PROVIDER"))),
		DirectionsAPIKey:             strings.TrimSpace(v.GetString("DIRECTIONS_API_KEY")),
		DirectionsBaseURL:            v.GetString("DIRECTIONS_BASE_URL"),
		DirectionsTimeout:            v.GetDuration("DIRECTIONS_TIMEOUT"),
		DBPath:                       v.GetString("DB_PATH"),
		DatabaseURL:                  strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:                     strings.TrimSpace(v.GetString("REDIS_URL")),
		RouteTTL:                     v.GetDuration("ROUTE_CACHE_TTL"),
		KafkaBrokers:                 splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:                   v.GetString("KAFKA_TOPIC"),
		MapStylePath:                 v.GetString("MAP_STYLE_PATH"),
		LocationInterval:             v.GetDuration("LOCATION_INTERVAL"),
		LocationFastestInterval:      v.GetDuration("LOCATION_FASTEST_INTERVAL"),
		LocationSmallestDisplacement: v.GetFloat64("LOCATION_SMALLEST_DISPLACEMENT"),
		MarkerAnimation:              v.GetBool("MARKER_ANIMATION"),
	}
}

func (c *Config) Validate() error {
	switch c.DirectionsProvider {
	case "google", "ors":
	default:
		return fmt.Errorf("DIRECTIONS_PROVIDER must be google or ors, got %q", c.DirectionsProvider)
	}
	if c.DirectionsAPIKey == "" {
		return errors.New("DIRECTIONS_API_KEY is required")
	}
	if c.LocationFastestInterval > c.LocationInterval {
		return errors.New("LOCATION_FASTEST_INTERVAL must not exceed LOCATION_INTERVAL")
	}
	if c.LocationSmallestDisplacement < 0 {
		return errors.New("LOCATION_SMALLEST_DISPLACEMENT must be non-negative")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
