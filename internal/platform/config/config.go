package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool

	// Upstream market-data API
	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string

	// Cache & pacing policy
	ListingTTL         time.Duration
	SearchTTL          time.Duration
	MinRequestInterval time.Duration
	SearchMinInterval  time.Duration
	RefreshInterval    time.Duration
	SnapshotSize       int

	// Favorites persistence
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	FavoriteBackends []string

	// Inbound API protection
	RateLimit          string
	CORSAllowedOrigins []string

	// Product analytics
	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Every knob has a sensible default; PGSQL_URL and REDIS_ADDR are
// optional and simply disable their favorites backends when unset.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("COINGECKO_BASE_URL", "")
	viper.SetDefault("COINGECKO_API_KEY", "")
	viper.SetDefault("LISTING_TTL", "2m")
	viper.SetDefault("SEARCH_TTL", "7m")
	viper.SetDefault("MIN_REQUEST_INTERVAL", "10s")
	viper.SetDefault("SEARCH_MIN_INTERVAL", "30s")
	viper.SetDefault("REFRESH_INTERVAL", "2m")
	viper.SetDefault("SNAPSHOT_SIZE", 250)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("FAVORITE_BACKENDS", "pgsql,redis,memory")
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.CoinGeckoBaseURL = viper.GetString("COINGECKO_BASE_URL")
	cfg.CoinGeckoAPIKey = viper.GetString("COINGECKO_API_KEY")

	cfg.ListingTTL = durationOrDefault("LISTING_TTL", 2*time.Minute)
	cfg.SearchTTL = durationOrDefault("SEARCH_TTL", 7*time.Minute)
	cfg.MinRequestInterval = durationOrDefault("MIN_REQUEST_INTERVAL", 10*time.Second)
	cfg.SearchMinInterval = durationOrDefault("SEARCH_MIN_INTERVAL", 30*time.Second)
	cfg.RefreshInterval = durationOrDefault("REFRESH_INTERVAL", 2*time.Minute)

	cfg.SnapshotSize = viper.GetInt("SNAPSHOT_SIZE")
	if cfg.SnapshotSize < 1 {
		cfg.SnapshotSize = 250
		log.Printf("Warning: SNAPSHOT_SIZE must be positive. Defaulting to %d.\n", cfg.SnapshotSize)
	}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.FavoriteBackends = splitAndTrim(viper.GetString("FAVORITE_BACKENDS"))

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitAndTrim(viper.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}

// durationOrDefault parses a duration env value, falling back with a warning
// on bad input.
func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
