package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Matching  MatchingConfig
	Hash      HashConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MatchingConfig holds the matching engine tunables. The defaults are
// empirically tuned starting points, not derived constants; recalibrate
// against a labeled dataset before trusting them in a new deployment.
type MatchingConfig struct {
	TextWeight      float64 `mapstructure:"text_weight"`
	ImageWeight     float64 `mapstructure:"image_weight"`
	Threshold       float64 `mapstructure:"threshold"`
	CharWeight      float64 `mapstructure:"char_weight"`
	BigramWeight    float64 `mapstructure:"bigram_weight"`
	TrigramWeight   float64 `mapstructure:"trigram_weight"`
	BlockingEnabled bool    `mapstructure:"blocking_enabled"`
	Workers         int     `mapstructure:"workers"`
	DebugLogging    bool    `mapstructure:"debug_logging"`
}

// HashConfig selects the perceptual hash strategy. One algorithm version
// must be used consistently across a batch.
type HashConfig struct {
	Algorithm string `mapstructure:"algorithm"` // "dhash" or "ahash"
	Size      int    `mapstructure:"size"`
}

// CacheConfig holds the derivation cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/magflow/")

	// Environment variable settings
	v.SetEnvPrefix("MAGFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Matching defaults
	v.SetDefault("matching.text_weight", 0.6)
	v.SetDefault("matching.image_weight", 0.4)
	v.SetDefault("matching.threshold", 0.75)
	v.SetDefault("matching.char_weight", 0.4)
	v.SetDefault("matching.bigram_weight", 0.4)
	v.SetDefault("matching.trigram_weight", 0.2)
	v.SetDefault("matching.blocking_enabled", false)
	v.SetDefault("matching.workers", 4)
	v.SetDefault("matching.debug_logging", false)

	// Hash defaults
	v.SetDefault("hash.algorithm", "dhash")
	v.SetDefault("hash.size", 8)

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	m := config.Matching
	if m.Threshold < 0 || m.Threshold > 1 {
		return fmt.Errorf("matching threshold must be in [0,1], got: %v", m.Threshold)
	}
	if m.TextWeight < 0 || m.ImageWeight < 0 {
		return fmt.Errorf("hybrid weights must be non-negative")
	}
	if m.TextWeight+m.ImageWeight == 0 {
		return fmt.Errorf("hybrid weights must sum to a positive value")
	}
	if m.CharWeight < 0 || m.BigramWeight < 0 || m.TrigramWeight < 0 {
		return fmt.Errorf("text blend weights must be non-negative")
	}
	if m.CharWeight+m.BigramWeight+m.TrigramWeight == 0 {
		return fmt.Errorf("text blend weights must sum to a positive value")
	}
	if m.Workers < 1 {
		return fmt.Errorf("matching workers must be at least 1, got: %d", m.Workers)
	}

	if config.Hash.Algorithm != "dhash" && config.Hash.Algorithm != "ahash" {
		return fmt.Errorf("hash algorithm must be 'dhash' or 'ahash', got: %s", config.Hash.Algorithm)
	}
	if config.Hash.Size < 4 {
		return fmt.Errorf("hash size must be at least 4, got: %d", config.Hash.Size)
	}

	if config.RateLimit.PerIP < 1 {
		return fmt.Errorf("ratelimit per_ip must be at least 1, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
