// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port       string `mapstructure:"PORT"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	RedisURL   string `mapstructure:"REDIS_URL"`
	Env        string `mapstructure:"APP_ENV"`

	// AuthSecret is the shared secret every signed request is verified
	// against. Possession of this secret is the whole authentication
	// boundary of the protocol.
	AuthSecret string `mapstructure:"AUTH_SECRET"`
	// AuthSkewSeconds is the allowed clock skew for signed requests and
	// doubles as the replay-nonce retention window.
	AuthSkewSeconds int `mapstructure:"AUTH_SKEW_SECONDS"`
	// CommentIntervalSeconds is the per-author minimum gap between
	// accepted comments.
	CommentIntervalSeconds int `mapstructure:"COMMENT_INTERVAL_SECONDS"`
	// TempKeyTTLMinutes is the lifetime of a freshly issued temp key.
	TempKeyTTLMinutes int `mapstructure:"TEMP_KEY_TTL_MINUTES"`
	// WsKeyTTLMinutes is the lifetime of a per-conversation transport key.
	WsKeyTTLMinutes int `mapstructure:"WS_KEY_TTL_MINUTES"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// AuthSkew returns the signed-request clock-skew window as a duration.
func (c *Config) AuthSkew() time.Duration {
	return time.Duration(c.AuthSkewSeconds) * time.Second
}

// CommentInterval returns the per-author comment rate-limit window.
func (c *Config) CommentInterval() time.Duration {
	return time.Duration(c.CommentIntervalSeconds) * time.Second
}

// TempKeyTTL returns the temp-key lifetime.
func (c *Config) TempKeyTTL() time.Duration {
	return time.Duration(c.TempKeyTTLMinutes) * time.Minute
}

// WsKeyTTL returns the ws-key lifetime.
func (c *Config) WsKeyTTL() time.Duration {
	return time.Duration(c.WsKeyTTLMinutes) * time.Minute
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars and defaults are enough.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err == nil {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8081")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "parley")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("AUTH_SECRET", "sso-secret-change-in-production")
	viper.SetDefault("AUTH_SKEW_SECONDS", 300)
	viper.SetDefault("COMMENT_INTERVAL_SECONDS", 3)
	viper.SetDefault("TEMP_KEY_TTL_MINUTES", 3)
	viper.SetDefault("WS_KEY_TTL_MINUTES", 10)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AuthSecret == "" {
		return errors.New("AUTH_SECRET is required")
	}
	if c.AuthSkewSeconds <= 0 {
		return errors.New("AUTH_SKEW_SECONDS must be positive")
	}
	if c.CommentIntervalSeconds < 0 {
		return errors.New("COMMENT_INTERVAL_SECONDS must not be negative")
	}
	if c.TempKeyTTLMinutes <= 0 || c.WsKeyTTLMinutes <= 0 {
		return errors.New("key TTLs must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.AuthSecret == "sso-secret-change-in-production" {
			return errors.New("AUTH_SECRET must be changed from the default value in production")
		}
		if len(c.AuthSecret) < 32 {
			return errors.New("AUTH_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	}

	return nil
}
