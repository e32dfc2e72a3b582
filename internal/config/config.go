// Package config loads runtime settings from defaults, an optional config
// file, and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/msomdec/cinelist/internal/imaging"
)

const minJWTSecretLen = 32

// Config holds every setting the binary reads at startup.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	BcryptCost   int
	CookieSecure bool
	// MetricsAddr serves /metrics on its own listener when set; otherwise
	// /metrics is mounted on the API mux.
	MetricsAddr string
	LogLevel    slog.Level

	Image imaging.Limits
}

// Load reads configuration. configFile may be empty; when set it must exist.
// Environment variables use the upper-cased key names, e.g. IMAGE_MAX_DIMENSION.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	defaults := imaging.DefaultLimits()
	v.SetDefault("port", "8080")
	v.SetDefault("database_path", "cinelist.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("bcrypt_cost", 12)
	// Secure cookies by default; disable only for local development.
	v.SetDefault("cookie_secure", true)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("image_max_dimension", defaults.MaxDimension)
	v.SetDefault("image_jpeg_quality", defaults.JPEGQuality)
	v.SetDefault("image_max_encoded_size", defaults.MaxEncodedSize)
	v.SetDefault("image_max_source_size", defaults.MaxSourceSize)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return &Config{
		Port:         v.GetString("port"),
		DatabasePath: v.GetString("database_path"),
		JWTSecret:    v.GetString("jwt_secret"),
		BcryptCost:   v.GetInt("bcrypt_cost"),
		CookieSecure: v.GetBool("cookie_secure"),
		MetricsAddr:  v.GetString("metrics_addr"),
		LogLevel:     level,
		Image: imaging.Limits{
			MaxDimension:   v.GetInt("image_max_dimension"),
			JPEGQuality:    v.GetFloat64("image_jpeg_quality"),
			MaxEncodedSize: v.GetInt("image_max_encoded_size"),
			MaxSourceSize:  v.GetInt64("image_max_source_size"),
		},
	}, nil
}

// Validate checks the settings the server needs. The image-only commands
// call Image.Validate directly since they never touch accounts.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minJWTSecretLen))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if err := c.Image.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("image limits: %w", err))
	}
	return errors.Join(errs...)
}
