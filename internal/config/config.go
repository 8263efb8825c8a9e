package config

import (
	"os"
	"strconv"
	"strings"
)

// DefaultRegion is used when no region is supplied.
const DefaultRegion = "us-east-1"

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Offload  OffloadConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	Mode        string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	// JWTSecret guards the admin API. Empty disables auth (local development).
	JWTSecret string
}

// OffloadConfig configures the media/asset CDN offload subsystem.
type OffloadConfig struct {
	Bucket    string
	CDNUrl    string
	Region    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string

	// Enabled defaults to true once Bucket and CDNUrl are set.
	// An explicit "0" turns the subsystem off.
	Enabled bool
	// Minify enables the CSS/JS asset pipeline's minification step.
	Minify bool

	MediaRoot     string
	MediaBaseURL  string
	StaticRoot    string
	StaticBaseURL string
}

// IsConfigured reports whether the minimum offload settings are present.
func (o OffloadConfig) IsConfigured() bool {
	return o.Bucket != "" && o.CDNUrl != ""
}

// LoadConfig loads configuration from environment variables.
// Missing optional offload fields are not an error; the subsystem
// simply stays disabled until bucket and CDN URL are supplied.
func LoadConfig() (*Config, error) {
	bucket := getEnv("CDN_BUCKET", "")
	cdnURL := strings.TrimRight(getEnv("CDN_URL", ""), "/")
	enabled := bucket != "" && cdnURL != "" && getEnv("CDN_ENABLED", "") != "0"

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
			Mode:        getEnv("APP_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "cribops"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Offload: OffloadConfig{
			Bucket:        bucket,
			CDNUrl:        cdnURL,
			Region:        getEnv("CDN_REGION", DefaultRegion),
			Prefix:        strings.Trim(getEnv("CDN_PREFIX", ""), "/"),
			Endpoint:      getEnv("CDN_ENDPOINT", ""),
			AccessKey:     getEnv("CDN_ACCESS_KEY", ""),
			SecretKey:     getEnv("CDN_SECRET_KEY", ""),
			Enabled:       enabled,
			Minify:        getEnvAsBool("CDN_MINIFY", false),
			MediaRoot:     getEnv("MEDIA_ROOT", "uploads"),
			MediaBaseURL:  strings.TrimRight(getEnv("MEDIA_BASE_URL", ""), "/"),
			StaticRoot:    getEnv("STATIC_ROOT", "static"),
			StaticBaseURL: strings.TrimRight(getEnv("STATIC_BASE_URL", ""), "/"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
