package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Cache drivers
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string        `yaml:"port" env:"SERVER_PORT"`
		Mode           string        `yaml:"mode" env:"SERVER_MODE"`
		RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
	} `yaml:"database"`

	Cache struct {
		Driver         string        `yaml:"driver" env:"CACHE_DRIVER"`
		RedisAddr      string        `yaml:"redis_addr" env:"CACHE_REDIS_ADDR"`
		RedisPassword  string        `yaml:"redis_password" env:"CACHE_REDIS_PASSWORD"`
		RedisDB        int           `yaml:"redis_db" env:"CACHE_REDIS_DB"`
		KeyPrefix      string        `yaml:"key_prefix" env:"CACHE_KEY_PREFIX"`
		SnapshotTTL    time.Duration `yaml:"snapshot_ttl" env:"CACHE_SNAPSHOT_TTL"`
		LastVisitedTTL time.Duration `yaml:"last_visited_ttl" env:"CACHE_LAST_VISITED_TTL"`
		OpTimeout      time.Duration `yaml:"op_timeout" env:"CACHE_OP_TIMEOUT"`
	} `yaml:"cache"`

	Enrollment struct {
		// CountPendingAtCreation makes pending enrollments hold a seat when new attempts are checked.
		CountPendingAtCreation bool `yaml:"count_pending_at_creation" env:"ENROLLMENT_COUNT_PENDING_AT_CREATION"`
		ConflictRetries        int  `yaml:"conflict_retries" env:"ENROLLMENT_CONFLICT_RETRIES"`
	} `yaml:"enrollment"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Telemetry struct {
		Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED"`
		Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
		ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	} `yaml:"telemetry"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional, environment variables alone are enough
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.RequestTimeout = 15 * time.Second

	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "enrollment"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.SQLitePath = "data/enrollment.db"

	config.Cache.Driver = CacheRedis
	config.Cache.RedisAddr = "localhost:6379"
	config.Cache.KeyPrefix = "enrollment"
	config.Cache.SnapshotTTL = 60 * time.Second
	config.Cache.LastVisitedTTL = 120 * time.Second
	config.Cache.OpTimeout = 500 * time.Millisecond

	config.Enrollment.CountPendingAtCreation = true
	config.Enrollment.ConflictRetries = 1

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "enrollment.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Telemetry.ServiceName = "enrollment-api"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Database.Driver) {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid connection max lifetime: %w", err)
		}
	case DriverSQLite:
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	switch strings.ToLower(config.Cache.Driver) {
	case CacheRedis:
		if config.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis cache driver")
		}
	case CacheMemory, CacheNone:
	default:
		return fmt.Errorf("unsupported cache driver %q", config.Cache.Driver)
	}

	if config.Cache.SnapshotTTL <= 0 || config.Cache.LastVisitedTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if config.Enrollment.ConflictRetries < 0 {
		return fmt.Errorf("conflict retries cannot be negative")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
