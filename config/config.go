// Package config loads the task tracker settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/task"
)

var (
	ErrInvalidDriver   = errors.New("invalid store driver")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrMissingDSN      = errors.New("DATABASE_URL is required for the postgres driver")
	ErrInvalidValue    = errors.New("invalid value")
)

// Config holds all runtime settings.
type Config struct {
	HTTPAddr           string
	CORSAllowedOrigins string
	AccessLog          bool

	Store task.StoreConfig

	RedisAddr     string
	RedisPassword string
	CachePrefix   string
	CacheTTL      time.Duration

	ActivityLimit   int
	ShutdownTimeout time.Duration
	LogLevel        string
}

// Load reads the configuration from environment variables, applying defaults
// for unset keys. Malformed values are errors rather than silently defaulted.
func Load() (Config, error) {
	var errs []error
	cacheDefaults := cache.DefaultConfig()

	cfg := Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":3000"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		AccessLog:          getEnvBool("ACCESS_LOG", true, &errs),
		Store: task.StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", task.DriverMemory)),
			DBPath:        getEnv("DB_PATH", "tasks.db"),
			DatabaseURL:   getEnv("DATABASE_URL", ""),
			DBDebug:       getEnvBool("DB_DEBUG", false, &errs),
			SeedDemoTasks: getEnvBool("SEED_DEMO_TASKS", true, &errs),
		},
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CachePrefix:     getEnv("CACHE_PREFIX", cacheDefaults.Prefix),
		CacheTTL:        getEnvDuration("CACHE_TTL", cacheDefaults.TTL, &errs),
		ActivityLimit:   getEnvInt("ACTIVITY_LIMIT", 100, &errs),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second, &errs),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error

	switch c.Store.Driver {
	case task.DriverMemory, task.DriverSQLite:
	case task.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, ErrMissingDSN)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q (want memory, sqlite or postgres)", ErrInvalidDriver, c.Store.Driver))
	}

	switch c.LogLevel {
	case "info", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: %q (want info or error)", ErrInvalidLogLevel, c.LogLevel))
	}

	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: CACHE_TTL must be positive", ErrInvalidValue))
	}
	if c.ActivityLimit < 1 {
		errs = append(errs, fmt.Errorf("%w: ACTIVITY_LIMIT must be at least 1", ErrInvalidValue))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: SHUTDOWN_TIMEOUT must be positive", ErrInvalidValue))
	}
	return errs
}

// CacheEnabled reports whether a Redis address was configured.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Cache returns the Redis cache settings.
func (c Config) Cache() cache.Config {
	return cache.Config{
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		Prefix:        c.CachePrefix,
		TTL:           c.CacheTTL,
	}
}

// API returns the HTTP server settings.
func (c Config) API() api.Config {
	return api.Config{
		Addr:               c.HTTPAddr,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		AccessLog:          c.AccessLog,
	}
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, key, value))
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidValue, key, value))
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidValue, key, value))
		return defaultValue
	}
	return d
}
