package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"github.com/camden-git/namerecall/logging"
	"github.com/camden-git/namerecall/store"
)

const (
	DefaultCacheName = "anoano-store"
	DefaultPort      = "8080"
)

type Config struct {
	// http listener
	Port string `envconfig:"PORT" default:"8080"`
	Host string `envconfig:"HOST" default:""`

	// storage
	DatabasePath        string `envconfig:"DATABASE_PATH" default:"namerecall.db"`
	StoreDriver         string `envconfig:"STORE_DRIVER" default:"sql"`
	StoreResetOnCorrupt bool   `envconfig:"STORE_RESET_ON_CORRUPT" default:"false"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	// avatar reading
	AvatarMaxSize        int   `envconfig:"AVATAR_MAX_SIZE" default:"512"`
	AvatarMaxUploadBytes int64 `envconfig:"AVATAR_MAX_UPLOAD_BYTES" default:"10485760"`
	AvatarWorkers        int   `envconfig:"AVATAR_WORKERS" default:"2"`
	AvatarQueueSize      int   `envconfig:"AVATAR_QUEUE_SIZE" default:"16"`

	// shell asset cache
	CacheName string `envconfig:"CACHE_NAME" default:"anoano-store"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// LoadConfig reads the environment (after any .env file has been applied) and
// validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Driver() != store.DriverMemory {
		abs, err := filepath.Abs(cfg.DatabasePath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path for database '%s': %w", cfg.DatabasePath, err)
		}
		cfg.DatabasePath = abs
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the app can't start with.
func (c Config) Validate() error {
	var errs []error
	if !c.Driver().Valid() {
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Driver() != store.DriverMemory && c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.AvatarMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("AVATAR_MAX_SIZE must be positive, got %d", c.AvatarMaxSize))
	}
	if c.AvatarMaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("AVATAR_MAX_UPLOAD_BYTES must be positive, got %d", c.AvatarMaxUploadBytes))
	}
	if c.AvatarWorkers <= 0 {
		errs = append(errs, fmt.Errorf("AVATAR_WORKERS must be positive, got %d", c.AvatarWorkers))
	}
	if c.AvatarQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("AVATAR_QUEUE_SIZE must be positive, got %d", c.AvatarQueueSize))
	}
	if c.CacheName == "" {
		errs = append(errs, errors.New("CACHE_NAME must not be empty"))
	}
	return errors.Join(errs...)
}

func (c Config) Driver() store.Driver {
	return store.Driver(c.StoreDriver)
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Development = c.LogDev
	return cfg
}
