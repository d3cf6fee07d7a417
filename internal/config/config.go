// Package config loads the blog-thumbs service configuration.
package config

import (
	"time"

	infraconfig "github.com/jameskolean/blog-thumbs/infrastructure/config"
)

// Default configuration values.
const (
	defaultServiceName = "blog-thumbs"
	defaultServicePort = 8070
	defaultVersion     = "0.1.0"

	defaultBufferSize     = 1000
	defaultFlushThreshold = 200
	defaultFlushInterval  = time.Second

	defaultStorageDriver = DriverPostgres
	defaultDBName        = "blog_thumbs"
	defaultDBUser        = "postgres"

	defaultMaxVotes        = 20
	defaultRateLimitWindow = time.Minute

	defaultHeartbeat = 15 * time.Second
	defaultMaxSSE    = 500
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig              `yaml:"service"`
	Storage   StorageConfig              `yaml:"storage"`
	Database  infraconfig.DatabaseConfig `yaml:"database"`
	Redis     infraconfig.RedisConfig    `yaml:"redis"`
	RateLimit RateLimitConfig            `yaml:"rate_limit"`
	Content   ContentConfig              `yaml:"content"`
	Events    EventsConfig               `yaml:"events"`
	Auth      AuthConfig                 `yaml:"auth"`
	Logging   infraconfig.LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name           string        `yaml:"name"`
	Version        string        `yaml:"version"`
	Port           int           `env:"THUMBS_PORT"         yaml:"port"`
	Debug          bool          `env:"APP_DEBUG"           yaml:"debug"`
	CORSOrigins    []string      `env:"THUMBS_CORS_ORIGINS" yaml:"cors_origins"`
	BufferSize     int           `yaml:"buffer_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	FlushThreshold int           `yaml:"flush_threshold"`
}

// StorageConfig selects the counter repository.
type StorageConfig struct {
	Driver string `env:"THUMBS_STORAGE_DRIVER" yaml:"driver"`
}

// RateLimitConfig limits votes per client IP.
type RateLimitConfig struct {
	MaxVotes int           `yaml:"max_votes"`
	Window   time.Duration `yaml:"window"`
}

// ContentConfig points at the blog's markdown source.
type ContentConfig struct {
	// Dir is optional; without it the posts and tags endpoints return 503.
	Dir   string `env:"THUMBS_CONTENT_DIR" yaml:"dir"`
	Watch bool   `yaml:"watch"`
	// RequireKnownSlug rejects votes for slugs not in the catalog.
	RequireKnownSlug bool `yaml:"require_known_slug"`
}

// EventsConfig configures the SSE stream of rating updates.
type EventsConfig struct {
	Heartbeat  time.Duration `yaml:"heartbeat"`
	MaxClients int           `yaml:"max_clients"`
}

// AuthConfig guards the admin routes.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults(path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaultStorageDriver
	}

	if cfg.Database.User == "" {
		cfg.Database.User = defaultDBUser
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = defaultDBName
	}
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()

	if cfg.RateLimit.MaxVotes == 0 {
		cfg.RateLimit.MaxVotes = defaultMaxVotes
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = defaultRateLimitWindow
	}

	if cfg.Events.Heartbeat == 0 {
		cfg.Events.Heartbeat = defaultHeartbeat
	}
	if cfg.Events.MaxClients == 0 {
		cfg.Events.MaxClients = defaultMaxSSE
	}

	cfg.Logging.SetDefaults()
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.BufferSize == 0 {
		svc.BufferSize = defaultBufferSize
	}
	if svc.FlushInterval == 0 {
		svc.FlushInterval = defaultFlushInterval
	}
	if svc.FlushThreshold == 0 {
		svc.FlushThreshold = defaultFlushThreshold
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("service.buffer_size", c.Service.BufferSize); err != nil {
		return err
	}
	if c.Service.FlushThreshold > c.Service.BufferSize {
		return &infraconfig.ValidationError{
			Field:   "service.flush_threshold",
			Message: "must not exceed service.buffer_size",
		}
	}
	if err := infraconfig.ValidateOneOf("storage.driver", c.Storage.Driver,
		DriverPostgres, DriverRedis, DriverMemory); err != nil {
		return err
	}
	if c.Storage.Driver == DriverPostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if c.Storage.Driver == DriverRedis {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}
	if err := infraconfig.ValidatePositive("rate_limit.max_votes", c.RateLimit.MaxVotes); err != nil {
		return err
	}
	if c.Content.RequireKnownSlug && c.Content.Dir == "" {
		return &infraconfig.ValidationError{
			Field:   "content.require_known_slug",
			Message: "requires content.dir",
		}
	}
	return c.Logging.Validate()
}
